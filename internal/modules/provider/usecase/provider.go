package usecase

import (
	"context"

	"sleeptrack/internal/modules/provider/dto"
	providerin "sleeptrack/internal/modules/provider/port/in"
	"sleeptrack/internal/modules/provider/service"
)

type Interactor struct {
	svc *service.ProviderService
}

func NewInteractor(svc *service.ProviderService) providerin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) CheckAvailability(ctx context.Context, name string) (dto.AvailabilityOutput, error) {
	return i.svc.CheckAvailability(ctx, name)
}

func (i *Interactor) FetchRecords(ctx context.Context, input dto.FetchInput) (dto.FetchOutput, error) {
	return i.svc.FetchRecords(ctx, input)
}
