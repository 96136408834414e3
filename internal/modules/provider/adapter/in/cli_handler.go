package in

import (
	"context"

	"sleeptrack/internal/modules/provider/dto"
	providerin "sleeptrack/internal/modules/provider/port/in"
)

type CLIHandler struct {
	usecase providerin.Usecase
}

func NewCLIHandler(usecase providerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

func (h CLIHandler) CheckAvailability(ctx context.Context, name string) (dto.AvailabilityOutput, error) {
	return h.usecase.CheckAvailability(ctx, name)
}
