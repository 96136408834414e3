package in

import (
	"context"

	"sleeptrack/internal/modules/provider/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.ProviderInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	CheckAvailability(ctx context.Context, name string) (dto.AvailabilityOutput, error)
	FetchRecords(ctx context.Context, input dto.FetchInput) (dto.FetchOutput, error)
}
