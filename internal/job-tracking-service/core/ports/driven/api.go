package driven

import (
	"context"

	"mechanic-setu/internal/job-tracking-service/core/domain/dto"
)

// Backend is the product's HTTP API, an external collaborator.
type Backend interface {
	FetchWSToken(ctx context.Context) (string, error)
	CreateRequest(ctx context.Context, req dto.CreateServiceRequest) (string, error)
	CancelRequest(ctx context.Context, requestID, reason string) error
}
