package payments

import (
	"context"
)

// Service is the transport-facing facade: one method per lifecycle
// operation, each running the shared pipeline with its variant.
type Service struct {
	pipeline *Pipeline
	useV2    bool
}

func NewService(pipeline *Pipeline, responseSchemaV2 bool) *Service {
	return &Service{pipeline: pipeline, useV2: responseSchemaV2}
}

func (s *Service) Create(ctx context.Context, merchant MerchantContext, req *Request) (any, error) {
	return s.run(ctx, CreateOperation{}, merchant, req)
}

func (s *Service) Confirm(ctx context.Context, merchant MerchantContext, req *Request) (any, error) {
	return s.run(ctx, ConfirmOperation{}, merchant, req)
}

func (s *Service) Capture(ctx context.Context, merchant MerchantContext, req *Request) (any, error) {
	return s.run(ctx, CaptureOperation{}, merchant, req)
}

func (s *Service) Cancel(ctx context.Context, merchant MerchantContext, req *Request) (any, error) {
	return s.run(ctx, CancelOperation{}, merchant, req)
}

func (s *Service) Reject(ctx context.Context, merchant MerchantContext, req *Request) (any, error) {
	return s.run(ctx, RejectOperation{}, merchant, req)
}

func (s *Service) Sync(ctx context.Context, merchant MerchantContext, req *Request) (any, error) {
	return s.run(ctx, SyncOperation{}, merchant, req)
}

func (s *Service) ExpandAuthorization(ctx context.Context, merchant MerchantContext, req *Request) (any, error) {
	return s.run(ctx, IncrementalAuthorizationOperation{}, merchant, req)
}

func (s *Service) run(ctx context.Context, op Operation, merchant MerchantContext, req *Request) (any, error) {
	ws, err := s.pipeline.Run(ctx, op, req, merchant)
	if err != nil {
		return nil, err
	}
	return BuildResponse(ws, s.useV2), nil
}
