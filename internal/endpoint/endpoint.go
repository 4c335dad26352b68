package endpoint

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/service"
)

// Endpoint is a function that takes a request and returns a response.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Endpoints holds all endpoint handlers.
type Endpoints struct {
	Analyze     Endpoint
	GetReport   Endpoint
	ListReports Endpoint
}

// MakeEndpoints creates all endpoints from the service.
func MakeEndpoints(svc *service.AnalysisService) Endpoints {
	return Endpoints{
		Analyze:     makeAnalyzeEndpoint(svc),
		GetReport:   makeGetReportEndpoint(svc),
		ListReports: makeListReportsEndpoint(svc),
	}
}

func makeAnalyzeEndpoint(svc *service.AnalysisService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*service.AnalyzeRequest)
		if err := validateAnalyzeRequest(req); err != nil {
			return nil, err
		}
		return svc.Analyze(ctx, req)
	}
}

func makeGetReportEndpoint(svc *service.AnalysisService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id := request.(string)
		if id == "" {
			return nil, status.Error(codes.InvalidArgument, "report ID is required")
		}
		return svc.GetReport(ctx, id)
	}
}

func makeListReportsEndpoint(svc *service.AnalysisService) Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		limit := request.(int)
		if err := validateLimit(limit); err != nil {
			return nil, err
		}
		return svc.ListReports(ctx, limit)
	}
}

// MapErrorToStatus maps domain errors to gRPC status codes.
func MapErrorToStatus(err error) error {
	if err == nil {
		return nil
	}

	// Already a gRPC status error
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInvalidConfig):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrBackendUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
