package endpoint

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/health/engine"
	"github.com/example/testhealth/internal/service"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: report x", domain.ErrNotFound), codes.NotFound},
		{fmt.Errorf("%w: bad summary", domain.ErrInvalidInput), codes.InvalidArgument},
		{domain.ErrInvalidConfig, codes.FailedPrecondition},
		{domain.ErrBackendUnavailable, codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{status.Error(codes.Aborted, "already a status"), codes.Aborted},
		{errors.New("disk on fire"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(MapErrorToStatus(tt.err)))
		})
	}
	assert.NoError(t, MapErrorToStatus(nil))

	// Internal errors do not leak details.
	assert.Equal(t, "internal error", status.Convert(MapErrorToStatus(errors.New("secret"))).Message())
}

func TestEndpointsValidate(t *testing.T) {
	eng, err := engine.New(domain.DefaultConfig())
	require.NoError(t, err)
	eps := MakeEndpoints(service.NewAnalysisService(eng))
	ctx := context.Background()

	_, err = eps.Analyze(ctx, &service.AnalyzeRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = eps.Analyze(ctx, &service.AnalyzeRequest{
		Summary:          map[string]any{},
		History:          map[string]any{},
		UseStoredHistory: true,
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = eps.GetReport(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = eps.ListReports(ctx, -1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	resp, err := eps.Analyze(ctx, &service.AnalyzeRequest{
		Summary: map[string]any{"total_test_cases": 2, "passed_tests": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.(*domain.HealthReport).HealthScore)
}
