package endpoint

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/testhealth/internal/service"
)

func validateAnalyzeRequest(req *service.AnalyzeRequest) error {
	if req.Summary == nil {
		return status.Error(codes.InvalidArgument, "summary is required")
	}
	if req.HistoryRuns < 0 {
		return status.Errorf(codes.InvalidArgument, "history_runs must not be negative, got %d", req.HistoryRuns)
	}
	if req.History != nil && req.UseStoredHistory {
		return status.Error(codes.InvalidArgument, "history and use_stored_history are mutually exclusive")
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < 0 {
		return status.Errorf(codes.InvalidArgument, "limit must not be negative, got %d", limit)
	}
	return nil
}
