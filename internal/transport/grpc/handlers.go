package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/endpoint"
	"github.com/example/testhealth/internal/service"
	"github.com/example/testhealth/internal/storage"
)

var errPanic = errors.New("handler panicked")

// analyzeRequest mirrors the HTTP analyze body.
type analyzeRequest struct {
	Summary          map[string]any `mapstructure:"summary"`
	History          map[string]any `mapstructure:"history"`
	UseStoredHistory bool           `mapstructure:"useStoredHistory"`
	HistoryRuns      int            `mapstructure:"historyRuns"`
	Record           bool           `mapstructure:"record"`
	Source           string         `mapstructure:"source"`
}

type getReportRequest struct {
	ID string `mapstructure:"id"`
}

type listReportsRequest struct {
	Limit int `mapstructure:"limit"`
}

// Analyze implements the Analyze RPC.
func (s *Server) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r analyzeRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, err
	}

	resp, err := s.endpoints.Analyze(ctx, &service.AnalyzeRequest{
		Summary:          r.Summary,
		History:          r.History,
		UseStoredHistory: r.UseStoredHistory,
		HistoryRuns:      r.HistoryRuns,
		Record:           r.Record,
		Source:           r.Source,
	})
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}

	return toStruct(resp.(*domain.HealthReport))
}

// GetReport implements the GetReport RPC.
func (s *Server) GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r getReportRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, err
	}

	resp, err := s.endpoints.GetReport(ctx, r.ID)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}

	return toStruct(resp.(*domain.HealthReport))
}

// ListReports implements the ListReports RPC.
func (s *Server) ListReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r listReportsRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, err
	}

	resp, err := s.endpoints.ListReports(ctx, r.Limit)
	if err != nil {
		return nil, endpoint.MapErrorToStatus(err)
	}

	reports := resp.([]*storage.ReportInfo)
	if reports == nil {
		reports = []*storage.ReportInfo{}
	}
	return toStruct(map[string]any{"reports": reports})
}

// Conversion functions

func fromStruct(in *structpb.Struct, out any) error {
	if err := mapstructure.Decode(in.AsMap(), out); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

// toStruct converts v to a Struct through its JSON encoding, so gRPC
// clients see the same field names as HTTP clients.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func decodeStruct(in *structpb.Struct, out any) error {
	data, err := in.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
