package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/storage"
)

// Client calls a remote HealthAnalyzer service.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Analyze submits an analyze request. req has the HTTP analyze body shape.
func (c *Client) Analyze(ctx context.Context, req map[string]any) (*domain.HealthReport, error) {
	out, err := c.call(ctx, AnalyzeMethod, req)
	if err != nil {
		return nil, err
	}
	report := &domain.HealthReport{}
	if err := decodeStruct(out, report); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return report, nil
}

// GetReport fetches a stored report.
func (c *Client) GetReport(ctx context.Context, id string) (*domain.HealthReport, error) {
	out, err := c.call(ctx, GetReportMethod, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	report := &domain.HealthReport{}
	if err := decodeStruct(out, report); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return report, nil
}

// ListReports lists stored reports, newest first (limit 0 = all).
func (c *Client) ListReports(ctx context.Context, limit int) ([]*storage.ReportInfo, error) {
	out, err := c.call(ctx, ListReportsMethod, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Reports []*storage.ReportInfo `json:"reports"`
	}
	if err := decodeStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return resp.Reports, nil
}

func (c *Client) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
