package grpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/health/engine"
	"github.com/example/testhealth/internal/endpoint"
	"github.com/example/testhealth/internal/logging"
	"github.com/example/testhealth/internal/service"
	"github.com/example/testhealth/internal/storage"
	"github.com/example/testhealth/internal/storage/sqlite"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "grpc_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(domain.DefaultConfig())
	require.NoError(t, err)
	svc := service.NewAnalysisService(eng, service.WithStore(storage.NewRepository(store)))

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(endpoint.MakeEndpoints(svc))
	go srv.ServeListener(lis)
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewClient(conn)
}

func TestAnalyzeRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	report, err := client.Analyze(ctx, map[string]any{
		"summary": map[string]any{
			"total_test_cases": 4,
			"passed_tests":     3,
			"failed_tests":     1,
			"failed_test_details": []any{
				map[string]any{"name": "checkout", "file": "checkout.spec.ts", "error": "Timeout 30000ms exceeded"},
			},
		},
		"history": map[string]any{
			"checkout": []any{"passed", "failed", "passed", "failed", "passed", "failed"},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 75.0, report.PassRate)
	assert.Equal(t, "statistical-only", report.Engine)
	require.Len(t, report.FailureCategorization, 1)
	assert.Equal(t, "TIMEOUT", report.FailureCategorization[0].Category)
	require.Len(t, report.FlakyTests, 1)

	stored, err := client.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.HealthScore, stored.HealthScore)
	assert.Equal(t, report.ID, stored.ID)

	list, err := client.ListReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, report.ID, list[0].ID)
}

func TestErrorCodes(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Analyze(ctx, map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetReport(ctx, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetReport(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ListReports(ctx, -3)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(logging.Discard())
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: AnalyzeMethod},
		func(ctx context.Context, req any) (any, error) {
			panic("boom")
		})
	assert.Equal(t, codes.Internal, status.Code(err))
}

// echoServer answers every method with the name it was called as.
type echoServer struct{}

func (echoServer) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"method": "Analyze"})
}

func (echoServer) GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"method": "GetReport", "id": req.GetFields()["id"].GetStringValue()})
}

func (echoServer) ListReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"method": "ListReports"})
}

func TestServiceDescHandlers(t *testing.T) {
	ctx := context.Background()
	dec := func(v any) error {
		in, err := structpb.NewStruct(map[string]any{"id": "r-1"})
		if err != nil {
			return err
		}
		v.(*structpb.Struct).Fields = in.Fields
		return nil
	}

	require.Len(t, ServiceDesc.Methods, 3)
	for _, m := range ServiceDesc.Methods {
		t.Run(m.MethodName, func(t *testing.T) {
			out, err := m.Handler(echoServer{}, ctx, dec, nil)
			require.NoError(t, err)
			assert.Equal(t, m.MethodName, out.(*structpb.Struct).AsMap()["method"])

			var seen string
			interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
				seen = info.FullMethod
				return handler(ctx, req)
			}
			out, err = m.Handler(echoServer{}, ctx, dec, interceptor)
			require.NoError(t, err)
			assert.Equal(t, "/"+ServiceName+"/"+m.MethodName, seen)
			assert.Equal(t, m.MethodName, out.(*structpb.Struct).AsMap()["method"])
		})
	}
}
