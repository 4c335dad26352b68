package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "testhealth.v1.HealthAnalyzer"

// Full method names.
const (
	AnalyzeMethod     = "/" + ServiceName + "/Analyze"
	GetReportMethod   = "/" + ServiceName + "/GetReport"
	ListReportsMethod = "/" + ServiceName + "/ListReports"
)

// HealthAnalyzerServer is the server API of the HealthAnalyzer service.
// Requests and responses carry the same JSON shapes as the HTTP API.
type HealthAnalyzerServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the HealthAnalyzer service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HealthAnalyzerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: unaryHandler(AnalyzeMethod, HealthAnalyzerServer.Analyze)},
		{MethodName: "GetReport", Handler: unaryHandler(GetReportMethod, HealthAnalyzerServer.GetReport)},
		{MethodName: "ListReports", Handler: unaryHandler(ListReportsMethod, HealthAnalyzerServer.ListReports)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "testhealth/v1/health_analyzer.proto",
}

// RegisterHealthAnalyzerServer registers srv on s.
func RegisterHealthAnalyzerServer(s grpc.ServiceRegistrar, srv HealthAnalyzerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type structMethod func(HealthAnalyzerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HealthAnalyzerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(HealthAnalyzerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
