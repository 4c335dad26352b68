package grpc

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/testhealth/internal/endpoint"
	"github.com/example/testhealth/internal/logging"
)

// Server is the gRPC server for HealthAnalyzer.
type Server struct {
	endpoints  endpoint.Endpoints
	logger     logrus.FieldLogger
	grpcServer *grpc.Server
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logrus.FieldLogger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new gRPC server.
func NewServer(endpoints endpoint.Endpoints, opts ...ServerOption) *Server {
	s := &Server{
		endpoints: endpoints,
	}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "grpc")

	// Create gRPC server with interceptors
	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(s.logger),
			RecoveryInterceptor(s.logger),
		),
	)

	// Register the service
	RegisterHealthAnalyzerServer(s.grpcServer, s)

	// Enable reflection for grpcurl and other tools
	reflection.Register(s.grpcServer)

	return s
}

// Serve starts the gRPC server on the given address.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	s.logger.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully stops the server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// LoggingInterceptor returns a gRPC interceptor that logs requests and their duration.
func LoggingInterceptor(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		// Attempt to extract the report ID for better logging
		reportID := extractReportID(req)

		resp, err := handler(ctx, req)

		entry := logger.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"duration": time.Since(start),
		})
		if reportID != "" {
			entry = entry.WithField("report", reportID)
		}
		if err != nil {
			entry.WithError(err).Warn("gRPC call failed")
		} else {
			entry.Debug("gRPC call")
		}
		return resp, err
	}
}

func extractReportID(req interface{}) string {
	if s, ok := req.(*structpb.Struct); ok {
		if v, ok := s.GetFields()["id"]; ok {
			return v.GetStringValue()
		}
	}
	return ""
}

// RecoveryInterceptor returns a gRPC interceptor that recovers from panics.
func RecoveryInterceptor(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithField("method", info.FullMethod).Errorf("gRPC panic recovered: %v", r)
				err = endpoint.MapErrorToStatus(errPanic)
			}
		}()
		return handler(ctx, req)
	}
}
