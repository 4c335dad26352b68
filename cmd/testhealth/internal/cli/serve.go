package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/testhealth/cmd/testhealth/internal/ui"
	"github.com/example/testhealth/internal/endpoint"
	"github.com/example/testhealth/internal/service"
	grpcTransport "github.com/example/testhealth/internal/transport/grpc"
	"github.com/example/testhealth/internal/web"
)

const shutdownTimeout = 10 * time.Second

var (
	httpAddr string
	grpcAddr string
	noGRPC   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP and gRPC",
	Long: `Start the HTTP JSON API and the gRPC service.

Every analysis is stored in the history database and can be fetched later
by report ID.

HTTP:
  POST /api/analyze        analyze a run ({"summary": ..., "history": ...})
  GET  /api/reports        list stored reports
  GET  /api/reports/{id}   fetch a stored report
  GET  /healthz            liveness
  GET  /metrics            Prometheus metrics

gRPC:
  testhealth.v1.HealthAnalyzer/{Analyze,GetReport,ListReports}

EXAMPLES:
  # Serve on the configured addresses
  testhealth serve

  # HTTP only, on a custom port
  testhealth serve --http-addr :9090 --no-grpc`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (overrides config)")
	serveCmd.Flags().BoolVar(&noGRPC, "no-grpc", false, "do not start the gRPC server")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle Ctrl+C gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			ui.PrintWarning("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	e, err := loadEnv()
	if err != nil {
		return err
	}
	if httpAddr != "" {
		e.cfg.HTTPAddr = httpAddr
	}
	if grpcAddr != "" {
		e.cfg.GRPCAddr = grpcAddr
	}

	store, repo, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewAnalysisService(e.engine,
		service.WithStore(repo),
		service.WithReportObserver(e.metrics),
		service.WithLogger(e.logger),
	)

	ui.PrintHeader("Test Health Server")
	ui.PrintInfo(fmt.Sprintf("Engine: %s", svc.EngineName()))
	ui.PrintInfo(fmt.Sprintf("Database: %s", e.cfg.DBPath))
	ui.PrintInfo(fmt.Sprintf("HTTP: %s", e.cfg.HTTPAddr))
	if !noGRPC {
		ui.PrintInfo(fmt.Sprintf("gRPC: %s", e.cfg.GRPCAddr))
	}
	ui.PrintInfo("")

	webServer := web.NewServer(e.cfg.HTTPAddr, svc,
		web.WithMetricsHandler(e.metrics.Handler()),
		web.WithLogger(e.logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(webServer.Start)

	var grpcServer *grpcTransport.Server
	if !noGRPC {
		grpcServer = grpcTransport.NewServer(endpoint.MakeEndpoints(svc), grpcTransport.WithLogger(e.logger))
		g.Go(func() error { return grpcServer.Serve(e.cfg.GRPCAddr) })
	}

	// Stop both servers once interrupted or once either fails.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return webServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	ui.PrintSuccess("Server stopped")
	return nil
}
