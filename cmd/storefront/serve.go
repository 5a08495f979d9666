package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the gRPC health endpoint and the outbox workers",
	Long: `Run the storefront service.

The HTTP API listens on HTTP_PORT and the gRPC health service on GRPC_PORT.
Paid-order events are published to Kafka when KAFKA_BROKERS is set and
delivered in-process otherwise.

Examples:
  storefront serve
  storefront serve --config storefront.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	a, err := newApp(ctx, cfg, repo, log)
	if err != nil {
		return err
	}
	defer a.Close()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port %s: %w", cfg.GRPCPort, err)
	}
	grpcServer := a.checker.NewServer()

	var wg sync.WaitGroup
	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}
	run(a.poller.Run)
	run(a.checker.Run)
	if a.consumer != nil {
		run(a.consumer.Run)
	}

	go func() {
		log.Info("grpc health server starting", slog.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server error", slog.Any("error", err))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server starting", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		log.Error("http server error", slog.Any("error", err))
		stop()
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("server forced to shutdown", slog.Any("error", shutdownErr))
	}
	grpcServer.GracefulStop()
	wg.Wait()
	return err
}
