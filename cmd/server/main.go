package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mini-invest/investment-service/internal/activity"
	"github.com/mini-invest/investment-service/internal/app"
	"github.com/mini-invest/investment-service/internal/config"
	"github.com/mini-invest/investment-service/internal/handlers"
	"github.com/mini-invest/investment-service/internal/server"
	"github.com/mini-invest/investment-service/internal/service"
	"github.com/mini-invest/investment-service/internal/sweeper"
	"github.com/mini-invest/investment-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.NewProviders(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	providers.SetGlobal()
	defer providers.Shutdown(context.Background())

	storage, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer storage.Close()

	publisher, err := app.OpenPublisher(cfg)
	if err != nil {
		log.Fatalf("failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	var activityReader handlers.ActivityReader
	if cfg.ClickHouse.Enabled() {
		client, err := activity.NewClickHouseClient(ctx, cfg.ClickHouse)
		if err != nil {
			log.Fatalf("failed to connect to ClickHouse: %v", err)
		}
		defer client.Close()
		repo := activity.NewRepository(client)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to prepare activity schema: %v", err)
		}
		activityReader = repo
		log.Println("activity history enabled")
	}

	tracing := service.WithTracerProvider(providers.TracerProvider)
	investmentService := service.NewInvestmentService(
		storage.Ledger,
		storage.Investments,
		storage.Catalog,
		storage.Users,
		storage.TxManager,
		publisher.EventPublisher,
		tracing,
	)
	portfolioService := service.NewPortfolioService(storage.Investments, storage.Catalog, tracing)
	log.Println("domain services initialized")

	if cfg.Storage.Driver == config.StorageMemory {
		go sweeper.New(storage.Investments, publisher.EventPublisher, cfg.Sweeper.BatchSize).Run(ctx, cfg.Sweeper.Interval)
		log.Println("in-process maturity sweeper started for the memory store")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	handler := handlers.NewHandler(investmentService, portfolioService, activityReader, cfg.Currency)
	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: server.HandlerWithOptions(handler, server.ChiServerOptions{
			BaseRouter:       router,
			ErrorHandlerFunc: handlers.ParamErrorHandler,
		}),
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", cfg.GRPC.Addr, err)
	}

	go func() {
		log.Printf("gRPC health server starting on %s", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server failed: %v", err)
			stop()
		}
	}()

	go func() {
		log.Printf("investment-service HTTP server starting on %s", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server failed: %v", err)
			stop()
		}
	}()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()
	log.Println("shutting down...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	grpcServer.GracefulStop()
	log.Println("investment-service stopped")
}
