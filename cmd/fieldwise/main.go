package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/yuzuhara/fieldwise/client"
	"github.com/yuzuhara/fieldwise/internal/config"
	"github.com/yuzuhara/fieldwise/internal/domain"
	"github.com/yuzuhara/fieldwise/internal/infrastructure/database"
	"github.com/yuzuhara/fieldwise/internal/infrastructure/gateway"
	"github.com/yuzuhara/fieldwise/internal/infrastructure/repository"
	"github.com/yuzuhara/fieldwise/internal/present/rest"
	"github.com/yuzuhara/fieldwise/internal/present/rest/middleware"
	"github.com/yuzuhara/fieldwise/internal/service"
	"github.com/yuzuhara/fieldwise/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Warn(
			"Failed to load config, using defaults",
			slog.String("error", err.Error()),
			slog.String("path", *configPath),
		)
		conf.Server.Listen = ":8000"
		conf.Server.HistoryBackend = "memory"
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		shutdown, err := setupTrace(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			panic("failed to set up tracing: " + err.Error())
		}
		defer shutdown(ctx)
	}

	var historyRepo usecase.HistoryRepository
	switch conf.Server.HistoryBackend {
	case "postgres":
		db, err := database.NewPostgres(conf.Server.PostgresDsn)
		if err != nil {
			panic("failed to connect database")
		}
		err = database.MigratePostgres(db)
		if err != nil {
			panic("failed to migrate database")
		}
		historyRepo = repository.NewPostgresHistory(db)
	default:
		historyRepo = repository.NewMemoryHistory()
	}

	baseURL := conf.Vendor.BaseURL
	if baseURL == "" {
		baseURL = client.DefaultBaseURL
	}
	cl := client.New(baseURL)

	vendorGateway := gateway.NewVendorGateway(cl, nil)
	if conf.Server.MemcachedAddr != "" {
		mc := database.NewMemcached(conf.Server.MemcachedAddr)
		vendorGateway = gateway.NewVendorGateway(cl, mc)
	}

	eventService := service.NewEventService(nil)
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
		eventService = service.NewEventService(rdb)
	}

	domainConf := domain.Config{VendorBaseURL: baseURL}

	fieldUC := usecase.NewFieldUsecase(vendorGateway, historyRepo)
	historyUC := usecase.NewHistoryUsecase(historyRepo)
	rollbackUC := usecase.NewRollbackUsecase(historyRepo, vendorGateway)

	authService := service.NewAuthService(&domainConf, cl)
	tableService := service.NewTableService(cl)

	handler := rest.NewHandler(
		domainConf,
		fieldUC,
		historyUC,
		rollbackUC,
		authService,
		tableService,
		eventService,
	)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("fieldwise"))
	}

	authMiddleware := middleware.NewAuthMiddleware(domainConf)
	e.Use(authMiddleware.IdentifyRequester)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTrace(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(semconv.ServiceName("fieldwise")),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
