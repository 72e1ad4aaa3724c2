package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mrseck/AQ54-fe/internal/app"
	"github.com/mrseck/AQ54-fe/internal/config"
	"github.com/mrseck/AQ54-fe/internal/identity/gateway"
	"github.com/mrseck/AQ54-fe/internal/sensor/query"
	"github.com/mrseck/AQ54-fe/internal/session"
	"github.com/mrseck/AQ54-fe/internal/session/repository"
	"github.com/mrseck/AQ54-fe/internal/telemetry"
	"github.com/mrseck/AQ54-fe/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "aq54-dashboard", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter("aq54.dashboard"))
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	emitter := otel.NewEventEmitter(providers.LoggerProvider)

	store := repository.NewFileStore(cfg.CredentialsPath())
	manager := session.NewManager(store)
	gw := gateway.NewClient(cfg.APIBaseURL, manager,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		gateway.WithSessionInvalidator(manager),
		gateway.WithMetrics(metrics),
		gateway.WithTracer(providers.TracerProvider.Tracer("aq54.gateway")),
	)
	composer := query.NewComposer(gw, metrics)

	a := app.New(manager, gw, composer, emitter, cfg.StationList(), os.Stdout)
	runErr := a.Run(ctx, os.Args[1:])

	// Give async emits time to land before the exporters shut down.
	if cfg.OTLPEndpoint != "" {
		time.Sleep(telemetry.ShutdownDrainDuration)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}

	if runErr != nil {
		log.Fatalf("dashboard: %v", runErr)
	}
}
