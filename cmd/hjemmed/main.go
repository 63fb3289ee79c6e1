// hjemmed is the hjemme-core daemon.
//
// It connects the MQTT broker, the SQLite registry and the optional
// InfluxDB archive into one process: gateway readings flow in over MQTT,
// automation rules are evaluated against them, and triggered actions go
// back out as switch commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/hjemme/hjemme-core/migrations"

	"github.com/hjemme/hjemme-core/internal/device"
	"github.com/hjemme/hjemme-core/internal/infrastructure/config"
	"github.com/hjemme/hjemme-core/internal/infrastructure/database"
	"github.com/hjemme/hjemme-core/internal/infrastructure/influxdb"
	"github.com/hjemme/hjemme-core/internal/infrastructure/logging"
	"github.com/hjemme/hjemme-core/internal/infrastructure/mqtt"
	"github.com/hjemme/hjemme-core/internal/ingest"
	"github.com/hjemme/hjemme-core/internal/observability/metrics"
	"github.com/hjemme/hjemme-core/internal/pricing"
	"github.com/hjemme/hjemme-core/internal/readings"
	"github.com/hjemme/hjemme-core/internal/rules"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting hjemme-core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	deviceRepo := device.NewSQLiteRepository(db.DB)
	discoveryRepo := device.NewSQLiteDiscoveryRepository(db.DB)
	stateRepo := device.NewSQLiteStateHistoryRepository(db.DB)
	ruleRepo := rules.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Reading store: in-memory hot path, InfluxDB archive when enabled
	hot := readings.NewMemoryStore()
	var store readings.Store = hot
	if influxClient != nil {
		store = readings.NewTieredStore(hot, readings.NewInfluxStore(influxClient))
	}

	qos := byte(cfg.MQTT.QoS)

	// Evaluation pipeline
	dispatcher := rules.NewDispatcher(deviceRepo, stateRepo, mqttClient, qos)
	dispatcher.SetLogger(log)

	engine := rules.NewEngine(ruleRepo, store, dispatcher, mqttClient, qos)
	engine.SetLogger(log)

	// Broker ingest
	ingestor := ingest.NewIngestor(
		deviceRepo, deviceRepo, discoveryRepo, stateRepo, store, engine, qos)
	ingestor.SetLogger(log)

	// Metrics endpoint (optional)
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		engine.SetMetrics(m)
		ingestor.SetMetrics(m)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			if srvErr := metricsSrv.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", srvErr)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if shutdownErr := metricsSrv.Shutdown(shutdownCtx); shutdownErr != nil {
				log.Error("error stopping metrics server", "error", shutdownErr)
			}
		}()
		log.Info("metrics endpoint started", "addr", cfg.Metrics.ListenAddr)
	}

	if err := ingestor.Start(mqttClient); err != nil {
		return fmt.Errorf("starting ingest: %w", err)
	}

	// Electricity price feed (optional)
	if cfg.Pricing.Enabled {
		priceClient := pricing.NewClient(
			cfg.Pricing.BaseURL, cfg.Pricing.Area, cfg.Pricing.Currency, cfg.PricingTimeout())
		refresher := pricing.NewRefresher(priceClient, store, engine, cfg.Pricing.RefreshCron)
		refresher.SetLogger(log)
		if m != nil {
			refresher.SetMetrics(m)
		}
		if startErr := refresher.Start(); startErr != nil {
			return fmt.Errorf("starting price refresher: %w", startErr)
		}
		defer refresher.Stop()
	} else {
		log.Info("electricity price feed disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Price refresher (if enabled)
	// 2. Metrics server (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("hjemme-core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HJEMME_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HJEMME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// The InfluxDB client may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
