package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	jwttoken "transcript/internal/jwt_token"
	"transcript/internal/platform/config"
	"transcript/internal/platform/database"
	"transcript/internal/platform/httpserver"
	"transcript/internal/platform/kafka/producer"
	"transcript/internal/platform/logger"
	platformmetrics "transcript/internal/platform/metrics"
	redisclient "transcript/internal/platform/redis"
	"transcript/internal/transcript/cache"
	"transcript/internal/transcript/eventlog"
	"transcript/internal/transcript/handler"
	"transcript/internal/transcript/metrics"
	"transcript/internal/transcript/service"
	"transcript/internal/transcript/store"
	httptransport "transcript/internal/transport/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the registry HTTP API",
		Long:  "Run the registry HTTP API, configured from the environment. With KAFKA_BROKERS set, committed events are relayed to Kafka.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewServerConfig()
			if err != nil {
				return err
			}
			log := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg, log); err != nil {
				log.Error("server stopped with error", "error", err)
				return err
			}
			return nil
		},
	}
}

// backend is the storage selected by STORAGE_BACKEND.
type backend struct {
	tx     service.RegistryTx
	source eventlog.Source
	db     *sql.DB
}

func openBackend(ctx context.Context, cfg *config.ServerEnvironment, log *slog.Logger) (*backend, error) {
	if cfg.StorageBackend != config.StoragePostgres {
		mem := store.NewInMemory()
		log.Warn("using in-memory storage; registry state is lost on restart")
		return &backend{tx: mem.Tx, source: mem.Events}, nil
	}

	db, err := database.Open(ctx, database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxConnections,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBMaxConnLifetime,
		ConnMaxIdleTime: cfg.DBMaxConnIdleTime,
		PingTimeout:     cfg.DatabasePingTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	pg := store.NewPostgresTx(db)
	return &backend{tx: pg, source: pg.Events(), db: db}, nil
}

func serve(ctx context.Context, cfg *config.ServerEnvironment, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registryMetrics := metrics.New(reg)
	checks := map[string]httptransport.HealthCheck{}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	if be.db != nil {
		defer be.db.Close()
		checks["postgres"] = be.db.PingContext
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(registryMetrics),
	}
	rc, err := redisclient.New(ctx, redisclient.Config{
		URL:          cfg.RedisURL,
		PoolSize:     cfg.RedisPoolSize,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
	})
	if err != nil {
		return err
	}
	// rc is nil when REDIS_URL is unset; a typed-nil cache must not reach the service.
	if rc != nil {
		defer rc.Close()
		checks["redis"] = rc.Health
		opts = append(opts, service.WithCache(cache.New(rc.Client,
			cache.WithTTL(cfg.CacheTTL),
			cache.WithLogger(log),
		)))
	}

	svc, err := service.New(be.tx, cfg.Authority(), opts...)
	if err != nil {
		return err
	}
	count, err := svc.GetTokenMintedCount(ctx)
	if err != nil {
		return fmt.Errorf("read minted count: %w", err)
	}
	registryMetrics.SetMinted(count)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.RelayEnabled() {
		p, err := producer.New(producer.Config{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			ClientID: cfg.KafkaClientID,
		}, log)
		if err != nil {
			return err
		}
		defer p.Close()
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("kafka unreachable: %w", err)
		}
		checks["kafka"] = p.Ping

		relay := eventlog.NewRelay(be.source, eventlog.NewKafkaPublisher(p),
			eventlog.WithInterval(cfg.OutboxPollInterval),
			eventlog.WithBatchSize(cfg.OutboxBatchSize),
			eventlog.WithRelayLogger(log),
			eventlog.WithRelayMetrics(registryMetrics),
		)
		g.Go(func() error { return relay.Run(gctx) })
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Registry:       handler.New(svc, log),
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:         log,
		Metrics:        platformmetrics.New(reg),
		Gatherer:       reg,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		HealthChecks:   checks,
	})

	log.Info("transcript registry starting",
		"version", version,
		"storage", cfg.StorageBackend,
		"authority", cfg.Authority().Hex(),
		"cache", rc != nil,
		"relay", cfg.RelayEnabled(),
	)
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.Config{
			Addr:            cfg.Addr(),
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			IdleTimeout:     cfg.IdleTimeout,
			ShutdownTimeout: cfg.ServerShutdownTimeout,
		}, router, log)
	})
	return g.Wait()
}
