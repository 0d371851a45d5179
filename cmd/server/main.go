package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	complaintstore "vozsegura/internal/complaint/store"
	"vozsegura/internal/derivation/delivery"
	derivhandler "vozsegura/internal/derivation/handler"
	"vozsegura/internal/derivation/matcher"
	derivmetrics "vozsegura/internal/derivation/metrics"
	"vozsegura/internal/derivation/models"
	"vozsegura/internal/derivation/orchestrator"
	"vozsegura/internal/derivation/policy/cache"
	policyservice "vozsegura/internal/derivation/policy/service"
	policystore "vozsegura/internal/derivation/policy/store"
	"vozsegura/internal/derivation/sealing"
	"vozsegura/internal/derivation/seed"
	identityhandler "vozsegura/internal/identity/handler"
	"vozsegura/internal/identity/pseudonym"
	identityservice "vozsegura/internal/identity/service"
	"vozsegura/internal/identity/store/handle"
	jwttoken "vozsegura/internal/jwt_token"
	"vozsegura/internal/platform/config"
	"vozsegura/internal/platform/httpserver"
	"vozsegura/internal/platform/logger"
	"vozsegura/internal/platform/metrics"
	"vozsegura/internal/platform/postgres"
	platformredis "vozsegura/internal/platform/redis"
	"vozsegura/internal/secrets"
	"vozsegura/internal/secrets/s3keys"
	httptransport "vozsegura/internal/transport/http"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/platform/audit/outbox"
	"vozsegura/pkg/platform/audit/recorder"
	auditmemory "vozsegura/pkg/platform/audit/store/memory"
	auditpostgres "vozsegura/pkg/platform/audit/store/postgres"
	txcontext "vozsegura/pkg/platform/tx"
)

const seedUsername = "seed"

// infra holds the optional backing services. Nil fields mean the in-memory
// fallback is in use.
type infra struct {
	db    *sql.DB
	redis *platformredis.Client
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	deps, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	var (
		auditStore audit.Store
		tx         txcontext.Runner
		handles    identityservice.HandleStore
		policies   policyservice.Store
		complaints orchestrator.ComplaintStore
	)
	if deps.db != nil {
		tx = txcontext.NewPostgresRunner(deps.db, 0)
		auditStore = auditpostgres.New(deps.db)
		handles = handle.NewPostgres(deps.db)
		policies = policystore.NewPostgres(deps.db)
		complaints = complaintstore.NewPostgres(deps.db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		memAudit := auditmemory.NewInMemoryStore()
		memHandles := handle.NewInMemoryHandleStore()
		memPolicies := policystore.NewInMemoryStore()
		memComplaints := complaintstore.NewInMemoryStore()
		tx = txcontext.NewMemoryRunner(memAudit, memHandles, memPolicies, memComplaints)
		auditStore, handles, policies, complaints = memAudit, memHandles, memPolicies, memComplaints
	}

	var policyCache cache.Cache
	if deps.redis != nil {
		policyCache = cache.NewRedis(deps.redis.Client, cfg.Derivation.PolicyCacheTTL)
	} else {
		policyCache = cache.NewMemory(cfg.Derivation.PolicyCacheTTL)
	}

	derivationMetrics := derivmetrics.New()
	auditor := recorder.New(auditStore,
		recorder.WithLogger(log),
		recorder.WithMetrics(recorder.NewMetrics()),
	)

	policySvc := policyservice.New(policies, auditor, tx,
		policyservice.WithLogger(log),
		policyservice.WithMetrics(derivationMetrics),
		policyservice.WithCache(policyCache),
	)
	identitySvc := identityservice.New(handles, auditor, tx, identityservice.WithLogger(log))

	keys, err := keyProvider(ctx, cfg.Keys)
	if err != nil {
		return err
	}

	deliverer := delivery.New(delivery.Config{
		ConnectTimeout:   cfg.Derivation.DeliveryConnectTimeout,
		TotalTimeout:     cfg.Derivation.DeliveryTotalTimeout,
		BreakerThreshold: 5,
		BreakerCooldown:  cfg.Derivation.DeliveryTotalTimeout,
	}, delivery.WithLogger(log), delivery.WithMetrics(derivationMetrics))

	derivations, err := orchestrator.New(orchestrator.Deps{
		Complaints: complaints,
		Policies:   policySvc,
		Matcher:    matcher.New(policySvc),
		Keys:       keys,
		Sealer:     sealing.New(),
		Deliverer:  deliverer,
		Auditor:    auditor,
		Tx:         tx,
	},
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(derivationMetrics),
		orchestrator.WithKeyName(cfg.Keys.Name),
		orchestrator.WithClaimLease(cfg.Derivation.ClaimLease),
	)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, policySvc, log); err != nil {
			return err
		}
	}

	jwtService := jwttoken.NewJWTService(cfg.AdminJWTSigningKey, cfg.AdminJWTIssuer, cfg.AdminJWTAudience)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        metrics.New(),
		StaffValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		GatewayToken:   cfg.GatewayToken,
		Staff:          []httptransport.Registrar{derivhandler.New(policySvc, derivations, log)},
		Gateway:        []httptransport.Registrar{identityhandler.New(identitySvc, log)},
		HealthChecks:   deps.healthChecks(),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting vozsegura", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if deps.db != nil && len(cfg.Kafka.Brokers) > 0 {
		client, err := outbox.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer client.Close()
		relay := outbox.NewRelay(deps.db, client, cfg.Kafka.AuditTopic,
			outbox.WithBatchSize(cfg.Kafka.RelayBatch),
			outbox.WithInterval(cfg.Kafka.RelayInterval),
			outbox.WithLogger(log),
		)
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit outbox relay: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{}
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			deps.close(log)
			return nil, err
		}
	}
	if cfg.Redis.URL != "" {
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			deps.close(log)
			return nil, err
		}
		deps.redis = client
	}
	return deps, nil
}

func (i *infra) healthChecks() map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if i.db != nil {
		checks["postgres"] = i.db.PingContext
	}
	if i.redis != nil {
		checks["redis"] = i.redis.Health
	}
	return checks
}

func (i *infra) close(log *slog.Logger) {
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("close database", "error", err)
		}
	}
}

func keyProvider(ctx context.Context, cfg config.KeyConfig) (secrets.KeyProvider, error) {
	if cfg.S3Enabled {
		provider, err := s3keys.New(ctx, s3keys.Config{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("build s3 key provider: %w", err)
		}
		return secrets.NewCaching(provider, cfg.CacheTTL), nil
	}

	static, err := secrets.NewStatic(map[string]string{cfg.Name: cfg.StaticKey})
	if err != nil {
		return nil, fmt.Errorf("build static key provider: %w", err)
	}
	return secrets.NewCaching(static, cfg.CacheTTL), nil
}

func applySeed(ctx context.Context, path string, svc seed.PolicyAdmin, log *slog.Logger) error {
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	actorHandle, err := pseudonym.StaffHandle(seedUsername)
	if err != nil {
		return err
	}
	summary, err := seed.Apply(ctx, svc, f, models.Actor{Handle: actorHandle, Role: jwttoken.RoleAdmin}, log)
	if err != nil {
		return fmt.Errorf("apply seed %s: %w", path, err)
	}
	log.InfoContext(ctx, "seed applied",
		"destinations", summary.Destinations,
		"policies", summary.Policies,
		"rules", summary.Rules,
	)
	return nil
}
