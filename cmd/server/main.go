package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"pdtoken/internal/audit"
	"pdtoken/internal/issuer"
	issuermetrics "pdtoken/internal/issuer/metrics"
	"pdtoken/internal/issuer/models"
	"pdtoken/internal/issuer/service"
	"pdtoken/internal/issuer/store/cooldown"
	"pdtoken/internal/ledger"
	"pdtoken/internal/platform/chain"
	"pdtoken/internal/platform/config"
	"pdtoken/internal/platform/httpserver"
	"pdtoken/internal/platform/logger"
	platformredis "pdtoken/internal/platform/redis"
	"pdtoken/pkg/domain"
	adminmw "pdtoken/pkg/platform/middleware/admin"
	"pdtoken/pkg/platform/middleware/opcontext"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	controller, err := domain.ParseAddress(cfg.Chain.ControllerAddress)
	if err != nil {
		log.Error("invalid controller address", "error", err)
		os.Exit(1)
	}
	params := models.Params{
		Controller:           controller,
		MaxIssuers:           cfg.Chain.MaxIssuers,
		TermLength:           cfg.Chain.TermLength,
		BaseFactor:           cfg.Chain.BaseFactor,
		SupplyFloor:          cfg.Chain.SupplyFloor,
		CooldownThresholdPct: cfg.Chain.CooldownThresholdPct,
	}

	// Cooldown store: Redis when configured, in-memory otherwise.
	var cooldowns cooldown.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cooldowns = cooldown.NewRedis(redisClient.Client)
		log.Info("cooldown store: redis")
	} else {
		cooldowns = cooldown.NewInMemory()
		log.Info("cooldown store: memory")
	}

	// Audit sink: Kafka > Postgres > memory, in order of configuration.
	ctx := context.Background()
	var auditStore audit.Store
	switch {
	case len(cfg.Kafka.Brokers) > 0:
		kafkaStore, err := audit.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("audit sink: kafka", "topic", cfg.Kafka.Topic)
	case cfg.Postgres.DSN != "":
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgStore := audit.NewPostgres(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("audit schema", "error", err)
			os.Exit(1)
		}
		auditStore = pgStore
		log.Info("audit sink: postgres")
	default:
		auditStore = audit.NewMemoryStore()
		log.Info("audit sink: memory")
	}

	inbox := make(chan audit.Event, 256)
	worker := audit.NewWorker(auditStore, inbox)
	publisher := audit.NewQueuePublisher(inbox)

	clock := chain.NewInterval(time.Now(), cfg.Chain.BlockInterval)
	led := ledger.NewMemory(ledger.WithNotifier(publisher))

	reg, err := issuer.NewRegistry(params, cooldowns)
	if err != nil {
		log.Error("registry init", "error", err)
		os.Exit(1)
	}
	svc, err := issuer.NewService(reg, led, clock, params,
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(issuermetrics.New()),
	)
	if err != nil {
		log.Error("service init", "error", err)
		os.Exit(1)
	}
	h := issuer.NewHandler(svc, log)

	router := chi.NewRouter()
	router.Use(opcontext.Middleware(clock))
	router.Group(h.RegisterPublic)
	router.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(cfg.AdminToken, log))
		h.RegisterAdmin(r)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, runCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting pdtoken controller", "addr", cfg.Addr,
			"max_issuers", params.MaxIssuers, "term_blocks", params.TermLength)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(runCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
