package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"carbonregistry/internal/audit"
	"carbonregistry/internal/events"
	"carbonregistry/internal/platform/config"
	"carbonregistry/internal/platform/httpserver"
	"carbonregistry/internal/platform/logger"
	"carbonregistry/internal/platform/metrics"
	platformredis "carbonregistry/internal/platform/redis"
	"carbonregistry/internal/registry"
	"carbonregistry/internal/registry/cache"
	"carbonregistry/internal/registry/handler"
	"carbonregistry/internal/registry/service"
	"carbonregistry/internal/registry/store"
	httptransport "carbonregistry/internal/transport/http"
	id "carbonregistry/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/registry.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	admin := id.ParsePrincipal(cfg.AdminPrincipal)

	var ledger store.Ledger
	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			fatal(log, "open postgres", err)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.Init(ctx, admin); err != nil {
			fatal(log, "init postgres ledger", err)
		}
		pgAudit := audit.NewPostgresStore(db)
		if err := pgAudit.Init(ctx); err != nil {
			fatal(log, "init audit store", err)
		}
		ledger = pg
		auditStore = pgAudit
		log.Info("ledger backend: postgres")
	} else {
		ledger = store.NewInMemory(admin)
		auditStore = audit.NewInMemoryStore()
		log.Info("ledger backend: in-memory")
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			fatal(log, "connect kafka", err)
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("event backend: kafka", "topic", cfg.KafkaTopic)
	}

	auditInbox := make(chan audit.Event, 256)
	auditWorker := audit.NewWorker(auditStore, auditInbox, log)

	svc := registry.NewService(ledger,
		service.WithLogger(log),
		service.WithAuditPublisher(audit.NewPublisher(auditInbox)),
		service.WithEventPublisher(publisher),
		service.WithMetrics(m),
	)

	var routed handler.Service = svc
	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		fatal(log, "connect redis", err)
	}
	if rdb != nil {
		defer rdb.Close()
		routed = cache.New(svc, rdb.Client, config.ProjectCacheTTL, log)
		log.Info("project read cache: redis", "ttl", config.ProjectCacheTTL)
	}

	h := registry.NewHandler(routed, log)
	router := httptransport.NewRouter(h, cfg.JWTSigningKey, log)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting carbon registry", "addr", cfg.Addr, "admin", admin)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		fatal(log, "server error", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
