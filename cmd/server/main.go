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

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"coppice/internal/fla/models"
	"coppice/internal/fla/service"
	"coppice/internal/fla/store"
	"coppice/internal/notify"
	"coppice/internal/platform/config"
	"coppice/internal/platform/httpserver"
	"coppice/internal/platform/logger"
	"coppice/internal/platform/metrics"
	"coppice/internal/platform/redis"
	"coppice/internal/publicregister"
	"coppice/internal/reconcile"
	httptransport "coppice/internal/transport/http"
	"coppice/internal/users"
	"coppice/pkg/platform/audit"
	"coppice/pkg/platform/audit/relay"
	auditmem "coppice/pkg/platform/audit/store/memory"
	auditpg "coppice/pkg/platform/audit/store/postgres"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in the internal service packages. Without a Postgres
// URL the process runs on in-memory stores, which is the local development
// mode.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var (
		apps       appStore
		auditStore audit.Store
		txRunner   txBoundary = passthroughTx{}
	)
	if db != nil {
		apps = store.NewPostgresStore(db)
		auditStore = auditpg.New(db)
		txRunner = newPostgresTx(db)
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		apps = store.NewInMemoryStore()
		auditStore = auditmem.NewInMemoryStore()
	}
	auditor := audit.NewRecorder(auditStore, audit.WithLogger(log))

	var gateway publicregister.Gateway
	if cfg.RegisterBaseURL != "" {
		gateway = publicregister.NewEsriGateway(cfg.RegisterBaseURL, &http.Client{Timeout: 30 * time.Second})
	} else {
		log.Warn("no register base URL configured, register calls are logged only")
		gateway = loggingGateway{log: log}
	}

	var cache *goredis.Client
	if cfg.RedisURL != "" {
		rds, err := redis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer rds.Close()
		cache = rds.Client
	}

	register := publicregister.New(gateway, apps,
		publicregister.WithDecisionExpiryDays(cfg.DecisionExpiryDays),
		publicregister.WithLogger(log))
	comments := publicregister.NewCommentsService(gateway, cache, cfg.CommentsCacheTTL, log)

	notifier := &notify.LoggingDispatcher{Logger: log}

	var directory users.Directory
	if cfg.DirectoryFile != "" {
		seeded, err := users.LoadSeedFile(cfg.DirectoryFile)
		if err != nil {
			log.Error("load directory seed", "path", cfg.DirectoryFile, "error", err)
			os.Exit(1)
		}
		directory = seeded
	} else {
		log.Warn("no directory seed configured, recipient resolution will find no accounts")
		directory = users.NewInMemoryDirectory()
	}

	m := metrics.New()

	decisions := service.New(apps, register, notifier, directory, auditor,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithTx(txRunner))

	jobs := []reconcile.Job{
		reconcile.NewExtensionJob(apps, notifier, directory, auditor, log, cfg.ExtensionLeadTime, cfg.ExtensionPeriod),
		reconcile.NewWithdrawalJob(apps, register, notifier, directory, auditor, log, cfg.WithdrawalThreshold),
		reconcile.NewRegisterExpiryJob(models.ConsultationRegister, apps, register, notifier, directory, auditor, log),
		reconcile.NewRegisterExpiryJob(models.DecisionRegister, apps, register, notifier, directory, auditor, log),
	}
	runner := reconcile.NewRunner(txRunner, log, m)
	scheduler := reconcile.NewScheduler(runner, jobs, cfg.ReconcileInterval, log)

	handler := httptransport.New(decisions, comments, runner, jobs, log)
	srv := httpserver.New(cfg.Addr, handler.Router())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting coppice", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return scheduler.Run(gCtx)
	})

	if db != nil && len(cfg.KafkaBrokers) > 0 {
		client, err := kgo.NewClient(kgo.SeedBrokers(cfg.KafkaBrokers...))
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		auditRelay := relay.New(db, client, cfg.AuditTopic, cfg.OutboxPollEvery, log)
		g.Go(func() error {
			return auditRelay.Run(gCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}
