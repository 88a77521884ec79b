package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/dispatch"
	"prospect_backend/internal/email"
	"prospect_backend/internal/events"
	"prospect_backend/internal/generator"
	"prospect_backend/internal/ingest"
	"prospect_backend/internal/linkedin"
	"prospect_backend/internal/meetings"
	"prospect_backend/internal/notification"
	"prospect_backend/internal/outbox"
	"prospect_backend/internal/replies"
	"prospect_backend/internal/scheduler"
	"prospect_backend/internal/storage"
	"prospect_backend/internal/whatsapp"
	"prospect_backend/platform/config"
	"prospect_backend/platform/db"
	"prospect_backend/platform/logger"
	"prospect_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, getEnv("MIGRATIONS_DIR", "migrations")); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	rdb, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	contactsRepo := contacts.New(pool)
	outboxRepo := outbox.New(pool)
	meetingsRepo := meetings.New(pool)

	notifier := notification.NewSalesNotifier(sender, cfg.GetSalesTeamEmail(), contactsRepo, log)
	notifier.Register(eventBus)

	transports := map[contacts.Channel]dispatch.Transport{
		contacts.ChannelWhatsApp: whatsapp.NewClient(cfg, log),
		contacts.ChannelEmail:    email.NewTransport(sender),
	}
	if li := linkedin.NewClient(cfg, log); li != nil {
		transports[contacts.ChannelLinkedIn] = li
	}

	signals := dispatch.NewSignalSource(rdb, cfg, log)

	orchestrator := dispatch.NewOrchestrator(
		contactsRepo,
		signals,
		generator.NewClient(cfg, log),
		transports,
		log,
	)

	repliesSvc := replies.NewService(
		contactsRepo,
		replies.NewClassifier(cfg, log),
		replies.NewRouter(outboxRepo, eventBus, log),
		signals,
		log,
	)

	var briefer meetings.Briefer
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize object storage", "error", err)
		panic("failed to initialize object storage: " + err.Error())
	}
	if bg := meetings.NewBriefingGenerator(storageSvc, cfg.GetMinIOBucketBriefings()); bg != nil {
		if err := storageSvc.EnsureBucketExists(ctx, cfg.GetMinIOBucketBriefings()); err != nil {
			log.Warn("briefing bucket unavailable, briefings disabled", "error", err)
		} else {
			briefer = bg
		}
	}

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer func() { _ = queueClient.Close() }()

	meetingsSvc := meetings.NewService(
		meetingsRepo,
		contactsRepo,
		meetings.NewCalendarClient(cfg, log),
		briefer,
		queueClient,
		transports,
		cfg.GetBusinessHoursLocation(),
		log,
	)

	ingestSvc := ingest.NewService(contactsRepo, validator.New(), log)

	worker, err := scheduler.NewWorker(cfg, cfg, ingestSvc, orchestrator, contactsRepo, repliesSvc, meetingsSvc, queueClient, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	if err := worker.Run(ctx); err != nil {
		log.Error("worker stopped", "error", err)
		panic("worker stopped: " + err.Error())
	}
}

func newRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
