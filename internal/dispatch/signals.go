package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
)

const rateWindow = time.Hour

// SignalSource reads the runtime dispatch signals from redis: the per-tenant
// hourly send counter and the blacklist set. Redis being unreachable fails
// open (signals report clear) with a warning, so an infra blip degrades to
// unthrottled sending instead of halting the pipeline.
type SignalSource struct {
	rdb *redis.Client
	cfg config.DispatchConfig
	log *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewSignalSource(rdb *redis.Client, cfg config.DispatchConfig, log *logger.Logger) *SignalSource {
	return &SignalSource{
		rdb: rdb,
		cfg: cfg,
		log: log,
		now: time.Now,
	}
}

func rateKey(tenantID uuid.UUID, t time.Time) string {
	return fmt.Sprintf("dispatch:rate:%s:%s", tenantID, t.UTC().Format("2006010215"))
}

func blacklistKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("dispatch:blacklist:%s", tenantID)
}

// Gather collects the current signal bundle for one dispatch attempt.
// destination is the phone or email the decision selected; an empty
// destination skips the blacklist lookup.
func (s *SignalSource) Gather(ctx context.Context, tenantID uuid.UUID, destination string) Signals {
	now := s.now().In(s.cfg.GetBusinessHoursLocation())
	signals := Signals{
		OutsideBusinessHours: !WithinBusinessHours(now),
	}

	count, err := s.rdb.Get(ctx, rateKey(tenantID, s.now())).Int()
	switch {
	case err == redis.Nil:
		// no sends this hour
	case err != nil:
		s.log.Warn("rate limit signal unavailable, failing open", "error", err)
	default:
		signals.RateLimitReached = count >= s.cfg.GetDispatchHourlyLimit()
	}

	if destination != "" {
		member, err := s.rdb.SIsMember(ctx, blacklistKey(tenantID), destination).Result()
		if err != nil {
			s.log.Warn("blacklist signal unavailable, failing open", "error", err)
		} else {
			signals.OnBlacklist = member
		}
	}

	return signals
}

// RecordDispatch increments the hourly send counter after a confirmed send.
// The key expires two windows out so stale counters clean themselves up.
func (s *SignalSource) RecordDispatch(ctx context.Context, tenantID uuid.UUID) {
	key := rateKey(tenantID, s.now())
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*rateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("rate counter update failed", "error", err)
	}
}

// Blacklist adds a destination to the tenant's blacklist. Used when a
// contact is blocked or opts out.
func (s *SignalSource) Blacklist(ctx context.Context, tenantID uuid.UUID, destination string) error {
	return s.rdb.SAdd(ctx, blacklistKey(tenantID), destination).Err()
}
