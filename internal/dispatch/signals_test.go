package dispatch

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prospect_backend/platform/logger"
)

type testDispatchConfig struct {
	hourlyLimit int
}

func (c testDispatchConfig) GetDispatchHourlyLimit() int              { return c.hourlyLimit }
func (c testDispatchConfig) GetBusinessHoursLocation() *time.Location { return time.UTC }
func (c testDispatchConfig) GetBatchMaxConcurrency() int              { return 1 }
func (c testDispatchConfig) GetBatchMaxRetries() int                  { return 0 }
func (c testDispatchConfig) GetBatchRetryBaseDelay() time.Duration    { return 0 }

func newTestSignalSource(t *testing.T, limit int) (*SignalSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	src := NewSignalSource(rdb, testDispatchConfig{hourlyLimit: limit}, logger.New("development"))
	// pin to a weekday inside business hours
	src.now = func() time.Time { return time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC) }
	return src, mr
}

func TestGatherAllClear(t *testing.T) {
	src, _ := newTestSignalSource(t, 100)
	tenant := uuid.New()

	signals := src.Gather(context.Background(), tenant, "+5584997084444")

	if signals.RateLimitReached || signals.OutsideBusinessHours || signals.OnBlacklist {
		t.Errorf("expected all-clear signals, got %+v", signals)
	}
}

func TestGatherRateLimitReached(t *testing.T) {
	src, mr := newTestSignalSource(t, 10)
	tenant := uuid.New()

	mr.Set(rateKey(tenant, src.now()), strconv.Itoa(10))

	signals := src.Gather(context.Background(), tenant, "+5584997084444")
	if !signals.RateLimitReached {
		t.Error("RateLimitReached = false, want true at the limit")
	}
}

func TestGatherBlacklist(t *testing.T) {
	src, mr := newTestSignalSource(t, 100)
	tenant := uuid.New()

	mr.SAdd(blacklistKey(tenant), "+5584997084444")

	signals := src.Gather(context.Background(), tenant, "+5584997084444")
	if !signals.OnBlacklist {
		t.Error("OnBlacklist = false, want true")
	}

	other := src.Gather(context.Background(), tenant, "other@example.com")
	if other.OnBlacklist {
		t.Error("OnBlacklist = true for destination not in the set")
	}
}

func TestGatherOutsideBusinessHours(t *testing.T) {
	src, _ := newTestSignalSource(t, 100)
	src.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) } // saturday

	signals := src.Gather(context.Background(), uuid.New(), "+5584997084444")
	if !signals.OutsideBusinessHours {
		t.Error("OutsideBusinessHours = false on a saturday")
	}
}

func TestGatherFailsOpenWhenRedisDown(t *testing.T) {
	src, mr := newTestSignalSource(t, 1)
	tenant := uuid.New()
	mr.Set(rateKey(tenant, src.now()), "5")
	mr.Close()

	signals := src.Gather(context.Background(), tenant, "+5584997084444")
	if signals.RateLimitReached || signals.OnBlacklist {
		t.Errorf("signals must fail open when redis is unreachable, got %+v", signals)
	}
}

func TestRecordDispatchIncrementsCounter(t *testing.T) {
	src, mr := newTestSignalSource(t, 2)
	tenant := uuid.New()

	ctx := context.Background()
	src.RecordDispatch(ctx, tenant)
	src.RecordDispatch(ctx, tenant)

	got, err := mr.Get(rateKey(tenant, src.now()))
	if err != nil {
		t.Fatalf("counter key missing: %v", err)
	}
	if got != "2" {
		t.Errorf("counter = %s, want 2", got)
	}

	signals := src.Gather(ctx, tenant, "+5584997084444")
	if !signals.RateLimitReached {
		t.Error("RateLimitReached = false after reaching the limit")
	}
}
