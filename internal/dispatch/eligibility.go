package dispatch

import (
	"time"

	"prospect_backend/internal/contacts"
)

// Blocking reasons, reported in check order. Only the first matching reason
// is ever surfaced.
const (
	ReasonNoChannel            = "no channel available"
	ReasonRateLimit            = "rate limit"
	ReasonOutsideBusinessHours = "outside business hours"
	ReasonBlacklisted          = "blacklisted"
)

// Signals is the runtime state bundle the gate evaluates. Gathering the
// signals is the SignalSource's job; the gate itself is pure.
type Signals struct {
	RateLimitReached     bool
	OutsideBusinessHours bool
	OnBlacklist          bool
}

// Eligibility is the gate's verdict for one dispatch attempt.
type Eligibility struct {
	WouldExecute   bool
	BlockingReason string
}

// Check applies the eligibility policy to a channel decision. The check
// order is fixed: a structural failure (no channel) must never be masked by
// a transient one (rate limit, hours), because no retry can fix it.
func Check(decision Decision, signals Signals) Eligibility {
	switch {
	case decision.Channel == contacts.ChannelNone:
		return Eligibility{BlockingReason: ReasonNoChannel}
	case signals.RateLimitReached:
		return Eligibility{BlockingReason: ReasonRateLimit}
	case signals.OutsideBusinessHours:
		return Eligibility{BlockingReason: ReasonOutsideBusinessHours}
	case signals.OnBlacklist:
		return Eligibility{BlockingReason: ReasonBlacklisted}
	default:
		return Eligibility{WouldExecute: true}
	}
}

// WithinBusinessHours reports whether t falls on a weekday with local hour
// in [8, 18).
func WithinBusinessHours(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return t.Hour() >= 8 && t.Hour() < 18
}
