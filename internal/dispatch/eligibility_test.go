package dispatch

import (
	"testing"
	"time"

	"prospect_backend/internal/contacts"
)

func TestCheckOrderIsDeterministic(t *testing.T) {
	whatsapp := Decision{Channel: contacts.ChannelWhatsApp, Destination: "+5584997084444"}
	none := Decision{Channel: contacts.ChannelNone}

	cases := []struct {
		name       string
		decision   Decision
		signals    Signals
		wantOK     bool
		wantReason string
	}{
		{
			name:       "no channel masks everything else",
			decision:   none,
			signals:    Signals{RateLimitReached: true, OutsideBusinessHours: true, OnBlacklist: true},
			wantReason: ReasonNoChannel,
		},
		{
			name:       "rate limit masks business hours",
			decision:   whatsapp,
			signals:    Signals{RateLimitReached: true, OutsideBusinessHours: true},
			wantReason: ReasonRateLimit,
		},
		{
			name:       "business hours masks blacklist",
			decision:   whatsapp,
			signals:    Signals{OutsideBusinessHours: true, OnBlacklist: true},
			wantReason: ReasonOutsideBusinessHours,
		},
		{
			name:       "blacklist alone",
			decision:   whatsapp,
			signals:    Signals{OnBlacklist: true},
			wantReason: ReasonBlacklisted,
		},
		{
			name:     "all clear",
			decision: whatsapp,
			signals:  Signals{},
			wantOK:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Check(tc.decision, tc.signals)
			if got.WouldExecute != tc.wantOK {
				t.Errorf("WouldExecute = %v, want %v", got.WouldExecute, tc.wantOK)
			}
			if got.BlockingReason != tc.wantReason {
				t.Errorf("BlockingReason = %q, want %q", got.BlockingReason, tc.wantReason)
			}
		})
	}
}

func TestWithinBusinessHours(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday 8am", time.Date(2026, 8, 24, 8, 0, 0, 0, loc), true},
		{"friday 17:59", time.Date(2026, 8, 28, 17, 59, 0, 0, loc), true},
		{"monday 7:59", time.Date(2026, 8, 24, 7, 59, 0, 0, loc), false},
		{"monday 18:00", time.Date(2026, 8, 24, 18, 0, 0, 0, loc), false},
		{"saturday noon", time.Date(2026, 8, 29, 12, 0, 0, 0, loc), false},
		{"sunday noon", time.Date(2026, 8, 30, 12, 0, 0, 0, loc), false},
	}
	for _, tc := range cases {
		if got := WithinBusinessHours(tc.t); got != tc.want {
			t.Errorf("%s: WithinBusinessHours = %v, want %v", tc.name, got, tc.want)
		}
	}
}
