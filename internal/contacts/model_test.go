package contacts

import "testing"

func TestMessageStatusForwardOnly(t *testing.T) {
	cases := []struct {
		from MessageStatus
		to   MessageStatus
		want bool
	}{
		{MessageStatusPending, MessageStatusSent, true},
		{MessageStatusSent, MessageStatusDelivered, true},
		{MessageStatusDelivered, MessageStatusRead, true},
		{MessageStatusRead, MessageStatusReplied, true},
		{MessageStatusSent, MessageStatusReplied, true}, // skipping forward is allowed
		{MessageStatusDelivered, MessageStatusSent, false},
		{MessageStatusReplied, MessageStatusRead, false},
		{MessageStatusSent, MessageStatusSent, false},
		{MessageStatusPending, MessageStatusFailed, true},
		{MessageStatusSent, MessageStatusFailed, false},
		{MessageStatusFailed, MessageStatusSent, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusBlocked, StatusInactive} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusActive, StatusQualified, StatusResponded, StatusUnresponsive, StatusMeetingScheduled} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
