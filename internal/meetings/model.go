// Package meetings books calendar slots for qualified contacts and drives
// the confirmation and reminder flow.
package meetings

import (
	"time"

	"github.com/google/uuid"
)

// Status is the meeting lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// Active reports whether the meeting still occupies the contact's slot.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Duration bounds in minutes.
const (
	MinDurationMinutes     = 1
	MaxDurationMinutes     = 480
	DefaultDurationMinutes = 30
)

// ClampDuration forces a duration into the allowed range, substituting the
// default for non-positive values.
func ClampDuration(minutes int) int {
	if minutes <= 0 {
		return DefaultDurationMinutes
	}
	if minutes < MinDurationMinutes {
		return MinDurationMinutes
	}
	if minutes > MaxDurationMinutes {
		return MaxDurationMinutes
	}
	return minutes
}

// Meeting is one booked slot with a contact.
type Meeting struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ContactID       uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Status          Status
	MeetingURL      *string
	CalendarEventID *string
	// BriefingKey is the object storage key of the generated briefing,
	// nil when briefing generation was skipped or failed.
	BriefingKey *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
