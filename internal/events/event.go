// Package events provides domain event definitions for decoupled,
// event-driven communication between pipeline stages.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"prospect_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Event names double as outbox kinds; the outbox dispatcher maps each name
// to its queue task.
const (
	NameDispatchRequested = "dispatch.requested"
	NameFollowUpRequested = "dispatch.followup_requested"
	NameReplyReceived     = "replies.received"
	NameScheduleRequested = "meetings.schedule_requested"
	NameMeetingReminder   = "meetings.reminder_due"
	NameSalesEscalation   = "sales.escalation"
)

// =============================================================================
// Dispatch Events
// =============================================================================

// DispatchRequested asks the dispatch pipeline to send an outbound message
// to a set of contacts.
type DispatchRequested struct {
	BaseEvent
	TenantID    uuid.UUID   `json:"tenantId"`
	ContactIDs  []uuid.UUID `json:"contactIds"`
	CampaignID  *uuid.UUID  `json:"campaignId,omitempty"`
	MessageType string      `json:"messageType"`
}

func (e DispatchRequested) EventName() string { return NameDispatchRequested }

// FollowUpRequested is fired by the action router when a classified reply
// calls for a follow-up or an information send.
type FollowUpRequested struct {
	BaseEvent
	TenantID    uuid.UUID `json:"tenantId"`
	ContactID   uuid.UUID `json:"contactId"`
	MessageType string    `json:"messageType"` // follow_up or initial with info template
	Reason      string    `json:"reason"`
}

func (e FollowUpRequested) EventName() string { return NameFollowUpRequested }

// =============================================================================
// Reply Events
// =============================================================================

// ReplyReceived carries one raw inbound reply into the reply pipeline.
type ReplyReceived struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	ContactID uuid.UUID `json:"contactId"`
	Channel   string    `json:"channel"`
	Text      string    `json:"text"`
}

func (e ReplyReceived) EventName() string { return NameReplyReceived }

// =============================================================================
// Meeting Events
// =============================================================================

// ScheduleRequested asks the meeting scheduler to book a slot for a
// qualified contact.
type ScheduleRequested struct {
	BaseEvent
	TenantID         uuid.UUID  `json:"tenantId"`
	ContactID        uuid.UUID  `json:"contactId"`
	PreferredAt      *time.Time `json:"preferredAt,omitempty"`
	DurationMinutes  int        `json:"durationMinutes"`
	GenerateBriefing bool       `json:"generateBriefing"`
}

func (e ScheduleRequested) EventName() string { return NameScheduleRequested }

// MeetingReminderDue fires at a fixed offset before a scheduled meeting.
type MeetingReminderDue struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	MeetingID uuid.UUID `json:"meetingId"`
	Offset    string    `json:"offset"` // "24h" or "1h"
}

func (e MeetingReminderDue) EventName() string { return NameMeetingReminder }

// =============================================================================
// Sales Events
// =============================================================================

// SalesEscalation hands a contact to the sales team for manual handling.
// Published on the in-memory bus; the notification module turns it into an
// email to the sales inbox.
type SalesEscalation struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	ContactID uuid.UUID `json:"contactId"`
	Reason    string    `json:"reason"` // close_deal or needs_review
	Urgency   string    `json:"urgency"`
	Summary   string    `json:"summary"`
}

func (e SalesEscalation) EventName() string { return NameSalesEscalation }
