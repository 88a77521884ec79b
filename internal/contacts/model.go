// Package contacts holds the contact and message domain model shared by the
// dispatch and reply pipelines.
package contacts

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the communication medium used to reach a contact.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelCalendar Channel = "calendar"
	ChannelNone     Channel = "none"

	// ChannelLinkedIn is never chosen by the channel policy; it records
	// manually triggered profile outreach.
	ChannelLinkedIn Channel = "linkedin"
)

// Status is the lifecycle state of a contact. Contacts are never deleted;
// blocked and inactive are terminal.
type Status string

const (
	StatusActive           Status = "active"
	StatusQualified        Status = "qualified"
	StatusResponded        Status = "responded"
	StatusUnresponsive     Status = "unresponsive"
	StatusMeetingScheduled Status = "meeting_scheduled"
	StatusInactive         Status = "inactive"
	StatusBlocked          Status = "blocked"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusBlocked || s == StatusInactive
}

// MessageType classifies an outbound or inbound message.
type MessageType string

const (
	MessageTypeInitial        MessageType = "initial"
	MessageTypeFollowUp       MessageType = "follow_up"
	MessageTypeMeetingRequest MessageType = "meeting_request"
	MessageTypeReply          MessageType = "reply"
)

// MessageStatus tracks delivery progress. The ordering is strict: a message
// status only moves forward, never backward. Failed sits outside the
// ordering and is reachable from pending only.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusReplied   MessageStatus = "replied"
	MessageStatusFailed    MessageStatus = "failed"
)

var messageStatusRank = map[MessageStatus]int{
	MessageStatusPending:   0,
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
	MessageStatusReplied:   4,
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only ordering.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	if next == MessageStatusFailed {
		return s == MessageStatusPending
	}
	from, okFrom := messageStatusRank[s]
	to, okTo := messageStatusRank[next]
	if !okFrom || !okTo {
		return false
	}
	return to > from
}

// Contact is a prospecting target. Phones and Emails are the structured
// identifier lists; RawPhone and RawEmail hold the pipe-delimited import
// fields used as a fallback when the structured lists are empty.
type Contact struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Company     string
	Position    *string
	Segment     *string
	Phones      []string
	Emails      []string
	RawPhone    string
	RawEmail    string
	LinkedInURL *string

	Status            Status
	EngagementScore   int
	ResponseRate      float64
	LastInteractionAt *time.Time

	// MessageHistory is the ordered list of message IDs sent to or
	// received from this contact, oldest first.
	MessageHistory []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one outbound or inbound communication with a contact.
type Message struct {
	ID         uuid.UUID
	ContactID  uuid.UUID
	TenantID   uuid.UUID
	CampaignID *uuid.UUID
	Channel    Channel
	Type       MessageType
	Content    string
	Status     MessageStatus
	Metadata   map[string]any
	SentAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
