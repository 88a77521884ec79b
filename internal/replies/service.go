package replies

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/dispatch"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"
	"prospect_backend/platform/sanitize"
)

// ContactStore is the slice of the contact repository the reply pipeline
// needs.
type ContactStore interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (contacts.Contact, error)
	InsertMessage(ctx context.Context, params contacts.CreateMessageParams) (contacts.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (contacts.Message, error)
	UpdateMessageStatus(ctx context.Context, id uuid.UUID, next contacts.MessageStatus) error
	SetMessageMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error
	AppendHistory(ctx context.Context, contactID, messageID uuid.UUID, at time.Time) error
	UpdateLeadState(ctx context.Context, id uuid.UUID, status contacts.Status, engagementScore int, responseRate float64) (contacts.Contact, error)
}

// ReplyClassifier produces an Analysis for reply text. Implementations must
// not fail; degraded classification returns the fallback analysis.
type ReplyClassifier interface {
	Analyze(ctx context.Context, text string, contact contacts.Contact) Analysis
}

// ActionRouter fires the outbound event for a completed transition.
type ActionRouter interface {
	Route(ctx context.Context, contact contacts.Contact, analysis Analysis, transition Transition) error
}

// Suppressor adds a destination to the tenant's dispatch blacklist. Optional;
// a nil suppressor skips opt-out suppression.
type Suppressor interface {
	Blacklist(ctx context.Context, tenantID uuid.UUID, destination string) error
}

// Item is one inbound reply from the queue. ID identifies the delivery
// itself (the producer's outbox record or webhook ID), so two replies from
// the same contact in one batch stay distinguishable. Items for the same
// contact must be delivered serially; the queue partitioning owns that
// guarantee.
type Item struct {
	ID        string    `json:"id,omitempty"`
	ContactID uuid.UUID `json:"contactId" validate:"required"`
	TenantID  uuid.UUID `json:"tenantId" validate:"required"`
	Channel   string    `json:"channel"`
	Text      string    `json:"text"`
}

// Service runs the reply pipeline: classify, persist the raw reply, advance
// the state machine, route the next action. The raw reply and its analysis
// are persisted before the transition is applied, so a failure later in the
// pipeline never loses the inbound record.
type Service struct {
	store      ContactStore
	classifier ReplyClassifier
	router     ActionRouter
	suppressor Suppressor
	policy     ScoringPolicy
	log        *logger.Logger
}

func NewService(store ContactStore, classifier ReplyClassifier, router ActionRouter, suppressor Suppressor, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		classifier: classifier,
		router:     router,
		suppressor: suppressor,
		policy:     DefaultScoringPolicy(),
		log:        log,
	}
}

// HandleReply processes one inbound reply. Email replies arrive with HTML
// markup; the text is stripped to plain text before classification and
// storage.
func (s *Service) HandleReply(ctx context.Context, item Item) error {
	item.Text = sanitize.Text(item.Text)
	if strings.TrimSpace(item.Text) == "" {
		return apperr.Validation("reply text is empty")
	}

	contact, err := s.store.GetByID(ctx, item.TenantID, item.ContactID)
	if err != nil {
		if err == contacts.ErrNotFound {
			return apperr.Wrap(apperr.KindNotFound, "reply for unknown contact", err)
		}
		return apperr.Wrap(apperr.KindInternal, "load contact", err)
	}

	analysis := s.classifier.Analyze(ctx, item.Text, contact)

	channel := contacts.Channel(item.Channel)
	if channel == "" {
		channel = contacts.ChannelWhatsApp
	}

	now := time.Now().UTC()
	message, err := s.store.InsertMessage(ctx, contacts.CreateMessageParams{
		ContactID: contact.ID,
		TenantID:  contact.TenantID,
		Channel:   channel,
		Type:      contacts.MessageTypeReply,
		Content:   item.Text,
		Status:    contacts.MessageStatusReplied,
		Metadata: map[string]any{
			"analysis":     analysis,
			"scoreVersion": s.policy.Version,
		},
		SentAt: &now,
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "persist raw reply", err)
	}

	if err := s.store.AppendHistory(ctx, contact.ID, message.ID, now); err != nil {
		s.log.DatabaseError("append reply to history", err)
	}

	// contact was loaded before the reply was inserted, so the last history
	// entry is the message this reply answers
	s.markOutboundReplied(ctx, contact, analysis)

	transition := Advance(contact, analysis, s.policy)

	if analysis.Intent == IntentNotInterested {
		s.suppress(ctx, contact)
	}

	if _, err := s.store.UpdateLeadState(ctx, contact.ID, transition.To, transition.EngagementScore, transition.ResponseRate); err != nil {
		return apperr.Wrap(apperr.KindInternal, "apply lead transition", err)
	}

	s.log.Info("reply processed",
		"contact_id", contact.ID.String(),
		"from", transition.From,
		"to", transition.To,
		"intent", analysis.Intent,
		"sentiment", analysis.Sentiment,
		"next_action", transition.NextAction,
		"engagement_score", transition.EngagementScore,
	)

	return s.router.Route(ctx, contact, analysis, transition)
}

// markOutboundReplied advances the answered outbound message to replied and
// attaches the analysis to it. Best effort: the reply itself is already
// persisted, so bookkeeping failures are logged, never surfaced.
func (s *Service) markOutboundReplied(ctx context.Context, contact contacts.Contact, analysis Analysis) {
	if len(contact.MessageHistory) == 0 {
		return
	}
	id, err := uuid.Parse(contact.MessageHistory[len(contact.MessageHistory)-1])
	if err != nil {
		return
	}

	previous, err := s.store.GetMessage(ctx, id)
	if err != nil {
		s.log.DatabaseError("load answered message", err)
		return
	}
	if previous.Type == contacts.MessageTypeReply {
		// consecutive inbound replies; there is no outbound to mark
		return
	}

	err = s.store.UpdateMessageStatus(ctx, id, contacts.MessageStatusReplied)
	if err != nil && err != contacts.ErrStatusRegression {
		s.log.DatabaseError("mark message replied", err)
	}
	if err := s.store.SetMessageMetadata(ctx, id, map[string]any{"replyAnalysis": analysis}); err != nil {
		s.log.DatabaseError("attach analysis to answered message", err)
	}
}

// suppress blacklists the contact's dispatch destination after an explicit
// opt-out, so the eligibility gate blocks future sends.
func (s *Service) suppress(ctx context.Context, contact contacts.Contact) {
	if s.suppressor == nil {
		return
	}
	decision := dispatch.Decide(contact)
	if decision.Destination == "" {
		return
	}
	if err := s.suppressor.Blacklist(ctx, contact.TenantID, decision.Destination); err != nil {
		s.log.Warn("opt-out blacklist update failed",
			"contact_id", contact.ID.String(),
			"error", err,
		)
		return
	}
	s.log.Info("destination blacklisted after opt-out",
		"contact_id", contact.ID.String(),
		"channel", string(decision.Channel),
	)
}
