package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"
)

// GeneratedMessage is the message-generation collaborator's output.
type GeneratedMessage struct {
	Text         string
	UsedFallback bool
}

// Generator produces personalized outbound message content.
type Generator interface {
	Generate(ctx context.Context, contact contacts.Contact, messageType contacts.MessageType) (GeneratedMessage, error)
}

// Transport sends one message to a destination on a specific channel.
type Transport interface {
	Send(ctx context.Context, destination, text string) error
}

// Signaler supplies runtime eligibility signals and records confirmed sends.
type Signaler interface {
	Gather(ctx context.Context, tenantID uuid.UUID, destination string) Signals
	RecordDispatch(ctx context.Context, tenantID uuid.UUID)
}

// Store is the slice of the contact repository the orchestrator writes to.
type Store interface {
	InsertMessage(ctx context.Context, params contacts.CreateMessageParams) (contacts.Message, error)
	AppendHistory(ctx context.Context, contactID, messageID uuid.UUID, at time.Time) error
}

// Campaign carries the per-batch dispatch context.
type Campaign struct {
	ID          *uuid.UUID
	MessageType contacts.MessageType
}

// Outcome records what happened to one dispatch attempt. An ineligible
// dispatch is a normal outcome, not an error.
type Outcome struct {
	ContactID      uuid.UUID
	Decision       Decision
	Eligible       bool
	BlockingReason string
	Sent           bool
	MessageID      uuid.UUID
	UsedFallback   bool
}

// Orchestrator runs the decide, gate, generate, send, record sequence for
// one contact. Transport failures surface as retryable errors; the batch
// runner owns the retry policy.
type Orchestrator struct {
	store      Store
	signals    Signaler
	generator  Generator
	transports map[contacts.Channel]Transport
	log        *logger.Logger
}

func NewOrchestrator(
	store Store,
	signals Signaler,
	generator Generator,
	transports map[contacts.Channel]Transport,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		signals:    signals,
		generator:  generator,
		transports: transports,
		log:        log,
	}
}

// Dispatch attempts one outbound send. Contacts in a terminal status are
// skipped with a validation error so the batch runner drops them without
// retry.
func (o *Orchestrator) Dispatch(ctx context.Context, contact contacts.Contact, campaign Campaign) (Outcome, error) {
	outcome := Outcome{ContactID: contact.ID}

	if contact.Status.Terminal() {
		return outcome, apperr.Validation(fmt.Sprintf("contact is %s, dispatch refused", contact.Status))
	}

	decision := Decide(contact)
	outcome.Decision = decision

	signals := o.signals.Gather(ctx, contact.TenantID, decision.Destination)
	eligibility := Check(decision, signals)
	if !eligibility.WouldExecute {
		outcome.BlockingReason = eligibility.BlockingReason
		o.log.DispatchBlocked(contact.ID.String(), string(decision.Channel), eligibility.BlockingReason)
		return outcome, nil
	}
	outcome.Eligible = true

	messageType := campaign.MessageType
	if messageType == "" {
		messageType = contacts.MessageTypeInitial
	}

	generated, err := o.generator.Generate(ctx, contact, messageType)
	if err != nil {
		o.log.CollaboratorDegraded("message_generator", err)
		generated = GeneratedMessage{
			Text:         fallbackGreeting(contact, messageType),
			UsedFallback: true,
		}
	}
	outcome.UsedFallback = generated.UsedFallback

	transport, ok := o.transports[decision.Channel]
	if !ok {
		return outcome, apperr.Unavailable(fmt.Sprintf("no transport configured for channel %s", decision.Channel))
	}

	if err := transport.Send(ctx, decision.Destination, generated.Text); err != nil {
		return outcome, apperr.Wrap(apperr.KindTransient, "channel send failed", err).WithOp("dispatch")
	}

	now := time.Now().UTC()
	message, err := o.store.InsertMessage(ctx, contacts.CreateMessageParams{
		ContactID:  contact.ID,
		TenantID:   contact.TenantID,
		CampaignID: campaign.ID,
		Channel:    decision.Channel,
		Type:       messageType,
		Content:    generated.Text,
		Status:     contacts.MessageStatusSent,
		Metadata: map[string]any{
			"templateId":   decision.TemplateID,
			"usedFallback": generated.UsedFallback,
		},
		SentAt: &now,
	})
	if err != nil {
		// the message left the gateway but we lost the record; surface as
		// retryable so redelivery reconciles the history
		return outcome, apperr.Wrap(apperr.KindInternal, "persist sent message", err)
	}

	if err := o.store.AppendHistory(ctx, contact.ID, message.ID, now); err != nil {
		o.log.DatabaseError("append message history", err)
	}

	o.signals.RecordDispatch(ctx, contact.TenantID)

	outcome.Sent = true
	outcome.MessageID = message.ID
	return outcome, nil
}

// fallbackGreeting is the minimal template used when the generator
// collaborator is down. Personalization is limited to name and company.
func fallbackGreeting(contact contacts.Contact, messageType contacts.MessageType) string {
	name := contact.Name
	if name == "" {
		name = "there"
	}
	switch messageType {
	case contacts.MessageTypeFollowUp:
		return fmt.Sprintf("Hi %s, just following up on my previous message. Would love to hear your thoughts.", name)
	case contacts.MessageTypeMeetingRequest:
		return fmt.Sprintf("Hi %s, would you be open to a quick call this week?", name)
	default:
		if contact.Company != "" {
			return fmt.Sprintf("Hi %s, I came across %s and would love to connect.", name, contact.Company)
		}
		return fmt.Sprintf("Hi %s, I would love to connect.", name)
	}
}
