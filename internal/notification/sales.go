// Package notification turns sales escalation events into emails to the
// sales team inbox.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/email"
	domainevents "prospect_backend/internal/events"
	platformevents "prospect_backend/platform/events"
	"prospect_backend/platform/logger"
)

// ContactReader loads contact details for the notification body.
type ContactReader interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (contacts.Contact, error)
}

// SalesNotifier subscribes to sales escalation events and emails the sales
// team. Delivery is best effort; a failed notification is logged, never
// retried, because the escalation itself is already persisted on the
// contact's message history.
type SalesNotifier struct {
	sender     email.Sender
	salesEmail string
	contactsDB ContactReader
	log        *logger.Logger
}

func NewSalesNotifier(sender email.Sender, salesEmail string, contactsDB ContactReader, log *logger.Logger) *SalesNotifier {
	return &SalesNotifier{
		sender:     sender,
		salesEmail: salesEmail,
		contactsDB: contactsDB,
		log:        log,
	}
}

// Register subscribes the notifier on the bus.
func (n *SalesNotifier) Register(bus domainevents.Bus) {
	bus.Subscribe(domainevents.NameSalesEscalation, platformevents.HandlerFunc(n.handle))
}

func (n *SalesNotifier) handle(ctx context.Context, event platformevents.Event) error {
	escalation, ok := event.(domainevents.SalesEscalation)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if n.salesEmail == "" {
		n.log.Warn("sales escalation dropped, no sales email configured",
			"contact_id", escalation.ContactID.String())
		return nil
	}

	subject, body := n.compose(ctx, escalation)
	if err := n.sender.SendSalesNotification(ctx, n.salesEmail, subject, body); err != nil {
		n.log.Warn("sales notification failed",
			"contact_id", escalation.ContactID.String(),
			"error", err,
		)
	}
	return nil
}

func (n *SalesNotifier) compose(ctx context.Context, escalation domainevents.SalesEscalation) (string, string) {
	label := "Lead needs review"
	if escalation.Reason == "close_deal" {
		label = "Lead ready to close"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", escalation.Summary)

	contact, err := n.contactsDB.GetByID(ctx, escalation.TenantID, escalation.ContactID)
	if err != nil {
		n.log.DatabaseError("load contact for escalation", err)
		fmt.Fprintf(&b, "Contact ID: %s\n\n", escalation.ContactID)
	} else {
		fmt.Fprintf(&b, "Contact: %s (%s)\n\n", contact.Name, contact.Company)
		fmt.Fprintf(&b, "Status: %s, engagement %d/100\n\n", contact.Status, contact.EngagementScore)
	}

	fmt.Fprintf(&b, "Urgency: %s", escalation.Urgency)

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(escalation.Urgency), label)
	return subject, b.String()
}
