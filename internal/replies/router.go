package replies

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
	domainevents "prospect_backend/internal/events"
	"prospect_backend/internal/outbox"
	"prospect_backend/platform/logger"
)

const defaultMeetingMinutes = 30

// Outbox is the slice of the outbox repository the router writes to.
type Outbox interface {
	Insert(ctx context.Context, params outbox.InsertParams) (uuid.UUID, error)
}

// Router turns a state machine next action into exactly one outbound event.
// Queue-bound actions (follow-up, scheduling) go through the Postgres outbox
// so they survive a crash; sales escalations are in-process notifications
// published on the event bus. The router never calls a downstream system
// directly, keeping reply latency independent of downstream health.
type Router struct {
	outbox Outbox
	bus    domainevents.Bus
	log    *logger.Logger
}

func NewRouter(ob Outbox, bus domainevents.Bus, log *logger.Logger) *Router {
	return &Router{outbox: ob, bus: bus, log: log}
}

// Route fires the single outbound event for a transition.
func (r *Router) Route(ctx context.Context, contact contacts.Contact, analysis Analysis, transition Transition) error {
	switch transition.NextAction {
	case ActionScheduleMeeting:
		_, err := r.outbox.Insert(ctx, outbox.InsertParams{
			TenantID: contact.TenantID,
			Kind:     domainevents.NameScheduleRequested,
			Payload: domainevents.ScheduleRequested{
				BaseEvent:        domainevents.NewBaseEvent(),
				TenantID:         contact.TenantID,
				ContactID:        contact.ID,
				DurationMinutes:  defaultMeetingMinutes,
				GenerateBriefing: true,
			},
		})
		return err

	case ActionSendInfo, ActionFollowUp:
		_, err := r.outbox.Insert(ctx, outbox.InsertParams{
			TenantID: contact.TenantID,
			Kind:     domainevents.NameFollowUpRequested,
			Payload: domainevents.FollowUpRequested{
				BaseEvent:   domainevents.NewBaseEvent(),
				TenantID:    contact.TenantID,
				ContactID:   contact.ID,
				MessageType: string(contacts.MessageTypeFollowUp),
				Reason:      string(transition.NextAction),
			},
		})
		return err

	case ActionCloseDeal:
		r.publishEscalation(ctx, contact, analysis, "close_deal",
			fmt.Sprintf("%s at %s is ready to close", contact.Name, contact.Company))
		return nil

	case ActionManualReview:
		r.publishEscalation(ctx, contact, analysis, "needs_review",
			fmt.Sprintf("reply from %s needs a human look (confidence %.2f)", contact.Name, analysis.Confidence))
		return nil

	default:
		// sanitizeAnalysis guarantees a known action; reaching here is a bug
		r.log.Error("unroutable next action", "action", transition.NextAction)
		r.publishEscalation(ctx, contact, analysis, "needs_review", "unroutable next action")
		return nil
	}
}

func (r *Router) publishEscalation(ctx context.Context, contact contacts.Contact, analysis Analysis, reason, summary string) {
	r.bus.Publish(ctx, domainevents.SalesEscalation{
		BaseEvent: domainevents.NewBaseEvent(),
		TenantID:  contact.TenantID,
		ContactID: contact.ID,
		Reason:    reason,
		Urgency:   string(analysis.Urgency),
		Summary:   summary,
	})
}
