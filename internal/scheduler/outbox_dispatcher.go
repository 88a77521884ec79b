package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	domainevents "prospect_backend/internal/events"
	"prospect_backend/internal/outbox"
	"prospect_backend/internal/replies"
	"prospect_backend/platform/logger"
)

var errUnknownKind = errors.New("unknown outbox kind")

const (
	outboxPollInterval = 2 * time.Second
	outboxClaimLimit   = 50
)

// OutboxStore is the slice of the outbox repository the dispatcher drives.
type OutboxStore interface {
	ClaimPending(ctx context.Context, limit int) ([]outbox.Record, error)
	MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// taskEnqueuer is the slice of the queue client the dispatcher uses.
type taskEnqueuer interface {
	enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error
	EnqueueDispatchBatch(ctx context.Context, payload DispatchBatchPayload) error
	EnqueueReplyBatch(ctx context.Context, items []replies.Item) error
	ScheduleMeetingReminder(ctx context.Context, tenantID, meetingID uuid.UUID, offset string, runAt time.Time) error
}

// OutboxDispatcher polls the event outbox and turns stored events into queue
// tasks. A record that fails to enqueue goes back to pending and is retried
// on a later tick.
type OutboxDispatcher struct {
	repo   OutboxStore
	client taskEnqueuer
	log    *logger.Logger
}

func NewOutboxDispatcher(repo *outbox.Repository, client *Client, log *logger.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{repo: repo, client: client, log: log}
}

// Run polls until the context is cancelled.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()

	d.log.Info("outbox dispatcher started", "poll_interval", outboxPollInterval.String())
	for {
		select {
		case <-ctx.Done():
			d.log.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *OutboxDispatcher) tick(ctx context.Context) {
	records, err := d.repo.ClaimPending(ctx, outboxClaimLimit)
	if err != nil {
		d.log.DatabaseError("claim outbox records", err)
		return
	}

	for _, rec := range records {
		// per-attempt bookkeeping: attempts counts every delivery try
		if err := d.repo.MarkProcessing(ctx, rec.ID); err != nil {
			d.log.DatabaseError("mark outbox record processing", err)
		}
		if err := d.enqueueRecord(ctx, rec); err != nil {
			if errors.Is(err, errUnknownKind) {
				// parked as failed so it stops burning ticks
				d.log.Warn("outbox record has unknown kind",
					"record_id", rec.ID.String(),
					"kind", rec.Kind,
				)
				if markErr := d.repo.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
					d.log.DatabaseError("mark outbox record failed", markErr)
				}
				continue
			}
			msg := err.Error()
			if markErr := d.repo.MarkPending(ctx, rec.ID, &msg); markErr != nil {
				d.log.DatabaseError("return outbox record to pending", markErr)
			}
			d.log.Warn("outbox record enqueue failed",
				"record_id", rec.ID.String(),
				"kind", rec.Kind,
				"error", err,
			)
			continue
		}
		if err := d.repo.MarkSucceeded(ctx, rec.ID); err != nil {
			d.log.DatabaseError("mark outbox record succeeded", err)
		}
	}
}

// enqueueRecord maps one outbox kind to its queue task. Stored payloads are
// the event JSON, forwarded verbatim where the task shape matches.
func (d *OutboxDispatcher) enqueueRecord(ctx context.Context, rec outbox.Record) error {
	switch rec.Kind {
	case domainevents.NameScheduleRequested:
		return d.client.enqueue(ctx, asynq.NewTask(TaskMeetingSchedule, rec.Payload))

	case domainevents.NameDispatchRequested:
		var ev domainevents.DispatchRequested
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("decode dispatch event: %w", err)
		}
		payload := DispatchBatchPayload{
			TenantID:    ev.TenantID.String(),
			MessageType: ev.MessageType,
		}
		if ev.CampaignID != nil {
			id := ev.CampaignID.String()
			payload.CampaignID = &id
		}
		for _, contactID := range ev.ContactIDs {
			payload.ContactIDs = append(payload.ContactIDs, contactID.String())
		}
		return d.client.EnqueueDispatchBatch(ctx, payload)

	case domainevents.NameFollowUpRequested:
		var ev domainevents.FollowUpRequested
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("decode follow-up event: %w", err)
		}
		return d.client.EnqueueDispatchBatch(ctx, DispatchBatchPayload{
			TenantID:    ev.TenantID.String(),
			ContactIDs:  []string{ev.ContactID.String()},
			MessageType: ev.MessageType,
		})

	case domainevents.NameMeetingReminder:
		var ev domainevents.MeetingReminderDue
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("decode reminder event: %w", err)
		}
		return d.client.ScheduleMeetingReminder(ctx, ev.TenantID, ev.MeetingID, ev.Offset, rec.RunAt)

	case domainevents.NameReplyReceived:
		var ev domainevents.ReplyReceived
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("decode reply event: %w", err)
		}
		return d.client.EnqueueReplyBatch(ctx, []replies.Item{{
			ID:        rec.ID.String(),
			ContactID: ev.ContactID,
			TenantID:  ev.TenantID,
			Channel:   ev.Channel,
			Text:      ev.Text,
		}})

	default:
		return fmt.Errorf("%w: %s", errUnknownKind, rec.Kind)
	}
}
