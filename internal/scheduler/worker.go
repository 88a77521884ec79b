package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/dispatch"
	domainevents "prospect_backend/internal/events"
	"prospect_backend/internal/ingest"
	"prospect_backend/internal/meetings"
	"prospect_backend/internal/replies"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/batch"
	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
	"prospect_backend/platform/validator"
)

// ContactLister loads the contacts named in a dispatch batch.
type ContactLister interface {
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]contacts.Contact, error)
}

// Enqueuer re-queues the failed remainder of a partially failed batch.
type Enqueuer interface {
	EnqueueDispatchBatch(ctx context.Context, payload DispatchBatchPayload) error
	EnqueueReplyBatch(ctx context.Context, items []replies.Item) error
}

// Worker consumes every pipeline stage from the queue: contact ingestion,
// outbound dispatch, inbound replies, meeting scheduling, and reminders.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger

	ingestSvc    *ingest.Service
	orchestrator *dispatch.Orchestrator
	contactsDB   ContactLister
	repliesSvc   *replies.Service
	meetingsSvc  *meetings.Service
	enqueuer     Enqueuer
	val          *validator.Validator

	batchOpts batch.Options
}

func NewWorker(
	cfg config.SchedulerConfig,
	dispatchCfg config.DispatchConfig,
	ingestSvc *ingest.Service,
	orchestrator *dispatch.Orchestrator,
	contactsDB ContactLister,
	repliesSvc *replies.Service,
	meetingsSvc *meetings.Service,
	enqueuer Enqueuer,
	log *logger.Logger,
) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, fmt.Errorf("scheduler worker: %w", err)
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetWorkerConcurrency(),
		Queues:      map[string]int{queue: 1},
		Logger:      asynqLogger{log},
	})

	w := &Worker{
		server:       server,
		mux:          asynq.NewServeMux(),
		log:          log,
		ingestSvc:    ingestSvc,
		orchestrator: orchestrator,
		contactsDB:   contactsDB,
		repliesSvc:   repliesSvc,
		meetingsSvc:  meetingsSvc,
		enqueuer:     enqueuer,
		val:          validator.New(),
		batchOpts: batch.Options{
			MaxConcurrency: dispatchCfg.GetBatchMaxConcurrency(),
			MaxRetries:     dispatchCfg.GetBatchMaxRetries(),
			RetryBaseDelay: dispatchCfg.GetBatchRetryBaseDelay(),
			PartialFailure: true,
		},
	}

	w.mux.HandleFunc(TaskContactIngest, w.handleContactIngest)
	w.mux.HandleFunc(TaskDispatchSend, w.handleDispatch)
	w.mux.HandleFunc(TaskReplyHandle, w.handleReplyBatch)
	w.mux.HandleFunc(TaskMeetingSchedule, w.handleMeetingSchedule)
	w.mux.HandleFunc(TaskMeetingReminder, w.handleMeetingReminder)

	return w, nil
}

// Run serves tasks until the context is cancelled, then shuts down
// gracefully so in-flight batches finish.
func (w *Worker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()
	return w.server.Run(w.mux)
}

func (w *Worker) handleContactIngest(ctx context.Context, task *asynq.Task) error {
	payload, err := parsePayload[IngestBatchPayload](task)
	if err != nil {
		return fmt.Errorf("ingest payload: %w: %w", err, asynq.SkipRetry)
	}

	opts := w.batchOpts
	opts.Parallel = true
	res, err := batch.Run(ctx, w.log, payload.Rows, opts, ingestRowID,
		func(ctx context.Context, row ingest.Row) error {
			_, _, err := w.ingestSvc.Ingest(ctx, row)
			return err
		})
	if err != nil {
		return err
	}
	w.log.BatchSummary(TaskContactIngest, res.Total, len(res.Succeeded), len(res.Failed), len(res.Dropped), res.Duration)
	return nil
}

func (w *Worker) handleDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := parsePayload[DispatchBatchPayload](task)
	if err != nil {
		return fmt.Errorf("dispatch payload: %w: %w", err, asynq.SkipRetry)
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("dispatch tenant id %q: %w: %w", payload.TenantID, err, asynq.SkipRetry)
	}

	ids := make([]uuid.UUID, 0, len(payload.ContactIDs))
	for _, raw := range payload.ContactIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			w.log.Warn("dispatch batch skipping malformed contact id", "contact_id", raw)
			continue
		}
		ids = append(ids, id)
	}

	batchContacts, err := w.contactsDB.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return fmt.Errorf("load dispatch contacts: %w", err)
	}
	if missing := len(ids) - len(batchContacts); missing > 0 {
		w.log.Warn("dispatch batch references unknown contacts",
			"tenant_id", tenantID.String(),
			"missing", missing,
		)
	}

	campaign := dispatch.Campaign{MessageType: contacts.MessageType(payload.MessageType)}
	if payload.CampaignID != nil {
		if id, err := uuid.Parse(*payload.CampaignID); err == nil {
			campaign.ID = &id
		}
	}

	opts := w.batchOpts
	opts.Parallel = true
	res, err := batch.Run(ctx, w.log, batchContacts, opts,
		func(c contacts.Contact) string { return c.ID.String() },
		func(ctx context.Context, c contacts.Contact) error {
			_, err := w.orchestrator.Dispatch(ctx, c, campaign)
			return err
		})
	if err != nil {
		return err
	}
	w.log.BatchSummary(TaskDispatchSend, res.Total, len(res.Succeeded), len(res.Failed), len(res.Dropped), res.Duration)

	w.requeueFailedDispatches(ctx, payload, res.Failed)
	return nil
}

// requeueFailedDispatches puts the retryable remainder of a batch back on
// the queue as its own task. Result.Failed never contains permanently failed
// items; the batch runner reports those in Dropped and they stay dropped.
func (w *Worker) requeueFailedDispatches(ctx context.Context, payload DispatchBatchPayload, failed []string) {
	if len(failed) == 0 || w.enqueuer == nil {
		return
	}
	retry := payload
	retry.ContactIDs = failed
	if err := w.enqueuer.EnqueueDispatchBatch(ctx, retry); err != nil {
		w.log.Warn("failed dispatch items could not be requeued",
			"tenant_id", payload.TenantID,
			"count", len(failed),
			"error", err,
		)
	}
}

func (w *Worker) handleReplyBatch(ctx context.Context, task *asynq.Task) error {
	payload, err := parsePayload[ReplyBatchPayload](task)
	if err != nil {
		return fmt.Errorf("reply payload: %w: %w", err, asynq.SkipRetry)
	}

	// replies stay sequential: two replies from the same contact in one
	// batch must advance the lead state in arrival order
	res, err := batch.Run(ctx, w.log, payload.Items, w.batchOpts, replyItemID,
		func(ctx context.Context, item replies.Item) error {
			if err := w.val.Payload(item); err != nil {
				return err
			}
			return w.repliesSvc.HandleReply(ctx, item)
		})
	if err != nil {
		return err
	}
	w.log.BatchSummary(TaskReplyHandle, res.Total, len(res.Succeeded), len(res.Failed), len(res.Dropped), res.Duration)

	w.requeueFailedReplies(ctx, payload.Items, res.Failed)
	return nil
}

func (w *Worker) requeueFailedReplies(ctx context.Context, items []replies.Item, failed []string) {
	if len(failed) == 0 || w.enqueuer == nil {
		return
	}
	failedSet := make(map[string]struct{}, len(failed))
	for _, id := range failed {
		failedSet[id] = struct{}{}
	}
	var retry []replies.Item
	for _, item := range items {
		if _, ok := failedSet[replyItemID(item)]; ok {
			retry = append(retry, item)
		}
	}
	if err := w.enqueuer.EnqueueReplyBatch(ctx, retry); err != nil {
		w.log.Warn("failed reply items could not be requeued",
			"count", len(retry),
			"error", err,
		)
	}
}

func (w *Worker) handleMeetingSchedule(ctx context.Context, task *asynq.Task) error {
	var req domainevents.ScheduleRequested
	if err := json.Unmarshal(task.Payload(), &req); err != nil {
		return fmt.Errorf("schedule payload: %w: %w", err, asynq.SkipRetry)
	}

	if _, err := w.meetingsSvc.Schedule(ctx, req); err != nil {
		return asDeliveryError("schedule meeting", err)
	}
	return nil
}

func (w *Worker) handleMeetingReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := parsePayload[MeetingReminderPayload](task)
	if err != nil {
		return fmt.Errorf("reminder payload: %w: %w", err, asynq.SkipRetry)
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("reminder tenant id %q: %w: %w", payload.TenantID, err, asynq.SkipRetry)
	}
	meetingID, err := uuid.Parse(payload.MeetingID)
	if err != nil {
		return fmt.Errorf("reminder meeting id %q: %w: %w", payload.MeetingID, err, asynq.SkipRetry)
	}

	ev := domainevents.MeetingReminderDue{
		BaseEvent: domainevents.NewBaseEvent(),
		TenantID:  tenantID,
		MeetingID: meetingID,
		Offset:    payload.Offset,
	}
	if err := w.meetingsSvc.HandleReminder(ctx, ev); err != nil {
		return asDeliveryError("meeting reminder", err)
	}
	return nil
}

// asDeliveryError maps permanent domain failures to SkipRetry so asynq does
// not redeliver work that can never succeed.
func asDeliveryError(op string, err error) error {
	if !apperr.Retryable(err) {
		return fmt.Errorf("%s: %w: %w", op, err, asynq.SkipRetry)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// replyItemID identifies one reply within a batch: the delivery ID when the
// producer set one, the contact otherwise.
func replyItemID(item replies.Item) string {
	if item.ID != "" {
		return item.ID
	}
	return item.ContactID.String()
}

func ingestRowID(row ingest.Row) string {
	switch {
	case row.Phone != "":
		return row.Phone
	case row.Email != "":
		return row.Email
	default:
		return row.Name
	}
}

// asynqLogger adapts the platform logger to asynq's internal logging.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.log.Error(fmt.Sprint(args...)) }
