// Package scheduler owns the queue: task definitions, the enqueue client,
// the worker that consumes every pipeline stage, and the outbox dispatcher.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"prospect_backend/internal/ingest"
	"prospect_backend/internal/replies"
)

// One task type per pipeline stage.
const (
	TaskContactIngest   = "contacts.ingest"
	TaskDispatchSend    = "dispatch.send"
	TaskReplyHandle     = "replies.handle"
	TaskMeetingSchedule = "meetings.schedule"
	TaskMeetingReminder = "meetings.reminder"
)

// IngestBatchPayload carries one batch of imported contact rows.
type IngestBatchPayload struct {
	Rows []ingest.Row `json:"rows"`
}

// DispatchBatchPayload carries one batch of contacts to dispatch to.
type DispatchBatchPayload struct {
	TenantID    string   `json:"tenantId"`
	ContactIDs  []string `json:"contactIds"`
	CampaignID  *string  `json:"campaignId,omitempty"`
	MessageType string   `json:"messageType"`
}

// ReplyBatchPayload carries one batch of inbound replies.
type ReplyBatchPayload struct {
	Items []replies.Item `json:"items"`
}

// MeetingReminderPayload fires one reminder for one meeting.
type MeetingReminderPayload struct {
	TenantID  string `json:"tenantId"`
	MeetingID string `json:"meetingId"`
	Offset    string `json:"offset"`
}

// Meeting schedule tasks carry the ScheduleRequested event JSON verbatim;
// the outbox dispatcher forwards the stored payload without re-encoding.

func newTask(taskType string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func parsePayload[T any](task *asynq.Task) (T, error) {
	var payload T
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
