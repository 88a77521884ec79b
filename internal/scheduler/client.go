package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"prospect_backend/internal/replies"
	"prospect_backend/platform/config"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	if c == nil || c.client == nil {
		return nil
	}
	opts = append(opts, asynq.Queue(c.queue))
	_, err := c.client.EnqueueContext(ctx, task, opts...)
	return err
}

// EnqueueIngestBatch queues a batch of imported contact rows.
func (c *Client) EnqueueIngestBatch(ctx context.Context, payload IngestBatchPayload) error {
	task, err := newTask(TaskContactIngest, payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueDispatchBatch queues a batch of contacts for outbound dispatch.
func (c *Client) EnqueueDispatchBatch(ctx context.Context, payload DispatchBatchPayload) error {
	task, err := newTask(TaskDispatchSend, payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueReplyBatch queues a batch of inbound replies.
func (c *Client) EnqueueReplyBatch(ctx context.Context, items []replies.Item) error {
	task, err := newTask(TaskReplyHandle, ReplyBatchPayload{Items: items})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// ScheduleMeetingReminder queues a reminder for delivery at runAt.
// Satisfies the meetings reminder-scheduler contract.
func (c *Client) ScheduleMeetingReminder(ctx context.Context, tenantID, meetingID uuid.UUID, offset string, runAt time.Time) error {
	task, err := newTask(TaskMeetingReminder, MeetingReminderPayload{
		TenantID:  tenantID.String(),
		MeetingID: meetingID.String(),
		Offset:    offset,
	})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.ProcessAt(runAt))
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
