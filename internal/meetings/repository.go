package meetings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("meeting not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const meetingColumns = `
	id, tenant_id, contact_id, scheduled_at, duration_minutes, status,
	meeting_url, calendar_event_id, briefing_key, created_at, updated_at`

func scanMeeting(row pgx.Row) (Meeting, error) {
	var m Meeting
	err := row.Scan(
		&m.ID, &m.TenantID, &m.ContactID, &m.ScheduledAt, &m.DurationMinutes,
		&m.Status, &m.MeetingURL, &m.CalendarEventID, &m.BriefingKey,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Meeting{}, ErrNotFound
	}
	return m, err
}

type CreateParams struct {
	TenantID        uuid.UUID
	ContactID       uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	MeetingURL      *string
	CalendarEventID *string
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Meeting, error) {
	return scanMeeting(r.pool.QueryRow(ctx, `
		INSERT INTO meetings (
			tenant_id, contact_id, scheduled_at, duration_minutes, status,
			meeting_url, calendar_event_id
		) VALUES ($1, $2, $3, $4, 'scheduled', $5, $6)
		RETURNING`+meetingColumns,
		params.TenantID, params.ContactID, params.ScheduledAt,
		params.DurationMinutes, params.MeetingURL, params.CalendarEventID,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Meeting, error) {
	return scanMeeting(r.pool.QueryRow(ctx, `
		SELECT`+meetingColumns+`
		FROM meetings
		WHERE id = $1
	`, id))
}

// FindActiveByContact returns the contact's meeting in scheduled or
// confirmed state, if any. The at-most-one-active invariant is a documented
// assumption; this query takes the earliest when data violates it.
func (r *Repository) FindActiveByContact(ctx context.Context, contactID uuid.UUID) (Meeting, error) {
	return scanMeeting(r.pool.QueryRow(ctx, `
		SELECT`+meetingColumns+`
		FROM meetings
		WHERE contact_id = $1 AND status IN ('scheduled', 'confirmed')
		ORDER BY scheduled_at ASC
		LIMIT 1
	`, contactID))
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE meetings SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetBriefing(ctx context.Context, id uuid.UUID, briefingKey string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE meetings SET briefing_key = $2, updated_at = now() WHERE id = $1
	`, id, briefingKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
