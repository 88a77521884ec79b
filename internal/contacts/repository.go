package contacts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("contact not found")
	ErrMessageNotFound = errors.New("message not found")
	// ErrStatusRegression is returned when a message status update would
	// move backward in the delivery ordering.
	ErrStatusRegression = errors.New("message status cannot move backward")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = `
	id, tenant_id, name, company, position, segment, phones, emails,
	raw_phone, raw_email, linkedin_url, status, engagement_score,
	response_rate, last_interaction_at, message_history, created_at, updated_at`

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Company, &c.Position, &c.Segment,
		&c.Phones, &c.Emails, &c.RawPhone, &c.RawEmail, &c.LinkedInURL,
		&c.Status, &c.EngagementScore, &c.ResponseRate, &c.LastInteractionAt,
		&c.MessageHistory, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

type CreateContactParams struct {
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
}

func (r *Repository) Create(ctx context.Context, params CreateContactParams) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx, `
		INSERT INTO contacts (
			tenant_id, name, company, position, segment, phones, emails,
			raw_phone, raw_email, linkedin_url, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'active')
		RETURNING`+contactColumns,
		params.TenantID, params.Name, params.Company, params.Position, params.Segment,
		params.Phones, params.Emails, params.RawPhone, params.RawEmail, params.LinkedInURL,
	))
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx, `
		SELECT`+contactColumns+`
		FROM contacts
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
}

func (r *Repository) ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+contactColumns+`
		FROM contacts
		WHERE tenant_id = $1 AND id = ANY($2)
	`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Contact, 0, len(ids))
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByIdentifier looks a contact up by phone or email within a tenant,
// matching both the structured lists and the raw import fields. Used for
// duplicate detection on ingestion and for resolving inbound replies.
func (r *Repository) FindByIdentifier(ctx context.Context, tenantID uuid.UUID, phone, email string) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx, `
		SELECT`+contactColumns+`
		FROM contacts
		WHERE tenant_id = $1
		  AND (
			($2 <> '' AND ($2 = ANY(phones) OR raw_phone LIKE '%' || $2 || '%'))
			OR
			($3 <> '' AND ($3 = ANY(emails) OR raw_email LIKE '%' || $3 || '%'))
		  )
		ORDER BY created_at ASC
		LIMIT 1
	`, tenantID, phone, email))
}

// UpdateLeadState persists the outcome of one state machine transition:
// status, engagement score, and response rate together.
func (r *Repository) UpdateLeadState(ctx context.Context, id uuid.UUID, status Status, engagementScore int, responseRate float64) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx, `
		UPDATE contacts
		SET status = $2,
			engagement_score = $3,
			response_rate = $4,
			last_interaction_at = now(),
			updated_at = now()
		WHERE id = $1
		RETURNING`+contactColumns,
		id, status, engagementScore, responseRate,
	))
}

func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendHistory records a message in the contact's ordered history and
// bumps last_interaction_at. Called only after a confirmed send or a
// persisted inbound reply.
func (r *Repository) AppendHistory(ctx context.Context, contactID, messageID uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts
		SET message_history = array_append(message_history, $2::text),
			last_interaction_at = $3,
			updated_at = now()
		WHERE id = $1
	`, contactID, messageID.String(), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type CreateMessageParams struct {
	ContactID  uuid.UUID
	TenantID   uuid.UUID
	CampaignID *uuid.UUID
	Channel    Channel
	Type       MessageType
	Content    string
	Status     MessageStatus
	Metadata   map[string]any
	SentAt     *time.Time
}

func (r *Repository) InsertMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (
			contact_id, tenant_id, campaign_id, channel, type, content,
			status, metadata, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, contact_id, tenant_id, campaign_id, channel, type,
			content, status, metadata, sent_at, created_at, updated_at
	`,
		params.ContactID, params.TenantID, params.CampaignID, params.Channel,
		params.Type, params.Content, params.Status, params.Metadata, params.SentAt,
	).Scan(
		&m.ID, &m.ContactID, &m.TenantID, &m.CampaignID, &m.Channel, &m.Type,
		&m.Content, &m.Status, &m.Metadata, &m.SentAt, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func (r *Repository) GetMessage(ctx context.Context, id uuid.UUID) (Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx, `
		SELECT id, contact_id, tenant_id, campaign_id, channel, type,
			content, status, metadata, sent_at, created_at, updated_at
		FROM messages
		WHERE id = $1
	`, id).Scan(
		&m.ID, &m.ContactID, &m.TenantID, &m.CampaignID, &m.Channel, &m.Type,
		&m.Content, &m.Status, &m.Metadata, &m.SentAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrMessageNotFound
	}
	return m, err
}

// UpdateMessageStatus advances a message's delivery status. The forward-only
// ordering is enforced inside a transaction so concurrent webhook callbacks
// cannot regress a status.
func (r *Repository) UpdateMessageStatus(ctx context.Context, id uuid.UUID, next MessageStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current MessageStatus
	err = tx.QueryRow(ctx, `SELECT status FROM messages WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}

	if !current.CanTransitionTo(next) {
		return ErrStatusRegression
	}

	if _, err := tx.Exec(ctx, `
		UPDATE messages SET status = $2, updated_at = now() WHERE id = $1
	`, id, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetMessageMetadata merges classifier output (or other annotations) into a
// message's metadata.
func (r *Repository) SetMessageMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET metadata = COALESCE(metadata, '{}'::jsonb) || $2,
			updated_at = now()
		WHERE id = $1
	`, id, metadata)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
