// Package ingest turns imported contact rows into contact records:
// validation, identifier normalization, duplicate detection, creation.
package ingest

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/dispatch"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"
	"prospect_backend/platform/phone"
	"prospect_backend/platform/validator"
)

// Row is one imported contact as it arrives on the ingestion queue. Phone
// and Email may carry multiple pipe-delimited values.
type Row struct {
	TenantID    uuid.UUID `json:"tenantId" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Segment     string    `json:"segment"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	LinkedInURL string    `json:"linkedinUrl"`
}

// Store is the slice of the contact repository ingestion uses.
type Store interface {
	FindByIdentifier(ctx context.Context, tenantID uuid.UUID, phoneValue, emailValue string) (contacts.Contact, error)
	Create(ctx context.Context, params contacts.CreateContactParams) (contacts.Contact, error)
}

type Service struct {
	store     Store
	validator *validator.Validator
	log       *logger.Logger
}

func NewService(store Store, v *validator.Validator, log *logger.Logger) *Service {
	return &Service{store: store, validator: v, log: log}
}

// Ingest creates a contact from one row. Returns the contact and whether it
// was newly created; a row matching an existing contact by phone or email is
// a no-op that returns the existing record.
func (s *Service) Ingest(ctx context.Context, row Row) (contacts.Contact, bool, error) {
	if err := s.validator.Payload(row); err != nil {
		return contacts.Contact{}, false, err
	}

	phones := explode(row.Phone)
	emails := explodeEmails(row.Email)
	if len(phones) == 0 && len(emails) == 0 {
		return contacts.Contact{}, false, apperr.Validation("contact row has no phone or email")
	}

	existing, err := s.store.FindByIdentifier(ctx, row.TenantID, firstOrEmpty(phones), firstOrEmpty(emails))
	if err == nil {
		s.log.Info("ingest skipped duplicate",
			"contact_id", existing.ID.String(),
			"name", row.Name,
		)
		return existing, false, nil
	}
	if err != contacts.ErrNotFound {
		return contacts.Contact{}, false, apperr.Wrap(apperr.KindInternal, "duplicate lookup", err)
	}

	contact, err := s.store.Create(ctx, contacts.CreateContactParams{
		TenantID:    row.TenantID,
		Name:        strings.TrimSpace(row.Name),
		Company:     strings.TrimSpace(row.Company),
		Position:    optional(row.Position),
		Segment:     optional(row.Segment),
		Phones:      phones,
		Emails:      emails,
		RawPhone:    row.Phone,
		RawEmail:    row.Email,
		LinkedInURL: optional(row.LinkedInURL),
	})
	if err != nil {
		return contacts.Contact{}, false, apperr.Wrap(apperr.KindInternal, "create contact", err)
	}

	s.log.Info("contact ingested",
		"contact_id", contact.ID.String(),
		"name", contact.Name,
	)
	return contact, true, nil
}

// explode splits a pipe-delimited value list, trims entries, and normalizes
// valid phone numbers to E.164. Invalid entries are kept as cleaned input so
// the channel policy can still report why they were rejected.
func explode(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, "|") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if phone.ValidForWhatsApp(trimmed) {
			trimmed = phone.NormalizeE164(trimmed)
		}
		values = append(values, trimmed)
	}
	return values
}

func explodeEmails(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, "|") {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		if dispatch.ValidEmail(trimmed) {
			values = append(values, trimmed)
		}
	}
	return values
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
