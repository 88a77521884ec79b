package meetings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prospect_backend/internal/contacts"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/config"
	"prospect_backend/platform/logger"
)

// CalendarEvent is the booked slot as the calendar collaborator reports it.
type CalendarEvent struct {
	EventID string `json:"eventId"`
	JoinURL string `json:"joinUrl"`
}

// Calendar books slots on the external calendar service.
type Calendar interface {
	CreateEvent(ctx context.Context, contact contacts.Contact, startAt time.Time, durationMinutes int) (CalendarEvent, error)
}

// CalendarClient is the HTTP implementation of Calendar.
type CalendarClient struct {
	baseURL    string
	apiKey     string
	calendarID string
	http       *http.Client
	log        *logger.Logger
}

type createEventRequest struct {
	CalendarID      string `json:"calendarId"`
	Summary         string `json:"summary"`
	AttendeeName    string `json:"attendeeName"`
	AttendeeEmail   string `json:"attendeeEmail,omitempty"`
	StartAt         string `json:"startAt"`
	DurationMinutes int    `json:"durationMinutes"`
}

func NewCalendarClient(cfg config.CalendarConfig, log *logger.Logger) *CalendarClient {
	if cfg.GetCalendarURL() == "" {
		return nil
	}

	return &CalendarClient{
		baseURL:    strings.TrimRight(cfg.GetCalendarURL(), "/"),
		apiKey:     cfg.GetCalendarKey(),
		calendarID: cfg.GetCalendarID(),
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (c *CalendarClient) CreateEvent(ctx context.Context, contact contacts.Contact, startAt time.Time, durationMinutes int) (CalendarEvent, error) {
	if c == nil {
		return CalendarEvent{}, apperr.Unavailable("calendar service not configured")
	}

	payload := createEventRequest{
		CalendarID:      c.calendarID,
		Summary:         fmt.Sprintf("Meeting with %s (%s)", contact.Name, contact.Company),
		AttendeeName:    contact.Name,
		StartAt:         startAt.UTC().Format(time.RFC3339),
		DurationMinutes: durationMinutes,
	}
	if len(contact.Emails) > 0 {
		payload.AttendeeEmail = contact.Emails[0]
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("marshal calendar payload: %w", err)
	}

	url := fmt.Sprintf("%s/events", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return CalendarEvent{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return CalendarEvent{}, apperr.Wrap(apperr.KindTransient, "calendar request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return CalendarEvent{}, apperr.Transient(
			fmt.Sprintf("calendar returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var event CalendarEvent
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return CalendarEvent{}, apperr.Wrap(apperr.KindTransient, "decode calendar response", err)
	}
	if event.EventID == "" {
		return CalendarEvent{}, apperr.Transient("calendar returned no event id")
	}

	c.log.Info("calendar event created", "event_id", event.EventID)
	return event, nil
}
