package meetings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/dispatch"
	domainevents "prospect_backend/internal/events"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"
)

// Reminder offsets before the meeting start.
const (
	ReminderOffsetDay  = 24 * time.Hour
	ReminderOffsetHour = time.Hour
)

// MeetingStore is the slice of the meeting repository the service uses.
type MeetingStore interface {
	Create(ctx context.Context, params CreateParams) (Meeting, error)
	GetByID(ctx context.Context, id uuid.UUID) (Meeting, error)
	FindActiveByContact(ctx context.Context, contactID uuid.UUID) (Meeting, error)
	SetBriefing(ctx context.Context, id uuid.UUID, briefingKey string) error
}

// ContactStore is the slice of the contact repository the service uses.
type ContactStore interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (contacts.Contact, error)
	SetStatus(ctx context.Context, id uuid.UUID, status contacts.Status) error
}

// Briefer generates and stores the pre-meeting briefing.
type Briefer interface {
	Generate(ctx context.Context, contact contacts.Contact, meeting Meeting) (string, error)
}

// ReminderScheduler enqueues a reminder event for future delivery.
type ReminderScheduler interface {
	ScheduleMeetingReminder(ctx context.Context, tenantID, meetingID uuid.UUID, offset string, runAt time.Time) error
}

// Service runs the scheduling flow: resolve a slot, create the calendar
// event, persist the meeting, generate the briefing, send confirmation, and
// schedule reminders. The calendar step gates everything; later steps
// degrade individually without failing the flow.
type Service struct {
	meetings   MeetingStore
	contactsDB ContactStore
	calendar   Calendar
	briefer    Briefer
	reminders  ReminderScheduler
	transports map[contacts.Channel]dispatch.Transport
	loc        *time.Location
	log        *logger.Logger

	now func() time.Time
}

func NewService(
	meetings MeetingStore,
	contactsDB ContactStore,
	calendar Calendar,
	briefer Briefer,
	reminders ReminderScheduler,
	transports map[contacts.Channel]dispatch.Transport,
	loc *time.Location,
	log *logger.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		meetings:   meetings,
		contactsDB: contactsDB,
		calendar:   calendar,
		briefer:    briefer,
		reminders:  reminders,
		transports: transports,
		loc:        loc,
		log:        log,
		now:        time.Now,
	}
}

// Schedule books a meeting for the contact in the request.
func (s *Service) Schedule(ctx context.Context, req domainevents.ScheduleRequested) (Meeting, error) {
	contact, err := s.contactsDB.GetByID(ctx, req.TenantID, req.ContactID)
	if err != nil {
		if err == contacts.ErrNotFound {
			return Meeting{}, apperr.Wrap(apperr.KindNotFound, "schedule request for unknown contact", err)
		}
		return Meeting{}, apperr.Wrap(apperr.KindInternal, "load contact", err)
	}

	// a redelivered schedule task must not double-book the contact
	existing, err := s.meetings.FindActiveByContact(ctx, contact.ID)
	if err == nil {
		s.log.Info("contact already has an active meeting",
			"meeting_id", existing.ID.String(),
			"contact_id", contact.ID.String(),
		)
		return existing, nil
	}
	if err != ErrNotFound {
		return Meeting{}, apperr.Wrap(apperr.KindInternal, "look up active meeting", err)
	}

	slot := s.resolveSlot(req.PreferredAt)
	duration := ClampDuration(req.DurationMinutes)

	event, err := s.calendar.CreateEvent(ctx, contact, slot, duration)
	if err != nil {
		return Meeting{}, err
	}

	meeting, err := s.meetings.Create(ctx, CreateParams{
		TenantID:        req.TenantID,
		ContactID:       contact.ID,
		ScheduledAt:     slot,
		DurationMinutes: duration,
		MeetingURL:      optional(event.JoinURL),
		CalendarEventID: optional(event.EventID),
	})
	if err != nil {
		return Meeting{}, apperr.Wrap(apperr.KindInternal, "persist meeting", err)
	}

	if req.GenerateBriefing && s.briefer != nil {
		key, err := s.briefer.Generate(ctx, contact, meeting)
		if err != nil {
			s.log.CollaboratorDegraded("briefing_storage", err)
		} else if err := s.meetings.SetBriefing(ctx, meeting.ID, key); err != nil {
			s.log.DatabaseError("set meeting briefing", err)
		} else {
			meeting.BriefingKey = &key
		}
	}

	s.sendConfirmation(ctx, contact, meeting)
	s.scheduleReminders(ctx, meeting)

	if err := s.contactsDB.SetStatus(ctx, contact.ID, contacts.StatusMeetingScheduled); err != nil {
		s.log.DatabaseError("set contact meeting_scheduled", err)
	}

	s.log.Info("meeting scheduled",
		"meeting_id", meeting.ID.String(),
		"contact_id", contact.ID.String(),
		"scheduled_at", meeting.ScheduledAt,
	)
	return meeting, nil
}

// HandleReminder sends one reminder message for a still-active meeting.
func (s *Service) HandleReminder(ctx context.Context, ev domainevents.MeetingReminderDue) error {
	meeting, err := s.meetings.GetByID(ctx, ev.MeetingID)
	if err != nil {
		if err == ErrNotFound {
			return apperr.Wrap(apperr.KindNotFound, "reminder for unknown meeting", err)
		}
		return apperr.Wrap(apperr.KindInternal, "load meeting", err)
	}

	if !meeting.Status.Active() {
		s.log.Info("reminder skipped, meeting no longer active",
			"meeting_id", meeting.ID.String(),
			"status", meeting.Status,
		)
		return nil
	}

	contact, err := s.contactsDB.GetByID(ctx, meeting.TenantID, meeting.ContactID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load contact", err)
	}

	text := reminderText(contact, meeting, ev.Offset)
	if err := s.sendToContact(ctx, contact, text); err != nil {
		return apperr.Wrap(apperr.KindTransient, "send reminder", err)
	}
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, contact contacts.Contact, meeting Meeting) {
	text := fmt.Sprintf("Hi %s, your meeting is confirmed for %s.",
		contact.Name, meeting.ScheduledAt.In(s.loc).Format("Monday, Jan 2 at 15:04"))
	if meeting.MeetingURL != nil {
		text += " Join link: " + *meeting.MeetingURL
	}

	if err := s.sendToContact(ctx, contact, text); err != nil {
		s.log.Warn("confirmation send failed",
			"meeting_id", meeting.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) sendToContact(ctx context.Context, contact contacts.Contact, text string) error {
	decision := dispatch.Decide(contact)
	transport, ok := s.transports[decision.Channel]
	if !ok {
		return fmt.Errorf("no transport for channel %s (%s)", decision.Channel, decision.Reason)
	}
	return transport.Send(ctx, decision.Destination, text)
}

func (s *Service) scheduleReminders(ctx context.Context, meeting Meeting) {
	offsets := []struct {
		d     time.Duration
		label string
	}{
		{ReminderOffsetDay, "24h"},
		{ReminderOffsetHour, "1h"},
	}

	now := s.now()
	for _, offset := range offsets {
		runAt := meeting.ScheduledAt.Add(-offset.d)
		if !runAt.After(now) {
			continue
		}
		if err := s.reminders.ScheduleMeetingReminder(ctx, meeting.TenantID, meeting.ID, offset.label, runAt); err != nil {
			s.log.Warn("reminder scheduling failed",
				"meeting_id", meeting.ID.String(),
				"offset", offset.label,
				"error", err,
			)
		}
	}
}

// resolveSlot picks the meeting time: the preferred slot when it is still in
// the future, otherwise the next business day at 10:00 local.
func (s *Service) resolveSlot(preferred *time.Time) time.Time {
	now := s.now().In(s.loc)
	if preferred != nil && preferred.After(now) {
		return preferred.UTC()
	}

	slot := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, s.loc).AddDate(0, 0, 1)
	for slot.Weekday() == time.Saturday || slot.Weekday() == time.Sunday {
		slot = slot.AddDate(0, 0, 1)
	}
	return slot.UTC()
}

func reminderText(contact contacts.Contact, meeting Meeting, offset string) string {
	when := "soon"
	switch offset {
	case "24h":
		when = "tomorrow"
	case "1h":
		when = "in one hour"
	}
	text := fmt.Sprintf("Hi %s, a reminder: our meeting is %s (%s).",
		contact.Name, when, meeting.ScheduledAt.UTC().Format(time.RFC1123))
	if meeting.MeetingURL != nil {
		text += " Join link: " + *meeting.MeetingURL
	}
	return text
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
