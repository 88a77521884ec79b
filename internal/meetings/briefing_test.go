package meetings

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
)

func TestRenderBriefing(t *testing.T) {
	position := "CTO"
	joinURL := "https://meet.example.com/abc"
	last := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)

	contact := contacts.Contact{
		Name:              "Ana",
		Company:           "Acme",
		Position:          &position,
		Status:            contacts.StatusQualified,
		EngagementScore:   80,
		ResponseRate:      0.5,
		MessageHistory:    []string{"m1", "m2"},
		LastInteractionAt: &last,
	}
	meeting := Meeting{
		ID:              uuid.New(),
		ScheduledAt:     time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		MeetingURL:      &joinURL,
	}

	body := renderBriefing(contact, meeting)

	for _, want := range []string{
		"# Meeting Briefing: Ana",
		"Company: Acme",
		"Position: CTO",
		"Engagement score: 80/100",
		"Messages exchanged: 2",
		"(45 min)",
		joinURL,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("briefing missing %q:\n%s", want, body)
		}
	}
}

func TestRenderBriefingSparseContact(t *testing.T) {
	body := renderBriefing(contacts.Contact{Name: "Bo", Status: contacts.StatusActive}, Meeting{
		ScheduledAt:     time.Now(),
		DurationMinutes: 30,
	})
	if !strings.Contains(body, "Company: -") {
		t.Errorf("empty company should render as dash:\n%s", body)
	}
	if strings.Contains(body, "LinkedIn") {
		t.Error("absent linkedin must not render a row")
	}
}
