package meetings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prospect_backend/internal/contacts"
	"prospect_backend/internal/storage"
)

// BriefingGenerator renders a markdown pre-meeting briefing and stores it in
// object storage. A nil generator means briefings are disabled.
type BriefingGenerator struct {
	storage *storage.MinIOService
	bucket  string
}

func NewBriefingGenerator(store *storage.MinIOService, bucket string) *BriefingGenerator {
	if store == nil {
		return nil
	}
	return &BriefingGenerator{storage: store, bucket: bucket}
}

// Generate renders and uploads the briefing, returning its storage key.
func (g *BriefingGenerator) Generate(ctx context.Context, contact contacts.Contact, meeting Meeting) (string, error) {
	if g == nil {
		return "", fmt.Errorf("briefing generation disabled")
	}

	key := fmt.Sprintf("briefings/%s/%s.md", meeting.TenantID, meeting.ID)
	body := renderBriefing(contact, meeting)
	return g.storage.Upload(ctx, g.bucket, key, "text/markdown", body)
}

func renderBriefing(contact contacts.Contact, meeting Meeting) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Meeting Briefing: %s\n\n", contact.Name)
	fmt.Fprintf(&b, "**When:** %s (%d min)\n\n", meeting.ScheduledAt.UTC().Format(time.RFC1123), meeting.DurationMinutes)

	b.WriteString("## Contact\n\n")
	fmt.Fprintf(&b, "- Company: %s\n", orDash(contact.Company))
	if contact.Position != nil {
		fmt.Fprintf(&b, "- Position: %s\n", *contact.Position)
	}
	if contact.Segment != nil {
		fmt.Fprintf(&b, "- Segment: %s\n", *contact.Segment)
	}
	if contact.LinkedInURL != nil {
		fmt.Fprintf(&b, "- LinkedIn: %s\n", *contact.LinkedInURL)
	}

	b.WriteString("\n## Engagement\n\n")
	fmt.Fprintf(&b, "- Status: %s\n", contact.Status)
	fmt.Fprintf(&b, "- Engagement score: %d/100\n", contact.EngagementScore)
	fmt.Fprintf(&b, "- Response rate: %.2f\n", contact.ResponseRate)
	fmt.Fprintf(&b, "- Messages exchanged: %d\n", len(contact.MessageHistory))
	if contact.LastInteractionAt != nil {
		fmt.Fprintf(&b, "- Last interaction: %s\n", contact.LastInteractionAt.UTC().Format(time.RFC1123))
	}

	if meeting.MeetingURL != nil {
		fmt.Fprintf(&b, "\n**Join:** %s\n", *meeting.MeetingURL)
	}

	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
