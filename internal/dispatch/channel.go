// Package dispatch decides how and whether to reach a contact and sends the
// outbound message through the chosen channel transport.
package dispatch

import (
	"regexp"
	"strings"

	"prospect_backend/internal/contacts"
	"prospect_backend/platform/phone"
)

// Canonical template per channel. Message type refines the template at
// generation time; the decision itself only picks the channel default.
const (
	TemplateWhatsAppDefault = "whatsapp_prospecting_default"
	TemplateEmailDefault    = "email_prospecting_default"
)

// Decision is the outcome of channel selection for one contact. It is
// derived, never persisted, and must be reproducible from the same contact
// snapshot.
type Decision struct {
	Channel     contacts.Channel
	Reason      string
	TemplateID  string
	Destination string
	Priority    int // 1 phone, 2 email, 3 none
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether a value has the basic local@domain.tld shape.
func ValidEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

// Decide selects the dispatch channel for a contact. Any valid phone wins
// over any valid email; within the winning type the first value in original
// order is used. Deterministic and side-effect free.
func Decide(contact contacts.Contact) Decision {
	phones := candidateValues(contact.Phones, contact.RawPhone)
	emails := candidateValues(contact.Emails, contact.RawEmail)

	for _, p := range phones {
		if phone.ValidForWhatsApp(p) {
			return Decision{
				Channel:     contacts.ChannelWhatsApp,
				Reason:      "valid phone available",
				TemplateID:  TemplateWhatsAppDefault,
				Destination: phone.NormalizeE164(p),
				Priority:    1,
			}
		}
	}

	for _, e := range emails {
		trimmed := strings.TrimSpace(e)
		if ValidEmail(trimmed) {
			return Decision{
				Channel:     contacts.ChannelEmail,
				Reason:      "no valid phone, valid email available",
				TemplateID:  TemplateEmailDefault,
				Destination: trimmed,
				Priority:    2,
			}
		}
	}

	return Decision{
		Channel:  contacts.ChannelNone,
		Reason:   "no valid phone or email on record",
		Priority: 3,
	}
}

// candidateValues prefers the structured list; when it is empty the raw
// pipe-delimited import field is exploded, preserving original order.
func candidateValues(structured []string, raw string) []string {
	if len(structured) > 0 {
		return structured
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
