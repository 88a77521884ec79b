package dispatch

import (
	"reflect"
	"testing"

	"prospect_backend/internal/contacts"
)

func TestDecidePhoneWinsOverEmail(t *testing.T) {
	contact := contacts.Contact{
		Phones: []string{"(84)99708-4444"},
		Emails: []string{"a@b.com"},
	}

	decision := Decide(contact)

	if decision.Channel != contacts.ChannelWhatsApp {
		t.Fatalf("Channel = %s, want whatsapp", decision.Channel)
	}
	if decision.Destination != "+5584997084444" {
		t.Errorf("Destination = %q, want +5584997084444", decision.Destination)
	}
	if decision.Priority != 1 {
		t.Errorf("Priority = %d, want 1", decision.Priority)
	}
	if decision.TemplateID != TemplateWhatsAppDefault {
		t.Errorf("TemplateID = %q", decision.TemplateID)
	}
}

func TestDecideFallsBackToEmail(t *testing.T) {
	contact := contacts.Contact{
		Phones: []string{"123"}, // too short
		Emails: []string{"lead@example.com.br", "second@example.com"},
	}

	decision := Decide(contact)

	if decision.Channel != contacts.ChannelEmail {
		t.Fatalf("Channel = %s, want email", decision.Channel)
	}
	if decision.Destination != "lead@example.com.br" {
		t.Errorf("Destination = %q, want first valid email", decision.Destination)
	}
	if decision.Priority != 2 {
		t.Errorf("Priority = %d, want 2", decision.Priority)
	}
}

func TestDecideFirstValidValueWins(t *testing.T) {
	contact := contacts.Contact{
		Phones: []string{"abc", "(11) 98888-7777", "(84)99708-4444"},
	}

	decision := Decide(contact)

	if decision.Destination != "+5511988887777" {
		t.Errorf("Destination = %q, want first valid phone in original order", decision.Destination)
	}
}

func TestDecideRawPipeDelimitedFallback(t *testing.T) {
	contact := contacts.Contact{
		RawPhone: " bad-value | (84) 99708-4444 | (11) 91234-5678 ",
	}

	decision := Decide(contact)

	if decision.Channel != contacts.ChannelWhatsApp {
		t.Fatalf("Channel = %s, want whatsapp", decision.Channel)
	}
	if decision.Destination != "+5584997084444" {
		t.Errorf("Destination = %q, want +5584997084444", decision.Destination)
	}
}

func TestDecideStructuredListShadowsRaw(t *testing.T) {
	// a populated structured list wins even when it has no valid entries
	contact := contacts.Contact{
		Phones:   []string{"invalid"},
		RawPhone: "(84)99708-4444",
		Emails:   []string{"a@b.com"},
	}

	decision := Decide(contact)

	if decision.Channel != contacts.ChannelEmail {
		t.Errorf("Channel = %s, want email (raw phone must not be consulted)", decision.Channel)
	}
}

func TestDecideNoChannel(t *testing.T) {
	contact := contacts.Contact{
		Phones: []string{"12"},
		Emails: []string{"not-an-email"},
	}

	decision := Decide(contact)

	if decision.Channel != contacts.ChannelNone {
		t.Fatalf("Channel = %s, want none", decision.Channel)
	}
	if decision.Priority != 3 {
		t.Errorf("Priority = %d, want 3", decision.Priority)
	}
	if decision.Reason == "" {
		t.Error("Reason must explain the failure")
	}
}

func TestDecideIdempotent(t *testing.T) {
	contact := contacts.Contact{
		Phones: []string{"(84)99708-4444"},
		Emails: []string{"a@b.com"},
	}

	first := Decide(contact)
	second := Decide(contact)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Decide is not idempotent: %+v vs %+v", first, second)
	}
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a@b.com", true},
		{"lead.name@sub.example.com.br", true},
		{"  padded@example.com  ", true},
		{"no-at-sign.com", false},
		{"missing@tld", false},
		{"two@@example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidEmail(tc.in); got != tc.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
