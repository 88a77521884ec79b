// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "BR"

// Clean strips spaces, dashes, and parentheses from a phone number.
func Clean(input string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")
	return replacer.Replace(strings.TrimSpace(input))
}

// ValidForWhatsApp reports whether a phone number can be dispatched to over
// WhatsApp. Numbers already carrying a country-code prefix are accepted
// verbatim; bare local numbers must have 10 or 11 digits.
func ValidForWhatsApp(input string) bool {
	cleaned := Clean(input)
	if cleaned == "" {
		return false
	}

	if strings.HasPrefix(cleaned, "+") {
		return allDigits(cleaned[1:])
	}

	if !allDigits(cleaned) {
		return false
	}
	return len(cleaned) == 10 || len(cleaned) == 11
}

// NormalizeE164 formats a phone number to E.164. Numbers with an explicit
// country-code prefix are returned cleaned but otherwise verbatim; bare
// local numbers are parsed against the default region. If parsing fails,
// the cleaned input is returned.
func NormalizeE164(input string) string {
	cleaned := Clean(input)
	if cleaned == "" {
		return cleaned
	}

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	number, err := phonenumbers.Parse(cleaned, defaultRegion)
	if err != nil {
		return cleaned
	}

	if !phonenumbers.IsValidNumber(number) {
		return cleaned
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
