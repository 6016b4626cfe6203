// Package phone normalizes customer phone numbers.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Local numbers without a country prefix are assumed Israeli.
const defaultRegion = "IL"

// NormalizeE164 formats input as E.164. Unparseable or invalid numbers are
// returned trimmed but otherwise untouched; storage never rejects a lead over
// its phone format.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
