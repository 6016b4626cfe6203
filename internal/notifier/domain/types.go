// Package domain holds the notification email types and outcome shapes
// shared by the notifier service, its handlers, and the sweeper.
package domain

// EmailType identifies one logical notification. Values match the email_logs
// check constraint.
type EmailType string

const (
	TypeBusinessStage1       EmailType = "business_stage_1"
	TypeBusinessStage2       EmailType = "business_stage_2"
	TypePartialFirst         EmailType = "partial_first"
	TypePartialReminder      EmailType = "partial_reminder"
	TypeCustomerConfirmation EmailType = "customer_confirmation"
	TypeQuoteClient          EmailType = "quote_client"
	TypeCompletionLink       EmailType = "completion_link"
)

// ValidTypes lists every known email type.
var ValidTypes = []EmailType{
	TypeBusinessStage1,
	TypeBusinessStage2,
	TypePartialFirst,
	TypePartialReminder,
	TypeCustomerConfirmation,
	TypeQuoteClient,
	TypeCompletionLink,
}

// ParseEmailType validates a wire string against the known email types.
func ParseEmailType(s string) (EmailType, bool) {
	for _, t := range ValidTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Result reports the outcome of one notification operation.
type Result struct {
	Sent    bool `json:"sent"`
	Skipped bool `json:"skipped"` // true when an idempotent replay suppressed the send
}

// ChannelOutcome is one recipient channel's independent result.
type ChannelOutcome struct {
	Result
	Error string `json:"error,omitempty"`
}

// LeadNotificationOutcome carries the independent business and customer
// outcomes of a combined lead notification. A failure on one channel never
// blocks the other.
type LeadNotificationOutcome struct {
	Business ChannelOutcome `json:"business"`
	Customer ChannelOutcome `json:"customer"`
}
