// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/yossefJiy/caravan-creator-sub000/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// LeadSubmitted is published when a configurator session is saved while still
// incomplete. The notifier listens and fires the stage-1 business notification;
// the customer-facing partial notices are left to the sweeper's time thresholds.
type LeadSubmitted struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	FullName string    `json:"fullName"`
	Phone    string    `json:"phone"`
	Email    *string   `json:"email,omitempty"`
}

func (e LeadSubmitted) EventName() string { return "leads.lead.submitted" }

// LeadCompleted is published when the configurator flow finishes. The notifier
// listens and fires the stage-2 business notification plus the customer
// confirmation.
type LeadCompleted struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	FullName string    `json:"fullName"`
	Phone    string    `json:"phone"`
	Email    *string   `json:"email,omitempty"`
}

func (e LeadCompleted) EventName() string { return "leads.lead.completed" }

// QuoteCreated is published after a price-quote document is created with the
// invoicing provider.
type QuoteCreated struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	QuoteID      string    `json:"quoteId"`
	QuoteNumber  string    `json:"quoteNumber"`
	TotalInclVat float64   `json:"totalInclVat"`
	EmailSent    bool      `json:"emailSent"`
}

func (e QuoteCreated) EventName() string { return "quotes.quote.created" }
