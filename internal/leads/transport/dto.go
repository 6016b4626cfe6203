// Package transport defines the request/response DTOs for the leads module.
package transport

import (
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest is the public configurator submission body. Equipment
// entries accept either the structured {itemId, quantity} form or a legacy
// display-label string with an optional "(×N)" suffix.
type CreateLeadRequest struct {
	FullName       string                      `json:"fullName" validate:"required,min=2,max=200"`
	Phone          string                      `json:"phone" validate:"required,min=6,max=30"`
	Email          *string                     `json:"email" validate:"omitempty,email"`
	Notes          *string                     `json:"notes" validate:"omitempty,max=4000"`
	TruckType      *string                     `json:"truckType" validate:"omitempty,max=200"`
	TruckSize      *string                     `json:"truckSize" validate:"omitempty,max=200"`
	Equipment      []domain.EquipmentSelection `json:"equipment" validate:"omitempty,max=50"`
	TaxID          *string                     `json:"taxId" validate:"omitempty,max=20"`
	IsComplete     bool                        `json:"isComplete"`
	PrivacyConsent bool                        `json:"privacyConsent"`
}

// UpdateLeadRequest continues a configurator session or applies admin edits.
// All fields are optional; absent fields are left untouched.
type UpdateLeadRequest struct {
	FullName   *string                     `json:"fullName" validate:"omitempty,min=2,max=200"`
	Phone      *string                     `json:"phone" validate:"omitempty,min=6,max=30"`
	Email      *string                     `json:"email" validate:"omitempty,email"`
	Notes      *string                     `json:"notes" validate:"omitempty,max=4000"`
	TruckType  *string                     `json:"truckType" validate:"omitempty,max=200"`
	TruckSize  *string                     `json:"truckSize" validate:"omitempty,max=200"`
	Equipment  []domain.EquipmentSelection `json:"equipment" validate:"omitempty,max=50"`
	TaxID      *string                     `json:"taxId" validate:"omitempty,max=20"`
	IsComplete *bool                       `json:"isComplete"`
	Status     *string                     `json:"status" validate:"omitempty,oneof=new contacted in_progress quoted closed_won closed_lost"`
}

// LeadResponse is the wire representation of a lead.
type LeadResponse struct {
	ID               uuid.UUID                   `json:"id"`
	FullName         string                      `json:"fullName"`
	Phone            string                      `json:"phone"`
	Email            *string                     `json:"email,omitempty"`
	Notes            *string                     `json:"notes,omitempty"`
	TruckType        *string                     `json:"truckType,omitempty"`
	TruckSize        *string                     `json:"truckSize,omitempty"`
	Equipment        []domain.EquipmentSelection `json:"equipment"`
	TaxID            *string                     `json:"taxId,omitempty"`
	IsComplete       bool                        `json:"isComplete"`
	Status           string                      `json:"status"`
	PrivacyConsentAt *time.Time                  `json:"privacyConsentAt,omitempty"`
	QuoteID          *string                     `json:"quoteId,omitempty"`
	QuoteNumber      *string                     `json:"quoteNumber,omitempty"`
	QuoteTotal       *float64                    `json:"quoteTotal,omitempty"`
	QuoteURL         *string                     `json:"quoteUrl,omitempty"`
	QuoteCreatedAt   *time.Time                  `json:"quoteCreatedAt,omitempty"`
	QuoteSentAt      *time.Time                  `json:"quoteSentAt,omitempty"`
	ValidationError  *string                     `json:"validationError,omitempty"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// ToLeadResponse maps a repository lead to its wire representation.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	equipment := lead.Equipment
	if equipment == nil {
		equipment = []domain.EquipmentSelection{}
	}
	return LeadResponse{
		ID:               lead.ID,
		FullName:         lead.FullName,
		Phone:            lead.Phone,
		Email:            lead.Email,
		Notes:            lead.Notes,
		TruckType:        lead.TruckTypeName,
		TruckSize:        lead.TruckSizeName,
		Equipment:        equipment,
		TaxID:            lead.TaxID,
		IsComplete:       lead.IsComplete,
		Status:           lead.Status,
		PrivacyConsentAt: lead.PrivacyConsentAt,
		QuoteID:          lead.QuoteID,
		QuoteNumber:      lead.QuoteNumber,
		QuoteTotal:       lead.QuoteTotal,
		QuoteURL:         lead.QuoteURL,
		QuoteCreatedAt:   lead.QuoteCreatedAt,
		QuoteSentAt:      lead.QuoteSentAt,
		ValidationError:  lead.ValidationError,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
	}
}
