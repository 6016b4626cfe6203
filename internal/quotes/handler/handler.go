// Package handler exposes the quote creation endpoint for the admin
// back-office.
package handler

import (
	"github.com/yossefJiy/caravan-creator-sub000/internal/quotes/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/httpkit"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
	"github.com/yossefJiy/caravan-creator-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
	log      *logger.Logger
}

func New(svc *service.Service, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, validate: validate, log: log}
}

type createQuoteRequest struct {
	LeadID    uuid.UUID `json:"leadId" validate:"required"`
	SendEmail bool      `json:"sendEmail"`
}

// Create builds a price-quote document for a lead.
func (h *Handler) Create(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, 400, "validation failed", err.Error())
		return
	}

	result, err := h.svc.CreateQuote(c.Request.Context(), req.LeadID, req.SendEmail)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"quote": result})
}
