// Package handler exposes the notification entry points for the admin
// back-office: manual sends, retries, and the per-lead email log.
package handler

import (
	notifier "github.com/yossefJiy/caravan-creator-sub000/internal/notifier/domain"
	"github.com/yossefJiy/caravan-creator-sub000/internal/notifier/service"
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

type leadNotificationRequest struct {
	LeadID        uuid.UUID `json:"leadId" validate:"required"`
	IsPartial     bool      `json:"isPartial"`
	IsReminder    bool      `json:"isReminder"`
	OverrideRetry bool      `json:"overrideRetry"`
}

type sendRequest struct {
	LeadID        uuid.UUID `json:"leadId" validate:"required"`
	OverrideRetry bool      `json:"overrideRetry"`
}

type resendRequest struct {
	LeadID        uuid.UUID `json:"leadId" validate:"required"`
	EmailType     string    `json:"emailType" validate:"required"`
	OverrideRetry bool      `json:"overrideRetry"`
}

// SendLeadNotification fires the combined business + customer notification.
func (h *Handler) SendLeadNotification(c *gin.Context) {
	var req leadNotificationRequest
	if !h.bind(c, &req) {
		return
	}

	outcome, err := h.svc.SendLeadNotification(c.Request.Context(), req.LeadID, req.IsPartial, req.IsReminder, req.OverrideRetry)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"business": outcome.Business, "customer": outcome.Customer})
}

// SendQuoteToClient emails the customer their quote document.
func (h *Handler) SendQuoteToClient(c *gin.Context) {
	var req sendRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.SendQuoteToClient(c.Request.Context(), req.LeadID, req.OverrideRetry)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"sent": result.Sent, "skipped": result.Skipped})
}

// SendCompletionLink emails the customer a link back into their session.
func (h *Handler) SendCompletionLink(c *gin.Context) {
	var req sendRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.SendCompletionLink(c.Request.Context(), req.LeadID, req.OverrideRetry)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"sent": result.Sent, "skipped": result.Skipped})
}

// Resend dispatches any email type through the handler table.
func (h *Handler) Resend(c *gin.Context) {
	var req resendRequest
	if !h.bind(c, &req) {
		return
	}

	emailType, ok := notifier.ParseEmailType(req.EmailType)
	if !ok {
		httpkit.Error(c, 400, "unknown email type", nil)
		return
	}

	result, err := h.svc.Dispatch(c.Request.Context(), emailType, req.LeadID, req.OverrideRetry)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"sent": result.Sent, "skipped": result.Skipped})
}

// EmailLog returns a lead's send history.
func (h *Handler) EmailLog(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, "invalid lead id", nil)
		return
	}

	entries, err := h.svc.ListEmailLog(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"entries": entries, "count": len(entries)})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, 400, "invalid request body", nil)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, 400, "validation failed", err.Error())
		return false
	}
	return true
}
