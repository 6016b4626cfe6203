// Package handler exposes the lead endpoints: the public configurator
// submission routes and the admin back-office CRUD.
package handler

import (
	"strconv"

	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/service"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/transport"
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

// Create handles the public configurator submission.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, 400, "validation failed", err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"lead": transport.ToLeadResponse(lead)})
}

// Update continues a configurator session. The same route serves admin edits;
// the admin group mounts it behind authentication.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, 400, "validation failed", err.Error())
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"lead": transport.ToLeadResponse(lead)})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"lead": transport.ToLeadResponse(lead)})
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	leads, err := h.svc.List(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, transport.ToLeadResponse(lead))
	}
	httpkit.OK(c, gin.H{"leads": responses, "count": len(responses)})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": id})
}

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return id, true
}
