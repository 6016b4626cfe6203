// Package handler exposes the time-triggered sweep entry point.
package handler

import (
	"github.com/yossefJiy/caravan-creator-sub000/internal/sweeper/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/httpkit"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	log *logger.Logger
}

func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// CheckPartialLeads runs one sweep. The response is success:true with counts
// even when individual leads failed; only a failure to read the lead store
// fails the run.
func (h *Handler) CheckPartialLeads(c *gin.Context) {
	summary, err := h.svc.Sweep(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"scanned":  summary.Scanned,
		"notified": summary.Notified,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	})
}
