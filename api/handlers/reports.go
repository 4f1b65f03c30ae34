package handlers

import (
	"net/http"

	"photoshare/api/middleware"

	"github.com/gin-gonic/gin"
)

type ReportRequest struct {
	ActorID    string `json:"actor_id"`
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
}

func (h *Handlers) CreateReport(c *gin.Context) {
	var r ReportRequest
	if !bindJSON(c, &r) {
		return
	}
	reporterID, ok := actingUser(c, r.ActorID)
	if !ok {
		return
	}
	report, err := h.Reports.Report(c.Request.Context(), reporterID, r.TargetKind, r.TargetID, r.Reason)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": report.ID})
}
