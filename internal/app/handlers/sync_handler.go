package handlers

import (
	"net/http"

	"github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/service/syncengine"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	engine syncengine.EngineInterface
}

func NewSyncHandler(engine syncengine.EngineInterface) *SyncHandler {
	return &SyncHandler{engine: engine}
}

type pullRequest struct {
	GroupName string `json:"groupName" binding:"required"`
}

func (h *SyncHandler) Push(c *gin.Context) {
	report, err := h.engine.Push(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(reportStatus(report), report)
}

func (h *SyncHandler) Pull(c *gin.Context) {
	var req pullRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.engine.Pull(c.Request.Context(), req.GroupName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(reportStatus(report), report)
}

// reportStatus is 200 while at least one collection went through; a run in
// which every collection failed is a gateway failure.
func reportStatus(report *models.SyncReport) int {
	for _, c := range report.Collections {
		if c.Status != models.SyncStatusFailed {
			return http.StatusOK
		}
	}
	if len(report.Collections) == 0 {
		return http.StatusOK
	}
	return http.StatusBadGateway
}
