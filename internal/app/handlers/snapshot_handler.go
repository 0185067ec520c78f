package handlers

import (
	"net/http"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/service/snapshot"

	"github.com/gin-gonic/gin"
)

type SnapshotHandler struct {
	service snapshot.SnapshotServiceInterface
}

func NewSnapshotHandler(service snapshot.SnapshotServiceInterface) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// Push uploads the ledger and wipes local state. The caller must pass
// ?confirm=true.
func (h *SnapshotHandler) Push(c *gin.Context) {
	if c.Query("confirm") != "true" {
		respondError(c, error_handling.NewValidationError("confirm",
			"snapshot push wipes the local ledger; repeat with confirm=true"))
		return
	}
	result, err := h.service.PushSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SnapshotHandler) Pull(c *gin.Context) {
	result, err := h.service.PullSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Clear wipes the local ledger. Like Push it needs ?confirm=true.
func (h *SnapshotHandler) Clear(c *gin.Context) {
	if c.Query("confirm") != "true" {
		respondError(c, error_handling.NewValidationError("confirm",
			"clearing wipes the local ledger; repeat with confirm=true"))
		return
	}
	if err := h.service.ClearLedger(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
