package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/export"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	dbModels "github.com/Nevi32/wofuo1/internal/pkg/store/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LedgerReader interface {
	Load(ctx context.Context) (*dbModels.Snapshot, error)
	Size(ctx context.Context) (int, error)
}

type LedgerHandler struct {
	store LedgerReader
}

func NewLedgerHandler(store LedgerReader) *LedgerHandler {
	return &LedgerHandler{store: store}
}

func (h *LedgerHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.store.Load(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(snap, &buf); err != nil {
		respondError(c, err)
		return
	}
	logger.CtxInfo(ctx, log_messages.WorkbookExported, zap.Int("bytes", buf.Len()))

	filename := fmt.Sprintf("wofuo-ledger-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *LedgerHandler) Size(c *gin.Context) {
	size, err := h.store.Size(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bytes": size})
}
