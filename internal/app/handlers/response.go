package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, err error) {
	status := error_handling.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.CtxError(c.Request.Context(), log_messages.RequestFailed, err, zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// amount accepts both JSON numbers and numeric strings.
func amount(field string, n json.Number) (float64, error) {
	return utils.ParseAmount(field, n.String())
}

func optionalAmount(field string, n json.Number) (float64, error) {
	if n == "" {
		return 0, nil
	}
	return amount(field, n)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondError(c, error_handling.NewValidationError(name, "must be an integer"))
		return 0, false
	}
	return id, true
}
