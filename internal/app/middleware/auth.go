package middleware

import (
	"net/http"
	"strings"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const IdentityKey = "identity"

// TokenValidator turns a bearer token into an identity.
type TokenValidator interface {
	Validate(token string) (*models.Identity, error)
}

// AuthRequired rejects requests without a valid bearer token and puts the
// token's identity on the request context.
func AuthRequired(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		identity, err := tokens.Validate(tokenString)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), log_messages.AuthTokenRejected,
				zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Request = c.Request.WithContext(common.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}
