package handlers

import (
	"net/http"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/service/users"

	"github.com/gin-gonic/gin"
)

type TokenIssuer interface {
	Issue(identity models.Identity) (string, time.Time, error)
}

type AuthHandler struct {
	users  users.UserServiceInterface
	tokens TokenIssuer
}

func NewAuthHandler(users users.UserServiceInterface, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), users.RegisterRequest{
		Email:       req.Email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, expiresAt, err := h.tokens.Issue(users.IdentityOf(user))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt, "user": user})
}

// Me returns the identity behind the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := common.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, error_handling.NewAuthenticationRequiredError("me"))
		return
	}
	c.JSON(http.StatusOK, identity)
}
