package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "wofuo-ledger"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL, now: time.Now}
}

func (t *TokenIssuer) Issue(identity models.Identity) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		Email:       identity.Email,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Validate verifies signature, issuer and expiry and returns the identity.
func (t *TokenIssuer) Validate(tokenString string) (*models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return &models.Identity{
		Email:       claims.Email,
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
	}, nil
}
