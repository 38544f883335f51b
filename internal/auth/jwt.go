package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fakturo/billing-api/internal/config"
)

// Claims are the custom claims carried by access tokens
type Claims struct {
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Admin       bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator validates HMAC-signed bearer tokens
type JWTValidator struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTValidator creates a validator from the auth configuration
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// ValidateToken parses and verifies a token string and returns the user context
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("jwt secret not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	return &UserContext{
		UserID:      userID,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		IsAdmin:     claims.Admin,
	}, nil
}
