// Package auth issues and validates the session tokens the platform
// consumes. Credential verification (passwords, SSO) happens in an
// external identity service; this package only carries an already
// authenticated actor identity into a signed token and back out.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
)

// Claims holds the JWT token payload. Field types and JSON tags are
// compatible with the middleware's parser so tokens issued here resolve
// correctly.
type Claims struct {
	jwt.RegisteredClaims
	TenantID   string `json:"tid,omitempty"`
	ActorID    string `json:"uid"`
	Role       string `json:"role"`
	PropertyID string `json:"pid,omitempty"` // occupant's property
	TokenType  string `json:"typ"`           // "access" or "refresh"
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// IsAccess reports whether the token was issued as an access token.
func (c *Claims) IsAccess() bool { return c.TokenType == tokenTypeAccess }

// IsRefresh reports whether the token was issued as a refresh token.
func (c *Claims) IsRefresh() bool { return c.TokenType == tokenTypeRefresh }

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueAccessToken creates a signed JWT access token for an actor context.
func IssueAccessToken(secret string, c authz.ActorContext, ttl time.Duration) (string, error) {
	return issueToken(secret, c, tokenTypeAccess, ttl)
}

// IssueRefreshToken creates a signed JWT refresh token for an actor context.
func IssueRefreshToken(secret string, c authz.ActorContext, ttl time.Duration) (string, error) {
	return issueToken(secret, c, tokenTypeRefresh, ttl)
}

func issueToken(secret string, c authz.ActorContext, tokenType string, ttl time.Duration) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("auth.issueToken: %w", domain.ErrUnauthorized)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "komunta",
		},
		ActorID:   c.ActorID().String(),
		Role:      string(c.Role()),
		TokenType: tokenType,
	}
	if c.TenantID() != uuid.Nil {
		claims.TenantID = c.TenantID().String()
	}
	if c.PropertyID() != uuid.Nil {
		claims.PropertyID = c.PropertyID().String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.issueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}

// ResolveContext turns validated claims into the immutable ActorContext
// every downstream check consumes. Malformed identifiers degrade to an
// invalid context, never to an unscoped one.
func ResolveContext(claims *Claims) authz.ActorContext {
	if claims == nil {
		return authz.ActorContext{}
	}

	actorID, err := uuid.Parse(claims.ActorID)
	if err != nil {
		return authz.ActorContext{}
	}

	tenantID := uuid.Nil
	if claims.TenantID != "" {
		tenantID, err = uuid.Parse(claims.TenantID)
		if err != nil {
			return authz.ActorContext{}
		}
	}

	propertyID := uuid.Nil
	if claims.PropertyID != "" {
		propertyID, err = uuid.Parse(claims.PropertyID)
		if err != nil {
			return authz.ActorContext{}
		}
	}

	return authz.Resolve(actorID, domain.Role(claims.Role), tenantID, propertyID)
}
