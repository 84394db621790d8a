package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIClaims is the token payload issued to CRM integrations and staff
// sessions. the subject carries the caller's user id, organization_id
// scopes every request to one organization's data.
type APIClaims struct {
	jwt.RegisteredClaims

	// role is the caller's role (e.g., "officer", "admin", "service")
	Role string `json:"role,omitempty"`

	// organization_id scopes the token to a single organization
	OrganizationID string `json:"organization_id,omitempty"`

	// email is the caller's email address
	Email string `json:"email,omitempty"`
}

// UserID returns the subject claim.
func (c *APIClaims) UserID() string {
	return c.Subject
}

// CanRead returns true for any role that may query scores and alerts.
func (c *APIClaims) CanRead() bool {
	return c.Role == "officer" || c.Role == "admin" || c.Role == "service"
}

// CanSweep returns true for roles allowed to trigger scoring sweeps.
func (c *APIClaims) CanSweep() bool {
	return c.Role == "admin" || c.Role == "service"
}

// JWTValidator validates steward API tokens.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a new validator with the shared HMAC secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
	}
}

// common jwt validation errors
var (
	ErrMissingToken     = errors.New("missing authorization token")
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// ValidateToken parses and validates an API token.
// returns the claims if valid, or an error if validation fails.
func (v *JWTValidator) ValidateToken(tokenString string) (*APIClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	// strip "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	tokenString = strings.TrimSpace(tokenString)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &APIClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// validate the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil {
		// check for specific jwt errors
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	// validate essential claims
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidClaims)
	}
	if claims.OrganizationID == "" {
		return nil, fmt.Errorf("%w: missing organization_id claim", ErrInvalidClaims)
	}

	// check expiration manually as extra safety
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// ExtractBearerToken extracts the token from an Authorization header value.
func ExtractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	// handle "Bearer <token>" format
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}
