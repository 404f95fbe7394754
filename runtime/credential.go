package runtime

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is a bearer token obtained from the identity service. A direct
// credential acts as the authenticated user; a delegation credential acts on
// behalf of a group with a bounded expiry and a fixed scope set.
type Credential struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject,omitempty"`
	Group     string    `json:"group,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Delegated bool      `json:"delegated,omitempty"`
}

// Expired reports whether the credential is past its expiry. A zero expiry
// means the service issued an opaque token with no readable lifetime; such
// credentials are never considered expired here.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// InspectToken extracts subject and expiry from a JWT without verifying its
// signature. Verification is the services' job; the engine only needs the
// claims for logging and cache validity. Opaque tokens yield zero values.
func InspectToken(token string) (subject string, expiresAt time.Time) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", time.Time{}
	}

	if sub, err := claims.GetSubject(); err == nil {
		subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return subject, expiresAt
}
