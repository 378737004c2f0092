package auth

import (
	"time"
)

// AccessClaims are the claims carried by an access token.
// v4.local tokens are encrypted, so they are opaque to clients.
type AccessClaims struct {
	Admin bool `json:"admin"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
