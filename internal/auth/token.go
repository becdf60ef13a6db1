// Package auth stores bearer tokens and hands them to the transport at the
// start of every attempt.
package auth

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/golang-jwt/jwt/v5"
)

// Token is a stored bearer token.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// Valid reports whether the token can be used. Tokens expiring within the
// refresh leeway are already considered invalid.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenRefreshLeeway).Before(t.ExpiresAt)
}

// NewToken builds a Token from a raw access token. When the token is a JWT
// its exp claim sets ExpiresAt; opaque tokens never expire.
func NewToken(accessToken, refreshToken string) (*Token, error) {
	if accessToken == "" {
		return nil, constants.ErrEmptyToken
	}

	token := &Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	expiresAt, err := ExpiryFromJWT(accessToken)
	if err == nil {
		token.ExpiresAt = expiresAt
	}

	return token, nil
}

// ExpiryFromJWT reads the exp claim of a JWT without verifying its signature.
// Only the client's own refresh scheduling depends on it.
func ExpiryFromJWT(raw string) (time.Time, error) {
	parser := jwt.NewParser()

	parsed, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	if expiry == nil {
		return time.Time{}, constants.ErrNoExpirationClaim
	}

	return expiry.Time, nil
}
