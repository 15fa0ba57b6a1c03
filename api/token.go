// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"fmt"
	"os"
	"strings"
	"time"

	jose "gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	TokenIssuer = "ladderbot"

	// MaxTokenLifetime is the longest accepted validity for a bearer token.
	MaxTokenLifetime = 5 * time.Minute
)

// ErrUnauthorized is returned for missing or invalid bearer tokens. It
// matches os.ErrPermission with errors.Is.
var ErrUnauthorized = fmt.Errorf("unauthorized: %w", os.ErrPermission)

// NewToken returns a HS256 signed JWT for the subject that expires after the
// lifetime, which is capped at MaxTokenLifetime.
func NewToken(key []byte, subject string, lifetime time.Duration) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("signing key cannot be empty: %w", os.ErrInvalid)
	}
	if lifetime <= 0 || lifetime > MaxTokenLifetime {
		lifetime = MaxTokenLifetime
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: key}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", fmt.Errorf("could not create jwt signer: %w", err)
	}

	now := time.Now()
	claims := &jwt.Claims{
		Subject:   subject,
		Issuer:    TokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(lifetime)),
	}
	return jwt.Signed(signer).Claims(claims).CompactSerialize()
}

// VerifyToken checks the signature, issuer and validity period of a token.
func VerifyToken(key []byte, token string, now time.Time) (*jwt.Claims, error) {
	tok, err := jwt.ParseSigned(token)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse token: %w", ErrUnauthorized, err)
	}
	if len(tok.Headers) != 1 || tok.Headers[0].Algorithm != string(jose.HS256) {
		return nil, fmt.Errorf("%w: unexpected token algorithm", ErrUnauthorized)
	}

	claims := new(jwt.Claims)
	if err := tok.Claims(key, claims); err != nil {
		return nil, fmt.Errorf("%w: invalid token signature: %w", ErrUnauthorized, err)
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{Issuer: TokenIssuer, Time: now}, 10*time.Second); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.Expiry == nil || claims.Expiry.Time().Sub(now) > MaxTokenLifetime {
		return nil, fmt.Errorf("%w: token lifetime is too long", ErrUnauthorized)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || len(token) == 0 {
		return "", false
	}
	return token, true
}
