// Package jwt mints and verifies the admin API bearer tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/auraprotocol/diamond/diamond"
)

// Audience is required in every admin token.
const Audience = "diamond-admin"

const issuer = "diamondctl"

// Claims are the admin token claims; the subject is the caller address.
type Claims struct {
	gjwt.RegisteredClaims
}

// GetToken signs a token for subject, valid for ttl. subject must be a
// hex address.
func GetToken(key, subject string, ttl time.Duration) (string, error) {
	if len(key) == 0 {
		return "", errors.New("jwt: signing key is required")
	}
	if _, err := diamond.ParseAddress(subject); err != nil {
		return "", fmt.Errorf("jwt: subject: %w", err)
	}

	now := time.Now()
	claims := Claims{
		gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  gjwt.NewNumericDate(now),
			NotBefore: gjwt.NewNumericDate(now.Add(-30 * time.Second)),
			Subject:   subject,
			Issuer:    issuer,
			Audience:  gjwt.ClaimStrings{Audience},
		},
	}

	token := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key))
}

// Verify checks signature, expiry and audience and returns the caller
// address from the subject.
func Verify(key []byte, tokenString string) (diamond.Address, error) {
	claims := &Claims{}
	_, err := gjwt.ParseWithClaims(tokenString, claims,
		func(*gjwt.Token) (any, error) { return key, nil },
		gjwt.WithValidMethods([]string{gjwt.SigningMethodHS256.Alg()}),
		gjwt.WithAudience(Audience),
		gjwt.WithExpirationRequired(),
	)
	if err != nil {
		return diamond.Address{}, fmt.Errorf("invalid token: %w", err)
	}

	caller, err := diamond.ParseAddress(claims.Subject)
	if err != nil {
		return diamond.Address{}, fmt.Errorf("invalid token subject: %w", err)
	}
	return caller, nil
}
