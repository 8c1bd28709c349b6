package utils // package utils provides helpers for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every way a bearer token can fail verification:
// bad signature, malformed payload, unexpected algorithm or expiry. The
// auth middleware additionally checks the token against the user's stored
// session slot; that part is deliberately not handled here.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT session token along with its expiry.
// The service issues exactly one live token per user: a later login
// overwrites the stored value and orphans this one.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT binding the user ID as the
// subject claim. The TTL is expressed in minutes; callers pass the fixed
// one-hour session lifetime from configuration.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseSubject verifies an HS256 token and returns the user ID carried in
// the subject claim. Only HMAC-signed tokens are accepted; anything else
// collapses into ErrInvalidToken.
func ParseSubject(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	switch sub := claims["sub"].(type) {
	case float64:
		// JSON numbers decode as float64
		return uint64(sub), nil
	case string:
		if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, ErrInvalidToken
}

// NewVerificationToken returns a globally unique, single-use token for the
// email verification link.
func NewVerificationToken() string {
	return uuid.NewString()
}
