// Package identity verifies bearer tokens issued by the identity provider.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/tasktrail/domain"
)

// Claims is the token payload. The user id is read from uid, then user_id,
// then sub.
type Claims struct {
	UID    string `json:"uid,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) subject() string {
	switch {
	case c.UID != "":
		return c.UID
	case c.UserID != "":
		return c.UserID
	default:
		return c.Subject
	}
}

// Verifier checks HMAC-signed tokens.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify returns the identity carried by token and its expiry. A token without
// exp yields a zero time.
func (v *Verifier) Verify(token string) (domain.Identity, time.Time, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.Identity{}, time.Time{}, domain.AuthError("invalid token", err)
	}
	if !parsed.Valid {
		return domain.Identity{}, time.Time{}, domain.ErrUnauthorized
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return domain.Identity{}, time.Time{}, domain.AuthError("invalid token", errors.New("issuer mismatch"))
	}

	uid := claims.subject()
	if uid == "" {
		return domain.Identity{}, time.Time{}, domain.AuthError("invalid token", errors.New("missing subject"))
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return domain.Identity{UID: uid, Email: claims.Email, Name: claims.Name}, exp, nil
}

// Sign issues a token for id valid for ttl. Local tooling and tests use it in
// place of the external provider.
func (v *Verifier) Sign(id domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:   id.UID,
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
