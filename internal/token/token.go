// Package token issues and verifies the HS256 tokens used for account
// activation, sessions and password resets. Each kind gets its own Signer,
// secret and audience, so a token minted for one purpose never verifies as
// another.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrExpiredOrInvalid is returned for every verification failure. Callers
// cannot tell a bad signature from an expired token.
var ErrExpiredOrInvalid = errors.New("token expired or invalid")

// Kind is a token purpose. It is stamped into the aud claim.
type Kind string

const (
	KindActivation    Kind = "account-activation"
	KindSession       Kind = "session"
	KindPasswordReset Kind = "password-reset"
)

// Claims is implemented by the payload types in this package.
type Claims interface {
	jwt.Claims
	stamp(kind Kind, issuedAt, expiresAt time.Time)
}

// Lifetime carries the registered claims shared by every payload.
type Lifetime struct {
	jwt.RegisteredClaims
}

func (l *Lifetime) stamp(kind Kind, issuedAt, expiresAt time.Time) {
	l.Audience = jwt.ClaimStrings{string(kind)}
	l.IssuedAt = jwt.NewNumericDate(issuedAt)
	l.ExpiresAt = jwt.NewNumericDate(expiresAt)
}

// ActivationClaims is a pending registration.
type ActivationClaims struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Lifetime
}

// SubjectClaims identifies a user by ID in the subject claim.
type SubjectClaims struct {
	Lifetime
}

// NewSubjectClaims returns claims for the given user ID.
func NewSubjectClaims(userID string) *SubjectClaims {
	c := &SubjectClaims{}
	c.Subject = userID
	return c
}

type Signer struct {
	kind   Kind
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(kind Kind, secret string, ttl time.Duration) *Signer {
	return &Signer{kind: kind, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

func (s *Signer) TTL() time.Duration { return s.ttl }

func (s *Signer) Kind() Kind { return s.kind }

// Issue stamps claims with the signer's kind, now and now+ttl and signs them.
func (s *Signer) Issue(claims Claims) (string, error) {
	now := s.now()
	claims.stamp(s.kind, now, now.Add(s.ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, audience and expiry and decodes the payload into claims.
func (s *Signer) Verify(tokenString string, claims Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(string(s.kind)),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return ErrExpiredOrInvalid
	}
	return nil
}
