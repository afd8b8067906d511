package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "client-123.apps.googleusercontent.com"
	testKID      = "test-kid"
)

func newGoogleKey(t *testing.T) (*rsa.PrivateKey, *GoogleVerifier) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	given := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		testKID: keyfunc.NewGivenCustom(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: "RS256"}),
	})
	return key, NewGoogleVerifierWithKeyfunc(testClientID, given.Keyfunc)
}

func signGoogleToken(t *testing.T, key *rsa.PrivateKey, claims googleClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKID
	signed, err := tok.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validGoogleClaims() googleClaims {
	return googleClaims{
		Email:         "gus@gmail.com",
		EmailVerified: true,
		Name:          "Gus",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Audience:  jwt.ClaimStrings{testClientID},
			Subject:   "1099",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestGoogleVerifier_Valid(t *testing.T) {
	key, v := newGoogleKey(t)

	identity, err := v.Verify(context.Background(), Credential{Token: signGoogleToken(t, key, validGoogleClaims())})
	require.NoError(t, err)
	assert.Equal(t, "gus@gmail.com", identity.Email)
	assert.Equal(t, "Gus", identity.Name)
}

func TestGoogleVerifier_StringEmailVerified(t *testing.T) {
	key, v := newGoogleKey(t)
	claims := validGoogleClaims()
	claims.EmailVerified = "true"
	claims.Issuer = "accounts.google.com"

	_, err := v.Verify(context.Background(), Credential{Token: signGoogleToken(t, key, claims)})
	assert.NoError(t, err)
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	key, v := newGoogleKey(t)
	otherKey, _ := newGoogleKey(t)

	tests := []struct {
		name   string
		mutate func(*googleClaims)
		key    *rsa.PrivateKey
	}{
		{"unverified email", func(c *googleClaims) { c.EmailVerified = false }, key},
		{"missing email_verified", func(c *googleClaims) { c.EmailVerified = nil }, key},
		{"wrong audience", func(c *googleClaims) { c.Audience = jwt.ClaimStrings{"someone-else"} }, key},
		{"wrong issuer", func(c *googleClaims) { c.Issuer = "https://evil.example.com" }, key},
		{"expired", func(c *googleClaims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }, key},
		{"missing email", func(c *googleClaims) { c.Email = "" }, key},
		{"signed by another key", func(c *googleClaims) {}, otherKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validGoogleClaims()
			tt.mutate(&claims)

			_, err := v.Verify(context.Background(), Credential{Token: signGoogleToken(t, tt.key, claims)})
			assert.ErrorIs(t, err, ErrIdentityVerification)
		})
	}
}

func TestGoogleVerifier_EmptyToken(t *testing.T) {
	_, v := newGoogleKey(t)

	_, err := v.Verify(context.Background(), Credential{})
	assert.ErrorIs(t, err, ErrIdentityVerification)
}
