package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type googleClaims struct {
	Email         string      `json:"email"`
	EmailVerified interface{} `json:"email_verified"`
	Name          string      `json:"name"`
	jwt.RegisteredClaims
}

// GoogleVerifier checks Google ID tokens against Google's published signing
// keys. The key set is refreshed in the background.
type GoogleVerifier struct {
	clientID string
	keyfunc  jwt.Keyfunc
	jwks     *keyfunc.JWKS
}

func NewGoogleVerifier(clientID, certsURL string) (*GoogleVerifier, error) {
	if certsURL == "" {
		certsURL = GoogleCertsURL
	}
	jwks, err := keyfunc.Get(certsURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			slog.Error("google jwks refresh failed", "error", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google JWKS: %w", err)
	}
	return &GoogleVerifier{clientID: clientID, keyfunc: jwks.Keyfunc, jwks: jwks}, nil
}

// NewGoogleVerifierWithKeyfunc builds a verifier over a caller-supplied key source.
func NewGoogleVerifierWithKeyfunc(clientID string, kf jwt.Keyfunc) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, keyfunc: kf}
}

// Close stops the background key refresh.
func (v *GoogleVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func (v *GoogleVerifier) Verify(_ context.Context, cred Credential) (*Identity, error) {
	if cred.Token == "" {
		return nil, fmt.Errorf("%w: missing id token", ErrIdentityVerification)
	}

	claims := &googleClaims{}
	_, err := jwt.ParseWithClaims(cred.Token, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}
	if !slices.Contains(googleIssuers, claims.Issuer) {
		return nil, fmt.Errorf("%w: invalid issuer %q", ErrIdentityVerification, claims.Issuer)
	}
	if !emailVerified(claims.EmailVerified) {
		return nil, fmt.Errorf("%w: email not verified", ErrIdentityVerification)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrIdentityVerification)
	}

	return &Identity{Email: claims.Email, Name: claims.Name}, nil
}

// emailVerified accepts both the boolean and the string form Google has used.
func emailVerified(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	default:
		return false
	}
}
