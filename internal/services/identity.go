package services

import (
	"context"
	"errors"
)

const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

var ErrIdentityVerification = errors.New("identity verification failed")

// Identity is what a provider vouches for after verifying a credential.
type Identity struct {
	Email string
	Name  string
}

// Credential is the provider-issued proof sent by the client. Google uses
// only Token (the ID token); Facebook uses Token (the access token) and UserID.
type Credential struct {
	Token  string
	UserID string
}

// IdentityVerifier exchanges a provider credential for verified claims.
// Every failure wraps ErrIdentityVerification.
type IdentityVerifier interface {
	Verify(ctx context.Context, cred Credential) (*Identity, error)
}
