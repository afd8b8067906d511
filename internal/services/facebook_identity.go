package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const FacebookGraphURL = "https://graph.facebook.com/v2.11"

type facebookProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// FacebookVerifier resolves an access token to a profile through the Graph API.
type FacebookVerifier struct {
	graphURL   string
	httpClient *http.Client
}

func NewFacebookVerifier(graphURL string) *FacebookVerifier {
	if graphURL == "" {
		graphURL = FacebookGraphURL
	}
	return &FacebookVerifier{
		graphURL:   strings.TrimRight(graphURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *FacebookVerifier) Verify(ctx context.Context, cred Credential) (*Identity, error) {
	if cred.UserID == "" || cred.Token == "" {
		return nil, fmt.Errorf("%w: missing user id or access token", ErrIdentityVerification)
	}

	query := url.Values{
		"fields":       {"id,name,email"},
		"access_token": {cred.Token},
	}
	endpoint := v.graphURL + "/" + url.PathEscape(cred.UserID) + "/?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}
	defer resp.Body.Close()

	var profile facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: failed to decode profile: %v", ErrIdentityVerification, err)
	}
	if resp.StatusCode != http.StatusOK || profile.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if profile.Error != nil {
			msg = profile.Error.Message
		}
		return nil, fmt.Errorf("%w: graph api returned status %d: %s", ErrIdentityVerification, resp.StatusCode, msg)
	}
	if profile.ID != cred.UserID {
		return nil, fmt.Errorf("%w: token belongs to another user", ErrIdentityVerification)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email", ErrIdentityVerification)
	}

	return &Identity{Email: profile.Email, Name: profile.Name}, nil
}
