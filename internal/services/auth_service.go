package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/store"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
)

var (
	ErrEmailTaken             = errors.New("email is taken")
	ErrUserNotFound           = errors.New("user not found")
	ErrPasswordMismatch       = errors.New("email and password do not match")
	ErrActivationTokenMissing = errors.New("activation token missing")
	ErrActivationInvalid      = errors.New("activation token expired or invalid")
	ErrResetLinkExpired       = errors.New("reset link expired or invalid")
	ErrResetLinkStale         = errors.New("reset link is not pending for any user")
	ErrResetFailed            = errors.New("failed to reset password")
	ErrMailDelivery           = errors.New("failed to deliver email")
	ErrProviderNotConfigured  = errors.New("identity provider not configured")
	ErrFederatedSignup        = errors.New("failed to create federated user")
	ErrPersistence            = errors.New("persistence failure")
)

// Signers holds one token signer per purpose.
type Signers struct {
	Activation *token.Signer
	Session    *token.Signer
	Reset      *token.Signer
}

func NewSigners(cfg *config.Config) Signers {
	return Signers{
		Activation: token.NewSigner(token.KindActivation, cfg.ActivationSecret, cfg.ActivationExpiry),
		Session:    token.NewSigner(token.KindSession, cfg.SessionSecret, cfg.SessionExpiry),
		Reset:      token.NewSigner(token.KindPasswordReset, cfg.ResetSecret, cfg.ResetExpiry),
	}
}

type AuthService struct {
	users     store.UserStore
	mailer    mailer.Mailer
	renderer  *mailer.Renderer
	cfg       *config.Config
	signers   Signers
	providers map[string]IdentityVerifier
}

func NewAuthService(users store.UserStore, m mailer.Mailer, renderer *mailer.Renderer, cfg *config.Config, signers Signers) *AuthService {
	return &AuthService{
		users:     users,
		mailer:    m,
		renderer:  renderer,
		cfg:       cfg,
		signers:   signers,
		providers: make(map[string]IdentityVerifier),
	}
}

// WithProvider enables federated login through the named provider.
func (s *AuthService) WithProvider(name string, v IdentityVerifier) *AuthService {
	s.providers[name] = v
	return s
}

// Register emails an activation link carrying the pending registration.
// Nothing is stored until the link is used.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (string, error) {
	email := models.NormalizeEmail(req.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return "", ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	activation, err := s.signers.Activation.Issue(&token.ActivationClaims{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		return "", err
	}

	msg, err := s.renderer.Activation(email, s.cfg.ActivationURL(activation), s.cfg.ClientURL)
	if err != nil {
		return "", err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("activation email failed", "action", "register", "error", err)
		return "", fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}

	return email, nil
}

// Activate turns a valid activation token into a stored user. Replaying the
// same token fails on the unique email index.
func (s *AuthService) Activate(ctx context.Context, activation string) error {
	if activation == "" {
		return ErrActivationTokenMissing
	}

	var claims token.ActivationClaims
	if err := s.signers.Activation.Verify(activation, &claims); err != nil {
		return ErrActivationInvalid
	}

	user := models.NewUser(claims.Name, claims.Email, claims.Password)
	if err := s.users.Create(ctx, user); err != nil {
		slog.Error("activation save failed", "action", "activate", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if !user.Authenticate(req.Password) {
		return nil, ErrPasswordMismatch
	}

	return s.issueSession(user)
}

// ForgotPassword stores a fresh reset token on the user and emails it.
// Issuing a new token replaces any earlier pending one.
func (s *AuthService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) (string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	reset, err := s.signers.Reset.Issue(token.NewSubjectClaims(user.ID.String()))
	if err != nil {
		return "", err
	}

	if err := s.users.SetResetLink(ctx, user.ID, reset); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	msg, err := s.renderer.PasswordReset(user.Email, s.cfg.ResetURL(reset), s.cfg.ClientURL, s.signers.Reset.TTL().String())
	if err != nil {
		return "", err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("reset email failed", "action", "forgot_password", "user_id", user.ID.String(), "error", err)
		return "", fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}

	return user.Email, nil
}

// ResetPassword consumes a pending reset token. The user is found by the
// token string itself, so only the most recently issued link works.
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	var claims token.SubjectClaims
	if err := s.signers.Reset.Verify(req.ResetPasswordLink, &claims); err != nil {
		return ErrResetLinkExpired
	}

	user, err := s.users.FindByResetLink(ctx, req.ResetPasswordLink)
	if err != nil {
		return ErrResetLinkStale
	}
	if user.ID.String() != claims.Subject {
		return ErrResetLinkStale
	}

	user.SetPassword(req.NewPassword)
	user.ResetPasswordLink = ""

	if err := s.users.Update(ctx, user); err != nil {
		slog.Error("password reset save failed", "action", "reset_password", "user_id", user.ID.String(), "error", err)
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}
	return nil
}

// FederatedLogin signs in with a provider credential, creating the account
// on first use. The stored password for such accounts is derived from the
// normalized email and the session secret and is never shown to the user.
func (s *AuthService) FederatedLogin(ctx context.Context, provider string, cred Credential) (*dto.AuthResponse, error) {
	verifier, ok := s.providers[provider]
	if !ok || verifier == nil {
		return nil, ErrProviderNotConfigured
	}

	identity, err := verifier.Verify(ctx, cred)
	if err != nil {
		slog.Error("federated verification failed", "action", provider+"_login", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrIdentityVerification, err)
	}
	email := models.NormalizeEmail(identity.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return s.issueSession(user)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	user = models.NewUser(name, email, email+s.cfg.SessionSecret)
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent first login may have created the record already.
		if existing, findErr := s.users.FindByEmail(ctx, email); findErr == nil {
			return s.issueSession(existing)
		}
		slog.Error("federated signup failed", "action", provider+"_login", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFederatedSignup, err)
	}

	return s.issueSession(user)
}

func (s *AuthService) issueSession(user *models.User) (*dto.AuthResponse, error) {
	session, err := s.signers.Session.Issue(token.NewSubjectClaims(user.ID.String()))
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: session,
		User:  dto.NewUserResponse(user),
	}, nil
}
