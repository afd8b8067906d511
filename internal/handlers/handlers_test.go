package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/mailer/mailertest"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/routes"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/store/storetest"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	identity *services.Identity
	err      error
}

func (s *stubVerifier) Verify(context.Context, services.Credential) (*services.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

type testServer struct {
	app    *fiber.App
	users  *storetest.MemoryStore
	mail   *mailertest.Recorder
	cfg    *config.Config
	google *stubVerifier
	dbErr  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	renderer, err := mailer.NewRenderer()
	require.NoError(t, err)

	ts := &testServer{
		users: storetest.NewMemoryStore(),
		mail:  &mailertest.Recorder{},
		cfg: &config.Config{
			ActivationSecret: "activation-secret",
			SessionSecret:    "session-secret",
			ResetSecret:      "reset-secret",
			ActivationExpiry: 15 * time.Minute,
			SessionExpiry:    time.Hour,
			ResetExpiry:      10 * time.Minute,
			ClientURL:        "http://client.test",
		},
		google: &stubVerifier{},
	}

	authService := services.NewAuthService(ts.users, ts.mail, renderer, ts.cfg, services.NewSigners(ts.cfg)).
		WithProvider(services.ProviderGoogle, ts.google)

	ts.app = fiber.New()
	routes.Setup(ts.app, ts.cfg, ts.users,
		handlers.NewAuthHandler(authService),
		handlers.NewUserHandler(services.NewUserService(ts.users)),
		handlers.NewHealthHandler(func() error { return ts.dbErr }),
	)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, bearer string) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (ts *testServer) emailedToken(t *testing.T, prefix string) string {
	t.Helper()
	html := ts.mail.Last().HTML
	start := strings.Index(html, prefix)
	require.GreaterOrEqual(t, start, 0)
	rest := html[start+len(prefix):]
	end := strings.IndexAny(rest, "\"<")
	require.Greater(t, end, 0)
	return rest[:end]
}

func (ts *testServer) signup(t *testing.T, name, email, pw string) {
	t.Helper()
	status, _ := ts.do(t, http.MethodPost, "/api/register", fiber.Map{"name": name, "email": email, "password": pw}, "")
	require.Equal(t, http.StatusOK, status)
	status, _ = ts.do(t, http.MethodPost, "/api/activation", fiber.Map{"token": ts.emailedToken(t, "/users/activate/")}, "")
	require.Equal(t, http.StatusOK, status)
}

func (ts *testServer) session(t *testing.T, userID string) string {
	t.Helper()
	tok, err := token.NewSigner(token.KindSession, ts.cfg.SessionSecret, time.Hour).Issue(token.NewSubjectClaims(userID))
	require.NoError(t, err)
	return tok
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/api/register", fiber.Map{}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Name is required", body["error"])

	status, body = ts.do(t, http.MethodPost, "/api/register",
		fiber.Map{"name": "Annie", "email": "ann@x.com", "password": "abcdef"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Password must contain a number", body["error"])

	status, body = ts.do(t, http.MethodPost, "/api/register",
		fiber.Map{"name": "  Ann  ", "email": "ann@x.com", "password": "pw1abc"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Name must be between 4 to 32 characters", body["error"])

	status, body = ts.do(t, http.MethodPost, "/api/register",
		fiber.Map{"name": "Annie", "email": "Ann@X.com", "password": "pw1abc"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email has been sent to ann@x.com", body["message"])
	assert.Equal(t, 0, ts.users.Count())
}

func TestRegister_EmailTaken(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "Annie", "ann@x.com", "pw1abc")

	status, body := ts.do(t, http.MethodPost, "/api/register",
		fiber.Map{"name": "Other", "email": "ann@x.com", "password": "pw2abc"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email is taken", body["error"])
}

func TestRegister_MailFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.mail.Err = errors.New("sendgrid: 401")

	status, body := ts.do(t, http.MethodPost, "/api/register",
		fiber.Map{"name": "Annie", "email": "ann@x.com", "password": "pw1abc"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotContains(t, body["error"], "sendgrid")
}

func TestActivation(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/api/activation", fiber.Map{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error happening please try again", body["errors"])

	status, body = ts.do(t, http.MethodPost, "/api/activation", fiber.Map{"token": "garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Expired link. Signup again", body["errors"])

	ts.do(t, http.MethodPost, "/api/register", fiber.Map{"name": "Annie", "email": "ann@x.com", "password": "pw1abc"}, "")
	activation := ts.emailedToken(t, "/users/activate/")

	status, body = ts.do(t, http.MethodPost, "/api/activation", fiber.Map{"token": activation}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Signup success", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/activation", fiber.Map{"token": activation}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Email already exists", body["errors"])
	assert.Equal(t, 1, ts.users.Count())
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "Annie", "ann@x.com", "pw1abc")

	status, body := ts.do(t, http.MethodPost, "/api/login", fiber.Map{"email": "bob@x.com", "password": "pw1abc"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User with that email does not exist, Please Sign up", body["error"])

	status, body = ts.do(t, http.MethodPost, "/api/login", fiber.Map{"email": "ann@x.com", "password": "wrong1"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email and Password do not match", body["error"])

	status, body = ts.do(t, http.MethodPost, "/api/login", fiber.Map{"email": "ann@x.com", "password": "pw1abc"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ann@x.com", user["email"])
	assert.Equal(t, "normal", user["role"])
	for _, secret := range []string{"salt", "hashed_password", "password", "reset_password_link"} {
		assert.NotContains(t, user, secret)
		assert.NotContains(t, body, secret)
	}

	// The session works on protected routes.
	status, body = ts.do(t, http.MethodGet, "/api/user/"+user["id"].(string), nil, body["token"].(string))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Annie", body["name"])
	assert.NotContains(t, body, "hashed_password")
	assert.NotContains(t, body, "salt")
}

func TestForgotAndResetPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "Annie", "ann@x.com", "pw1abc")

	status, body := ts.do(t, http.MethodPut, "/api/password/forget", fiber.Map{"email": "bob@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User with that email does not exist", body["error"])

	status, body = ts.do(t, http.MethodPut, "/api/password/forget", fiber.Map{"email": "ann@x.com"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email has been sent to ann@x.com", body["message"])
	reset := ts.emailedToken(t, "/users/password/reset/")

	status, body = ts.do(t, http.MethodPut, "/api/password/reset",
		fiber.Map{"resetPasswordLink": reset, "newPassword": "short"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Password must be at least 6 characters long", body["error"])

	status, body = ts.do(t, http.MethodPut, "/api/password/reset",
		fiber.Map{"resetPasswordLink": "garbage", "newPassword": "newpw2"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Expired Link, try again", body["error"])

	status, body = ts.do(t, http.MethodPut, "/api/password/reset",
		fiber.Map{"resetPasswordLink": reset, "newPassword": "newpw2"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Great! Now you can login with new password", body["message"])

	status, body = ts.do(t, http.MethodPut, "/api/password/reset",
		fiber.Map{"resetPasswordLink": reset, "newPassword": "other3"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Something went wrong. Try later", body["error"])

	status, _ = ts.do(t, http.MethodPost, "/api/login", fiber.Map{"email": "ann@x.com", "password": "newpw2"}, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestGoogleLogin(t *testing.T) {
	ts := newTestServer(t)

	ts.google.err = services.ErrIdentityVerification
	status, body := ts.do(t, http.MethodPost, "/api/googlelogin", fiber.Map{"idToken": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Google login failed. Try again", body["error"])

	ts.google.err = nil
	ts.google.identity = &services.Identity{Email: "gail@gmail.com", Name: "Gail"}
	status, body = ts.do(t, http.MethodPost, "/api/googlelogin", fiber.Map{"idToken": "x"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "gail@gmail.com", body["user"].(map[string]interface{})["email"])
	assert.Equal(t, 1, ts.users.Count())

	ts.users.Err = errors.New("db down")
	ts.google.identity = &services.Identity{Email: "new@gmail.com", Name: "New"}
	status, body = ts.do(t, http.MethodPost, "/api/googlelogin", fiber.Map{"idToken": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User signup failed with google", body["error"])
}

func TestFacebookLogin_NotConfigured(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/api/facebooklogin", fiber.Map{"userID": "1", "accessToken": "t"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Login provider is not configured", body["error"])
}

func TestUserRoutes(t *testing.T) {
	ts := newTestServer(t)

	normal := models.NewUser("Annie", "ann@x.com", "pw1abc")
	admin := models.NewUser("Root", "root@x.com", "pw1abc")
	admin.Role = models.RoleAdmin
	ts.users.Put(*normal)
	ts.users.Put(*admin)

	status, _ := ts.do(t, http.MethodGet, "/api/user/"+normal.ID.String(), nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := ts.do(t, http.MethodGet, "/api/user/not-a-uuid", nil, ts.session(t, normal.ID.String()))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User not found", body["error"])

	status, body = ts.do(t, http.MethodPut, "/api/user/update", fiber.Map{"name": ""}, ts.session(t, normal.ID.String()))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Name is required", body["error"])

	status, body = ts.do(t, http.MethodPut, "/api/user/update",
		fiber.Map{"name": "Ann B", "password": "newpw2"}, ts.session(t, normal.ID.String()))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ann B", body["name"])

	status, _ = ts.do(t, http.MethodPost, "/api/login", fiber.Map{"email": "ann@x.com", "password": "newpw2"}, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = ts.do(t, http.MethodPut, "/api/admin/update", fiber.Map{"name": "Ann C"}, ts.session(t, normal.ID.String()))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin resource. Access denied.", body["error"])

	status, body = ts.do(t, http.MethodPut, "/api/admin/update", fiber.Map{"name": "Root Two"}, ts.session(t, admin.ID.String()))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Root Two", body["name"])
	assert.Equal(t, "admin", body["role"])
}

func TestProtectedRoutes_RejectOtherTokenKinds(t *testing.T) {
	ts := newTestServer(t)
	user := models.NewUser("Annie", "ann@x.com", "pw1abc")
	user.Role = models.RoleAdmin
	ts.users.Put(*user)

	// Signed with the session secret, so only the kind tells them apart.
	for _, kind := range []token.Kind{token.KindPasswordReset, token.KindActivation} {
		forged, err := token.NewSigner(kind, ts.cfg.SessionSecret, time.Hour).Issue(token.NewSubjectClaims(user.ID.String()))
		require.NoError(t, err)

		status, _ := ts.do(t, http.MethodPut, "/api/user/update", fiber.Map{"name": "Hijack"}, forged)
		assert.Equal(t, http.StatusUnauthorized, status, kind)

		status, _ = ts.do(t, http.MethodPut, "/api/admin/update", fiber.Map{"name": "Hijack"}, forged)
		assert.Equal(t, http.StatusUnauthorized, status, kind)
	}

	stored, err := ts.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annie", stored.Name)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["db"])

	ts.dbErr = errors.New("connection refused")
	_, body = ts.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, "unhealthy: connection refused", body["db"])
}
