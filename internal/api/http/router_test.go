package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/user-service/internal/api/http"
	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/observability"
	"github.com/spec-kit/user-service/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

const testPassword = "Test12345"

type memoryUserRepo struct {
	users map[string]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[string]*domain.User{}}
}

func (r *memoryUserRepo) Save(_ context.Context, user *domain.User) error {
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *memoryUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) UpdateInfo(_ context.Context, user *domain.User) error {
	stored, ok := r.users[user.Username]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Address = user.Address
	stored.City = user.City
	stored.Phone = user.Phone
	return nil
}

func (r *memoryUserRepo) Enable(_ context.Context, username string) error {
	return r.setEnabled(username, true)
}

func (r *memoryUserRepo) SoftDelete(_ context.Context, username string) error {
	return r.setEnabled(username, false)
}

func (r *memoryUserRepo) setEnabled(username string, enabled bool) error {
	stored, ok := r.users[username]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Enabled = enabled
	return nil
}

type testEnv struct {
	app  *fiber.App
	repo *memoryUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := auth.NewTokenCodec(testSecret, time.Hour, nil)
	require.NoError(t, err)

	repo := newMemoryUserRepo()
	chain := auth.NewChain(auth.NewCredentialAuthenticator(repo, nil))
	throttle := auth.NewLoginThrottle(nil, 0, 0, nil)

	authService := service.NewAuthService(chain, codec, throttle, nil, nil)
	userService := service.NewUserService(repo, nil, bcrypt.MinCost, nil)

	app := fiber.New(fiber.Config{CaseSensitive: true})
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Auth:          handlers.NewAuthHandler(authService),
		Users:         handlers.NewUsersHandler(userService, authService),
		Authenticator: auth.NewRequestAuthenticator(codec),
		Policy:        auth.NewPolicy(testRules()),
	})

	return &testEnv{app: app, repo: repo}
}

// testRules mirrors DefaultRules without the health rules, since the test
// app has no database or redis behind the health handler.
func testRules() []auth.Rule {
	var rules []auth.Rule
	for _, rule := range auth.DefaultRules() {
		if rule.Pattern == "/health/*" {
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

func (e *testEnv) seedUser(t *testing.T, username string, roles ...domain.Role) {
	t.Helper()
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.repo.Save(context.Background(), &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		FirstName:    username,
		LastName:     "Tester",
		City:         "Ho Chi Minh",
		Phone:        "+8412345678",
		Enabled:      true,
		Authorities:  roles,
	}))
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := e.request(t, http.MethodPost, "/api/auth", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, status, "login response: %s", body)

	var resp struct {
		Message string `json:"message"`
		Error   bool   `json:"error"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.False(t, resp.Error)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *testEnv) request(t *testing.T, method, path string, payload any, token string) (int, string) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestWelcomeEndpoint_NoCredentials(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodGet, "/api/users", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Welcome to the user service", body)
}

func TestMemberEndpoint_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, http.MethodGet, "/api/users/mem", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMemberEndpoint_Authenticated(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	token := env.login(t, "tester", testPassword)
	status, body := env.request(t, http.MethodGet, "/api/users/mem", nil, token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A member", body)
}

func TestLogin_BlankCredentials(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, http.MethodPost, "/api/auth", map[string]string{"username": "tester"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	wrongStatus, wrongBody := env.request(t, http.MethodPost, "/api/auth", map[string]string{
		"username": "tester", "password": "not-the-password",
	}, "")
	unknownStatus, unknownBody := env.request(t, http.MethodPost, "/api/auth", map[string]string{
		"username": "nobody", "password": "whatever",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongStatus)
	assert.Equal(t, http.StatusUnauthorized, unknownStatus)
	assert.Equal(t, wrongBody, unknownBody)
}

func TestFindUser_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	status, _ := env.request(t, http.MethodGet, "/api/users/tester", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFindUser_SelfAccess(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	token := env.login(t, "tester", testPassword)

	status, body := env.request(t, http.MethodGet, "/api/users/tester", nil, token)
	assert.Equal(t, http.StatusOK, status)

	var resp struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "tester", resp.Username)
}

func TestFindUser_OtherSubjectForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")
	env.seedUser(t, "other")

	token := env.login(t, "tester", testPassword)

	status, _ := env.request(t, http.MethodGet, "/api/users/other", nil, token)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestFindUser_ModReadsAnySubject(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "mod", domain.RoleMod)
	env.seedUser(t, "tester")

	token := env.login(t, "mod", testPassword)

	status, _ := env.request(t, http.MethodGet, "/api/users/tester", nil, token)
	assert.Equal(t, http.StatusOK, status)
}

func TestFindUser_InvalidBearerIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	status, _ := env.request(t, http.MethodGet, "/api/users/tester", nil, "tampered.token.value")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{
		"email":      "tester@example.com",
		"username":   "tester",
		"password":   "xyz789",
		"rePassword": "xyz789",
		"firstName":  "Long",
		"lastName":   "Tran",
		"address":    "District 2",
		"city":       "Thu Duc",
		"phone":      "+8412345678",
	}

	status, body := env.request(t, http.MethodPost, "/api/users", payload, "")
	require.Equal(t, http.StatusCreated, status, "create response: %s", body)

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "Create user successfully", resp.Message)
	assert.NotEmpty(t, resp.Token)

	// The minted token authenticates the new account right away.
	status, _ = env.request(t, http.MethodGet, "/api/users/tester", nil, resp.Token)
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateUser_PasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{
		"email":      "tester@example.com",
		"username":   "tester",
		"password":   "xyz789",
		"rePassword": "different",
		"firstName":  "Long",
		"lastName":   "Tran",
		"city":       "Thu Duc",
		"phone":      "+8412345678",
	}

	status, _ := env.request(t, http.MethodPost, "/api/users", payload, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateUser_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	payload := map[string]string{
		"email":      "tester@example.com",
		"username":   "tester",
		"password":   "xyz789",
		"rePassword": "xyz789",
		"firstName":  "Long",
		"lastName":   "Tran",
		"city":       "Thu Duc",
		"phone":      "+8412345678",
	}

	status, body := env.request(t, http.MethodPost, "/api/users", payload, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "The username already existed")
}

func TestUpdateUser_SelfAccess(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	token := env.login(t, "tester", testPassword)
	payload := map[string]string{
		"firstName": "Long",
		"lastName":  "Tran",
		"address":   "District 1",
		"city":      "HCM",
		"phone":     "+8412345678",
	}

	status, body := env.request(t, http.MethodPut, "/api/users/tester", payload, token)
	require.Equal(t, http.StatusOK, status, "update response: %s", body)

	stored, err := env.repo.FindByUsername(context.Background(), "tester")
	require.NoError(t, err)
	assert.Equal(t, "District 1", stored.Address)
}

func TestDeleteUser_RequiresElevatedRole(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")
	env.seedUser(t, "victim")

	token := env.login(t, "tester", testPassword)

	status, _ := env.request(t, http.MethodDelete, "/api/users/victim", nil, token)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestDeleteAndEnableLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "boss", domain.RoleAdmin)
	env.seedUser(t, "tester")

	adminToken := env.login(t, "boss", testPassword)

	status, _ := env.request(t, http.MethodDelete, "/api/users/tester", nil, adminToken)
	require.Equal(t, http.StatusOK, status)

	// Disabled accounts cannot log in.
	status, _ = env.request(t, http.MethodPost, "/api/auth", map[string]string{
		"username": "tester", "password": testPassword,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.request(t, http.MethodPost, "/api/users/tester/enable", nil, adminToken)
	require.Equal(t, http.StatusOK, status)

	token := env.login(t, "tester", testPassword)
	assert.NotEmpty(t, token)
}

func TestDeleteUser_AdminTargetRefused(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "boss", domain.RoleAdmin)
	env.seedUser(t, "root", domain.RoleAdmin)

	token := env.login(t, "boss", testPassword)

	status, _ := env.request(t, http.MethodDelete, "/api/users/root", nil, token)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestMixedCasePathsDoNotReachHandlers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")
	env.seedUser(t, "victim")

	status, _ := env.request(t, http.MethodGet, "/Api/Users/victim", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := env.login(t, "tester", testPassword)

	status, body := env.request(t, http.MethodGet, "/Api/Users/victim", nil, token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, body, "victim@example.com")

	status, _ = env.request(t, http.MethodDelete, "/Api/Users/victim", nil, token)
	assert.Equal(t, http.StatusNotFound, status)

	stored, err := env.repo.FindByUsername(context.Background(), "victim")
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
}

func TestUnknownPath_DefaultsToAuthenticated(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "tester")

	status, _ := env.request(t, http.MethodGet, "/api/unknown", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := env.login(t, "tester", testPassword)
	status, _ = env.request(t, http.MethodGet, "/api/unknown", nil, token)
	assert.Equal(t, http.StatusNotFound, status)
}
