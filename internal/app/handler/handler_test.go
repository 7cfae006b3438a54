package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"vpsrental/internal/app/catalog"
	"vpsrental/internal/app/config"
	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/dto"
	"vpsrental/internal/app/lifecycle"
	"vpsrental/internal/app/memstore"
	"vpsrental/internal/app/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeSessions struct {
	blacklist map[string]time.Duration
	logins    []string
	down      bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{blacklist: make(map[string]time.Duration)}
}

func (f *fakeSessions) WriteJWTToBlacklist(_ context.Context, jwtStr string, ttl time.Duration) error {
	if f.down {
		return errors.New("dial tcp: connection refused")
	}
	f.blacklist[jwtStr] = ttl
	return nil
}

func (f *fakeSessions) IsJWTBlacklisted(_ context.Context, jwtStr string) (bool, error) {
	if f.down {
		return false, errors.New("dial tcp: connection refused")
	}
	_, ok := f.blacklist[jwtStr]
	return ok, nil
}

func (f *fakeSessions) AppendLogin(_ context.Context, login string, _ time.Time) error {
	if f.down {
		return errors.New("dial tcp: connection refused")
	}
	f.logins = append([]string{login}, f.logins...)
	return nil
}

func (f *fakeSessions) RecentLogins(_ context.Context, limit int) ([]string, error) {
	if f.down {
		return nil, errors.New("dial tcp: connection refused")
	}
	if limit > 0 && limit < len(f.logins) {
		return f.logins[:limit], nil
	}
	return f.logins, nil
}

type testEnv struct {
	router   *gin.Engine
	store    *memstore.Store
	sessions *fakeSessions
	handler  *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Token:         "test-secret",
			ExpiresIn:     time.Hour,
			SigningMethod: jwt.SigningMethodHS256,
		},
	}
	store := memstore.New()
	sessions := newFakeSessions()
	auth := middleware.NewAuthMiddleware(sessions, cfg)
	h := NewHandler(lifecycle.New(store, store), catalog.New(store, nil), store, sessions, auth, cfg)

	router := gin.New()
	h.RegisterRoutes(router)

	return &testEnv{router: router, store: store, sessions: sessions, handler: h}
}

// user создаёт пользователя и возвращает его токен
func (e *testEnv) user(t *testing.T, login string, moderator bool) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &ds.User{Login: login, Password: string(hash), IsModerator: moderator}
	require.NoError(t, e.store.CreateUser(context.Background(), u))

	token, err := e.handler.issueToken(u, time.Now())
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func vpsRequest(name string, price float64) dto.CreateServiceRequest {
	return dto.CreateServiceRequest{
		Name:            name,
		MiniDescription: "кратко",
		Description:     "подробно",
		Price:           price,
		Processor:       "2 vCPU",
		RAM:             "4 GB",
		Disk:            "40 GB NVMe",
		InternetSpeed:   "1 Gbit/s",
	}
}

func TestApplicationScenario(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice", false)
	bob := env.user(t, "bob", false)
	moderator := env.user(t, "moderator", true)

	w := env.do(http.MethodPost, "/api/services", moderator, vpsRequest("VPS Start", 299.99))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	service := decode[dto.ServiceDetailResponse](t, w)

	w = env.do(http.MethodPost, "/api/services/1/draft", alice, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[dto.ApplicationResponse](t, w)
	assert.Equal(t, "DRAFT", draft.Status)
	assert.Equal(t, "alice", draft.Creator)
	require.Len(t, draft.Services, 1)
	assert.Equal(t, service.ID, draft.Services[0].ID)

	w = env.do(http.MethodPost, "/api/services/1/draft", alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, env.store.LinkCount(draft.ID))

	w = env.do(http.MethodGet, "/api/services", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.ServiceListResponse](t, w)
	require.NotNil(t, list.DraftID)
	assert.Equal(t, draft.ID, *list.DraftID)
	assert.Equal(t, 1, list.DraftCount)

	w = env.do(http.MethodGet, "/api/services", "", nil)
	assert.Nil(t, decode[dto.ServiceListResponse](t, w).DraftID)

	path := "/api/applications/" + itoa(draft.ID)

	w = env.do(http.MethodPut, path+"/formed", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, path+"/formed", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	formed := decode[dto.ApplicationResponse](t, w)
	assert.Equal(t, "FORMED", formed.Status)
	assert.NotNil(t, formed.FormedAt)
	assert.Empty(t, formed.Moderator)

	w = env.do(http.MethodPut, path+"/status", alice, dto.ModerateRequest{Status: "COMPLETED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, path+"/status", moderator, dto.ModerateRequest{Status: "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	completed := decode[dto.ApplicationResponse](t, w)
	assert.Equal(t, "COMPLETED", completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, "alice", completed.Creator)
	assert.Equal(t, "moderator", completed.Moderator)

	w = env.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/applications", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[dto.ApplicationListResponse](t, w).Total)

	w = env.do(http.MethodGet, "/api/applications", bob, nil)
	assert.Equal(t, 0, decode[dto.ApplicationListResponse](t, w).Total)
}

func TestDraftRemoveAndDelete(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice", false)
	moderator := env.user(t, "moderator", true)

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/services", moderator, vpsRequest("VPS Start", 300)).Code)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/services", moderator, vpsRequest("VPS Pro", 900)).Code)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/applications/draft", alice, nil).Code)

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/services/1/draft", alice, nil).Code)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/services/2/draft", alice, nil).Code)
	assert.Equal(t, 1, env.store.DraftCount(1))

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/applications/draft/services/1", alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/applications/draft/services/1", alice, nil).Code)

	w := env.do(http.MethodGet, "/api/applications/draft", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	draft := decode[dto.ApplicationResponse](t, w)
	require.Len(t, draft.Services, 1)
	assert.Equal(t, 900.0, draft.TotalPrice)

	path := "/api/applications/" + itoa(draft.ID)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, path, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, alice, nil).Code)
}

func TestDeleteServiceTwiceIsGone(t *testing.T) {
	env := newTestEnv(t)
	moderator := env.user(t, "moderator", true)
	alice := env.user(t, "alice", false)

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/services", moderator, vpsRequest("VPS Start", 300)).Code)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/services/1", alice, nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/services/1", moderator, nil).Code)
	assert.Equal(t, http.StatusGone, env.do(http.MethodDelete, "/api/services/1", moderator, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/services/1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/services/1/draft", alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/services/99", moderator, nil).Code)
}

func TestServiceValidationAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	moderator := env.user(t, "moderator", true)

	bad := vpsRequest("VPS", 0)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/services", moderator, bad).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/services", "", vpsRequest("VPS", 1)).Code)

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/services", moderator, vpsRequest("VPS Start", 300)).Code)

	price := 350.0
	w := env.do(http.MethodPut, "/api/services/1", moderator, dto.UpdateServiceRequest{Price: &price})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.ServiceDetailResponse](t, w)
	assert.Equal(t, 350.0, updated.Price)
	assert.Equal(t, "VPS Start", updated.Name)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/services?min_price=abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/services?min_price=10&max_price=1", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/services/abc", "", nil).Code)

	w = env.do(http.MethodGet, "/api/services?name=start&max_price=400", "", nil)
	assert.Equal(t, 1, decode[dto.ServiceListResponse](t, w).Total)
}

func TestModerationValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice", false)
	moderator := env.user(t, "moderator", true)

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/services", moderator, vpsRequest("VPS Start", 300)).Code)
	w := env.do(http.MethodPost, "/api/services/1/draft", alice, nil)
	draft := decode[dto.ApplicationResponse](t, w)
	path := "/api/applications/" + itoa(draft.ID) + "/status"

	// черновик ещё не сформирован
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, path, moderator, dto.ModerateRequest{Status: "COMPLETED"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, path, moderator, dto.ModerateRequest{Status: "FORMED"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, path, moderator, map[string]string{}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPut, "/api/applications/999/status", moderator, dto.ModerateRequest{Status: "REJECTED"}).Code)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice", false)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/applications", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/applications?status=UNKNOWN", alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/applications?date_from=01.01.2025", alice, nil).Code)

	w := env.do(http.MethodGet, "/api/applications?status=DRAFT&date_from=2025-01-01&date_to=2025-12-31", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[dto.ApplicationListResponse](t, w).Total)
}

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t)

	register := dto.RegisterRequest{Login: "alice", Password: "secret123", FullName: "Alice"}
	w := env.do(http.MethodPost, "/api/auth/register", "", register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/auth/register", "", register).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Login: "x"}).Code)

	w = env.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "nobody", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "alice", Password: "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[dto.LoginResponse](t, w)
	assert.NotEmpty(t, login.Token)
	assert.False(t, login.User.IsModerator)
	assert.Equal(t, []string{"alice"}, env.sessions.logins)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AuthCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = env.do(http.MethodGet, "/api/auth/user", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice", decode[dto.UserResponse](t, w).FullName)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/auth/logins", login.Token, nil).Code)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/api/auth/logout", login.Token, nil).Code)
	assert.Contains(t, env.sessions.blacklist, login.Token)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/user", login.Token, nil).Code)
}

func TestRegisterTrimsLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, login := range []string{"     ", " ab ", "\t\n"} {
		w := env.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Login: login, Password: "secret123"})
		assert.Equal(t, http.StatusBadRequest, w.Code, "login %q", login)
	}

	w := env.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Login: "  bob", Password: "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Data dto.UserResponse `json:"data"`
	}](t, w)
	assert.Equal(t, "bob", created.Data.Login)

	w = env.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Login: "bob ", Password: "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	for _, login := range []string{"  bob", "bob", "bob\t"} {
		w = env.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: login, Password: "secret123"})
		assert.Equal(t, http.StatusOK, w.Code, "login %q", login)
	}
}

func TestLoginSucceedsWhenRedisIsDown(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "alice", false)
	env.sessions.down = true

	w := env.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "alice", Password: "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[dto.LoginResponse](t, w).Token

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/auth/user", token, nil).Code)
	assert.Empty(t, env.sessions.logins)
}

func TestRecentLoginsForModerator(t *testing.T) {
	env := newTestEnv(t)
	moderator := env.user(t, "moderator", true)
	env.user(t, "alice", false)

	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "alice", Password: "secret123"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(http.MethodGet, "/api/auth/logins?limit=2", moderator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.LoginLogResponse](t, w).Entries, 2)

	env.sessions.down = true
	w = env.do(http.MethodGet, "/api/auth/logins", moderator, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalErrorMessage, decode[dto.ErrorResponse](t, w).Message)
}

func TestUpdateCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.user(t, "alice", false)

	name := "Alice Smith"
	w := env.do(http.MethodPut, "/api/auth/user", token, dto.UpdateUserRequest{FullName: &name, Password: "newsecret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, name, decode[dto.UserResponse](t, w).FullName)

	w = env.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "alice", Password: "newsecret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
