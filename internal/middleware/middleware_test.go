package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/logger"
	"foodway/internal/model"
	"foodway/internal/service"
	"foodway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAuthenticator maps fixed tokens to actors.
type stubAuthenticator map[string]*service.Actor

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*service.Actor, error) {
	switch token {
	case "expired":
		return nil, fmt.Errorf("%w: %w", service.ErrInvalidToken, jwt.ErrTokenExpired)
	case "inactive":
		return nil, apperror.Unauthorized("Usuário inativo")
	}
	actor, ok := s[token]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	copied := *actor
	return &copied, nil
}

func testAuth() *Auth {
	rid := uint(7)
	return NewAuth(stubAuthenticator{
		"admin": {UserID: 1, Role: model.RoleSuperAdmin},
		"staff": {UserID: 2, Role: model.RoleRestaurantUser, RestaurantID: &rid},
	}, false)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(logger.Discard(), false))
	return r
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success("", nil))
}

func do(r http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAuthenticate(t *testing.T) {
	auth := testAuth()
	r := newEngine()
	r.GET("/me", auth.Authenticate(), func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "ip": actor.IP})
	})

	cases := []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{"missing", "", http.StatusUnauthorized, "Token de acesso não fornecido"},
		{"invalid", "nope", http.StatusUnauthorized, "Token inválido"},
		{"expired", "expired", http.StatusUnauthorized, "Token expirado"},
		{"inactive", "inactive", http.StatusUnauthorized, "Usuário inativo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/me", tc.token, "")
			assert.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, env.Message)
		})
	}

	w := do(r, http.MethodGet, "/me", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":1,"ip":"192.0.2.1"}`, w.Body.String())
}

func TestBearerToken_Cookie(t *testing.T) {
	auth := testAuth()
	r := newEngine()
	r.GET("/me", auth.Authenticate(), respondOK)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "staff"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthenticate(t *testing.T) {
	auth := testAuth()
	r := newEngine()
	r.GET("/menu", auth.OptionalAuthenticate(), func(c *gin.Context) {
		_, found := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": found})
	})

	assert.JSONEq(t, `{"authenticated":false}`, do(r, http.MethodGet, "/menu", "", "").Body.String())
	assert.JSONEq(t, `{"authenticated":false}`, do(r, http.MethodGet, "/menu", "nope", "").Body.String())
	assert.JSONEq(t, `{"authenticated":true}`, do(r, http.MethodGet, "/menu", "staff", "").Body.String())
}

func TestRoleGuards(t *testing.T) {
	auth := testAuth()
	r := newEngine()
	r.GET("/admin-only", auth.Authenticate(), RequireSuperAdmin(), respondOK)
	r.GET("/roles", auth.Authenticate(), RequireRoles(model.RoleRestaurantUser), respondOK)
	r.GET("/restaurants/:restaurant_id", auth.Authenticate(), RequireRestaurantAccess("restaurant_id"), respondOK)
	r.GET("/users", auth.Authenticate(), RequireUserManagement(), respondOK)
	r.GET("/users/:id", auth.Authenticate(), RequireSelfOrAdmin(), respondOK)
	r.GET("/unauthenticated", RequireSuperAdmin(), respondOK)

	cases := []struct {
		path   string
		token  string
		status int
	}{
		{"/admin-only", "admin", http.StatusOK},
		{"/admin-only", "staff", http.StatusUnauthorized},
		{"/roles", "staff", http.StatusOK},
		{"/roles", "admin", http.StatusUnauthorized},
		{"/restaurants/7", "staff", http.StatusOK},
		{"/restaurants/8", "staff", http.StatusUnauthorized},
		{"/restaurants/abc", "staff", http.StatusUnauthorized},
		{"/restaurants/8", "admin", http.StatusOK},
		{"/users", "admin", http.StatusOK},
		{"/users", "staff", http.StatusUnauthorized},
		{"/users/2", "staff", http.StatusOK},
		{"/users/3", "staff", http.StatusUnauthorized},
		{"/users/3", "admin", http.StatusOK},
		{"/unauthenticated", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.token+tc.path, func(t *testing.T) {
			assert.Equal(t, tc.status, do(r, http.MethodGet, tc.path, tc.token, "").Code)
		})
	}

	env := decode(t, do(r, http.MethodGet, "/roles", "admin", ""))
	assert.Equal(t, "Acesso negado. Roles permitidos: restaurant_user", env.Message)
}

func TestErrorHandler(t *testing.T) {
	r := newEngine()
	r.GET("/validation", func(c *gin.Context) {
		_ = c.Error(apperror.Validation("Dados inválidos", apperror.FieldError{Field: "name", Message: "Nome é obrigatório", Type: "required"}))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("connection reset"))
	})
	r.NoRoute(NotFound())

	w := do(r, http.MethodGet, "/validation", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"name"`)
	env := decode(t, w)
	assert.Equal(t, string(apperror.KindValidation), env.Type)
	assert.NotEmpty(t, env.Timestamp)

	w = do(r, http.MethodGet, "/boom", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "connection reset", decode(t, w).Message)

	w = do(r, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Rota não encontrada", decode(t, w).Message)
}

func TestErrorHandler_ProductionHidesInternals(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logger.Discard(), true), Recovery())
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: password authentication failed"))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("nil map")
	})

	for _, path := range []string{"/boom", "/panic"} {
		w := do(r, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		env := decode(t, w)
		assert.Equal(t, "Erro interno do servidor", env.Message)
		assert.Empty(t, env.Stack)
		assert.Empty(t, env.Type)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	r := newEngine()
	r.Use(limiter.Middleware())
	r.GET("/", respondOK)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "", "").Code)
	w := do(r, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, msgTooManyRequests, decode(t, w).Message)

	// other clients keep their own bucket
	assert.True(t, limiter.Allow("198.51.100.1"))

	// the bucket refills over the window
	now = now.Add(30 * time.Second)
	assert.True(t, limiter.Allow("192.0.2.1"))

	now = now.Add(2 * time.Minute)
	limiter.Cleanup()
	assert.Empty(t, limiter.visitors)
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []service.ActivityEntry
}

func (r *recordingActivity) Record(_ context.Context, entry service.ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingActivity) ListByUser(context.Context, uint, service.ListQuery) (*service.ListResult[service.ActivityResponse], error) {
	return &service.ListResult[service.ActivityResponse]{}, nil
}

func TestLogActivity(t *testing.T) {
	auth := testAuth()
	activity := &recordingActivity{}
	r := newEngine()
	r.PUT("/products/:id", auth.Authenticate(), LogActivity(activity, "update", "product"), func(c *gin.Context) {
		var body map[string]any
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})
	r.POST("/products", auth.Authenticate(), LogActivity(activity, "create", "product"), func(c *gin.Context) {
		c.Set(EntityIDKey, uint(42))
		c.JSON(http.StatusCreated, nil)
	})
	r.DELETE("/products/:id", auth.Authenticate(), LogActivity(activity, "delete", "product"), func(c *gin.Context) {
		_ = c.Error(apperror.NotFound("Produto não encontrado"))
	})

	w := do(r, http.MethodPut, "/products/5?source=admin", "staff", `{"price":10,"name":"Suco"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"price":10,"name":"Suco"}`, w.Body.String())

	do(r, http.MethodPost, "/products", "staff", "")
	do(r, http.MethodDelete, "/products/5", "staff", "")

	require.Len(t, activity.entries, 2)
	update := activity.entries[0]
	assert.Equal(t, "update", update.Action)
	require.NotNil(t, update.EntityID)
	assert.Equal(t, uint(5), *update.EntityID)
	assert.Equal(t, []string{"name", "price"}, update.Details["body_keys"])
	assert.Equal(t, uint(7), *update.RestaurantID)

	create := activity.entries[1]
	require.NotNil(t, create.EntityID)
	assert.Equal(t, uint(42), *create.EntityID)
}

func TestProtectRoute(t *testing.T) {
	auth := testAuth()
	r := newEngine()
	r.GET("/admin", auth.ProtectRoute(), RequireSuperAdminRoute(), func(c *gin.Context) {
		c.String(http.StatusOK, "painel")
	})

	w := do(r, http.MethodGet, "/admin?tab=users", "", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=%2Fadmin%3Ftab%3Dusers", w.Header().Get("Location"))

	for token, reason := range map[string]string{"nope": "invalid", "expired": "expired", "inactive": "inactive"} {
		w = do(r, http.MethodGet, "/admin", token, "")
		assert.Equal(t, http.StatusFound, w.Code, token)
		assert.Equal(t, "/login?error="+reason, w.Header().Get("Location"), token)
	}

	w = do(r, http.MethodGet, "/admin", "staff", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Acesso Negado")

	w = do(r, http.MethodGet, "/admin?token=admin", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "painel", w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.Use(RequestID(), Logger(logger.Discard()))
	r.GET("/", respondOK)

	w := do(r, http.MethodGet, "/", "", "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestSetTokenCookies(t *testing.T) {
	auth := testAuth()
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		auth.SetTokenCookies(c, &service.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900},
			&service.UserResponse{ID: 1, Name: "Ana", Email: "ana@example.com", Role: model.RoleSuperAdmin}, time.Hour)
		c.Status(http.StatusNoContent)
	})

	w := do(r, http.MethodPost, "/login", "", "")
	cookies := map[string]*http.Cookie{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	require.Contains(t, cookies, AccessTokenCookie)
	assert.True(t, cookies[AccessTokenCookie].HttpOnly)
	assert.Equal(t, 3600, cookies[RefreshTokenCookie].MaxAge)
	require.Contains(t, cookies, UserInfoCookie)
	assert.False(t, cookies[UserInfoCookie].HttpOnly)
}

func TestIsBrowserRequest(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, IsBrowserRequest(c))

	c.Request.Header.Set("User-Agent", "Mozilla/5.0")
	assert.True(t, IsBrowserRequest(c))
}
