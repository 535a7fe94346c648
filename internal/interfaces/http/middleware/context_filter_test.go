package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/expensetracker/backend/internal/infrastructure/auth"
	"github.com/expensetracker/backend/internal/infrastructure/config"
	"github.com/expensetracker/backend/internal/infrastructure/logger"
	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"github.com/expensetracker/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testIssuer = "test-issuer"

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: expiration,
		Issuer:                testIssuer,
	})
}

func issue(t *testing.T, svc *auth.JWTService, principal uuid.UUID, schema string) *auth.Token {
	t.Helper()
	token, err := svc.Issue(auth.IssueInput{UserID: principal, Email: "someone@example.com", Schema: schema})
	require.NoError(t, err)
	return token
}

type whoami struct {
	Principal string `json:"principal"`
	Tenant    string `json:"tenant"`
	Internal  bool   `json:"internal"`
}

func whoamiHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var out whoami
	if p, ok := reqctx.Principal(ctx); ok {
		out.Principal = p.String()
	}
	out.Tenant, _ = reqctx.Tenant(ctx)
	out.Internal = reqctx.IsInternal(ctx)
	c.JSON(http.StatusOK, out)
}

func newFilterRouter(cfg ContextFilterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), logger.Recovery(zap.NewNop()), ContextFilter(cfg))
	router.GET("/public/whoami", whoamiHandler)
	router.GET("/private/whoami", whoamiHandler)
	router.GET("/private/panic", func(c *gin.Context) {
		panic("boom")
	})
	router.POST("/private/ops", RequireInternal(), whoamiHandler)
	return router
}

func doRequest(router http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeWhoami(t *testing.T, rec *httptest.ResponseRecorder) whoami {
	t.Helper()
	var out whoami
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func bearer(token string) map[string]string {
	return map[string]string{AuthHeaderKey: BearerPrefix + token}
}

func TestContextFilter_ValidToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc, PublicPaths: []string{"/public/*"}})

	principal := uuid.New()
	token := issue(t, svc, principal, "group_abc")

	rec := doRequest(router, http.MethodGet, "/private/whoami", bearer(token.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeWhoami(t, rec)
	assert.Equal(t, principal.String(), got.Principal)
	assert.Equal(t, "group_abc", got.Tenant)
	assert.False(t, got.Internal)
}

func TestContextFilter_TokenWithoutSchema(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc})

	principal := uuid.New()
	rec := doRequest(router, http.MethodGet, "/private/whoami", bearer(issue(t, svc, principal, "").AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeWhoami(t, rec)
	assert.Equal(t, principal.String(), got.Principal)
	assert.Empty(t, got.Tenant)
}

func TestContextFilter_ProtectedPathRejects(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	expired := newTestJWTService(-time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc})

	tests := []struct {
		name    string
		headers map[string]string
		code    string
	}{
		{"missing header", nil, dto.ErrCodeUnauthorized},
		{"wrong scheme", map[string]string{AuthHeaderKey: "Basic dXNlcjpwYXNz"}, dto.ErrCodeUnauthorized},
		{"empty bearer", map[string]string{AuthHeaderKey: "Bearer "}, dto.ErrCodeUnauthorized},
		{"garbage token", bearer("not-a-jwt"), dto.ErrCodeTokenInvalid},
		{"expired token", bearer(issue(t, expired, uuid.New(), "group_x").AccessToken), dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, "/private/whoami", tt.headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, decodeErrorCode(t, rec))
		})
	}
}

func TestContextFilter_PublicPathToleratesBadCredentials(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc, PublicPaths: []string{"/public/*"}})

	for _, headers := range []map[string]string{nil, bearer("not-a-jwt")} {
		rec := doRequest(router, http.MethodGet, "/public/whoami", headers)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeWhoami(t, rec).Principal)
	}
}

func TestContextFilter_RevokedToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	blacklist := auth.NewInMemoryTokenBlacklist()
	router := newFilterRouter(ContextFilterConfig{
		Verifier:    svc,
		Blacklist:   blacklist,
		PublicPaths: []string{"/public/*"},
	})

	token := issue(t, svc, uuid.New(), "group_x")
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), token.ID, time.Minute))

	rec := doRequest(router, http.MethodGet, "/private/whoami", bearer(token.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeErrorCode(t, rec))

	rec = doRequest(router, http.MethodGet, "/public/whoami", bearer(token.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeWhoami(t, rec).Principal)
}

type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestContextFilter_BlacklistOutageFailsOpen(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc, Blacklist: failingBlacklist{}})

	principal := uuid.New()
	rec := doRequest(router, http.MethodGet, "/private/whoami", bearer(issue(t, svc, principal, "group_x").AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, principal.String(), decodeWhoami(t, rec).Principal)
}

func TestContextFilter_InternalOperations(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc, InternalOperationsKey: "ops-key"})

	t.Run("key bypasses claim extraction", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/private/ops", map[string]string{InternalOperationsKey: "ops-key"})
		require.Equal(t, http.StatusOK, rec.Code)

		got := decodeWhoami(t, rec)
		assert.True(t, got.Internal)
		assert.Empty(t, got.Principal)
	})

	t.Run("authenticated user is not internal", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/private/ops", bearer(issue(t, svc, uuid.New(), "group_x").AccessToken))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decodeErrorCode(t, rec))
	})

	t.Run("wrong key falls back to bearer auth", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/private/ops", map[string]string{InternalOperationsKey: "guess"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestContextFilter_GatewaySecret(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{
		Verifier:      svc,
		GatewaySecret: "gw-secret",
		PublicPaths:   []string{"/public/*"},
	})

	rec := doRequest(router, http.MethodGet, "/public/whoami", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(router, http.MethodGet, "/public/whoami", map[string]string{GatewayHeaderKey: "gw-secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContextFilter_PanicDoesNotLeakIdentity(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc, PublicPaths: []string{"/public/*"}})

	token := issue(t, svc, uuid.New(), "group_leak")
	for range 20 {
		rec := doRequest(router, http.MethodGet, "/private/panic", bearer(token.AccessToken))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		rec = doRequest(router, http.MethodGet, "/public/whoami", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeWhoami(t, rec)
		assert.Empty(t, got.Principal)
		assert.Empty(t, got.Tenant)
	}
}

func TestContextFilter_ConcurrentRequestsStayIsolated(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	router := newFilterRouter(ContextFilterConfig{Verifier: svc})

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers*10)

	for i := range workers {
		principal := uuid.New()
		schema := fmt.Sprintf("group_%02d", i)
		token := issue(t, svc, principal, schema)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				rec := doRequest(router, http.MethodGet, "/private/whoami", bearer(token.AccessToken))
				var got whoami
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					errs <- err
					return
				}
				if got.Principal != principal.String() || got.Tenant != schema {
					errs <- fmt.Errorf("request for %s observed %s/%s", schema, got.Principal, got.Tenant)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestClaimsFromContext(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token := issue(t, svc, uuid.New(), "group_x")

	router := gin.New()
	router.Use(ContextFilter(ContextFilterConfig{Verifier: svc}))
	router.GET("/claims", func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c.Request.Context())
		require.True(t, ok)
		c.String(http.StatusOK, claims.ID)
	})

	rec := doRequest(router, http.MethodGet, "/claims", bearer(token.AccessToken))
	assert.Equal(t, token.ID, rec.Body.String())

	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)
}

func TestIsPublicPath(t *testing.T) {
	public := []string{"/api/v1/auth/login", "/docs/*"}

	assert.True(t, isPublicPath("/api/v1/auth/login", public))
	assert.False(t, isPublicPath("/api/v1/auth/login/extra", public))
	assert.True(t, isPublicPath("/docs", public))
	assert.True(t, isPublicPath("/docs/index.html", public))
	assert.False(t, isPublicPath("/docsearch", public))
	assert.False(t, isPublicPath("/api/v1/expenses", nil))
}
