package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tinylink-go/constant"
	"tinylink-go/internal/apperrors"
	"tinylink-go/internal/config"
	"tinylink-go/internal/i18n"
	"tinylink-go/internal/middleware"
	"tinylink-go/internal/ratelimit"
	"tinylink-go/internal/repository"
	"tinylink-go/internal/service"
	"tinylink-go/pkg/privacy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, linkMiddleware ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	db, err := repository.InitDB(config.DBConfig{Driver: "sqlite", DSN: ":memory:"}, zap.NewNop(), zap.NewAtomicLevelAt(zap.ErrorLevel))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	hasher, err := privacy.NewHasher("handler-salt")
	require.NoError(t, err)
	bundle, err := i18n.InitI18n("en")
	require.NoError(t, err)

	svc := service.NewLinkService(repository.NewLinkStore(db), hasher)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.GlobalErrorMiddleware(), middleware.I18nMiddleware(bundle))
	RegisterRoutes(r, NewLinkHandler(svc), "v1.2.3", linkMiddleware...)
	return r
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Message  string   `json:"message"`
		Location []string `json:"location"`
	} `json:"errors"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func createLink(t *testing.T, r *gin.Engine, body string) (code, secret string) {
	t.Helper()
	w := do(r, http.MethodPost, "/api/links", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	var data struct {
		Code   string `json:"code"`
		Secret string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Code)
	require.Len(t, data.Secret, constant.SecretLength)
	return data.Code, data.Secret
}

func TestCreateAndResolve(t *testing.T) {
	r := newTestRouter(t)
	code, _ := createLink(t, r, `{"url":"https://example.com/landing?x=1","expiration_hours":24}`)
	assert.Equal(t, "b", code)

	w := do(r, http.MethodGet, "/t/"+code, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/landing?x=1", w.Header().Get("Location"))

	w = do(r, http.MethodGet, "/peek/"+code, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com/landing?x=1", w.Body.String())
}

func TestCreate_ValidationErrors(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/links", `{"url":"nope","expiration_hours":0,"extra":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, []string{"extra"}, env.Errors[0].Location)

	w = do(r, http.MethodPost, "/api/links", `{"url":"nope","expiration_hours":0}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env = decodeEnvelope(t, w)
	require.Len(t, env.Errors, 2)
	assert.Equal(t, []string{"url"}, env.Errors[0].Location)
	assert.Equal(t, []string{"expiration_hours"}, env.Errors[1].Location)
	assert.Equal(t, "Expiration hours must be between 1 and 720", env.Errors[1].Message)

	w = do(r, http.MethodPost, "/api/links", `["https://example.com"]`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env = decodeEnvelope(t, w)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, []string{constant.LocationAll}, env.Errors[0].Location)
}

func TestResolve_NotFound(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/t/doesnotexist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "Link not found or expired", env.Errors[0].Message)

	w = do(r, http.MethodGet, "/peek/doesnotexist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetInfo(t *testing.T) {
	r := newTestRouter(t)
	code, secret := createLink(t, r, `{"url":"https://example.com/info"}`)

	do(r, http.MethodGet, "/t/"+code, "", nil)
	do(r, http.MethodGet, "/t/"+code, "", nil)

	fields := func(w *httptest.ResponseRecorder) map[string]any {
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var data map[string]any
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
		return data
	}

	public := fields(do(r, http.MethodGet, "/api/links/"+code+"?week_history=true", "", nil))
	assert.Equal(t, code, public["code"])
	assert.Equal(t, "https://example.com/info", public["target_url"])
	assert.EqualValues(t, 1, public["unique_clicks"])
	assert.EqualValues(t, 2, public["total_clicks"])
	for _, key := range []string{"created_at", "expiration_hours", "expires_at", "week_history"} {
		assert.NotContains(t, public, key)
	}

	wrong := fields(do(r, http.MethodGet, "/api/links/"+code, "", map[string]string{constant.LinkSecretHeader: "wrong"}))
	assert.Equal(t, public["code"], wrong["code"])
	assert.NotContains(t, wrong, "created_at")

	owner := fields(do(r, http.MethodGet, "/api/links/"+code+"?week_history=true", "", map[string]string{constant.LinkSecretHeader: secret}))
	assert.Contains(t, owner, "created_at")
	assert.EqualValues(t, 1, owner["expiration_hours"])
	assert.Contains(t, owner, "expires_at")
	require.Contains(t, owner, "week_history")
	assert.Len(t, owner["week_history"], 2)

	w := do(r, http.MethodGet, "/api/links/"+code+"?week_history=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	r := newTestRouter(t)
	code, secret := createLink(t, r, `{"url":"https://example.com/delete"}`)

	w := do(r, http.MethodDelete, "/api/links/"+code, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodDelete, "/api/links/"+code, "", map[string]string{constant.LinkSecretHeader: "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusFound, do(r, http.MethodGet, "/t/"+code, "", nil).Code)

	w = do(r, http.MethodDelete, "/api/links/"+code, "", map[string]string{constant.LinkSecretHeader: secret})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeEnvelope(t, w).Success)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/t/"+code, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/links/"+code, "", map[string]string{constant.LinkSecretHeader: secret}).Code)
}

func TestPingAndVersion(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = do(r, http.MethodGet, "/version", "", nil)
	assert.Equal(t, "v1.2.3", w.Body.String())

	w = do(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tinylink_links_created_total")
}

func TestRateLimitSkipsSystemRoutes(t *testing.T) {
	limiter, err := ratelimit.New(ratelimit.Config{
		RefillRate:    1,
		BurstCapacity: 1,
		StaleAfter:    time.Minute,
		SweepInterval: time.Minute,
	})
	require.NoError(t, err)
	r := newTestRouter(t, middleware.RateLimit(limiter, middleware.ClientIPKey))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "", nil).Code)
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/version", "", nil).Code)
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", "", nil).Code)
	}

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/t/missing", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/peek/missing", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/links", `{"url":"https://example.com"}`, nil).Code)
}

func TestRender(t *testing.T) {
	r := renderResolve(service.ResolveOutcome{Kind: service.OutcomeFound, TargetURL: "https://a.b"})
	assert.Equal(t, http.StatusFound, r.status)
	assert.Equal(t, "https://a.b", r.location)
	assert.NoError(t, r.err)

	codeOf := func(err error) int {
		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		return appErr.Code
	}

	assert.Equal(t, http.StatusNotFound, codeOf(renderResolve(service.ResolveOutcome{Kind: service.OutcomeNotFound}).err))
	assert.Equal(t, http.StatusInternalServerError, codeOf(renderPeek(service.ResolveOutcome{Kind: service.OutcomeInternal, Err: errors.New("x")}).err))
	assert.Equal(t, http.StatusUnauthorized, codeOf(renderDelete(service.DeleteOutcome{Kind: service.OutcomeUnauthenticated}, "").err))
	assert.Equal(t, http.StatusForbidden, codeOf(renderDelete(service.DeleteOutcome{Kind: service.OutcomeUnauthorized}, "").err))
	assert.Equal(t, http.StatusNotFound, codeOf(renderInfo(service.InfoOutcome{Kind: service.OutcomeNotFound}, "").err))

	ok := renderDelete(service.DeleteOutcome{Kind: service.OutcomeDeleted}, "Link deleted")
	assert.Equal(t, http.StatusOK, ok.status)
	assert.NoError(t, ok.err)
}
