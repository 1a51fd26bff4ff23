package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("mw-secret")

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, c.Get(ContextUserID).(string))
}

func newCtx(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth_Bearer(t *testing.T) {
	sub := uuid.NewString()
	tok, err := tokens.SignAccessToken(secret, sub, "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	c, rec := newCtx(req)

	mw := NewAutoRefreshMiddleware(secret, nil)
	require.NoError(t, mw.RequireAuth(okHandler)(c))
	assert.Equal(t, sub, rec.Body.String())
	assert.Equal(t, "user", c.Get(ContextRole))
}

func TestRequireAuth_Missing(t *testing.T) {
	c, _ := newCtx(httptest.NewRequest(http.MethodGet, "/cart", nil))
	err := NewAutoRefreshMiddleware(secret, nil).RequireAuth(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAdmin_Forbidden(t *testing.T) {
	tok, err := tokens.SignAccessToken(secret, uuid.NewString(), "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	c, _ := newCtx(req)

	err = NewAutoRefreshMiddleware(secret, nil).RequireAdmin(okHandler)(c)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestRequireAuth_ExpiredCookieRefreshes(t *testing.T) {
	sub := uuid.NewString()
	expired, err := tokens.SignAccessToken(secret, sub, "user", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	fresh, err := tokens.SignAccessToken(secret, sub, "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(authclient.RefreshResponse{
			AccessToken:  fresh,
			RefreshToken: "r2",
			AccessExp:    time.Now().Add(time.Minute).Unix(),
			RefreshExp:   time.Now().Add(time.Hour).Unix(),
		})
	}))
	defer authSrv.Close()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: expired})
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "r1"})
	c, rec := newCtx(req)

	mw := NewAutoRefreshMiddleware(secret, authclient.NewClient(authSrv.URL))
	require.NoError(t, mw.RequireAuth(okHandler)(c))
	assert.Equal(t, sub, rec.Body.String())
	assert.Contains(t, rec.Header().Values("Set-Cookie")[0], "accessToken="+fresh)
}
