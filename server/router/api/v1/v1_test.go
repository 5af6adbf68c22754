package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicoach/amicoach/server/middleware"
)

// callProtected runs a request through authMiddleware with the given token.
// Every request comes from the same client address.
func callProtected(t *testing.T, svc *APIV1Service, token string) int {
	t.Helper()
	e := echo.New()
	handler := svc.authMiddleware(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec.Code
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	svc := newTestAPIService(t)
	assert.Equal(t, http.StatusUnauthorized, callProtected(t, svc, ""))
	assert.Equal(t, http.StatusUnauthorized, callProtected(t, svc, "not-a-token"))
}

func TestAuthMiddlewareRateLimitsPerUser(t *testing.T) {
	svc := newTestAPIService(t)
	svc.limiter = middleware.NewRateLimiter(time.Hour, 1)

	tokenA, err := svc.Authenticator.IssueToken(1, "casey")
	require.NoError(t, err)
	tokenB, err := svc.Authenticator.IssueToken(2, "river")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, callProtected(t, svc, tokenA))
	assert.Equal(t, http.StatusTooManyRequests, callProtected(t, svc, tokenA))

	// The bucket is keyed on the user, not the client address, so another
	// user from the same address is unaffected.
	assert.Equal(t, http.StatusOK, callProtected(t, svc, tokenB))
	assert.Equal(t, http.StatusTooManyRequests, callProtected(t, svc, tokenB))
}
