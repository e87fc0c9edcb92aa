package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, target string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestRequireUUIDParam(t *testing.T) {
	c := newContext(t, "/")
	c.SetParamNames("id")
	c.SetParamValues("b2b5d7c4-4f6e-4f1a-9c3e-2f8a1d6e5b4a")

	u, err := RequireUUIDParam(c, "id")
	require.NoError(t, err)
	require.Equal(t, "b2b5d7c4-4f6e-4f1a-9c3e-2f8a1d6e5b4a", u.String())
}

func TestRequireUUIDParam_Invalid(t *testing.T) {
	c := newContext(t, "/")
	c.SetParamNames("id")
	c.SetParamValues("nope")

	_, err := RequireUUIDParam(c, "id")
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestIntQueryParam(t *testing.T) {
	require.Equal(t, 50, IntQueryParam(newContext(t, "/"), "limit", 50, 1, 200))
	require.Equal(t, 25, IntQueryParam(newContext(t, "/?limit=25"), "limit", 50, 1, 200))
	require.Equal(t, 200, IntQueryParam(newContext(t, "/?limit=9999"), "limit", 50, 1, 200))
	require.Equal(t, 1, IntQueryParam(newContext(t, "/?limit=-3"), "limit", 50, 1, 200))
	require.Equal(t, 50, IntQueryParam(newContext(t, "/?limit=abc"), "limit", 50, 1, 200))
}
