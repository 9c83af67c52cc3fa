package restclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/pkg/restclient"
)

func newBackend(t *testing.T) (*echo.Echo, *restclient.Client) {
	t.Helper()
	e := echo.New()
	e.HideBanner = true
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return e, restclient.New(srv.URL, 5*time.Second)
}

func TestDoJSONRoundTrip(t *testing.T) {
	e, client := newBackend(t)

	type payload struct {
		Name string `json:"name"`
	}
	var gotAuth string
	e.POST("/echo", func(c echo.Context) error {
		gotAuth = c.Request().Header.Get("Authorization")
		var in payload
		if err := c.Bind(&in); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, in)
	})

	var out payload
	err := client.DoJSON(context.Background(), http.MethodPost, "/echo", "tok-123", payload{Name: "boots"}, &out)
	require.NoError(t, err)
	require.Equal(t, "boots", out.Name)
	require.Equal(t, "Bearer tok-123", gotAuth)
}

func TestNoTokenMeansNoAuthHeader(t *testing.T) {
	e, client := newBackend(t)

	var gotAuth string
	e.GET("/open", func(c echo.Context) error {
		gotAuth = c.Request().Header.Get("Authorization")
		return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
	})

	err := client.DoJSON(context.Background(), http.MethodGet, "/open", "", nil, nil)
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestStatusTaxonomy(t *testing.T) {
	e, client := newBackend(t)

	e.GET("/unauthorized", func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "token expired"})
	})
	e.GET("/missing", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "no such thing"})
	})
	e.GET("/broken", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "boom"})
	})

	ctx := context.Background()

	err := client.DoJSON(ctx, http.MethodGet, "/unauthorized", "tok", nil, nil)
	require.ErrorIs(t, err, clienterr.ErrUnauthenticated)
	require.Contains(t, err.Error(), "token expired")

	err = client.DoJSON(ctx, http.MethodGet, "/missing", "tok", nil, nil)
	require.ErrorIs(t, err, clienterr.ErrNotFound)

	err = client.DoJSON(ctx, http.MethodGet, "/broken", "tok", nil, nil)
	require.NotErrorIs(t, err, clienterr.ErrUnauthenticated)
	require.True(t, clienterr.IsServerError(err))
	var apiErr *clienterr.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "boom", apiErr.Message)
}

func TestNetworkFailureWrapsErrNetwork(t *testing.T) {
	client := restclient.New("http://127.0.0.1:1", 200*time.Millisecond)
	err := client.DoJSON(context.Background(), http.MethodGet, "/anything", "", nil, nil)
	require.ErrorIs(t, err, clienterr.ErrNetwork)
}

func TestNonJSONErrorBody(t *testing.T) {
	e, client := newBackend(t)
	e.GET("/plain", func(c echo.Context) error {
		return c.String(http.StatusBadRequest, "bad input")
	})

	err := client.DoJSON(context.Background(), http.MethodGet, "/plain", "", nil, nil)
	var apiErr *clienterr.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "bad input", apiErr.Message)
}
