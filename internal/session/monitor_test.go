package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopishop/client-go/internal/logging"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/session"
	"github.com/shopishop/client-go/internal/shoptest"
	"github.com/shopishop/client-go/pkg/restclient"
)

func TestValidateKeepsLiveSession(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)

	monitor := session.NewMonitor(env.Sessions, env.API, time.Minute, env.Logger)
	monitor.Validate(context.Background())

	require.True(t, env.Sessions.Current().Authenticated())
}

func TestValidateTearsDownOnRevokedToken(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)

	var expired bool
	monitor := session.NewMonitor(env.Sessions, env.API, time.Minute, env.Logger)
	monitor.OnExpired = func() { expired = true }

	env.Server.RevokeTokens()
	monitor.Validate(context.Background())

	require.True(t, expired)
	require.False(t, env.Sessions.Current().Authenticated())
	require.Equal(t, models.RoleGuest, env.Sessions.Current().Role)

	_, ok, err := env.Store.LoadSession()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateKeepsSessionOnServerError(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)

	var expired bool
	monitor := session.NewMonitor(env.Sessions, env.API, time.Minute, env.Logger)
	monitor.OnExpired = func() { expired = true }

	env.Server.FailWith("GET", "/public/auth/validate", 500)
	monitor.Validate(context.Background())

	require.False(t, expired)
	require.True(t, env.Sessions.Current().Authenticated())
}

func TestValidateKeepsSessionOnNetworkError(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)

	unreachable := restclient.New("http://127.0.0.1:1", 200*time.Millisecond)
	monitor := session.NewMonitor(env.Sessions, unreachable, time.Minute, env.Logger)
	monitor.Validate(context.Background())

	require.True(t, env.Sessions.Current().Authenticated())
}

func TestValidateWithoutTokenSkipsNetwork(t *testing.T) {
	env := shoptest.NewEnv(t)

	monitor := session.NewMonitor(env.Sessions, env.API, time.Minute, env.Logger)
	before := env.Server.Requests()
	monitor.Validate(context.Background())
	require.Equal(t, before, env.Server.Requests())
}

func TestRunValidatesOnStart(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)
	env.Server.RevokeTokens()

	expired := make(chan struct{})
	monitor := session.NewMonitor(env.Sessions, env.API, time.Hour, logging.New("error"))
	monitor.OnExpired = func() { close(expired) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	select {
	case <-expired:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor never noticed the revoked token")
	}
	require.False(t, env.Sessions.Current().Authenticated())
}
