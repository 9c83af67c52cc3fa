package shoptest

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopishop/client-go/internal/logging"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/session"
	"github.com/shopishop/client-go/internal/store"
	"github.com/shopishop/client-go/pkg/restclient"
)

// Env wires a fake backend to a real client stack: REST client, persisted
// store and session manager, the way the runtime wires them.
type Env struct {
	Server   *Server
	API      *restclient.Client
	Store    *store.Store
	Sessions *session.Manager
	Logger   *slog.Logger
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	srv := NewServer()
	t.Cleanup(srv.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := logging.New("error")
	api := restclient.New(srv.URL, 5*time.Second)

	sessions, err := session.NewManager(api, st, logger)
	require.NoError(t, err)

	return &Env{
		Server:   srv,
		API:      api,
		Store:    st,
		Sessions: sessions,
		Logger:   logger,
	}
}

// LoginAs seeds an account and signs it in.
func (e *Env) LoginAs(t *testing.T, email string, role models.Role) models.Session {
	t.Helper()
	e.Server.SeedUser(email, "secret", "user-"+email, role)
	sess, err := e.Sessions.Login(context.Background(), email, "secret")
	require.NoError(t, err)
	return sess
}
