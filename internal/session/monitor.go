package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/pkg/restclient"
)

// Monitor confirms the token is still accepted by the backend. The policy is
// deliberately asymmetric: only an explicit 401 tears the session down.
// Network failures and 5xx answers are logged and ignored, since a transient
// outage must never destroy a valid session.
type Monitor struct {
	sessions *Manager
	api      *restclient.Client
	interval time.Duration
	log      *slog.Logger

	// OnExpired, if set, is called after a 401 teardown so the caller can
	// route the user back to the login entry point.
	OnExpired func()
}

func NewMonitor(sessions *Manager, api *restclient.Client, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		sessions: sessions,
		api:      api,
		interval: interval,
		log:      log.With("component", "token_monitor"),
	}
}

// Run validates immediately, then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Validate(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Validate(ctx)
		}
	}
}

type validateResponse struct {
	Message   string `json:"message"`
	UserEmail string `json:"userEmail"`
	Role      string `json:"role"`
}

// Validate checks the current token once. With no token it is a no-op.
func (m *Monitor) Validate(ctx context.Context) {
	token := m.sessions.Token()
	if token == "" {
		return
	}

	var resp validateResponse
	err := m.api.DoJSON(ctx, http.MethodGet, "/public/auth/validate", token, nil, &resp)
	if err == nil {
		m.log.Debug("token valid", "role", resp.Role)
		return
	}

	if errors.Is(err, clienterr.ErrUnauthenticated) {
		m.log.Warn("token rejected, logging out")
		m.sessions.ForceLogout()
		if m.OnExpired != nil {
			m.OnExpired()
		}
		return
	}

	// Transient failure: keep the session.
	m.log.Warn("token validation unavailable", "error", err)
}
