package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/store"
	"github.com/shopishop/client-go/pkg/restclient"
)

// Manager is the single owner of the session. Everything else reads the
// current session through it and reacts to changes through Subscribe; only
// the manager writes. A session write purges or persists the device store
// before observers run, so dependents never see another user's state.
type Manager struct {
	mu   sync.RWMutex
	cur  models.Session
	subs []func(models.Session)

	api   *restclient.Client
	store *store.Store
	log   *slog.Logger
}

func NewManager(api *restclient.Client, st *store.Store, log *slog.Logger) (*Manager, error) {
	m := &Manager{
		api:   api,
		store: st,
		log:   log.With("component", "session"),
		cur:   guest(),
	}

	sess, ok, err := st.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if ok {
		if tokenExpired(sess.Token) {
			m.log.Info("persisted token expired, starting as guest")
			if err := st.Purge(); err != nil {
				m.log.Error("purge after expired token", "error", err)
			}
		} else {
			m.cur = sess
		}
	}
	return m, nil
}

func guest() models.Session {
	return models.Session{Role: models.RoleGuest}
}

func (m *Manager) Current() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur.Token
}

// Subscribe registers an observer called after every session change, both
// logins and teardowns. Observers must invalidate any per-user mirrors.
func (m *Manager) Subscribe(fn func(models.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

type authResponse struct {
	Token        string           `json:"token"`
	Username     string           `json:"username"`
	Email        string           `json:"email"`
	Role         models.Role      `json:"role"`
	StoreDetails *models.StoreRef `json:"storeDetails"`
}

func (m *Manager) Login(ctx context.Context, email, password string) (models.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := m.api.DoJSON(ctx, http.MethodPost, "/public/auth/login", "", body, &resp); err != nil {
		return models.Session{}, fmt.Errorf("login: %w", err)
	}
	return m.establish(resp)
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNbr,omitempty"`
}

func (m *Manager) Register(ctx context.Context, req RegisterRequest) (models.Session, error) {
	var resp authResponse
	if err := m.api.DoJSON(ctx, http.MethodPost, "/public/auth/signup", "", req, &resp); err != nil {
		return models.Session{}, fmt.Errorf("register: %w", err)
	}
	return m.establish(resp)
}

func (m *Manager) establish(resp authResponse) (models.Session, error) {
	if resp.Token == "" {
		return models.Session{}, fmt.Errorf("auth response without token")
	}
	sess := models.Session{
		Token:    resp.Token,
		UserID:   subjectClaim(resp.Token),
		Username: resp.Username,
		Email:    resp.Email,
		Role:     resp.Role,
	}
	if sess.Role == "" {
		sess.Role = models.RoleCustomer
	}
	if sess.Role == models.RoleMerchant {
		sess.Store = resp.StoreDetails
	}
	if err := m.set(sess); err != nil {
		return models.Session{}, err
	}
	m.log.Info("session established", "role", sess.Role, "user", sess.Email)
	return sess, nil
}

// Logout tells the backend best-effort and always tears down local state.
func (m *Manager) Logout(ctx context.Context) {
	if tok := m.Token(); tok != "" {
		if err := m.api.DoJSON(ctx, http.MethodPost, "/api/user/logout", tok, struct{}{}, nil); err != nil {
			m.log.Warn("logout request failed", "error", err)
		}
	}
	m.teardown()
}

// ForceLogout tears down local state without a backend call. The validity
// monitor uses it when the backend has already rejected the token.
func (m *Manager) ForceLogout() {
	m.teardown()
}

func (m *Manager) teardown() {
	m.mu.Lock()
	m.cur = guest()
	cur := m.cur
	subs := append([]func(models.Session){}, m.subs...)
	m.mu.Unlock()

	if err := m.store.Purge(); err != nil {
		m.log.Error("purge state store", "error", err)
	}
	for _, fn := range subs {
		fn(cur)
	}
	m.log.Info("session cleared")
}

func (m *Manager) set(sess models.Session) error {
	m.mu.Lock()
	m.cur = sess
	subs := append([]func(models.Session){}, m.subs...)
	m.mu.Unlock()

	if err := m.store.SaveSession(sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	for _, fn := range subs {
		fn(sess)
	}
	return nil
}

func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := m.api.DoJSON(ctx, http.MethodPost, "/public/auth/forgot-password", "", body, nil); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	return nil
}

func (m *Manager) VerifyResetToken(ctx context.Context, token string) error {
	path := "/public/auth/verify-reset-token?token=" + url.QueryEscape(token)
	if err := m.api.DoJSON(ctx, http.MethodGet, path, "", nil, nil); err != nil {
		return fmt.Errorf("verify reset token: %w", err)
	}
	return nil
}

func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "newPassword": newPassword}
	if err := m.api.DoJSON(ctx, http.MethodPost, "/public/auth/reset-password", "", body, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// subjectClaim reads the sub claim without verifying the signature. The
// client holds no signing secret; the backend is the verifier.
func subjectClaim(token string) string {
	t, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

func tokenExpired(token string) bool {
	t, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
