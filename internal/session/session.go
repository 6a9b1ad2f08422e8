package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobboard/internal/model"
)

// DefaultTTL is how long an admin session lives when no TTL is configured.
const DefaultTTL = 12 * time.Hour

// Session is an authenticated admin login.
type Session struct {
	ID         string    `json:"id"`
	AdminEmail string    `json:"admin_email"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists admin sessions. Get returns model.ErrSessionNotFound for
// unknown or expired ids.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Credentials is the static admin login.
type Credentials struct {
	Email    string
	Password string
}

// Manager issues and resolves admin sessions.
type Manager struct {
	creds  Credentials
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a Manager. A non-positive ttl uses DefaultTTL.
func NewManager(creds Credentials, store Store, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		creds:  creds,
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Login checks the credentials and starts a new session.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(m.creds.Email))) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.creds.Password)) == 1
	if !emailOK || !passOK || m.creds.Password == "" {
		m.logger.Warn("admin login rejected", "email", email)
		return Session{}, model.ErrInvalidCredentials
	}

	now := m.now().UTC()
	s := Session{
		ID:         uuid.NewString(),
		AdminEmail: email,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("saving session: %w", err)
	}
	m.logger.Info("admin logged in", "email", email)
	return s, nil
}

// Authenticate resolves a session token.
func (m *Manager) Authenticate(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, model.ErrSessionNotFound
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		return Session{}, model.ErrSessionNotFound
	}
	return s, nil
}

// Logout ends the session. Logging out an unknown session is not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	m.logger.Info("admin logged out")
	return nil
}
