// Package session manages the locally persisted login state.
//
// Login and registration are local: both pass through the credential gate
// and, on success, overwrite the stored session. Nothing is sent to a server.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/infodancer/basicfit"
	"github.com/infodancer/basicfit/credential"
	bferrors "github.com/infodancer/basicfit/errors"
)

// Manager reads and writes the session record in a basicfit.Store.
//
// The boolean methods (Login, Register, Logout, IsLoggedIn, UserInfo) collapse
// every failure into false or an absent value. SignIn, SignUp, SignOut and
// Current return the underlying error instead.
//
// Lifecycle: Manager does not own the store. The caller closes it.
type Manager struct {
	store  basicfit.Store
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewManager creates a Manager over store. A nil logger uses slog.Default().
func NewManager(store basicfit.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		logger: logger,
	}
}

// Login signs in locally. Returns false if the credential gate rejects the
// input or the session could not be persisted.
func (m *Manager) Login(ctx context.Context, email, password *string) bool {
	_, err := m.SignIn(ctx, email, password)
	return m.report("login", err)
}

// Register behaves like Login but records the newcomer display name.
func (m *Manager) Register(ctx context.Context, email, password *string) bool {
	_, err := m.SignUp(ctx, email, password)
	return m.report("register", err)
}

// Logout clears the session. It always succeeds from the caller's view; a
// store failure is logged.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.SignOut(ctx); err != nil {
		m.logger.Warn("logout failed",
			slog.String("error", err.Error()))
	}
}

// IsLoggedIn returns the persisted flag, false if never set or unreadable.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	s, err := m.load(ctx)
	if err != nil {
		m.logger.Debug("read session failed",
			slog.String("error", err.Error()))
		return false
	}
	return s.LoggedIn
}

// UserInfo returns the greeting for the logged-in user. ok is false when no
// session is stored, which callers must treat differently from an empty string.
func (m *Manager) UserInfo(ctx context.Context) (info string, ok bool) {
	s, err := m.Current(ctx)
	if err != nil {
		return "", false
	}
	return s.Greeting(), true
}

// SignIn validates the credentials and stores a member session.
// Returns errors.ErrInvalidCredentials if the gate rejects the input.
func (m *Manager) SignIn(ctx context.Context, email, password *string) (*basicfit.Session, error) {
	return m.signIn(ctx, email, password, basicfit.DisplayNameMember)
}

// SignUp validates the credentials and stores a newcomer session. There is no
// existing-user check; it differs from SignIn only in the display name.
func (m *Manager) SignUp(ctx context.Context, email, password *string) (*basicfit.Session, error) {
	return m.signIn(ctx, email, password, basicfit.DisplayNameNewcomer)
}

// SignOut resets the session to logged out. Safe to call repeatedly.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := basicfit.Session{}
	if err := m.store.Apply(ctx, s.Edits()...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.logger.Debug("session cleared")
	return nil
}

// Current returns the stored session.
// Returns errors.ErrNotAuthenticated when logged out.
func (m *Manager) Current(ctx context.Context) (*basicfit.Session, error) {
	s, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	if !s.LoggedIn {
		return nil, bferrors.ErrNotAuthenticated
	}
	return s, nil
}

func (m *Manager) signIn(ctx context.Context, email, password *string, displayName string) (*basicfit.Session, error) {
	if err := credential.Check(email, password); err != nil {
		return nil, err
	}

	s := &basicfit.Session{
		LoggedIn:    true,
		Email:       *email,
		DisplayName: displayName,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Apply(ctx, s.Edits()...); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.logger.Debug("session saved",
		slog.String("display_name", displayName))
	return s, nil
}

func (m *Manager) load(ctx context.Context) (*basicfit.Session, error) {
	m.mu.RLock()
	values, err := m.store.Load(ctx)
	m.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return basicfit.SessionFromValues(values)
}

// report logs err at a level matching its cause and reports success.
func (m *Manager) report(op string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, bferrors.ErrInvalidCredentials):
		m.logger.Debug(op+" rejected",
			slog.String("error", err.Error()))
	default:
		m.logger.Warn(op+" failed",
			slog.String("error", err.Error()))
	}
	return false
}
