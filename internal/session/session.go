package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"campussecurity/internal/kvstore"
	"campussecurity/internal/model"
)

// StorageKey is the slot a single-user client (the CLI) keeps its session in.
const StorageKey = "campusSecurityUser"

// DefaultLoginDelay is the simulated authentication round trip.
const DefaultLoginDelay = time.Second

// ErrInvalidSignup is returned by Signup for missing fields or an unknown role.
var ErrInvalidSignup = errors.New("session: invalid signup")

// Directory is the user table the store authenticates against.
// records.UserRepository satisfies it.
type Directory interface {
	Get(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Add(ctx context.Context, u model.User) (model.User, error)
	// StampLogin writes only LastLogin, keeping it strictly increasing.
	StampLogin(ctx context.Context, id string, at time.Time) (model.User, error)
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithLoginDelay(d time.Duration) Option { return func(m *Manager) { m.delay = d } }

// WithTTL bounds how long a stored session survives in the KV store.
// Zero keeps it until logout.
func WithTTL(ttl time.Duration) Option { return func(m *Manager) { m.ttl = ttl } }

func WithLogger(l zerolog.Logger) Option { return func(m *Manager) { m.log = l } }

// Manager hands out session slots backed by one KV store and one user table.
type Manager struct {
	users Directory
	kv    kvstore.Store
	now   func() time.Time
	delay time.Duration
	ttl   time.Duration
	log   zerolog.Logger
}

func NewManager(users Directory, kv kvstore.Store, opts ...Option) *Manager {
	m := &Manager{
		users: users,
		kv:    kv,
		now:   time.Now,
		delay: DefaultLoginDelay,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Slot returns the session stored under key. The session starts in the
// loading state until Restore or Login resolves it.
func (m *Manager) Slot(key string) *Session {
	return &Session{m: m, key: key, loading: true}
}

// Signup registers a new account. It reports false when the email is already
// taken and never signs the new user in.
func (m *Manager) Signup(ctx context.Context, email, password, name string, role model.Role) (bool, error) {
	if err := m.wait(ctx); err != nil {
		return false, err
	}
	if role == "" {
		role = model.RoleSecurity
	}
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return false, fmt.Errorf("%w: name, email and password are required", ErrInvalidSignup)
	}
	if !role.Valid() {
		return false, fmt.Errorf("%w: unknown role %q", ErrInvalidSignup, role)
	}
	existing, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", email, err)
	}
	if existing != nil {
		return false, nil
	}
	u, err := m.users.Add(ctx, model.User{Name: name, Email: email, Password: password, Role: role})
	if err != nil {
		// lost a race with a concurrent signup for the same address
		if existing, _ := m.users.FindByEmail(ctx, email); existing != nil {
			return false, nil
		}
		return false, fmt.Errorf("add user: %w", err)
	}
	m.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user signed up")
	return true, nil
}

func (m *Manager) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// authenticate returns the matching user with a fresh lastLogin, or nil.
func (m *Manager) authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}
	if u == nil || u.Password != password {
		return nil, nil
	}
	updated, err := m.users.StampLogin(ctx, u.ID, m.now())
	if err != nil {
		return nil, fmt.Errorf("stamp last login: %w", err)
	}
	return &updated, nil
}

// Session is zero or one signed-in user bound to a KV slot.
type Session struct {
	m   *Manager
	key string

	mu      sync.RWMutex
	user    *model.User
	loading bool
}

func (s *Session) Key() string { return s.key }

// Current returns the signed-in user without a password, or nil.
func (s *Session) Current() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Loading reports whether the session has not been resolved yet.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Restore reloads the session from the KV store. A blob that does not decode
// is deleted and treated as no session. Only store failures are returned.
func (s *Session) Restore(ctx context.Context) (*model.User, error) {
	defer s.settle()

	raw, err := s.m.kv.Get(ctx, s.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		s.set(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", s.key, err)
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
		s.m.log.Warn().Str("key", s.key).Msg("discarding unreadable stored session")
		if err := s.m.kv.Delete(ctx, s.key); err != nil {
			return nil, fmt.Errorf("clear %s: %w", s.key, err)
		}
		s.set(nil)
		return nil, nil
	}
	s.set(&u)
	return s.Current(), nil
}

// Verify restores the session and checks it against the user table. A user
// that no longer exists ends the session; otherwise the live account
// replaces the stored copy, so role and profile edits apply at once.
func (s *Session) Verify(ctx context.Context) (*model.User, error) {
	u, err := s.Restore(ctx)
	if err != nil || u == nil {
		return u, err
	}
	live, err := s.m.users.Get(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", s.key, err)
	}
	if live == nil {
		s.m.log.Info().Str("user_id", u.ID).Msg("session ended, account removed")
		if err := s.Logout(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	public := live.Public()
	s.set(&public)
	return s.Current(), nil
}

// Login checks email and password against the user table, both matched
// exactly. A mismatch reports false and leaves the session untouched.
func (s *Session) Login(ctx context.Context, email, password string) (bool, error) {
	if err := s.m.wait(ctx); err != nil {
		return false, err
	}
	u, err := s.m.authenticate(ctx, email, password)
	if err != nil {
		return false, err
	}
	if u == nil {
		s.m.log.Info().Str("email", email).Msg("login rejected")
		return false, nil
	}
	public := u.Public()
	raw, err := json.Marshal(public)
	if err != nil {
		return false, fmt.Errorf("encode session: %w", err)
	}
	if err := s.m.kv.Set(ctx, s.key, raw, s.m.ttl); err != nil {
		return false, fmt.Errorf("persist session: %w", err)
	}
	s.set(&public)
	s.settle()
	s.m.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("login")
	return true, nil
}

// Logout forgets the user in memory and in the KV store.
func (s *Session) Logout(ctx context.Context) error {
	s.set(nil)
	if err := s.m.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("logout %s: %w", s.key, err)
	}
	return nil
}

func (s *Session) set(u *model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Session) settle() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}
