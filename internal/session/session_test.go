package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campussecurity/internal/ids"
	"campussecurity/internal/kvstore"
	"campussecurity/internal/model"
	"campussecurity/internal/records"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	users records.UserRepository
	kv    *kvstore.Memory
	m     *Manager
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	seed, err := records.DefaultSeed()
	require.NoError(t, err)
	repos := records.NewMemory(seed, ids.NewGenerator(7))
	kv := kvstore.NewMemory()
	base := []Option{WithLoginDelay(0), WithClock(func() time.Time { return fixedNow })}
	return fixture{
		users: repos.Users,
		kv:    kv,
		m:     NewManager(repos.Users, kv, append(base, opts...)...),
	}
}

func TestLoginAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.m.Slot(StorageKey)
	assert.True(t, s.Loading())

	ok, err := s.Login(ctx, "admin@campus-security.com", "admin123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, s.Loading())

	u := s.Current()
	require.NotNil(t, u)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Empty(t, u.Password)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, fixedNow, *u.LastLogin)

	raw, err := f.kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"USR001"`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.m.Slot(StorageKey)

	cases := []struct{ email, password string }{
		{"admin@campus-security.com", "wrong"},
		{"ADMIN@campus-security.com", "admin123"},
		{"nobody@example.com", "admin123"},
		{"", ""},
	}
	for _, c := range cases {
		ok, err := s.Login(ctx, c.email, c.password)
		require.NoError(t, err)
		assert.False(t, ok, "%s/%s", c.email, c.password)
	}
	assert.Nil(t, s.Current())
	_, err := f.kv.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	admin, err := f.users.FindByEmail(ctx, "admin@campus-security.com")
	require.NoError(t, err)
	require.NotNil(t, admin.LastLogin)
	assert.Equal(t, time.Date(2023, 6, 15, 7, 30, 0, 0, time.UTC), admin.LastLogin.UTC(), "failed login leaves the record untouched")
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.m.Slot(StorageKey)

	ok, err := s.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Login(ctx, "admin@campus-security.com", "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "jane@example.com", s.Current().Email)
}

func TestLastLoginStrictlyIncreases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var prev time.Time
	for i := 0; i < 5; i++ {
		s := f.m.Slot(StorageKey)
		ok, err := s.Login(ctx, "security1@campus-security.com", "security123")
		require.NoError(t, err)
		require.True(t, ok)
		got := *s.Current().LastLogin
		assert.True(t, got.After(prev), "login %d: %s not after %s", i, got, prev)
		prev = got
	}
}

func TestSignup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.m.Signup(ctx, "jane@example.com", "other", "Imposter", model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
	jane, err := f.users.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", jane.Name)
	assert.Equal(t, model.RoleSecurity, jane.Role)

	ok, err = f.m.Signup(ctx, "night@example.com", "moon", "Night Guard", "")
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := f.users.List(ctx)
	require.NoError(t, err)
	matches := 0
	for _, u := range all {
		if u.Email == "night@example.com" {
			matches++
			assert.Regexp(t, `^USR\d{3}$`, u.ID)
			assert.Equal(t, model.RoleSecurity, u.Role)
		}
	}
	assert.Equal(t, 1, matches)

	s := f.m.Slot(StorageKey)
	_, err = s.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Current(), "signup does not sign in")
}

func TestSignupValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.m.Signup(ctx, "x@example.com", "pw", "X", "guard")
	assert.ErrorIs(t, err, ErrInvalidSignup)
	_, err = f.m.Signup(ctx, "x@example.com", "", "X", model.RoleSecurity)
	assert.ErrorIs(t, err, ErrInvalidSignup)
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.m.Slot(StorageKey)
	ok, err := s.Login(ctx, "mike@example.com", "password123")
	require.NoError(t, err)
	require.True(t, ok)

	fresh := f.m.Slot(StorageKey)
	u, err := fresh.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "mike@example.com", u.Email)
	assert.False(t, fresh.Loading())
}

func TestRestoreDiscardsCorruptBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, StorageKey, []byte(`{"id": "USR0`), 0))

	for i := 0; i < 2; i++ {
		s := f.m.Slot(StorageKey)
		u, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, u)
		assert.Nil(t, s.Current())
		assert.False(t, s.Loading())

		_, err = f.kv.Get(ctx, StorageKey)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.m.Slot(StorageKey)

	ok, err := s.Login(ctx, "john@example.com", "password123")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.Current())
	_, err = f.kv.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestLoginHonoursContext(t *testing.T) {
	f := newFixture(t, WithLoginDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	s := f.m.Slot(StorageKey)
	ok, err := s.Login(ctx, "admin@campus-security.com", "admin123")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, s.Current())
}

func TestSlotsAreIndependent(t *testing.T) {
	f := newFixture(t, WithTTL(time.Hour))
	ctx := context.Background()

	a := f.m.Slot("session:a")
	b := f.m.Slot("session:b")
	ok, err := a.Login(ctx, "admin@campus-security.com", "admin123")
	require.NoError(t, err)
	require.True(t, ok)

	u, err := b.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLoginStampKeepsConcurrentEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jane, err := f.users.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	stale := *jane

	s := f.m.Slot(StorageKey)
	ok, err := s.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	require.True(t, ok)

	// an admin edit computed before the login lands after it
	stale.Password = "rotated"
	_, err = f.users.Update(ctx, stale)
	require.NoError(t, err)

	got, err := f.users.Get(ctx, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.Password)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, fixedNow, *got.LastLogin, "edit does not roll back the login stamp")

	ok, err = f.m.Slot("other").Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, ok, "old password no longer works")
}

func TestVerifyFollowsLiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.m.Slot(StorageKey)
	ok, err := s.Login(ctx, "admin@campus-security.com", "admin123")
	require.NoError(t, err)
	require.True(t, ok)

	admin, err := f.users.Get(ctx, "USR001")
	require.NoError(t, err)
	admin.Role = model.RoleSecurity
	_, err = f.users.Update(ctx, *admin)
	require.NoError(t, err)

	fresh := f.m.Slot(StorageKey)
	u, err := fresh.Verify(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.RoleSecurity, u.Role)
	assert.Empty(t, u.Password)
}

func TestVerifyEndsSessionOfDeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.m.Slot(StorageKey)
	ok, err := s.Login(ctx, "mike@example.com", "password123")
	require.NoError(t, err)
	require.True(t, ok)
	id := s.Current().ID
	require.NoError(t, f.users.Delete(ctx, id))

	fresh := f.m.Slot(StorageKey)
	u, err := fresh.Verify(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Nil(t, fresh.Current())
	_, err = f.kv.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}
