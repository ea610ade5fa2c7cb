package records

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campussecurity/internal/ids"
	"campussecurity/internal/model"
)

// table is a mutex-guarded slice of records keyed by a prefixed id.
type table[T any] struct {
	mu     sync.RWMutex
	rows   []T
	key    func(*T) *string
	prefix string
	width  int
	gen    *ids.Generator
}

func newTable[T any](rows []T, key func(*T) *string, prefix string, width int, gen *ids.Generator) *table[T] {
	return &table[T]{
		rows:   append([]T(nil), rows...),
		key:    key,
		prefix: prefix,
		width:  width,
		gen:    gen,
	}
}

func (t *table[T]) list() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]T(nil), t.rows...)
}

func (t *table[T]) get(id string) *T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.indexLocked(id); i >= 0 {
		row := t.rows[i]
		return &row
	}
	return nil
}

func (t *table[T]) add(rec T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.key(&rec)
	if *id == "" {
		*id = t.gen.Unique(t.prefix, t.width, func(s string) bool { return t.indexLocked(s) >= 0 })
	} else if t.indexLocked(*id) >= 0 {
		return rec, fmt.Errorf("%w: id %s already exists", ErrInvalid, *id)
	}
	t.rows = append(t.rows, rec)
	return rec, nil
}

func (t *table[T]) indexLocked(id string) int {
	for i := range t.rows {
		if *t.key(&t.rows[i]) == id {
			return i
		}
	}
	return -1
}

// NewMemory builds repositories over in-process tables seeded from seed.
// Nothing written to them survives a restart.
func NewMemory(seed Seed, gen *ids.Generator) *Repositories {
	return &Repositories{
		Students:  &memStudents{newTable(seed.Students, func(s *model.Student) *string { return &s.ID }, ids.PrefixStudent, ids.WidthStudent, gen)},
		Visitors:  &memVisitors{newTable(seed.Visitors, func(v *model.Visitor) *string { return &v.ID }, ids.PrefixVisitor, ids.WidthDefault, gen)},
		Vehicles:  &memVehicles{newTable(seed.Vehicles, func(v *model.Vehicle) *string { return &v.ID }, ids.PrefixVehicle, ids.WidthDefault, gen)},
		LostItems: &memLostItems{newTable(seed.LostItems, func(i *model.LostItem) *string { return &i.ID }, ids.PrefixLostItem, ids.WidthDefault, gen)},
		Events:    &memEvents{newTable(seed.Events, func(e *model.SecurityEvent) *string { return &e.ID }, ids.PrefixEvent, ids.WidthDefault, gen)},
		Users:     &memUsers{table: newTable(seed.Users, func(u *model.User) *string { return &u.ID }, ids.PrefixUser, ids.WidthDefault, gen)},
	}
}

type memStudents struct{ t *table[model.Student] }

func (m *memStudents) List(context.Context) ([]model.Student, error) { return m.t.list(), nil }
func (m *memStudents) Get(_ context.Context, id string) (*model.Student, error) {
	return m.t.get(id), nil
}

type memVisitors struct{ t *table[model.Visitor] }

func (m *memVisitors) List(context.Context) ([]model.Visitor, error) { return m.t.list(), nil }
func (m *memVisitors) Get(_ context.Context, id string) (*model.Visitor, error) {
	return m.t.get(id), nil
}
func (m *memVisitors) Add(_ context.Context, v model.Visitor) (model.Visitor, error) {
	return m.t.add(v)
}

type memVehicles struct{ t *table[model.Vehicle] }

func (m *memVehicles) List(context.Context) ([]model.Vehicle, error) { return m.t.list(), nil }
func (m *memVehicles) Get(_ context.Context, id string) (*model.Vehicle, error) {
	return m.t.get(id), nil
}
func (m *memVehicles) Add(_ context.Context, v model.Vehicle) (model.Vehicle, error) {
	return m.t.add(v)
}

type memLostItems struct{ t *table[model.LostItem] }

func (m *memLostItems) List(context.Context) ([]model.LostItem, error) { return m.t.list(), nil }
func (m *memLostItems) Get(_ context.Context, id string) (*model.LostItem, error) {
	return m.t.get(id), nil
}
func (m *memLostItems) Add(_ context.Context, item model.LostItem) (model.LostItem, error) {
	return m.t.add(item)
}

type memEvents struct{ t *table[model.SecurityEvent] }

func (m *memEvents) List(context.Context) ([]model.SecurityEvent, error) { return m.t.list(), nil }
func (m *memEvents) Get(_ context.Context, id string) (*model.SecurityEvent, error) {
	return m.t.get(id), nil
}
func (m *memEvents) Add(_ context.Context, e model.SecurityEvent) (model.SecurityEvent, error) {
	return m.t.add(e)
}

type memUsers struct {
	// write guards the email uniqueness check together with the write.
	write sync.Mutex
	table *table[model.User]
}

func (m *memUsers) List(context.Context) ([]model.User, error) { return m.table.list(), nil }

func (m *memUsers) Get(_ context.Context, id string) (*model.User, error) {
	return m.table.get(id), nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.table.mu.RLock()
	defer m.table.mu.RUnlock()
	for _, u := range m.table.rows {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Add(ctx context.Context, u model.User) (model.User, error) {
	m.write.Lock()
	defer m.write.Unlock()
	if existing, _ := m.FindByEmail(ctx, u.Email); existing != nil {
		return model.User{}, ErrDuplicateEmail
	}
	return m.table.add(u)
}

func (m *memUsers) Update(ctx context.Context, u model.User) (model.User, error) {
	m.write.Lock()
	defer m.write.Unlock()
	if existing, _ := m.FindByEmail(ctx, u.Email); existing != nil && existing.ID != u.ID {
		return model.User{}, ErrDuplicateEmail
	}
	m.table.mu.Lock()
	defer m.table.mu.Unlock()
	i := m.table.indexLocked(u.ID)
	if i < 0 {
		return model.User{}, ErrNotFound
	}
	u.LastLogin = m.table.rows[i].LastLogin
	m.table.rows[i] = u
	return u, nil
}

// StampLogin sets only LastLogin. When at is not after the stored value the
// stamp moves 1ms past it, so successive logins stay strictly increasing.
func (m *memUsers) StampLogin(_ context.Context, id string, at time.Time) (model.User, error) {
	m.table.mu.Lock()
	defer m.table.mu.Unlock()
	i := m.table.indexLocked(id)
	if i < 0 {
		return model.User{}, ErrNotFound
	}
	row := &m.table.rows[i]
	if row.LastLogin != nil && !at.After(*row.LastLogin) {
		at = row.LastLogin.Add(time.Millisecond)
	}
	row.LastLogin = &at
	return *row, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.write.Lock()
	defer m.write.Unlock()
	m.table.mu.Lock()
	defer m.table.mu.Unlock()
	i := m.table.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	m.table.rows = append(m.table.rows[:i], m.table.rows[i+1:]...)
	return nil
}
