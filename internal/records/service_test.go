package records

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campussecurity/internal/ids"
	"campussecurity/internal/model"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type captureSink struct {
	mu     sync.Mutex
	events []model.SecurityEvent
}

func (c *captureSink) Publish(_ context.Context, e model.SecurityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	seed, err := DefaultSeed()
	require.NoError(t, err)
	base := []Option{WithLatency(Latency{}), WithClock(func() time.Time { return fixedNow })}
	return NewService(NewMemory(seed, ids.NewGenerator(1)), ids.NewGenerator(2), append(base, opts...)...)
}

func TestDefaultSeedLoads(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)
	assert.Len(t, seed.Students, 5)
	assert.Len(t, seed.Visitors, 5)
	assert.Len(t, seed.Vehicles, 5)
	assert.Len(t, seed.LostItems, 5)
	assert.Len(t, seed.Events, 5)
	require.NotEmpty(t, seed.Users)
	assert.Equal(t, "admin@campus-security.com", seed.Users[0].Email)
	assert.Equal(t, model.RoleAdmin, seed.Users[0].Role)
	require.NotNil(t, seed.Students[0].LastSeen)
	assert.Equal(t, time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC), seed.Students[0].LastSeen.UTC())
}

func TestParseSeedRejectsUnknownStatus(t *testing.T) {
	_, err := ParseSeed([]byte(`
students:
  - id: STU0001
    name: Someone
    department: Physics
    status: graduated
`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseSeedRejectsDuplicateIDs(t *testing.T) {
	_, err := ParseSeed([]byte(`
events:
  - {id: EVT001, type: system, severity: info, description: one}
  - {id: EVT001, type: system, severity: info, description: two}
`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseSeedRejectsMalformedIDs(t *testing.T) {
	for name, doc := range map[string]string{
		"short":         "visitors:\n  - {id: VIS1, name: A, purpose: B, contactInfo: C, status: active}\n",
		"no prefix":     "events:\n  - {id: foo, type: system, severity: info, description: one}\n",
		"wrong prefix":  "vehicles:\n  - {id: VIS001, licensePlate: X, make: Y, model: Z, color: red, type: staff, status: authorized}\n",
		"student width": "students:\n  - {id: STU001, name: A, department: B, status: active}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeed([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestStudentGetByIDUnknown(t *testing.T) {
	svc := newTestService(t)

	s, err := svc.Students.GetByID(context.Background(), "STU9999")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = svc.Students.GetByID(context.Background(), "STU1003")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Mohammed Al-Fayed", s.Name)
}

func TestSearchByFaceMissRate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	misses := 0
	for i := 0; i < 1000; i++ {
		s, err := svc.Students.SearchByFace(ctx, "data:image/jpeg;base64,AAAA")
		require.NoError(t, err)
		if s == nil {
			misses++
			continue
		}
		assert.Regexp(t, regexp.MustCompile(`^STU\d{4}$`), s.ID)
	}
	assert.InDelta(t, 300, misses, 50)
}

func TestSearchByFaceHonoursContext(t *testing.T) {
	svc := newTestService(t, WithLatency(Latency{Face: time.Hour}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Students.SearchByFace(ctx, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFilteredViews(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	active, err := svc.Visitors.GetActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	for _, v := range active {
		assert.Equal(t, model.VisitorActive, v.Status)
	}

	inside, err := svc.Vehicles.GetInside(ctx)
	require.NoError(t, err)
	assert.Len(t, inside, 3)

	unclaimed, err := svc.LostItems.GetUnclaimed(ctx)
	require.NoError(t, err)
	assert.Len(t, unclaimed, 3)
}

func TestVisitorAddAppendsAndLogs(t *testing.T) {
	sink := &captureSink{}
	svc := newTestService(t, WithSink(sink))
	ctx := context.Background()

	v, err := svc.Visitors.Add(ctx, model.Visitor{
		ID:          "VIS001",
		Name:        "Ada Lovelace",
		Purpose:     "Guest Lecture",
		ContactInfo: "555-000-1111",
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^VIS\d{3}$`), v.ID)
	assert.NotEqual(t, "VIS001", v.ID, "caller supplied ids are ignored")
	assert.Equal(t, model.VisitorActive, v.Status)
	assert.Equal(t, fixedNow, v.CheckIn)

	all, err := svc.Visitors.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, v, all[5])

	require.Len(t, sink.events, 1)
	assert.Equal(t, model.EventVisitor, sink.events[0].Type)
	assert.Equal(t, v.ID, sink.events[0].RelatedID)
	assert.Equal(t, "New visitor Ada Lovelace checked in", sink.events[0].Description)
}

func TestAddRejectsUnknownEnum(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Vehicles.Add(ctx, model.Vehicle{
		LicensePlate: "QQQ-0001", Make: "Kia", Model: "Rio", Color: "Green",
		Type: "bus",
	})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.LostItems.Add(ctx, model.LostItem{
		Name: "Scarf", Description: "Red", Location: "Gym", Category: "food",
	})
	assert.ErrorIs(t, err, ErrInvalid)

	all, err := svc.Vehicles.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFlaggedVehicleRaisesAlert(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v, err := svc.Vehicles.Add(ctx, model.Vehicle{
		LicensePlate: "ZZZ-9999", Make: "Kia", Model: "Rio", Color: "Green",
		Status: model.VehicleFlagged,
	})
	require.NoError(t, err)
	assert.Equal(t, model.VehicleUnknown, v.Type)

	events, err := svc.Events.GetAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAlert, events[0].Type)
	assert.Equal(t, model.SeverityWarning, events[0].Severity)
	assert.Equal(t, v.ID, events[0].RelatedID)
}

func TestLostItemAdd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.LostItems.Add(ctx, model.LostItem{
		Name: "Umbrella", Description: "Black, folding", Location: "Library",
		Category: model.CategoryAccessories,
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^LOST\d{3}$`), item.ID)
	assert.Equal(t, model.ItemUnclaimed, item.Status)

	unclaimed, err := svc.LostItems.GetUnclaimed(ctx)
	require.NoError(t, err)
	assert.Len(t, unclaimed, 4)
}

func TestEventsNewestFirstWithLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	added, err := svc.Events.Add(ctx, model.SecurityEvent{Type: model.EventSystem, Description: "Gate camera restarted"})
	require.NoError(t, err)
	assert.Equal(t, model.SeverityInfo, added.Severity)
	assert.Regexp(t, regexp.MustCompile(`^EVT\d{3}$`), added.ID)

	events, err := svc.Events.GetAll(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, added.ID, events[0].ID)
	assert.Equal(t, "EVT005", events[1].ID)

	all, err := svc.Events.GetAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestDashboard(t *testing.T) {
	svc := newTestService(t)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, d.TotalStudents)
	assert.Len(t, d.RecentEvents, 5)
	assert.Len(t, d.ActiveVisitors, 3)
	assert.Len(t, d.VehiclesInside, 3)
}

func TestIDsStayUniqueUnderConcurrentAdds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Events.Add(ctx, model.SecurityEvent{Type: model.EventSystem, Description: "tick"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := svc.Events.GetAll(ctx, 1000)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, e := range all {
		require.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, all, 55)
}

func TestEventsRecent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	added, err := svc.Events.Add(ctx, model.SecurityEvent{
		Type: model.EventAccess, Description: "Face authentication", RelatedID: "STU1001",
	})
	require.NoError(t, err)

	got, err := svc.Events.Recent(ctx, model.EventAccess, "STU1001", fixedNow.Add(-time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, added.ID, got.ID)

	got, err = svc.Events.Recent(ctx, model.EventAccess, "STU1001", fixedNow.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Events.Recent(ctx, model.EventAlert, "STU1001", time.Time{})
	require.NoError(t, err)
	assert.Nil(t, got)
}
