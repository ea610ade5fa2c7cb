package records

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"campussecurity/internal/ids"
	"campussecurity/internal/model"
)

// faceMissRate is the share of face searches that find nobody.
const faceMissRate = 0.3

// DefaultEventLimit caps Events.GetAll when no limit is given.
const DefaultEventLimit = 50

// Latency is the simulated backend delay per kind of call.
type Latency struct {
	Read  time.Duration
	Write time.Duration
	Event time.Duration
	Face  time.Duration
}

// DefaultLatency mirrors the delays the dashboard was designed around.
func DefaultLatency() Latency {
	return Latency{
		Read:  300 * time.Millisecond,
		Write: 500 * time.Millisecond,
		Event: 200 * time.Millisecond,
		Face:  1500 * time.Millisecond,
	}
}

// EventSink receives every event appended to the activity log.
type EventSink interface {
	Publish(ctx context.Context, e model.SecurityEvent) error
}

type Option func(*runtime)

func WithLatency(l Latency) Option { return func(r *runtime) { r.latency = l } }

func WithClock(now func() time.Time) Option { return func(r *runtime) { r.now = now } }

func WithSink(s EventSink) Option { return func(r *runtime) { r.sink = s } }

func WithLogger(l zerolog.Logger) Option { return func(r *runtime) { r.log = l } }

type runtime struct {
	latency Latency
	now     func() time.Time
	sink    EventSink
	log     zerolog.Logger
	gen     *ids.Generator
}

// wait simulates a backend round trip; it gives up when ctx is done.
func (r *runtime) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Service is the asynchronous record API the dashboard talks to.
type Service struct {
	Students  *StudentAPI
	Visitors  *VisitorAPI
	Vehicles  *VehicleAPI
	LostItems *LostItemAPI
	Events    *EventAPI
	Users     *UserAPI
}

// NewService wires one API per table over repos. Randomness (ids, face
// matches) comes from gen.
func NewService(repos *Repositories, gen *ids.Generator, opts ...Option) *Service {
	rt := &runtime{
		latency: DefaultLatency(),
		now:     time.Now,
		log:     zerolog.Nop(),
		gen:     gen,
	}
	for _, opt := range opts {
		opt(rt)
	}
	events := &EventAPI{rt: rt, repo: repos.Events}
	return &Service{
		Students:  &StudentAPI{rt: rt, repo: repos.Students},
		Visitors:  &VisitorAPI{rt: rt, repo: repos.Visitors, events: events},
		Vehicles:  &VehicleAPI{rt: rt, repo: repos.Vehicles, events: events},
		LostItems: &LostItemAPI{rt: rt, repo: repos.LostItems, events: events},
		Events:    events,
		Users:     &UserAPI{rt: rt, repo: repos.Users},
	}
}

// Dashboard is the overview shown after login.
type Dashboard struct {
	RecentEvents   []model.SecurityEvent `json:"recentEvents"`
	TotalStudents  int                   `json:"totalStudents"`
	ActiveVisitors []model.Visitor       `json:"activeVisitors"`
	VehiclesInside []model.Vehicle       `json:"vehiclesInside"`
}

// Dashboard collects the overview: the ten latest events, the student count,
// active visitors and vehicles currently on campus.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error
	if d.RecentEvents, err = s.Events.GetAll(ctx, 10); err != nil {
		return Dashboard{}, err
	}
	students, err := s.Students.GetAll(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	d.TotalStudents = len(students)
	if d.ActiveVisitors, err = s.Visitors.GetActive(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.VehiclesInside, err = s.Vehicles.GetInside(ctx); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

type StudentAPI struct {
	rt   *runtime
	repo StudentRepository
}

func (a *StudentAPI) GetAll(ctx context.Context) ([]model.Student, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	return a.repo.List(ctx)
}

// GetByID returns nil without error when no student has id.
func (a *StudentAPI) GetByID(ctx context.Context, id string) (*model.Student, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	return a.repo.Get(ctx, id)
}

// SearchByFace stands in for a recognition model: after the inference delay
// it returns a random student 70% of the time and nil otherwise. imageData
// is not inspected.
func (a *StudentAPI) SearchByFace(ctx context.Context, imageData string) (*model.Student, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Face); err != nil {
		return nil, err
	}
	if a.rt.gen.Float64() < faceMissRate {
		return nil, nil
	}
	students, err := a.repo.List(ctx)
	if err != nil || len(students) == 0 {
		return nil, err
	}
	match := students[a.rt.gen.Intn(len(students))]
	return &match, nil
}

type VisitorAPI struct {
	rt     *runtime
	repo   VisitorRepository
	events *EventAPI
}

func (a *VisitorAPI) GetAll(ctx context.Context) ([]model.Visitor, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	return a.repo.List(ctx)
}

// GetActive returns visitors still on campus.
func (a *VisitorAPI) GetActive(ctx context.Context) ([]model.Visitor, error) {
	all, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(v model.Visitor) bool { return v.Status == model.VisitorActive }), nil
}

// Add checks a visitor in. Missing status and check-in time default to
// active and now.
func (a *VisitorAPI) Add(ctx context.Context, v model.Visitor) (model.Visitor, error) {
	v.ID = ""
	if v.Status == "" {
		v.Status = model.VisitorActive
	}
	if v.CheckIn.IsZero() {
		v.CheckIn = a.rt.now().UTC()
	}
	if err := validateVisitor(v); err != nil {
		return model.Visitor{}, err
	}
	if err := a.rt.wait(ctx, a.rt.latency.Write); err != nil {
		return model.Visitor{}, err
	}
	created, err := a.repo.Add(ctx, v)
	if err != nil {
		return model.Visitor{}, err
	}
	severity := model.SeverityInfo
	desc := fmt.Sprintf("New visitor %s checked in", created.Name)
	if created.Status == model.VisitorBlacklisted {
		severity = model.SeverityWarning
		desc = fmt.Sprintf("Blacklisted visitor %s registered", created.Name)
	}
	a.events.record(ctx, model.EventVisitor, severity, desc, created.ID)
	return created, nil
}

type VehicleAPI struct {
	rt     *runtime
	repo   VehicleRepository
	events *EventAPI
}

func (a *VehicleAPI) GetAll(ctx context.Context) ([]model.Vehicle, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	return a.repo.List(ctx)
}

// GetInside returns vehicles currently on campus.
func (a *VehicleAPI) GetInside(ctx context.Context) ([]model.Vehicle, error) {
	all, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(v model.Vehicle) bool { return v.Status == model.VehicleInside }), nil
}

// Add registers a vehicle entry. Missing type, status and entry time default
// to unknown, inside and now.
func (a *VehicleAPI) Add(ctx context.Context, v model.Vehicle) (model.Vehicle, error) {
	v.ID = ""
	if v.Type == "" {
		v.Type = model.VehicleUnknown
	}
	if v.Status == "" {
		v.Status = model.VehicleInside
	}
	if v.EntryTime.IsZero() {
		v.EntryTime = a.rt.now().UTC()
	}
	if err := validateVehicle(v); err != nil {
		return model.Vehicle{}, err
	}
	if err := a.rt.wait(ctx, a.rt.latency.Write); err != nil {
		return model.Vehicle{}, err
	}
	created, err := a.repo.Add(ctx, v)
	if err != nil {
		return model.Vehicle{}, err
	}
	if created.Status == model.VehicleFlagged {
		a.events.record(ctx, model.EventAlert, model.SeverityWarning,
			fmt.Sprintf("Flagged vehicle %s entered campus", created.LicensePlate), created.ID)
	} else {
		a.events.record(ctx, model.EventVehicle, model.SeverityInfo,
			fmt.Sprintf("Vehicle %s registered", created.LicensePlate), created.ID)
	}
	return created, nil
}

type LostItemAPI struct {
	rt     *runtime
	repo   LostItemRepository
	events *EventAPI
}

func (a *LostItemAPI) GetAll(ctx context.Context) ([]model.LostItem, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	return a.repo.List(ctx)
}

func (a *LostItemAPI) GetUnclaimed(ctx context.Context) ([]model.LostItem, error) {
	all, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(i model.LostItem) bool { return i.Status == model.ItemUnclaimed }), nil
}

// Add registers a found item. Missing status and date default to unclaimed
// and now.
func (a *LostItemAPI) Add(ctx context.Context, item model.LostItem) (model.LostItem, error) {
	item.ID = ""
	if item.Status == "" {
		item.Status = model.ItemUnclaimed
	}
	if item.DateFound.IsZero() {
		item.DateFound = a.rt.now().UTC()
	}
	if err := validateLostItem(item); err != nil {
		return model.LostItem{}, err
	}
	if err := a.rt.wait(ctx, a.rt.latency.Write); err != nil {
		return model.LostItem{}, err
	}
	created, err := a.repo.Add(ctx, item)
	if err != nil {
		return model.LostItem{}, err
	}
	a.events.record(ctx, model.EventSystem, model.SeverityInfo,
		fmt.Sprintf("Lost item %s registered at %s", created.Name, created.Location), created.ID)
	return created, nil
}

type EventAPI struct {
	rt   *runtime
	repo EventRepository
}

// GetAll returns up to limit events, newest first. A non-positive limit
// means DefaultEventLimit.
func (a *EventAPI) GetAll(ctx context.Context, limit int) ([]model.SecurityEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	all, err := a.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.SecurityEvent, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Recent returns the newest event of typ about relatedID at or after since,
// or nil. It reads the table directly, without simulated latency.
func (a *EventAPI) Recent(ctx context.Context, typ model.EventType, relatedID string, since time.Time) (*model.SecurityEvent, error) {
	all, err := a.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if e.Type == typ && e.RelatedID == relatedID && !e.Timestamp.Before(since) {
			return &e, nil
		}
	}
	return nil, nil
}

// Add appends e to the activity log. Timestamp defaults to now and severity
// to info.
func (a *EventAPI) Add(ctx context.Context, e model.SecurityEvent) (model.SecurityEvent, error) {
	e.ID = ""
	if e.Timestamp.IsZero() {
		e.Timestamp = a.rt.now().UTC()
	}
	if e.Severity == "" {
		e.Severity = model.SeverityInfo
	}
	if err := validateEvent(e); err != nil {
		return model.SecurityEvent{}, err
	}
	if err := a.rt.wait(ctx, a.rt.latency.Event); err != nil {
		return model.SecurityEvent{}, err
	}
	return a.append(ctx, e)
}

func (a *EventAPI) append(ctx context.Context, e model.SecurityEvent) (model.SecurityEvent, error) {
	created, err := a.repo.Add(ctx, e)
	if err != nil {
		return model.SecurityEvent{}, err
	}
	if a.rt.sink != nil {
		if err := a.rt.sink.Publish(ctx, created); err != nil {
			a.rt.log.Warn().Err(err).Str("event_id", created.ID).Msg("event publish failed")
		}
	}
	return created, nil
}

// record logs activity caused by another write. It never fails the caller.
func (a *EventAPI) record(ctx context.Context, typ model.EventType, sev model.Severity, desc, relatedID string) {
	_, err := a.append(ctx, model.SecurityEvent{
		Timestamp:   a.rt.now().UTC(),
		Type:        typ,
		Description: desc,
		Severity:    sev,
		RelatedID:   relatedID,
	})
	if err != nil {
		a.rt.log.Warn().Err(err).Str("related_id", relatedID).Msg("activity event not recorded")
	}
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
