package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campussecurity/internal/model"
)

// DefaultDedupWindow suppresses repeat entries for the same student.
const DefaultDedupWindow = 5 * time.Minute

// Log is the activity log access entries are written to.
// *records.EventAPI satisfies it.
type Log interface {
	Recent(ctx context.Context, typ model.EventType, relatedID string, since time.Time) (*model.SecurityEvent, error)
	Add(ctx context.Context, e model.SecurityEvent) (model.SecurityEvent, error)
}

// Entry is the outcome of recording one authentication.
type Entry struct {
	Event model.SecurityEvent `json:"event"`
	// Duplicate is set when an entry inside the window was reused.
	Duplicate bool `json:"duplicate"`
}

// Service coordinates access logging and deduplication.
type Service struct {
	log         Log
	dedupWindow time.Duration
	now         func() time.Time
}

// NewService creates a service writing to log.
func NewService(log Log, dedupWindow time.Duration) *Service {
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	return &Service{log: log, dedupWindow: dedupWindow, now: time.Now}
}

// WithClock replaces the clock used for window checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Authenticated records that student was identified at the gate, unless the
// same student already has an access entry inside the dedup window.
func (s *Service) Authenticated(ctx context.Context, student model.Student, source string) (Entry, error) {
	if student.ID == "" {
		return Entry{}, errors.New("student id required")
	}
	now := s.now().UTC()
	recent, err := s.log.Recent(ctx, model.EventAccess, student.ID, now.Add(-s.dedupWindow))
	if err != nil {
		return Entry{}, fmt.Errorf("recent access for %s: %w", student.ID, err)
	}
	if recent != nil {
		return Entry{Event: *recent, Duplicate: true}, nil
	}

	severity := model.SeverityInfo
	desc := fmt.Sprintf("Student %s authenticated by face recognition (%s)", student.Name, source)
	if student.Status != model.StudentActive {
		severity = model.SeverityWarning
		desc = fmt.Sprintf("%s student %s authenticated by face recognition (%s)", student.Status, student.Name, source)
	}
	evt, err := s.log.Add(ctx, model.SecurityEvent{
		Timestamp:   now,
		Type:        model.EventAccess,
		Description: desc,
		Severity:    severity,
		RelatedID:   student.ID,
	})
	if err != nil {
		return Entry{}, err
	}
	return Entry{Event: evt}, nil
}
