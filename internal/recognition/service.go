package recognition

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"campussecurity/internal/access"
	"campussecurity/internal/cloudinary"
	"campussecurity/internal/faceclient"
	"campussecurity/internal/model"
)

const (
	SourceRemote = "remote"
	SourceMock   = "mock"
)

// Remote is the external recognition endpoint.
type Remote interface {
	Recognize(ctx context.Context, image string) (*faceclient.RecognizeResult, error)
}

// Students is the local directory and mock matcher. *records.StudentAPI
// satisfies it.
type Students interface {
	GetByID(ctx context.Context, id string) (*model.Student, error)
	SearchByFace(ctx context.Context, imageData string) (*model.Student, error)
}

// Snapshots stores the captured frame. *cloudinary.Client satisfies it.
type Snapshots interface {
	UploadBase64(ctx context.Context, data, subfolder string) (*cloudinary.UploadResult, error)
}

// Observer is told about every finished recognition.
type Observer func(source string, matched bool)

// Result is what a gate operator sees after one capture.
type Result struct {
	Matched     bool           `json:"matched"`
	Student     *model.Student `json:"student,omitempty"`
	Source      string         `json:"source"`
	Confidence  float64        `json:"confidence,omitempty"`
	Message     string         `json:"message"`
	SnapshotURL string         `json:"snapshotUrl,omitempty"`
	Access      *access.Entry  `json:"access,omitempty"`
}

type Option func(*Service)

func WithSnapshots(s Snapshots) Option { return func(svc *Service) { svc.snapshots = s } }

func WithLogger(l zerolog.Logger) Option { return func(svc *Service) { svc.log = l } }

func WithObserver(o Observer) Option { return func(svc *Service) { svc.observe = o } }

// Service identifies students from a captured image. The remote service is
// tried first; any failure or miss there falls back to the local mock.
type Service struct {
	remote    Remote
	students  Students
	access    *access.Service
	snapshots Snapshots
	log       zerolog.Logger
	observe   Observer
}

func NewService(remote Remote, students Students, acc *access.Service, opts ...Option) *Service {
	s := &Service{remote: remote, students: students, access: acc, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identify runs one recognition. Only context cancellation and local lookup
// failures are returned as errors; remote problems degrade to the mock.
func (s *Service) Identify(ctx context.Context, image string) (Result, error) {
	res, ok := s.tryRemote(ctx, image)
	if !ok {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		student, err := s.students.SearchByFace(ctx, image)
		if err != nil {
			return Result{}, err
		}
		res = Result{Source: SourceMock, Student: student, Matched: student != nil}
		if student != nil {
			res.Message = "Identified as " + student.Name + " (local match)"
		} else {
			res.Message = "Could not identify the person in the image"
		}
	}

	if res.Matched {
		if s.access != nil {
			entry, err := s.access.Authenticated(ctx, *res.Student, res.Source)
			if err != nil {
				s.log.Warn().Err(err).Str("student_id", res.Student.ID).Msg("access entry not recorded")
			} else {
				res.Access = &entry
			}
		}
		res.SnapshotURL = s.snapshot(ctx, image)
	}
	if s.observe != nil {
		s.observe(res.Source, res.Matched)
	}
	s.log.Info().Str("source", res.Source).Bool("matched", res.Matched).Msg("recognition finished")
	return res, nil
}

func (s *Service) tryRemote(ctx context.Context, image string) (Result, bool) {
	if s.remote == nil {
		return Result{}, false
	}
	out, err := s.remote.Recognize(ctx, image)
	if err != nil {
		if !errors.Is(err, faceclient.ErrDisabled) {
			s.log.Warn().Err(err).Msg("recognition service failed, using local match")
		}
		return Result{}, false
	}
	if !out.Matched {
		s.log.Info().Str("reason", out.Message).Msg("recognition service found no match, using local match")
		return Result{}, false
	}
	student, err := s.resolve(ctx, out.Student)
	if err != nil {
		s.log.Warn().Err(err).Msg("student lookup failed, using local match")
		return Result{}, false
	}
	return Result{
		Matched:    true,
		Student:    student,
		Source:     SourceRemote,
		Confidence: out.Confidence,
		Message:    "Identified as " + student.Name,
	}, true
}

// resolve prefers the local record with the same id and otherwise converts
// the remote record.
func (s *Service) resolve(ctx context.Context, rs *faceclient.RemoteStudent) (*model.Student, error) {
	if local, err := s.students.GetByID(ctx, rs.StudentID); err != nil || local != nil {
		return local, err
	}
	status := model.StudentStatus(strings.ToLower(rs.Status))
	if !status.Valid() {
		status = model.StudentActive
	}
	return &model.Student{
		ID:          rs.StudentID,
		Name:        rs.Name,
		Department:  rs.Program,
		Year:        leadingInt(rs.Year),
		Status:      status,
		ContactInfo: model.ContactInfo{Email: rs.Email},
	}, nil
}

func (s *Service) snapshot(ctx context.Context, image string) string {
	if s.snapshots == nil || image == "" {
		return ""
	}
	up, err := s.snapshots.UploadBase64(ctx, image, "recognitions")
	if err != nil {
		if !errors.Is(err, cloudinary.ErrNotConfigured) {
			s.log.Warn().Err(err).Msg("snapshot upload failed")
		}
		return ""
	}
	return up.SecureURL
}

// leadingInt reads "3rd Year" as 3.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}
