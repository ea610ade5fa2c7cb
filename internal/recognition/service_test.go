package recognition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campussecurity/internal/access"
	"campussecurity/internal/cloudinary"
	"campussecurity/internal/faceclient"
	"campussecurity/internal/ids"
	"campussecurity/internal/model"
	"campussecurity/internal/records"
)

type fakeRemote struct {
	res *faceclient.RecognizeResult
	err error
}

func (f fakeRemote) Recognize(context.Context, string) (*faceclient.RecognizeResult, error) {
	return f.res, f.err
}

type fakeSnapshots struct{ uploads int }

func (f *fakeSnapshots) UploadBase64(context.Context, string, string) (*cloudinary.UploadResult, error) {
	f.uploads++
	return &cloudinary.UploadResult{SecureURL: "https://res.example/snap.jpg"}, nil
}

func newRecords(t *testing.T) *records.Service {
	t.Helper()
	seed, err := records.DefaultSeed()
	require.NoError(t, err)
	return records.NewService(records.NewMemory(seed, ids.NewGenerator(1)), ids.NewGenerator(3),
		records.WithLatency(records.Latency{}))
}

func TestIdentifyRemoteMatchUsesLocalRecord(t *testing.T) {
	recs := newRecords(t)
	snaps := &fakeSnapshots{}
	var observed []string
	svc := NewService(fakeRemote{res: &faceclient.RecognizeResult{
		Matched:    true,
		Confidence: 91.2,
		Student:    &faceclient.RemoteStudent{StudentID: "STU1004", Name: "ignored"},
	}}, recs.Students, access.NewService(recs.Events, time.Minute),
		WithSnapshots(snaps),
		WithObserver(func(source string, matched bool) { observed = append(observed, source) }))

	res, err := svc.Identify(context.Background(), "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, SourceRemote, res.Source)
	assert.Equal(t, 91.2, res.Confidence)
	assert.Equal(t, "Emily Chen", res.Student.Name)
	require.NotNil(t, res.Access)
	assert.Equal(t, model.EventAccess, res.Access.Event.Type)
	assert.Equal(t, "https://res.example/snap.jpg", res.SnapshotURL)
	assert.Equal(t, 1, snaps.uploads)
	assert.Equal(t, []string{SourceRemote}, observed)
}

func TestIdentifyRemoteMatchConvertsUnknownStudent(t *testing.T) {
	recs := newRecords(t)
	svc := NewService(fakeRemote{res: &faceclient.RecognizeResult{
		Matched: true,
		Student: &faceclient.RemoteStudent{
			StudentID: "STU-10872", Name: "Emily Wong", Program: "Electrical Engineering",
			Year: "2nd Year", Status: "Active", Email: "emily.wong@university.edu",
		},
	}}, recs.Students, nil)

	res, err := svc.Identify(context.Background(), "AAAA")
	require.NoError(t, err)
	require.NotNil(t, res.Student)
	assert.Equal(t, "STU-10872", res.Student.ID)
	assert.Equal(t, 2, res.Student.Year)
	assert.Equal(t, model.StudentActive, res.Student.Status)
	assert.Equal(t, "Electrical Engineering", res.Student.Department)
	assert.Nil(t, res.Access)
}

func TestIdentifyFallsBackToMock(t *testing.T) {
	recs := newRecords(t)
	cases := map[string]Remote{
		"transport error": fakeRemote{err: errors.New("connection refused")},
		"disabled":        fakeRemote{err: faceclient.ErrDisabled},
		"no match":        fakeRemote{res: &faceclient.RecognizeResult{Message: "No match found"}},
		"no remote":       nil,
	}
	for name, remote := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(remote, recs.Students, nil)
			sawMatch, sawMiss := false, false
			for i := 0; i < 50; i++ {
				res, err := svc.Identify(context.Background(), "AAAA")
				require.NoError(t, err)
				assert.Equal(t, SourceMock, res.Source)
				assert.Equal(t, res.Student != nil, res.Matched)
				if res.Matched {
					sawMatch = true
				} else {
					sawMiss = true
					assert.Equal(t, "Could not identify the person in the image", res.Message)
				}
			}
			assert.True(t, sawMatch)
			assert.True(t, sawMiss)
		})
	}
}

func TestIdentifyCancelled(t *testing.T) {
	recs := newRecords(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewService(fakeRemote{err: context.Canceled}, recs.Students, nil)

	_, err := svc.Identify(ctx, "AAAA")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLeadingInt(t *testing.T) {
	assert.Equal(t, 3, leadingInt("3rd Year"))
	assert.Equal(t, 0, leadingInt("Senior"))
}
