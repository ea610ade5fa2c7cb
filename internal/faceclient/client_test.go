package faceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recognize", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "data:image/jpeg;base64,AAAA", in["image"])
		_, _ = w.Write([]byte(`{"success":true,"confidence":87.5,"student":{"id":2,"name":"Emily Wong","program":"Electrical Engineering","year":"2nd Year","status":"Active","studentId":"STU-10872","email":"emily.wong@university.edu"}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, false).Recognize(context.Background(), "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 87.5, res.Confidence)
	require.NotNil(t, res.Student)
	assert.Equal(t, "STU-10872", res.Student.StudentID)
}

func TestRecognizeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"No match found or confidence too low"}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, false).Recognize(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, "No match found or confidence too low", res.Message)
}

func TestRecognizeFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, false).Recognize(context.Background(), "AAAA")
	assert.ErrorContains(t, err, "boom")

	_, err = New(srv.URL, true).Recognize(context.Background(), "AAAA")
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(srv.URL, false).Recognize(context.Background(), "")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	// only the recognize route exists, and only for POST
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/recognize", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	assert.NoError(t, New(srv.URL, false).Health(context.Background()))
	assert.NoError(t, New("http://127.0.0.1:1", true).Health(context.Background()))

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recognize", r.URL.Path)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	assert.Error(t, New(broken.URL, false).Health(context.Background()))

	gone := httptest.NewServer(http.NotFoundHandler())
	gone.Close()
	assert.Error(t, New(gone.URL, false).Health(context.Background()))
}
