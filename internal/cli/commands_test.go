package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campussecurity/internal/session"
	"campussecurity/internal/store"
)

// run executes one campusctl invocation against store, as a fresh process
// would.
func run(t *testing.T, storePath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--store", storePath, "--no-delay"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")

	out, err := run(t, storePath, "login", "--email", "admin@campus-security.com", "--password", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as")
	assert.Contains(t, out, "(admin)")

	out, err = run(t, storePath, "--format", "json", "whoami")
	require.NoError(t, err)
	resp := decode(t, out)
	assert.Equal(t, "ok", resp.Status)
	user := resp.Data.(map[string]any)
	assert.Equal(t, "admin@campus-security.com", user["email"])
	assert.NotContains(t, user, "password")
}

func TestSessionStoredUnderStorageKey(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")
	_, err := run(t, storePath, "login", "--email", "admin@campus-security.com", "--password", "admin123")
	require.NoError(t, err)

	db, err := store.OpenSQLite(context.Background(), storePath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv_store WHERE name = ?`, session.StorageKey).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestLoginRejected(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")

	out, err := run(t, storePath, "--format", "json", "login", "--email", "admin@campus-security.com", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeAuth, resp.Error.Code)

	_, err = run(t, storePath, "whoami")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLogout(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")
	_, err := run(t, storePath, "login", "--email", "admin@campus-security.com", "--password", "admin123")
	require.NoError(t, err)

	out, err := run(t, storePath, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.Contains(t, out, "campusctl login", "logout points back to the entry command")

	_, err = run(t, storePath, "whoami")
	require.Error(t, err)

	// logging out twice is harmless
	_, err = run(t, storePath, "logout")
	assert.NoError(t, err)
}

func TestSignup(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")

	out, err := run(t, storePath, "signup", "--email", "night@example.com", "--password", "pw", "--name", "Night Guard")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created for night@example.com")

	_, err = run(t, storePath, "whoami")
	assert.Error(t, err, "signup does not sign in")

	_, err = run(t, storePath, "signup", "--email", "admin@campus-security.com", "--password", "pw", "--name", "Dup")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = run(t, storePath, "signup", "--email", "x@example.com", "--password", "pw", "--name", "X", "--role", "guard")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStudentsRequireSession(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")

	_, err := run(t, storePath, "students", "list")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestStudentsListAndGet(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")
	_, err := run(t, storePath, "login", "--email", "admin@campus-security.com", "--password", "admin123")
	require.NoError(t, err)

	out, err := run(t, storePath, "students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "DEPARTMENT")
	assert.Contains(t, out, "STU1003")

	out, err = run(t, storePath, "--format", "json", "students", "get", "STU1003")
	require.NoError(t, err)
	resp := decode(t, out)
	assert.Equal(t, "Mohammed Al-Fayed", resp.Data.(map[string]any)["name"])

	out, err = run(t, storePath, "--format", "json", "students", "get", "STU9999")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decode(t, out).Error.Code)
}

func TestRecognizeLocalMatcher(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "session.db")
	img := filepath.Join(dir, "face.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))

	_, err := run(t, storePath, "login", "--email", "admin@campus-security.com", "--password", "admin123")
	require.NoError(t, err)

	out, err := run(t, storePath, "--format", "json", "recognize", img)
	if err != nil {
		assert.Equal(t, ExitFailure, GetExitCode(err))
	}
	resp := decode(t, out)
	assert.Equal(t, "ok", resp.Status)
	result := resp.Data.(map[string]any)
	assert.Equal(t, "mock", result["source"])
	assert.Equal(t, err == nil, result["matched"])
}

func TestRecognizeRemote(t *testing.T) {
	var gotImage string
	face := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotImage = body["image"]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"confidence": 0.93,
			"student":    map[string]any{"id": 7, "name": "Someone", "studentId": "STU1003", "status": "active"},
		})
	}))
	defer face.Close()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "session.db")
	img := filepath.Join(dir, "face.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))

	_, err := run(t, storePath, "login", "--email", "admin@campus-security.com", "--password", "admin123")
	require.NoError(t, err)

	out, err := run(t, storePath, "--face-url", face.URL, "recognize", img)
	require.NoError(t, err)
	assert.Contains(t, out, "Mohammed Al-Fayed (STU1003)")
	assert.Contains(t, out, "via remote")
	assert.Contains(t, out, "access logged as EVT")
	assert.Contains(t, gotImage, "data:image/png;base64,")
}

func TestRecognizeMissingFile(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "session.db")
	_, err := run(t, storePath, "login", "--email", "admin@campus-security.com", "--password", "admin123")
	require.NoError(t, err)

	_, err = run(t, storePath, "recognize", filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", dataURL([]byte("hello")))
}
