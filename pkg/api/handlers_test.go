package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-api/pkg/config"
	"waitlist-api/pkg/models"
	"waitlist-api/pkg/services"
	"waitlist-api/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSender struct{ sent bool }

func (s stubSender) Send(context.Context, string, string) bool { return s.sent }

type failingService struct{ err error }

func (f failingService) Submit(context.Context, models.SubmissionRequest) (models.SubmitResult, error) {
	return models.SubmitResult{}, f.err
}

func (f failingService) List(context.Context) ([]models.Submission, error) { return nil, f.err }

func (f failingService) Delete(context.Context, int) (models.Submission, error) {
	return models.Submission{}, f.err
}

var testNow = time.Date(2025, 7, 4, 15, 30, 45, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{Port: 8000, Environment: "test", AllowedOrigins: []string{"*"}}
}

func newTestServer(t *testing.T, svc services.SubmissionService) *gin.Engine {
	t.Helper()
	h := NewHandlers(svc, testConfig())
	h.now = func() time.Time { return testNow }
	return NewRouter(h, []string{"*"})
}

func newMemoryServer(t *testing.T, sent bool) (*gin.Engine, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := services.NewSubmissionService(store, stubSender{sent: sent})
	return newTestServer(t, svc), store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	r, _ := newMemoryServer(t, true)

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.Equal(t, float64(8000), body["port"])
	assert.Equal(t, "2025-07-04T15:30:45Z", body["timestamp"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSubmit_Success(t *testing.T) {
	r, store := newMemoryServer(t, true)

	w := do(r, http.MethodPost, "/submit", `{"email":"a@x.com","name":"Ann"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Thank you, Ann, for joining our waitlist! Check your email for a welcome message.", body["message"])
	assert.Equal(t, true, body["email_sent"])

	subs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Ann", subs[0].Name)
}

func TestSubmit_EmailNotSent(t *testing.T) {
	r, _ := newMemoryServer(t, false)

	w := do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, false, body["email_sent"])
	assert.Contains(t, body["message"], "Welcome email could not be sent")
}

func TestSubmit_FullPayload(t *testing.T) {
	r, store := newMemoryServer(t, true)

	w := do(r, http.MethodPost, "/submit", `{
		"first_name": "Jane", "last_name": "Roe", "email": "jane@acme.io",
		"company": "Acme", "role": "CTO", "team_size": "11-50",
		"challenges": ["hiring", "tooling"]
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["message"], "Thank you, Jane Roe,")

	subs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, []string{"hiring", "tooling"}, subs[0].Challenges)
	assert.Equal(t, "11-50", subs[0].TeamSize)
}

func TestSubmit_Duplicate(t *testing.T) {
	r, store := newMemoryServer(t, true)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`).Code)

	w := do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "info", body["status"])
	assert.NotContains(t, body, "email_sent")

	subs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing email", `{"name":"Ann"}`, "Invalid submission"},
		{"malformed email", `{"email":"not-an-email"}`, "Invalid submission"},
		{"empty challenge", `{"email":"a@x.com","challenges":[""]}`, "Invalid submission"},
		{"broken json", `{"email":`, "Invalid JSON format"},
		{"wrong type", `{"email":42}`, "Invalid JSON format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, store := newMemoryServer(t, true)

			w := do(r, http.MethodPost, "/submit", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantErr, decode[map[string]any](t, w)["error"])
			assert.Equal(t, 0, store.Saves)
		})
	}
}

func TestSubmit_ValidationDetails(t *testing.T) {
	r, _ := newMemoryServer(t, true)

	w := do(r, http.MethodPost, "/submit", `{"email":"nope"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[struct {
		Details []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"details"`
	}](t, w)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "Email", body.Details[0].Field)
	assert.Equal(t, "email", body.Details[0].Rule)
}

func TestSubmit_ServerErrorIsOpaque(t *testing.T) {
	r := newTestServer(t, failingService{err: errors.New("secret path /var/data is read-only")})

	w := do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode[map[string]any](t, w)["error"])
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestSubmitOptions(t *testing.T) {
	r, _ := newMemoryServer(t, true)

	w := do(r, http.MethodOptions, "/submit", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])
}

func TestListSubmissions(t *testing.T) {
	r, _ := newMemoryServer(t, true)

	w := do(r, http.MethodGet, "/submissions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`)
	do(r, http.MethodPost, "/submit", `{"email":"b@x.com"}`)

	subs := decode[[]models.Submission](t, do(r, http.MethodGet, "/submissions", ""))
	require.Len(t, subs, 2)
	assert.Equal(t, 1, subs[0].ID)
	assert.Equal(t, "a@x.com", subs[0].Email)
	assert.Equal(t, 2, subs[1].ID)
	assert.Equal(t, "b@x.com", subs[1].Email)
}

func TestListSubmissions_Error(t *testing.T) {
	r := newTestServer(t, failingService{err: errors.New("io")})

	w := do(r, http.MethodGet, "/submissions", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to read submissions", decode[map[string]any](t, w)["error"])
}

func TestDownloadSubmissions(t *testing.T) {
	r, _ := newMemoryServer(t, true)
	do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`)

	w := do(r, http.MethodGet, "/download-submissions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=submissions_20250704_153045.json", w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	subs := decode[[]models.Submission](t, w)
	require.Len(t, subs, 1)
	assert.Equal(t, "a@x.com", subs[0].Email)
}

func TestDownloadSubmissions_Error(t *testing.T) {
	r := newTestServer(t, failingService{err: errors.New("io")})

	w := do(r, http.MethodGet, "/download-submissions", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to prepare download", decode[map[string]any](t, w)["error"])
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestDeleteSubmission(t *testing.T) {
	r, _ := newMemoryServer(t, true)
	do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`)
	do(r, http.MethodPost, "/submit", `{"email":"b@x.com"}`)

	w := do(r, http.MethodDelete, "/submissions/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Deleted models.Submission `json:"deleted_submission"`
	}](t, w)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Submission 1 deleted successfully", body.Message)
	assert.Equal(t, 1, body.Deleted.ID)
	assert.Equal(t, "a@x.com", body.Deleted.Email)

	subs := decode[[]models.Submission](t, do(r, http.MethodGet, "/submissions", ""))
	require.Len(t, subs, 1)
	assert.Equal(t, 1, subs[0].ID)
	assert.Equal(t, "b@x.com", subs[0].Email)
}

func TestDeleteSubmission_NotFound(t *testing.T) {
	r, store := newMemoryServer(t, true)
	do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`)

	w := do(r, http.MethodDelete, "/submissions/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Submission with ID 9 not found", decode[map[string]any](t, w)["error"])
	assert.Equal(t, 1, store.Saves)
}

func TestDeleteSubmission_BadID(t *testing.T) {
	r, _ := newMemoryServer(t, true)

	w := do(r, http.MethodDelete, "/submissions/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSubmission_Error(t *testing.T) {
	r := newTestServer(t, failingService{err: errors.New("io")})

	w := do(r, http.MethodDelete, "/submissions/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete submission", decode[map[string]any](t, w)["error"])
}

func TestCorruptFileListsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.json")
	store, err := storage.NewJSONFileStore(path)
	require.NoError(t, err)
	r := newTestServer(t, services.NewSubmissionService(store, nil))

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/submit", `{"email":"a@x.com"}`).Code)
	require.NoError(t, os.WriteFile(path, []byte("]]garbage"), 0o644))

	w := do(r, http.MethodGet, "/submissions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestCORSHeaders(t *testing.T) {
	r, _ := newMemoryServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/submit", nil)
	req.Header.Set("Origin", "https://landing.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}
