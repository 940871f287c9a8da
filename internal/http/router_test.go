package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmorozov/docling-orchestrator/internal/convert"
	"github.com/dmorozov/docling-orchestrator/internal/domain"
	httpH "github.com/dmorozov/docling-orchestrator/internal/http/handlers"
	"github.com/dmorozov/docling-orchestrator/internal/orchestrator"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// fakeEngine always succeeds instantly; the router tests exercise the HTTP
// surface, not conversion behavior (already covered by the orchestrator's
// own tests).
type fakeEngine struct{}

func (fakeEngine) Convert(ctx context.Context, req convert.Request) (convert.Outcome, error) {
	return convert.Outcome{
		Status:   "success",
		Markdown: "# ok\n",
		Metadata: domain.Metadata{PageCount: 1, ProcessingTier: req.ProcessingTier},
	}, nil
}

func newTestRouter(t *testing.T, authToken string) (*gin.Engine, *orchestrator.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	require.NoError(t, err)

	orch := orchestrator.New(fakeEngine{}, log, orchestrator.Config{MaxConcurrentJobs: 1})
	require.NoError(t, orch.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = orch.Stop(ctx)
	})

	r := NewRouter(RouterConfig{
		HealthHandler: httpH.NewHealthHandler(orch, "standard"),
		JobHandler:    httpH.NewJobHandler(orch),
		AuthToken:     authToken,
		AuthMode:      "static",
		Log:           log,
	})
	return r, orch
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthRequiresNoAuth(t *testing.T) {
	r, _ := newTestRouter(t, "secret-token")
	rec := doJSON(t, r, http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, "standard", body["processing_tier"])
}

func TestProtectedEndpointRejectsMissingToken(t *testing.T) {
	r, _ := newTestRouter(t, "secret-token")
	rec := doJSON(t, r, http.MethodGet, "/api/v1/jobs", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unauthorized", body["detail"])
}

func TestProtectedEndpointRejectsWrongToken(t *testing.T) {
	r, _ := newTestRouter(t, "secret-token")
	rec := doJSON(t, r, http.MethodGet, "/api/v1/jobs", nil, "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProcessThenGetJobRoundTrip(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(tmp, []byte("fake"), 0o644))

	r, _ := newTestRouter(t, "secret-token")

	rec := doJSON(t, r, http.MethodPost, "/api/v1/process", map[string]any{
		"file_path": tmp,
	}, "secret-token")
	require.Equal(t, http.StatusOK, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "queued", created["status"])
	jobID := created["job_id"].(string)
	require.NotEmpty(t, jobID)

	deadline := time.Now().Add(time.Second)
	var jobBody map[string]any
	for time.Now().Before(deadline) {
		rec = doJSON(t, r, http.MethodGet, "/api/v1/jobs/"+jobID, nil, "secret-token")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobBody))
		if jobBody["state"] == "completed" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, "completed", jobBody["state"])
}

func TestGetUnknownJobIsNotFound(t *testing.T) {
	r, _ := newTestRouter(t, "secret-token")
	rec := doJSON(t, r, http.MethodGet, "/api/v1/jobs/"+uuid.New().String(), nil, "secret-token")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelCompletedJobIsRejected(t *testing.T) {
	r, orch := newTestRouter(t, "secret-token")

	job := orch.Enqueue("/tmp/whatever.pdf", domain.Options{}, "", "")
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		snap, ok := orch.Get(job.ID)
		require.True(t, ok)
		if snap.State == domain.StateCompleted {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := doJSON(t, r, http.MethodDelete, "/api/v1/jobs/"+job.ID.String(), nil, "secret-token")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthDisabledWhenTokenEmpty(t *testing.T) {
	r, _ := newTestRouter(t, "")
	rec := doJSON(t, r, http.MethodGet, "/api/v1/jobs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}
