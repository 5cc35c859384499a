package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/logging"
	"AssignmentBoard/internal/ports"
	"AssignmentBoard/internal/usecase"
)

type staticSource struct {
	col ports.Collection
	err error
}

func (s staticSource) Collect(context.Context) (ports.Collection, error) {
	return s.col, s.err
}

var _ Catalog = (*usecase.Catalog)(nil)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(src ports.AssignmentSource) http.Handler {
	catalog := usecase.NewCatalog(src, nil)
	return NewRouter(RouterConfig{
		AssignmentHandler: NewAssignmentHandler(logging.Discard(), catalog),
		Logger:            logging.Discard(),
	})
}

func sampleSource() staticSource {
	return staticSource{col: ports.Collection{
		Backend: "stub",
		Courses: []domain.CourseRecord{{ID: "cs101", Code: "CS101", Name: "Intro"}},
		Batches: [][]domain.AssignmentRecord{{
			{ID: "ps1", CourseID: "cs101", Title: "Loops", Status: domain.StatusReleased, DueDate: "2025-11-20T17:00:00Z", Notebooks: []domain.NotebookRef{}},
			{ID: "ps2", CourseID: "cs101", Title: "Recursion", Status: domain.StatusDownloaded, Notebooks: []domain.NotebookRef{}},
			{ID: "ps1", CourseID: "cs101", Title: "Loops", Status: domain.StatusSubmitted, SubmittedDate: "2025-11-19T10:00:00Z", DueDate: "2025-11-20T17:00:00Z", Notebooks: []domain.NotebookRef{}},
		}},
	}}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(sampleSource()), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListCourses(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(sampleSource()), http.MethodGet, "/api/courses")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Courses []domain.CourseRecord `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Courses, 1)
	assert.Equal(t, "CS101", body.Courses[0].Code)
}

func TestListAssignments(t *testing.T) {
	t.Parallel()

	router := newTestRouter(sampleSource())

	rec := do(t, router, http.MethodGet, "/api/assignments?course=all")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Groups []domain.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "All Assignments", body.Groups[0].Label)
	require.Len(t, body.Groups[0].Assignments, 2)
	assert.Equal(t, domain.StatusSubmitted, body.Groups[0].Assignments[0].Status)

	rec = do(t, router, http.MethodGet, "/api/assignments?search=RECURSION")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Groups, 1)
	require.Len(t, body.Groups[0].Assignments, 1)
	assert.Equal(t, "ps2", body.Groups[0].Assignments[0].ID)

	rec = do(t, router, http.MethodGet, "/api/assignments?course=cs999")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"groups":[]}`, rec.Body.String())
}

func TestGetAssignment(t *testing.T) {
	t.Parallel()

	router := newTestRouter(sampleSource())

	rec := do(t, router, http.MethodGet, "/api/assignments/cs101/ps1")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Assignment domain.AssignmentRecord `json:"assignment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusSubmitted, body.Assignment.Status)

	rec = do(t, router, http.MethodGet, "/api/assignments/cs101/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errBody ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "assignment_not_found", errBody.Error.Code)
}

func TestSimulatedActions(t *testing.T) {
	t.Parallel()

	router := newTestRouter(sampleSource())

	rec := do(t, router, http.MethodPost, "/api/assignments/cs101/ps2/submit")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Assignment domain.AssignmentRecord `json:"assignment"`
		Simulated  bool                    `json:"simulated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Simulated)
	assert.Equal(t, domain.StatusSubmitted, body.Assignment.Status)
	assert.NotEmpty(t, body.Assignment.SubmittedDate)

	rec = do(t, router, http.MethodPost, "/api/assignments/cs101/ps1/download")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusSubmitted, body.Assignment.Status, "download never regresses a submission")

	rec = do(t, router, http.MethodGet, "/api/assignments/cs101/ps2")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusDownloaded, body.Assignment.Status, "simulation is not stored")
}

func TestSourceFailure(t *testing.T) {
	t.Parallel()

	router := newTestRouter(staticSource{err: errors.New("both backends down")})

	rec := do(t, router, http.MethodGet, "/api/assignments")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/assignments/cs101/ps1")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
