package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/source"
)

const nbgraderAssignments = `{
  "success": true,
  "value": [
    {"assignment_id": "ps1", "course_id": "cs101", "status": "released", "due_date": "2025-11-20 17:00:00 UTC",
     "notebooks": [{"notebook_id": "problem1", "path": "cs101/ps1/problem1.ipynb"}]},
    {"assignment_id": "ps2", "course_id": "cs101", "submitted": true, "submission_timestamp": "2025-11-02 10:00:00",
     "feedback_available": true, "score": 8.5, "feedback_url": "http://x/feedback/ps2.html"},
    {"assignment_id": "ps3", "course_id": "cs102", "downloaded": true, "score": "A-"},
    {"assignment_id": "", "course_id": "cs101"},
    {"assignment_id": "ps4", "course_id": "cs101", "submitted": "yes"},
    {"assignment_id": "ps5", "course_id": "cs101", "status": "graded"}
  ]
}`

func newNBGraderServer(t *testing.T, courses string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/nbgrader/api/assignments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(nbgraderAssignments))
	})
	if courses != "" {
		mux.HandleFunc("/nbgrader/api/courses", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(courses))
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestNBGraderListAssignments(t *testing.T) {
	t.Parallel()

	server := newNBGraderServer(t, `["cs101", "cs102"]`)
	adapter := NewNBGrader(source.Settings{BaseURL: server.URL + "/nbgrader/api", Token: "tok"}, server.Client(), nil)

	courses, err := adapter.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, domain.CourseRecord{ID: "cs102", Code: "cs102", Name: "cs102", IntakeLabel: "cs102", IntakeOrder: 2}, courses[1])

	records, err := adapter.ListAssignments(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 3, "malformed records are skipped")

	ps1 := records[0]
	assert.Equal(t, "ps1", ps1.ID)
	assert.Equal(t, domain.StatusReleased, ps1.Status)
	assert.Equal(t, "cs101", ps1.IntakeLabel)
	assert.Equal(t, 1, ps1.IntakeOrder)
	require.Len(t, ps1.Notebooks, 1)
	assert.Equal(t, server.URL+"/notebooks/cs101/ps1/problem1.ipynb", ps1.Notebooks[0].ViewURL)
	assert.Equal(t, server.URL+"/files/cs101/ps1/problem1.ipynb", ps1.Notebooks[0].DownloadURL)

	ps2 := records[1]
	assert.Equal(t, domain.StatusSubmitted, ps2.Status)
	assert.Equal(t, "Feedback available", ps2.Feedback)
	assert.Equal(t, "8.5", ps2.Marks)
	assert.Equal(t, "2025-11-02 10:00:00", ps2.SubmittedDate)
	assert.Equal(t, "http://x/feedback/ps2.html", ps2.FeedbackURL)

	ps3 := records[2]
	assert.Equal(t, domain.StatusDownloaded, ps3.Status)
	assert.Equal(t, "A-", ps3.Marks)
	assert.Equal(t, 2, ps3.IntakeOrder)
}

func TestNBGraderCourseScopedQuery(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cs102", r.URL.Query().Get("course_id"))
		_, _ = w.Write([]byte(nbgraderAssignments))
	}))
	defer server.Close()

	adapter := NewNBGrader(source.Settings{BaseURL: server.URL}, server.Client(), nil)
	records, err := adapter.ListAssignments(context.Background(), "cs102")
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "ps3", records[0].ID)
}

func TestNBGraderDerivesCoursesWhenEndpointMissing(t *testing.T) {
	t.Parallel()

	server := newNBGraderServer(t, "")
	adapter := NewNBGrader(source.Settings{BaseURL: server.URL + "/nbgrader/api", Token: "tok"}, server.Client(), nil)

	courses, err := adapter.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "cs101", courses[0].ID)
	assert.Equal(t, "cs102", courses[1].ID)
}

func TestNBGraderTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewNBGrader(source.Settings{BaseURL: server.URL}, server.Client(), nil)
	_, err := adapter.ListAssignments(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))

	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestNBGraderReportedFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "value": "Traceback ..."}`))
	}))
	defer server.Close()

	adapter := NewNBGrader(source.Settings{BaseURL: server.URL}, server.Client(), nil)
	_, err := adapter.ListAssignments(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorContains(t, err, "backend reported failure")
}

func TestDecodeList(t *testing.T) {
	t.Parallel()

	items, err := decodeList([]byte(`[1, 2]`))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = decodeList([]byte(`{"success": true, "value": []}`))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = decodeList([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = decodeList([]byte(`{"unexpected": 1}`))
	assert.ErrorIs(t, err, domain.ErrMalformed)
}
