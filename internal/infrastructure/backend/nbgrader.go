package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/source"
)

// FlavorNBGrader names the grading-tool REST adapter.
const FlavorNBGrader = "nbgrader"

// NBGrader reads the grading tool's assignment list API.
type NBGrader struct {
	http       *httpGetter
	baseURL    string
	serverURL  string
	logger     *slog.Logger
	mu         sync.RWMutex
	courseRank map[string]int
}

var _ source.Adapter = (*NBGrader)(nil)

// NewNBGrader wires an HTTP client; a nil client gets a default with the configured timeout.
func NewNBGrader(cfg source.Settings, client *http.Client, logger *slog.Logger) *NBGrader {
	return &NBGrader{
		http:       newHTTPGetter(FlavorNBGrader, cfg.Token, client, settingsTimeout(cfg)),
		baseURL:    cfg.BaseURL,
		serverURL:  cfg.Option("serverUrl", serverRoot(cfg.BaseURL)),
		logger:     logger,
		courseRank: map[string]int{},
	}
}

// Name identifies the adapter inside the registry.
func (n *NBGrader) Name() string {
	return FlavorNBGrader
}

type nbgraderAssignment struct {
	AssignmentID        string             `json:"assignment_id"`
	CourseID            string             `json:"course_id"`
	Status              string             `json:"status"`
	Submitted           bool               `json:"submitted"`
	Downloaded          bool               `json:"downloaded"`
	ReleaseDate         string             `json:"release_date"`
	DueDate             string             `json:"due_date"`
	SubmissionTimestamp string             `json:"submission_timestamp"`
	FeedbackAvailable   bool               `json:"feedback_available"`
	Score               json.RawMessage    `json:"score"`
	FeedbackURL         string             `json:"feedback_url"`
	SubmittedPackageURL string             `json:"submitted_package_url"`
	Notebooks           []nbgraderNotebook `json:"notebooks"`
}

type nbgraderNotebook struct {
	NotebookID string `json:"notebook_id"`
	Path       string `json:"path"`
}

// ListCourses returns the course ids the grading tool knows about. When the
// server has no course endpoint the ids are derived from the assignment list.
func (n *NBGrader) ListCourses(ctx context.Context) ([]domain.CourseRecord, error) {
	endpoint, err := joinURL(n.baseURL, nil, "courses")
	if err != nil {
		return nil, err
	}

	var ids []string
	items, err := n.http.getList(ctx, endpoint)
	switch {
	case isStatus(err, http.StatusNotFound):
		n.debug("course endpoint missing, deriving courses from assignments")
		ids, err = n.courseIDsFromAssignments(ctx)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		for _, item := range items {
			var id string
			if err := json.Unmarshal(item, &id); err != nil || id == "" {
				n.debug("skip malformed course", "raw", truncate(string(item), 80))
				continue
			}
			ids = append(ids, id)
		}
	}

	courses := make([]domain.CourseRecord, 0, len(ids))
	rank := make(map[string]int, len(ids))
	for _, id := range ids {
		if _, dup := rank[id]; dup {
			continue
		}
		rank[id] = len(courses) + 1
		courses = append(courses, domain.CourseRecord{
			ID:          id,
			Code:        id,
			Name:        id,
			IntakeLabel: id,
			IntakeOrder: rank[id],
		})
	}

	n.mu.Lock()
	n.courseRank = rank
	n.mu.Unlock()

	return courses, nil
}

func (n *NBGrader) courseIDsFromAssignments(ctx context.Context) ([]string, error) {
	records, err := n.ListAssignments(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("derive courses: %w", err)
	}
	var ids []string
	for _, rec := range records {
		ids = append(ids, rec.CourseID)
	}
	return ids, nil
}

// ListAssignments fetches the assignment list, optionally scoped to one course.
func (n *NBGrader) ListAssignments(ctx context.Context, courseID string) ([]domain.AssignmentRecord, error) {
	query := url.Values{}
	if courseID != "" {
		query.Set("course_id", courseID)
	}
	endpoint, err := joinURL(n.baseURL, query, "assignments")
	if err != nil {
		return nil, err
	}

	items, err := n.http.getList(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AssignmentRecord, 0, len(items))
	skipped := 0
	for _, item := range items {
		rec, err := n.normalize(item)
		if err != nil {
			skipped++
			n.debug("skip malformed assignment", "error", err)
			continue
		}
		if courseID != "" && rec.CourseID != courseID {
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		n.debug("assignments skipped", "course", courseID, "skipped", skipped)
	}
	return records, nil
}

func (n *NBGrader) normalize(raw json.RawMessage) (domain.AssignmentRecord, error) {
	var a nbgraderAssignment
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.AssignmentRecord{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	if a.AssignmentID == "" || a.CourseID == "" {
		return domain.AssignmentRecord{}, fmt.Errorf("%w: missing assignment_id or course_id", domain.ErrMalformed)
	}

	status, err := a.status()
	if err != nil {
		return domain.AssignmentRecord{}, err
	}

	rec := domain.AssignmentRecord{
		ID:                  a.AssignmentID,
		CourseID:            a.CourseID,
		CourseCode:          a.CourseID,
		CourseName:          a.CourseID,
		Title:               a.AssignmentID,
		ShortDescription:    "Released assignment",
		Status:              status,
		IntakeLabel:         a.CourseID,
		IntakeOrder:         n.rank(a.CourseID),
		ReleaseDate:         a.ReleaseDate,
		DueDate:             a.DueDate,
		Notebooks:           make([]domain.NotebookRef, 0, len(a.Notebooks)),
		SubmittedDate:       a.SubmissionTimestamp,
		Marks:               rawText(a.Score),
		FeedbackURL:         a.FeedbackURL,
		SubmittedPackageURL: a.SubmittedPackageURL,
	}
	if a.FeedbackAvailable {
		rec.Feedback = "Feedback available"
	}

	for _, nb := range a.Notebooks {
		if nb.NotebookID == "" {
			continue
		}
		rec.Notebooks = append(rec.Notebooks, notebookRef(n.serverURL, nb.NotebookID, nb.NotebookID+".ipynb", nb.Path))
	}

	return rec, nil
}

func (a nbgraderAssignment) status() (domain.Status, error) {
	if a.Status != "" {
		status, ok := domain.ParseStatus(a.Status)
		if !ok {
			return "", fmt.Errorf("%w: unknown status %q", domain.ErrMalformed, a.Status)
		}
		return status, nil
	}
	switch {
	case a.Submitted:
		return domain.StatusSubmitted, nil
	case a.Downloaded:
		return domain.StatusDownloaded, nil
	default:
		return domain.StatusReleased, nil
	}
}

func (n *NBGrader) rank(courseID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if r, ok := n.courseRank[courseID]; ok {
		return r
	}
	return 1
}

func (n *NBGrader) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
