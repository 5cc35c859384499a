package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/source"
)

const (
	// FlavorREST names the generic REST (mock API) adapter.
	FlavorREST = "rest"

	defaultPageSize = 100
	maxPages        = 1000
)

// REST reads a backend that already speaks the normalized camelCase shape.
type REST struct {
	http     *httpGetter
	baseURL  string
	pageSize int
	logger   *slog.Logger
}

var _ source.Adapter = (*REST)(nil)

// NewREST wires an HTTP client; pageSize defaults to 100.
func NewREST(cfg source.Settings, client *http.Client, logger *slog.Logger) *REST {
	pageSize, err := strconv.Atoi(cfg.Option("pageSize", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &REST{
		http:     newHTTPGetter(FlavorREST, cfg.Token, client, settingsTimeout(cfg)),
		baseURL:  cfg.BaseURL,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Name identifies the adapter inside the registry.
func (r *REST) Name() string {
	return FlavorREST
}

// restAssignment accepts a free-form status and numeric or textual marks.
type restAssignment struct {
	domain.AssignmentRecord
	Status string          `json:"status"`
	Marks  json.RawMessage `json:"marks"`
}

// ListCourses fetches the course list.
func (r *REST) ListCourses(ctx context.Context) ([]domain.CourseRecord, error) {
	endpoint, err := joinURL(r.baseURL, nil, "courses")
	if err != nil {
		return nil, err
	}

	items, err := r.http.getList(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	courses := make([]domain.CourseRecord, 0, len(items))
	for _, item := range items {
		var c domain.CourseRecord
		if err := json.Unmarshal(item, &c); err != nil || strings.TrimSpace(c.ID) == "" {
			r.debug("skip malformed course", "raw", truncate(string(item), 80))
			continue
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// ListAssignments walks every page of the course-scoped assignment query. It
// stops on a short page or on a page whose first element repeats the previous
// page's.
func (r *REST) ListAssignments(ctx context.Context, courseID string) ([]domain.AssignmentRecord, error) {
	var (
		records   []domain.AssignmentRecord
		prevFirst string
	)

	for page := 1; page <= maxPages; page++ {
		pageURL, err := buildPageURL(r.baseURL, courseID, page, r.pageSize)
		if err != nil {
			return nil, err
		}

		items, err := r.http.getList(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		// A server that ignores the page parameter keeps answering with page one.
		if len(items) > 0 {
			first := string(items[0])
			if page > 1 && first == prevFirst {
				r.debug("page repeats the previous one, stopping", "course", courseID, "page", page)
				return records, nil
			}
			prevFirst = first
		}

		for _, item := range items {
			rec, err := normalizeREST(item, courseID)
			if err != nil {
				r.debug("skip malformed assignment", "course", courseID, "page", page, "error", err)
				continue
			}
			records = append(records, rec)
		}

		if len(items) < r.pageSize {
			return records, nil
		}
	}

	r.debug("page limit reached", "course", courseID, "pages", maxPages)
	return records, nil
}

func normalizeREST(raw json.RawMessage, courseID string) (domain.AssignmentRecord, error) {
	var a restAssignment
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.AssignmentRecord{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}

	rec := a.AssignmentRecord
	if strings.TrimSpace(rec.ID) == "" {
		return domain.AssignmentRecord{}, fmt.Errorf("%w: missing id", domain.ErrMalformed)
	}

	status, ok := domain.ParseStatus(a.Status)
	if !ok {
		return domain.AssignmentRecord{}, fmt.Errorf("%w: unknown status %q", domain.ErrMalformed, a.Status)
	}
	rec.Status = status
	rec.Marks = rawText(a.Marks)

	if rec.CourseID == "" {
		rec.CourseID = courseID
	}
	if rec.CourseID == "" {
		return domain.AssignmentRecord{}, fmt.Errorf("%w: missing courseId", domain.ErrMalformed)
	}
	if rec.Notebooks == nil {
		rec.Notebooks = []domain.NotebookRef{}
	}
	return rec, nil
}

func buildPageURL(base, courseID string, page, pageSize int) (string, error) {
	query := url.Values{}
	if courseID != "" {
		query.Set("courseId", courseID)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	return joinURL(base, query, "assignments")
}

func (r *REST) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
