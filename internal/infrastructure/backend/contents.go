package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/source"
)

// FlavorContents names the notebook-server content-directory adapter.
const FlavorContents = "contents"

// Contents treats every directory under the release folder as a released assignment.
type Contents struct {
	http          *httpGetter
	baseURL       string
	releaseDir    string
	html          bool
	withNotebooks bool
	course        domain.CourseRecord
	logger        *slog.Logger
}

var _ source.Adapter = (*Contents)(nil)

// NewContents wires an HTTP client and the single course the release folder belongs to.
func NewContents(cfg source.Settings, client *http.Client, logger *slog.Logger) *Contents {
	order, err := strconv.Atoi(cfg.Option("intakeOrder", "1"))
	if err != nil {
		order = 1
	}
	withNotebooks, _ := strconv.ParseBool(cfg.Option("notebooks", "false"))

	return &Contents{
		http:          newHTTPGetter(FlavorContents, cfg.Token, client, settingsTimeout(cfg)),
		baseURL:       cfg.BaseURL,
		releaseDir:    strings.Trim(cfg.Option("releaseDir", "release"), "/"),
		html:          strings.EqualFold(cfg.Option("format", "json"), "html"),
		withNotebooks: withNotebooks,
		course: domain.CourseRecord{
			ID:          cfg.Option("courseId", "default"),
			Code:        cfg.Option("courseCode", "MyCourse"),
			Name:        cfg.Option("courseName", "MyCourse"),
			IntakeLabel: cfg.Option("intakeLabel", "Default"),
			IntakeOrder: order,
		},
		logger: logger,
	}
}

// Name identifies the adapter inside the registry.
func (c *Contents) Name() string {
	return FlavorContents
}

type contentsEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// ListCourses returns the configured course.
func (c *Contents) ListCourses(context.Context) ([]domain.CourseRecord, error) {
	return []domain.CourseRecord{c.course}, nil
}

// ListAssignments lists the release directory. Other courses have no assignments here.
func (c *Contents) ListAssignments(ctx context.Context, courseID string) ([]domain.AssignmentRecord, error) {
	if courseID != "" && courseID != c.course.ID {
		return []domain.AssignmentRecord{}, nil
	}

	var (
		dirs []contentsEntry
		err  error
	)
	if c.html {
		dirs, err = c.listHTML(ctx)
	} else {
		dirs, err = c.listJSON(ctx, c.releaseDir)
	}
	if err != nil {
		return nil, err
	}

	records := make([]domain.AssignmentRecord, 0, len(dirs))
	for _, dir := range dirs {
		if dir.Type != "directory" || dir.Name == "" {
			continue
		}
		rec := domain.AssignmentRecord{
			ID:               dir.Name,
			CourseID:         c.course.ID,
			CourseCode:       c.course.Code,
			CourseName:       c.course.Name,
			Title:            dir.Name,
			ShortDescription: "Released assignment",
			Status:           domain.StatusReleased,
			IntakeLabel:      c.course.IntakeLabel,
			IntakeOrder:      c.course.IntakeOrder,
			Notebooks:        []domain.NotebookRef{},
		}
		if c.withNotebooks && !c.html {
			rec.Notebooks = c.notebooks(ctx, dir.Path)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Contents) listJSON(ctx context.Context, dir string) ([]contentsEntry, error) {
	endpoint, err := joinURL(c.baseURL, url.Values{"content": {"1"}}, "api", "contents", dir)
	if err != nil {
		return nil, err
	}

	body, err := c.http.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &domain.TransportError{Backend: FlavorContents, URL: endpoint, Err: fmt.Errorf("decode listing: %w", err)}
	}

	entries := make([]contentsEntry, 0, len(listing.Content))
	for _, raw := range listing.Content {
		var e contentsEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			c.debug("skip malformed entry", "dir", dir, "error", err)
			continue
		}
		if e.Path == "" {
			e.Path = path.Join(dir, e.Name)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// listHTML parses a static directory index page, where directories are the
// links ending in a slash.
func (c *Contents) listHTML(ctx context.Context) ([]contentsEntry, error) {
	endpoint, err := joinURL(c.baseURL, nil, c.releaseDir)
	if err != nil {
		return nil, err
	}
	endpoint += "/"

	body, err := c.http.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Backend: FlavorContents, URL: endpoint, Err: fmt.Errorf("parse listing: %w", err)}
	}

	return parseDirectoryIndex(doc, c.releaseDir), nil
}

func parseDirectoryIndex(doc *goquery.Document, dir string) []contentsEntry {
	var entries []contentsEntry
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasSuffix(href, "/") || strings.HasPrefix(href, "?") || strings.Contains(href, "://") {
			return
		}
		name, err := url.PathUnescape(path.Base(strings.TrimSuffix(href, "/")))
		if err != nil || name == "" || name == "." || name == ".." || name == "/" {
			return
		}
		if strings.HasPrefix(href, "/") && !strings.Contains(href, "/"+dir+"/") {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		entries = append(entries, contentsEntry{Name: name, Path: path.Join(dir, name), Type: "directory"})
	})

	return entries
}

// notebooks lists the notebooks inside one assignment directory. Failures
// leave the list empty rather than dropping the assignment.
func (c *Contents) notebooks(ctx context.Context, dir string) []domain.NotebookRef {
	entries, err := c.listJSON(ctx, dir)
	if err != nil {
		c.debug("notebook discovery failed", "dir", dir, "error", err)
		return []domain.NotebookRef{}
	}

	root := strings.TrimSuffix(c.baseURL, "/")
	refs := make([]domain.NotebookRef, 0, len(entries))
	for _, e := range entries {
		if e.Type != "notebook" {
			continue
		}
		refs = append(refs, notebookRef(root, e.Path, e.Name, e.Path))
	}
	return refs
}

func (c *Contents) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
