package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/reconcile"
)

// Catalog is the read side the API serves from.
type Catalog interface {
	Courses(ctx context.Context) ([]domain.CourseRecord, error)
	List(ctx context.Context, q reconcile.Query) ([]domain.Group, error)
	Get(ctx context.Context, courseID, id string) (domain.AssignmentRecord, error)
	Simulate(ctx context.Context, courseID, id string, status domain.Status) (domain.AssignmentRecord, error)
}

// AssignmentHandler serves courses and the reconciled assignment view.
type AssignmentHandler struct {
	log     *slog.Logger
	catalog Catalog
}

// NewAssignmentHandler wires the catalog.
func NewAssignmentHandler(log *slog.Logger, catalog Catalog) *AssignmentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AssignmentHandler{
		log:     log.With("handler", "AssignmentHandler"),
		catalog: catalog,
	}
}

// ListCourses handles GET /api/courses.
func (h *AssignmentHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.Courses(c.Request.Context())
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		RespondError(c, http.StatusBadGateway, "load_courses_failed", err)
		return
	}
	if courses == nil {
		courses = []domain.CourseRecord{}
	}
	RespondOK(c, gin.H{"courses": courses})
}

// ListAssignments handles GET /api/assignments?course=&search=.
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	q := reconcile.Query{
		CourseID:   c.Query("course"),
		SearchText: c.Query("search"),
	}
	groups, err := h.catalog.List(c.Request.Context(), q)
	if err != nil {
		h.log.Error("ListAssignments failed", "error", err)
		RespondError(c, http.StatusBadGateway, "load_assignments_failed", err)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	RespondOK(c, gin.H{"groups": groups})
}

// GetAssignment handles GET /api/assignments/:course/:id.
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	rec, err := h.catalog.Get(c.Request.Context(), c.Param("course"), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, "GetAssignment", err)
		return
	}
	RespondOK(c, gin.H{"assignment": rec})
}

// Download handles POST /api/assignments/:course/:id/download.
func (h *AssignmentHandler) Download(c *gin.Context) {
	h.simulate(c, domain.StatusDownloaded)
}

// Submit handles POST /api/assignments/:course/:id/submit.
func (h *AssignmentHandler) Submit(c *gin.Context) {
	h.simulate(c, domain.StatusSubmitted)
}

func (h *AssignmentHandler) simulate(c *gin.Context, status domain.Status) {
	rec, err := h.catalog.Simulate(c.Request.Context(), c.Param("course"), c.Param("id"), status)
	if err != nil {
		h.respondLookupError(c, "Simulate", err)
		return
	}
	RespondOK(c, gin.H{"assignment": rec, "simulated": true})
}

func (h *AssignmentHandler) respondLookupError(c *gin.Context, op string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "assignment_not_found", err)
		return
	}
	h.log.Error(op+" failed", "error", err)
	RespondError(c, http.StatusBadGateway, "load_assignments_failed", err)
}

// HealthCheck handles GET /healthz.
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
