package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/source"
)

// FlavorGradebook names the adapter reading the grading tool's database directly.
const FlavorGradebook = "gradebook"

const scoreExpr = `(SELECT SUM(COALESCE(g.manual_score, g.auto_score, 0) + COALESCE(g.extra_credit, 0))
	FROM grade g JOIN submitted_notebook sn ON g.notebook_id = sn.id
	WHERE sn.assignment_id = s.id) AS score`

// Gradebook reads courses, assignments and one student's submissions from the
// grading tool's SQL gradebook. It never writes.
type Gradebook struct {
	db        *sql.DB
	builder   sq.StatementBuilderType
	studentID string
	logger    *slog.Logger

	mu         sync.RWMutex
	courseRank map[string]int
}

var _ source.Adapter = (*Gradebook)(nil)

// NewGradebook wires an open database. Postgres needs dollar placeholders.
func NewGradebook(db *sql.DB, postgres bool, studentID string, logger *slog.Logger) *Gradebook {
	var format sq.PlaceholderFormat = sq.Question
	if postgres {
		format = sq.Dollar
	}
	return &Gradebook{
		db:         db,
		builder:    sq.StatementBuilder.PlaceholderFormat(format),
		studentID:  studentID,
		logger:     logger,
		courseRank: map[string]int{},
	}
}

// OpenGradebook opens the database named by the "dsn" option. The driver is
// taken from the "driver" option or guessed from the DSN.
func OpenGradebook(cfg source.Settings, logger *slog.Logger) (*Gradebook, error) {
	dsn := cfg.Option("dsn", "")
	if dsn == "" {
		return nil, fmt.Errorf("gradebook: dsn option is required")
	}

	driver := cfg.Option("driver", "")
	if driver == "" {
		driver = "sqlite"
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			driver = "postgres"
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open gradebook: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	return NewGradebook(db, driver == "postgres", cfg.Option("student", ""), logger), nil
}

// Name identifies the adapter inside the registry.
func (g *Gradebook) Name() string {
	return FlavorGradebook
}

// Close releases the database handle.
func (g *Gradebook) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}

// ListCourses returns every course in the gradebook, ranked by id.
func (g *Gradebook) ListCourses(ctx context.Context) ([]domain.CourseRecord, error) {
	query, args, err := g.builder.Select("id").From("course").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build course query: %w", err)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, g.transport("query courses", err)
	}
	defer rows.Close()

	var courses []domain.CourseRecord
	rank := map[string]int{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, g.transport("scan course", err)
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
	if err := rows.Err(); err != nil {
		return nil, g.transport("iterate courses", err)
	}

	g.mu.Lock()
	g.courseRank = rank
	g.mu.Unlock()

	return courses, nil
}

// ListAssignments joins assignments with the configured student's submissions.
func (g *Gradebook) ListAssignments(ctx context.Context, courseID string) ([]domain.AssignmentRecord, error) {
	builder := g.builder.
		Select("a.name", "a.course_id", "a.duedate", "s.timestamp", scoreExpr).
		From("assignment a").
		LeftJoin("submitted_assignment s ON s.assignment_id = a.id AND s.student_id = ?", g.studentID).
		OrderBy("a.course_id", "a.duedate", "a.name")
	if courseID != "" {
		builder = builder.Where(sq.Eq{"a.course_id": courseID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assignment query: %w", err)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, g.transport("query assignments", err)
	}
	defer rows.Close()

	var records []domain.AssignmentRecord
	for rows.Next() {
		var (
			name, course     string
			due, submittedAt sql.NullString
			score            sql.NullFloat64
		)
		if err := rows.Scan(&name, &course, &due, &submittedAt, &score); err != nil {
			g.debug("skip malformed gradebook row", "error", err)
			continue
		}

		rec := domain.AssignmentRecord{
			ID:               name,
			CourseID:         course,
			CourseCode:       course,
			CourseName:       course,
			Title:            name,
			ShortDescription: "Released assignment",
			Status:           domain.StatusReleased,
			IntakeLabel:      course,
			IntakeOrder:      g.rank(course),
			DueDate:          due.String,
			Notebooks:        []domain.NotebookRef{},
		}
		if submittedAt.Valid {
			rec.Status = domain.StatusSubmitted
			rec.SubmittedDate = submittedAt.String
		}
		if score.Valid {
			rec.Marks = strconv.FormatFloat(score.Float64, 'f', -1, 64)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, g.transport("iterate assignments", err)
	}

	return records, nil
}

func (g *Gradebook) rank(courseID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if r, ok := g.courseRank[courseID]; ok {
		return r
	}
	return 1
}

func (g *Gradebook) transport(op string, err error) error {
	return &domain.TransportError{Backend: FlavorGradebook, URL: "sql:" + op, Err: err}
}

func (g *Gradebook) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
