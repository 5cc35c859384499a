package backend

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/source"
)

const gradebookSchema = `
CREATE TABLE course (id TEXT PRIMARY KEY);
CREATE TABLE assignment (id TEXT PRIMARY KEY, name TEXT NOT NULL, course_id TEXT NOT NULL, duedate TEXT);
CREATE TABLE submitted_assignment (id TEXT PRIMARY KEY, assignment_id TEXT NOT NULL, student_id TEXT NOT NULL, timestamp TEXT);
CREATE TABLE submitted_notebook (id TEXT PRIMARY KEY, assignment_id TEXT NOT NULL);
CREATE TABLE grade (id TEXT PRIMARY KEY, notebook_id TEXT NOT NULL, auto_score REAL, manual_score REAL, extra_credit REAL);

INSERT INTO course (id) VALUES ('cs102'), ('cs101');
INSERT INTO assignment (id, name, course_id, duedate) VALUES
	('a1', 'ps1', 'cs101', '2025-11-20 17:00:00'),
	('a2', 'ps2', 'cs101', '2025-11-27 17:00:00'),
	('a3', 'lab1', 'cs102', NULL);
INSERT INTO submitted_assignment (id, assignment_id, student_id, timestamp) VALUES
	('s1', 'a1', 'student1', '2025-11-19 09:30:00'),
	('s2', 'a2', 'student2', '2025-11-26 10:00:00');
INSERT INTO submitted_notebook (id, assignment_id) VALUES ('n1', 's1'), ('n2', 's1');
INSERT INTO grade (id, notebook_id, auto_score, manual_score, extra_credit) VALUES
	('g1', 'n1', 3, 4, 1),
	('g2', 'n2', 2.5, NULL, NULL);
`

func newTestGradebook(t *testing.T) *Gradebook {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(gradebookSchema)
	require.NoError(t, err)

	return NewGradebook(db, false, "student1", nil)
}

func TestGradebookListCourses(t *testing.T) {
	t.Parallel()

	gb := newTestGradebook(t)
	courses, err := gb.ListCourses(context.Background())
	require.NoError(t, err)

	require.Len(t, courses, 2)
	assert.Equal(t, domain.CourseRecord{ID: "cs101", Code: "cs101", Name: "cs101", IntakeLabel: "cs101", IntakeOrder: 1}, courses[0])
	assert.Equal(t, 2, courses[1].IntakeOrder)
}

func TestGradebookListAssignments(t *testing.T) {
	t.Parallel()

	gb := newTestGradebook(t)
	_, err := gb.ListCourses(context.Background())
	require.NoError(t, err)

	records, err := gb.ListAssignments(context.Background(), "cs101")
	require.NoError(t, err)
	require.Len(t, records, 2)

	ps1 := records[0]
	assert.Equal(t, "ps1", ps1.ID)
	assert.Equal(t, domain.StatusSubmitted, ps1.Status)
	assert.Equal(t, "2025-11-19 09:30:00", ps1.SubmittedDate)
	assert.Equal(t, "2025-11-20 17:00:00", ps1.DueDate)
	assert.Equal(t, "7.5", ps1.Marks, "manual score wins over auto score, extra credit is added")

	ps2 := records[1]
	assert.Equal(t, "ps2", ps2.ID)
	assert.Equal(t, domain.StatusReleased, ps2.Status, "another student's submission does not count")
	assert.Empty(t, ps2.Marks)
	assert.Empty(t, ps2.SubmittedDate)
}

func TestGradebookAllCourses(t *testing.T) {
	t.Parallel()

	gb := newTestGradebook(t)
	_, err := gb.ListCourses(context.Background())
	require.NoError(t, err)

	records, err := gb.ListAssignments(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "cs101", records[0].CourseID)
	assert.Equal(t, "lab1", records[2].ID)
	assert.Equal(t, 2, records[2].IntakeOrder)
	assert.Empty(t, records[2].DueDate)
}

func TestGradebookQueryFailure(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gb := NewGradebook(db, false, "student1", nil)
	_, err = gb.ListAssignments(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestOpenGradebookRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := OpenGradebook(source.Settings{Flavor: FlavorGradebook}, nil)
	assert.ErrorContains(t, err, "dsn option is required")
}
