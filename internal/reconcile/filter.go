package reconcile

import (
	"strings"

	"golang.org/x/text/cases"

	"AssignmentBoard/internal/domain"
)

// AllCourses is the course selector that disables course filtering.
const AllCourses = "all"

// Query narrows a record list before grouping.
type Query struct {
	CourseID   string
	SearchText string
}

func (q Query) courseFilter() string {
	id := strings.TrimSpace(q.CourseID)
	if strings.EqualFold(id, AllCourses) {
		return ""
	}
	return id
}

// Filter keeps records of the selected course whose title or short description
// contains the search text, ignoring case. Whitespace-only text matches
// everything; otherwise the text is matched as typed, surrounding spaces included.
func Filter(records []domain.AssignmentRecord, q Query) []domain.AssignmentRecord {
	courseID := q.courseFilter()
	folder := cases.Fold()
	var needle string
	if strings.TrimSpace(q.SearchText) != "" {
		needle = folder.String(q.SearchText)
	}

	out := make([]domain.AssignmentRecord, 0, len(records))
	for _, rec := range records {
		if courseID != "" && rec.CourseID != courseID {
			continue
		}
		if needle != "" {
			haystack := folder.String(rec.Title + " " + rec.ShortDescription)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// Find returns the record identified by course and assignment id.
func Find(records []domain.AssignmentRecord, courseID, id string) (domain.AssignmentRecord, error) {
	for _, rec := range records {
		if rec.ID == id && (courseID == "" || rec.CourseID == courseID) {
			return rec, nil
		}
	}
	return domain.AssignmentRecord{}, &domain.NotFoundError{CourseID: courseID, AssignmentID: id}
}
