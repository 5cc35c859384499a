package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"AssignmentBoard/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	table.Header(hdr...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

func writeGroups(w io.Writer, groups []domain.Group, now time.Time) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No assignments found.")
		return err
	}

	var rows [][]string
	for _, g := range groups {
		for _, a := range g.Assignments {
			rows = append(rows, []string{
				g.Label,
				courseCode(a),
				a.ID,
				a.Title,
				string(a.Status),
				dueText(a),
				remainingText(a, now),
			})
		}
	}
	return renderTable(w, []string{"Group", "Course", "ID", "Title", "Status", "Due", "Remaining"}, rows)
}

func writeAssignment(w io.Writer, a domain.AssignmentRecord, now time.Time) error {
	rows := [][]string{
		{"Course", courseCode(a)},
		{"ID", a.ID},
		{"Title", a.Title},
		{"Description", a.ShortDescription},
		{"Status", string(a.Status)},
		{"Intake", a.IntakeLabel},
		{"Released", a.ReleaseDate},
		{"Due", dueText(a)},
		{"Remaining", remainingText(a, now)},
	}
	optional := [][]string{
		{"Submitted", a.SubmittedDate},
		{"Feedback", a.Feedback},
		{"Marks", a.Marks},
		{"Feedback URL", a.FeedbackURL},
		{"Submitted package", a.SubmittedPackageURL},
	}
	for _, row := range optional {
		if row[1] != "" {
			rows = append(rows, row)
		}
	}
	for i, nb := range a.Notebooks {
		rows = append(rows, []string{"Notebook " + strconv.Itoa(i+1), nb.Name + " " + nb.ViewURL})
	}
	return renderTable(w, []string{"Field", "Value"}, rows)
}

func writeCourses(w io.Writer, courses []domain.CourseRecord) error {
	rows := make([][]string, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, []string{c.ID, c.Code, c.Name, c.IntakeLabel})
	}
	return renderTable(w, []string{"ID", "Code", "Name", "Intake"}, rows)
}

func courseCode(a domain.AssignmentRecord) string {
	if a.CourseCode != "" {
		return a.CourseCode
	}
	return a.CourseID
}

func dueText(a domain.AssignmentRecord) string {
	due, ok := a.DueTime()
	if !ok {
		return strings.TrimSpace(a.DueDate)
	}
	return due.UTC().Format("2006-01-02 15:04 MST")
}

func remainingText(a domain.AssignmentRecord, now time.Time) string {
	if domain.IsOverdue(a, now) {
		return "overdue"
	}
	if r, ok := domain.RemainingTime(a, now); ok && a.Status != domain.StatusSubmitted {
		return r.String()
	}
	return ""
}
