package domain

import (
	"strings"
	"time"
)

// Status enumerates the assignment lifecycle milestones.
type Status string

const (
	StatusReleased   Status = "Released"
	StatusDownloaded Status = "Downloaded"
	StatusSubmitted  Status = "Submitted"
)

// Priority ranks a status; unknown statuses rank 0.
func (s Status) Priority() int {
	switch s {
	case StatusReleased:
		return 1
	case StatusDownloaded:
		return 2
	case StatusSubmitted:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the status is one of the known lifecycle milestones.
func (s Status) Valid() bool {
	return s.Priority() > 0
}

// ParseStatus maps loosely spelled statuses (including the grading tool's
// "fetched") onto the lifecycle. The second result is false for unknown input.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "released":
		return StatusReleased, true
	case "downloaded", "fetched":
		return StatusDownloaded, true
	case "submitted":
		return StatusSubmitted, true
	default:
		return "", false
	}
}

// NotebookRef points at a single notebook allocated to an assignment.
type NotebookRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ViewURL     string `json:"viewUrl"`
	DownloadURL string `json:"downloadUrl"`
}

// AssignmentRecord is the normalized shape every backend adapter emits.
type AssignmentRecord struct {
	ID               string        `json:"id"`
	CourseID         string        `json:"courseId"`
	CourseCode       string        `json:"courseCode,omitempty"`
	CourseName       string        `json:"courseName,omitempty"`
	Title            string        `json:"title"`
	ShortDescription string        `json:"shortDescription"`
	Status           Status        `json:"status"`
	IntakeLabel      string        `json:"intakeLabel"`
	IntakeOrder      int           `json:"intakeOrder"`
	ReleaseDate      string        `json:"releaseDate"`
	DueDate          string        `json:"dueDate"`
	Notebooks        []NotebookRef `json:"notebooks"`

	SubmittedDate       string `json:"submittedDate,omitempty"`
	Feedback            string `json:"feedback,omitempty"`
	Marks               string `json:"marks,omitempty"`
	FeedbackURL         string `json:"feedbackUrl,omitempty"`
	SubmittedPackageURL string `json:"submittedPackageUrl,omitempty"`
}

// Key returns the dedup identity of the record.
func (a AssignmentRecord) Key() string {
	return a.CourseID + "::" + a.ID
}

// CourseRecord describes a course as listed by a backend.
type CourseRecord struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	IntakeLabel string `json:"intakeLabel"`
	IntakeOrder int    `json:"intakeOrder"`
}

// Group is one display bucket of reconciled assignments.
type Group struct {
	Label       string             `json:"label"`
	Order       int                `json:"order"`
	Assignments []AssignmentRecord `json:"assignments"`
}

// Advance moves a copy of the record forward to status. Moving backward or to
// an unknown status returns the record unchanged. Reaching Submitted stamps
// SubmittedDate when it is not already set.
func Advance(a AssignmentRecord, status Status, now time.Time) AssignmentRecord {
	if status.Priority() <= a.Status.Priority() {
		return a
	}
	a.Status = status
	if status == StatusSubmitted && a.SubmittedDate == "" {
		a.SubmittedDate = now.UTC().Format(time.RFC3339)
	}
	return a
}
