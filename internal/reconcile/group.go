package reconcile

import (
	"sort"
	"strings"

	"AssignmentBoard/internal/domain"
)

const (
	// AllAssignmentsLabel names the single implicit group used when no record has an intake.
	AllAssignmentsLabel = "All Assignments"
	// OtherLabel collects unlabeled records when other records do carry an intake.
	OtherLabel = "Other"
)

// Group partitions records by intake label. Labeled groups are ordered by their
// lowest intake order and the Other group always comes last; records inside a
// group are ordered by due date, undated ones last.
func Group(records []domain.AssignmentRecord) []domain.Group {
	if len(records) == 0 {
		return []domain.Group{}
	}

	if !hasIntake(records) {
		all := make([]domain.AssignmentRecord, len(records))
		copy(all, records)
		sortByDue(all)
		return []domain.Group{{Label: AllAssignmentsLabel, Assignments: all}}
	}

	var groups []domain.Group
	index := map[string]int{}
	for _, rec := range records {
		label := strings.TrimSpace(rec.IntakeLabel)
		if label == "" {
			label = OtherLabel
		}

		pos, ok := index[label]
		if !ok {
			pos = len(groups)
			index[label] = pos
			groups = append(groups, domain.Group{Label: label, Order: rec.IntakeOrder})
		}
		if rec.IntakeOrder < groups[pos].Order {
			groups[pos].Order = rec.IntakeOrder
		}
		groups[pos].Assignments = append(groups[pos].Assignments, rec)
	}

	if pos, ok := index[OtherLabel]; ok {
		last := 0
		for i, g := range groups {
			if i != pos && g.Order > last {
				last = g.Order
			}
		}
		groups[pos].Order = last + 1
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Order < groups[j].Order
	})
	for i := range groups {
		sortByDue(groups[i].Assignments)
	}
	return groups
}

func hasIntake(records []domain.AssignmentRecord) bool {
	for _, rec := range records {
		if strings.TrimSpace(rec.IntakeLabel) != "" {
			return true
		}
	}
	return false
}

func sortByDue(records []domain.AssignmentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		di, iok := records[i].DueTime()
		dj, jok := records[j].DueTime()
		switch {
		case iok && jok:
			return di.Before(dj)
		case iok:
			return true
		default:
			return false
		}
	})
}

// Reconcile merges duplicate observations and groups the result for display.
func Reconcile(records []domain.AssignmentRecord) []domain.Group {
	return Group(Merge(records))
}
