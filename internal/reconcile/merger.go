// Package reconcile folds assignment observations from several backend
// queries into one authoritative, grouped and ordered view.
package reconcile

import (
	"AssignmentBoard/internal/domain"
)

// Merger deduplicates records by course and assignment id, keeping the most
// advanced lifecycle status seen for each key. The zero value is ready to use.
type Merger struct {
	index   map[string]int
	records []domain.AssignmentRecord
}

// NewMerger builds an empty merger.
func NewMerger() *Merger {
	return &Merger{index: map[string]int{}}
}

// Add folds records into the merger. An existing entry is replaced only when
// the incoming status is strictly more advanced; ties and regressions are
// dropped, so the stored status never moves backward.
func (m *Merger) Add(records ...domain.AssignmentRecord) {
	if m.index == nil {
		m.index = map[string]int{}
	}

	for _, incoming := range records {
		key := incoming.Key()
		pos, ok := m.index[key]
		if !ok {
			m.index[key] = len(m.records)
			m.records = append(m.records, incoming)
			continue
		}

		if incoming.Status.Priority() > m.records[pos].Status.Priority() {
			m.records[pos] = incoming
		}
	}
}

// Len returns the number of distinct keys folded so far.
func (m *Merger) Len() int {
	return len(m.records)
}

// Records returns the merged records in first-seen key order.
func (m *Merger) Records() []domain.AssignmentRecord {
	out := make([]domain.AssignmentRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Merge folds every batch, in order, into a fresh merger.
func Merge(batches ...[]domain.AssignmentRecord) []domain.AssignmentRecord {
	m := NewMerger()
	for _, batch := range batches {
		m.Add(batch...)
	}
	return m.Records()
}
