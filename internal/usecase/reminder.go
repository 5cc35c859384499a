package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/ports"
)

// Reminder publishes a digest of overdue and due-soon assignments.
type Reminder struct {
	catalog  *Catalog
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	last string
}

// NewReminder wires the catalog with an outbound notifier.
func NewReminder(catalog *Catalog, notifier ports.Notifier, logger *slog.Logger) *Reminder {
	return &Reminder{catalog: catalog, notifier: notifier, logger: logger, now: time.Now}
}

// Run builds the digest from the current snapshot and publishes it, split into
// as many messages as the Telegram length limit requires. Nothing is
// sent when there is nothing to remind about or the digest has not changed
// since the last successful publish.
func (r *Reminder) Run(ctx context.Context) error {
	if r.catalog == nil || r.notifier == nil {
		return nil
	}

	snap, err := r.catalog.Snapshot(ctx)
	if err != nil {
		return err
	}

	digest := BuildDigest(snap.Records, r.now())
	if digest == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if digest == r.last {
		r.debug("digest unchanged, skipping")
		return nil
	}

	parts := SplitDigest(digest, MaxMessageLength)
	for i, part := range parts {
		if err := r.notifier.PublishDigest(ctx, part); err != nil {
			return fmt.Errorf("publish digest part %d/%d: %w", i+1, len(parts), err)
		}
	}
	r.last = digest
	r.debug("digest published", "bytes", len(digest), "parts", len(parts))
	return nil
}

// MaxMessageLength is the longest text, in characters, one Telegram message may carry.
const MaxMessageLength = 4096

// SplitDigest cuts a digest into parts of at most limit characters, breaking
// between lines. A single line longer than limit is cut mid-line.
func SplitDigest(digest string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(digest) <= limit {
		return []string{digest}
	}

	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			n = 0
		}
	}

	for _, line := range strings.SplitAfter(digest, "\n") {
		if line == "" {
			continue
		}
		for utf8.RuneCountInString(line) > limit {
			flush()
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
		}
		size := utf8.RuneCountInString(line)
		if n+size > limit {
			flush()
		}
		cur.WriteString(line)
		n += size
	}
	flush()
	return parts
}

type reminderItem struct {
	rec domain.AssignmentRecord
	due time.Time
}

// BuildDigest renders a Markdown digest. It is empty when no assignment is
// overdue or due soon.
func BuildDigest(records []domain.AssignmentRecord, now time.Time) string {
	var overdue, soon []reminderItem
	for _, rec := range records {
		due, ok := rec.DueTime()
		if !ok {
			continue
		}
		switch {
		case domain.IsOverdue(rec, now):
			overdue = append(overdue, reminderItem{rec: rec, due: due})
		case domain.IsDueSoon(rec, now) && rec.Status != domain.StatusSubmitted:
			soon = append(soon, reminderItem{rec: rec, due: due})
		}
	}
	if len(overdue) == 0 && len(soon) == 0 {
		return ""
	}

	byDue := func(items []reminderItem) {
		sort.SliceStable(items, func(i, j int) bool { return items[i].due.Before(items[j].due) })
	}
	byDue(overdue)
	byDue(soon)

	var b strings.Builder
	if len(overdue) > 0 {
		b.WriteString("*Overdue*\n")
		for _, item := range overdue {
			fmt.Fprintf(&b, "- %s (%s) was due %s\n",
				escapeMarkdown(item.rec.Title), escapeMarkdown(courseLabel(item.rec)), item.due.UTC().Format("2006-01-02 15:04 MST"))
		}
	}
	if len(soon) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("*Due soon*\n")
		for _, item := range soon {
			remaining, _ := domain.RemainingTime(item.rec, now)
			fmt.Fprintf(&b, "- %s (%s) %s left\n",
				escapeMarkdown(item.rec.Title), escapeMarkdown(courseLabel(item.rec)), remaining)
		}
	}
	return b.String()
}

func courseLabel(rec domain.AssignmentRecord) string {
	if rec.CourseCode != "" {
		return rec.CourseCode
	}
	return rec.CourseID
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown protects the legacy Markdown entities Telegram parses.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func (r *Reminder) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
