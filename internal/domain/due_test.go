package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{"rfc3339", "2025-11-10T09:30:00Z", time.Date(2025, 11, 10, 9, 30, 0, 0, time.UTC), true},
		{"rfc3339 offset", "2025-11-10T09:30:00+02:00", time.Date(2025, 11, 10, 7, 30, 0, 0, time.UTC), true},
		{"grading tool utc", "2025-11-10 09:30:00.123456 UTC", time.Date(2025, 11, 10, 9, 30, 0, 123456000, time.UTC), true},
		{"grading tool bare", "2025-11-10 09:30:00", time.Date(2025, 11, 10, 9, 30, 0, 0, time.UTC), true},
		{"minute precision", "2025-11-20T17:00", time.Date(2025, 11, 20, 17, 0, 0, 0, time.UTC), true},
		{"minute precision utc", "2025-11-20T17:00Z", time.Date(2025, 11, 20, 17, 0, 0, 0, time.UTC), true},
		{"minute precision offset", "2025-11-20T17:00+01:00", time.Date(2025, 11, 20, 16, 0, 0, 0, time.UTC), true},
		{"basic offset", "2025-11-20T17:00:00+0100", time.Date(2025, 11, 20, 16, 0, 0, 0, time.UTC), true},
		{"space minute precision", "2025-11-20 17:00", time.Date(2025, 11, 20, 17, 0, 0, 0, time.UTC), true},
		{"date only", "2025-11-10", time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "next tuesday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.raw)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	past := now.Add(-time.Hour).Format(time.RFC3339)
	future := now.Add(time.Hour).Format(time.RFC3339)

	assert.True(t, IsOverdue(AssignmentRecord{Status: StatusReleased, DueDate: past}, now))
	assert.True(t, IsOverdue(AssignmentRecord{Status: StatusDownloaded, DueDate: past}, now))
	assert.False(t, IsOverdue(AssignmentRecord{Status: StatusSubmitted, DueDate: past}, now))
	assert.False(t, IsOverdue(AssignmentRecord{Status: StatusSubmitted, DueDate: "garbage"}, now))
	assert.False(t, IsOverdue(AssignmentRecord{Status: StatusReleased, DueDate: future}, now))
	assert.False(t, IsOverdue(AssignmentRecord{Status: StatusReleased}, now))

	for _, due := range []string{"2025-11-07T17:00", "2025-11-07T17:00Z", "2025-11-07T17:00:00+0100"} {
		assert.True(t, IsOverdue(AssignmentRecord{Status: StatusReleased, DueDate: due}, now), due)
	}
}

func TestIsDueSoon(t *testing.T) {
	t.Parallel()

	at := func(d time.Duration) AssignmentRecord {
		return AssignmentRecord{DueDate: now.Add(d).Format(time.RFC3339)}
	}

	assert.True(t, IsDueSoon(at(time.Hour), now))
	assert.True(t, IsDueSoon(at(7*24*time.Hour), now))
	assert.False(t, IsDueSoon(at(7*24*time.Hour+time.Second), now))
	assert.False(t, IsDueSoon(at(-time.Hour), now))
	assert.False(t, IsDueSoon(AssignmentRecord{}, now))
}

func TestRemainingTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"days and hours", 2*24*time.Hour + 3*time.Hour + 10*time.Minute, "2d 3h"},
		{"days only", 2*24*time.Hour + 10*time.Minute, "2d"},
		{"hours", 5 * time.Hour, "5h"},
		{"minutes and seconds", 12*time.Minute + 5*time.Second, "12m 5s"},
		{"seconds floor", 42*time.Second + 900*time.Millisecond, "42s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AssignmentRecord{DueDate: now.Add(tt.in).Format(time.RFC3339Nano)}
			r, ok := RemainingTime(a, now)
			require.True(t, ok)
			assert.Equal(t, tt.want, r.String())
		})
	}

	_, ok := RemainingTime(AssignmentRecord{DueDate: now.Add(-time.Minute).Format(time.RFC3339)}, now)
	assert.False(t, ok)
	_, ok = RemainingTime(AssignmentRecord{}, now)
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]Status{
		"released":   StatusReleased,
		"Released":   StatusReleased,
		"fetched":    StatusDownloaded,
		"DOWNLOADED": StatusDownloaded,
		" submitted": StatusSubmitted,
	} {
		got, ok := ParseStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseStatus("graded")
	assert.False(t, ok)
	assert.Equal(t, 0, Status("graded").Priority())
	assert.Less(t, StatusReleased.Priority(), StatusDownloaded.Priority())
	assert.Less(t, StatusDownloaded.Priority(), StatusSubmitted.Priority())
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	base := AssignmentRecord{ID: "A1", CourseID: "C1", Status: StatusDownloaded}

	submitted := Advance(base, StatusSubmitted, now)
	assert.Equal(t, StatusSubmitted, submitted.Status)
	assert.Equal(t, "2025-11-08T12:00:00Z", submitted.SubmittedDate)
	assert.Equal(t, StatusDownloaded, base.Status, "input must not change")

	back := Advance(submitted, StatusReleased, now)
	assert.Equal(t, submitted, back)

	same := Advance(base, StatusDownloaded, now)
	assert.Equal(t, base, same)
}
