// Package metrics computes derived statistics over reading store
// snapshots. Every function is pure; nothing here mutates state.
package metrics

import (
	"time"

	"readkeeper/pkg/domain"
)

const defaultGoalWindow = 30 * 24 * time.Hour

// TotalReadingTime sums the length of every closed session.
func TotalReadingTime(sessions []domain.ReadingSession) time.Duration {
	var total time.Duration
	for _, s := range sessions {
		total += s.Duration()
	}
	return total
}

// AverageSessionTime is total reading time divided by closed session
// count, zero when there are none.
func AverageSessionTime(sessions []domain.ReadingSession) time.Duration {
	closed := 0
	for _, s := range sessions {
		if !s.Open() {
			closed++
		}
	}
	if closed == 0 {
		return 0
	}
	return TotalReadingTime(sessions) / time.Duration(closed)
}

// TotalPagesRead sums the page accumulator across all sessions.
func TotalPagesRead(sessions []domain.ReadingSession) int {
	total := 0
	for _, s := range sessions {
		total += s.PagesRead
	}
	return total
}

// GoalProgress holds a goal's derived pacing numbers.
type GoalProgress struct {
	Pages         float64 `json:"pages"`
	Percent       float64 `json:"percent"`
	DaysRemaining int     `json:"daysRemaining"`
}

// ProgressForGoal derives a goal's progress from its book. Pages are
// capped at the target, so percent never exceeds 100.
func ProgressForGoal(book domain.Book, goal domain.ReadingGoal, now time.Time) GoalProgress {
	pages := book.Progress / 100 * float64(goal.TargetPages)
	if pages > float64(goal.TargetPages) {
		pages = float64(goal.TargetPages)
	}
	percent := 0.0
	if goal.TargetPages > 0 {
		percent = pages / float64(goal.TargetPages) * 100
	}
	return GoalProgress{
		Pages:         pages,
		Percent:       percent,
		DaysRemaining: daysRemaining(goal, now),
	}
}

func daysRemaining(goal domain.ReadingGoal, now time.Time) int {
	if goal.Completed {
		return 0
	}
	deadline := goal.StartDate.Add(defaultGoalWindow)
	if goal.EndDate != nil {
		deadline = *goal.EndDate
	}
	days := int(deadline.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CountByFileType buckets books by format.
func CountByFileType(books []domain.Book) map[domain.FileType]int {
	out := make(map[domain.FileType]int)
	for _, b := range books {
		out[b.FileType]++
	}
	return out
}

// CountByNoteType buckets notes by kind.
func CountByNoteType(notes []domain.Note) map[domain.NoteType]int {
	out := make(map[domain.NoteType]int)
	for _, n := range notes {
		out[n.Type]++
	}
	return out
}

// ProgressRange is a coarse completion bucket.
type ProgressRange string

const (
	RangeNotStarted ProgressRange = "0-25"
	RangeEarly      ProgressRange = "25-50"
	RangeMidway     ProgressRange = "50-75"
	RangeAlmostDone ProgressRange = "75-100"
	RangeFinished   ProgressRange = "100"
)

// CountByProgressRange buckets books by how far along they are.
func CountByProgressRange(books []domain.Book) map[ProgressRange]int {
	out := make(map[ProgressRange]int)
	for _, b := range books {
		out[bucketProgress(b.Progress)]++
	}
	return out
}

func bucketProgress(p float64) ProgressRange {
	switch {
	case p >= 100:
		return RangeFinished
	case p >= 75:
		return RangeAlmostDone
	case p >= 50:
		return RangeMidway
	case p >= 25:
		return RangeEarly
	default:
		return RangeNotStarted
	}
}
