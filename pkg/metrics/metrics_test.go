package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readkeeper/pkg/domain"
)

func closedSession(start time.Time, length time.Duration, pages int) domain.ReadingSession {
	end := start.Add(length)
	return domain.ReadingSession{StartTime: start, EndTime: &end, PagesRead: pages}
}

func TestReadingTimeAggregates(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	sessions := []domain.ReadingSession{
		closedSession(start, 30*time.Minute, 20),
		closedSession(start.Add(time.Hour), 10*time.Minute, 5),
		{StartTime: start.Add(2 * time.Hour)}, // open, excluded from time
	}

	assert.Equal(t, 40*time.Minute, TotalReadingTime(sessions))
	assert.Equal(t, 20*time.Minute, AverageSessionTime(sessions))
	assert.Equal(t, 25, TotalPagesRead(sessions))
}

func TestAveragesAreZeroWithoutSessions(t *testing.T) {
	assert.Equal(t, time.Duration(0), TotalReadingTime(nil))
	assert.Equal(t, time.Duration(0), AverageSessionTime(nil))
	assert.Equal(t, time.Duration(0), AverageSessionTime([]domain.ReadingSession{{StartTime: time.Now()}}))
}

func TestProgressForGoal(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	goal := domain.ReadingGoal{TargetPages: 100, DailyTarget: 10, StartDate: now.AddDate(0, 0, -5)}

	half := ProgressForGoal(domain.Book{Progress: 50}, goal, now)
	assert.Equal(t, 50.0, half.Pages)
	assert.Equal(t, 50.0, half.Percent)
	assert.Equal(t, 25, half.DaysRemaining)

	// Book past 100% never pushes the goal past its target.
	over := ProgressForGoal(domain.Book{Progress: 100}, goal, now)
	assert.Equal(t, 100.0, over.Pages)
	assert.Equal(t, 100.0, over.Percent)
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 7)

	withEnd := domain.ReadingGoal{TargetPages: 10, StartDate: now.AddDate(0, 0, -3), EndDate: &end}
	assert.Equal(t, 7, ProgressForGoal(domain.Book{}, withEnd, now).DaysRemaining)

	past := domain.ReadingGoal{TargetPages: 10, StartDate: now.AddDate(0, 0, -60)}
	assert.Equal(t, 0, ProgressForGoal(domain.Book{}, past, now).DaysRemaining)

	done := domain.ReadingGoal{TargetPages: 10, StartDate: now, Completed: true}
	assert.Equal(t, 0, ProgressForGoal(domain.Book{}, done, now).DaysRemaining)
}

func TestDistributionBuckets(t *testing.T) {
	books := []domain.Book{
		{FileType: domain.FileTypePDF, Progress: 0},
		{FileType: domain.FileTypePDF, Progress: 30},
		{FileType: domain.FileTypeEPUB, Progress: 75},
		{FileType: domain.FileTypeTXT, Progress: 100},
	}
	byType := CountByFileType(books)
	require.Len(t, byType, 3)
	assert.Equal(t, 2, byType[domain.FileTypePDF])

	byRange := CountByProgressRange(books)
	assert.Equal(t, 1, byRange[RangeNotStarted])
	assert.Equal(t, 1, byRange[RangeEarly])
	assert.Equal(t, 1, byRange[RangeAlmostDone])
	assert.Equal(t, 1, byRange[RangeFinished])

	notes := []domain.Note{
		{Type: domain.NoteTypeNote},
		{Type: domain.NoteTypeQuestion},
		{Type: domain.NoteTypeQuestion},
	}
	byNote := CountByNoteType(notes)
	assert.Equal(t, 1, byNote[domain.NoteTypeNote])
	assert.Equal(t, 2, byNote[domain.NoteTypeQuestion])
}
