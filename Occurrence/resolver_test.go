package Occurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"Denta/Models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func taskWith(id uint, createdAt time.Time) Models.Task {
	return Models.Task{
		Model:  gorm.Model{ID: id, CreatedAt: createdAt},
		Title:  "sterilize instruments",
		Status: Models.StatusPending,
	}
}

func TestForDate_Deterministic(t *testing.T) {
	tasks := []Models.Task{
		taskWith(1, day(2025, time.March, 3)),
		func() Models.Task {
			task := taskWith(2, day(2025, time.March, 1))
			task.Recurrence = Models.RecurrenceDaily
			return task
		}(),
	}
	target := day(2025, time.March, 3)
	now := day(2025, time.March, 10)

	first := ForDate(tasks, nil, target, now, DefaultPolicy())
	second := ForDate(tasks, nil, target, now, DefaultPolicy())

	assert.Equal(t, first, second)
}

func TestForDate_NonRecurringOnCreationDay(t *testing.T) {
	created := day(2025, time.January, 7)
	tasks := []Models.Task{taskWith(1, created)}
	now := day(2025, time.January, 7)

	onDay := ForDate(tasks, nil, created, now, DefaultPolicy())
	assert.Len(t, onDay, 1)
	assert.False(t, onDay[0].IsRecurringInstance)
	assert.Equal(t, "1", onDay[0].Key)

	offDay := ForDate(tasks, nil, day(2025, time.January, 8), now, DefaultPolicy())
	assert.Empty(t, offDay)
}

func TestForDate_CustomDueDatePrecedence(t *testing.T) {
	task := taskWith(1, day(2025, time.January, 1))
	task.CustomDueDate = "2025-01-20"
	tasks := []Models.Task{task}
	now := day(2025, time.January, 1)

	assert.Empty(t, ForDate(tasks, nil, day(2025, time.January, 1), now, DefaultPolicy()),
		"creation date must not govern once a custom due date is set")
	assert.Len(t, ForDate(tasks, nil, day(2025, time.January, 20), now, DefaultPolicy()), 1)
}

func TestForDate_CompletionDateInclusion(t *testing.T) {
	task := taskWith(1, day(2025, time.January, 1))
	completed := day(2025, time.January, 5)
	task.CompletedAt = &completed
	task.Status = Models.StatusCompleted
	tasks := []Models.Task{task}
	now := day(2025, time.January, 6)

	assert.Len(t, ForDate(tasks, nil, day(2025, time.January, 5), now, DefaultPolicy()), 1,
		"completed tasks belong to the day they were completed")
	assert.Empty(t, ForDate(tasks, nil, day(2025, time.January, 1), now, DefaultPolicy()),
		"completion date supersedes creation date, no duplicate entries")
}

func TestForDate_DailyCoversEveryDay(t *testing.T) {
	task := taskWith(1, day(2025, time.February, 1))
	task.Recurrence = Models.RecurrenceDaily
	tasks := []Models.Task{task}
	now := day(2025, time.March, 15)

	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		target := day(2025, time.February, 1).AddDate(0, 0, i)
		entries := ForDate(tasks, nil, target, now, DefaultPolicy())
		assert.Len(t, entries, 1)
		assert.True(t, entries[0].IsRecurringInstance)
		assert.Equal(t, target.Format(Models.DateLayout), entries[0].InstanceDate)
		assert.False(t, seen[entries[0].Key], "instance keys must be distinct per day")
		seen[entries[0].Key] = true
	}
	assert.Len(t, seen, 30)
}

func TestForDate_WeeklyMatchesAnchorWeekday(t *testing.T) {
	// 2025-03-03 is a Monday.
	task := taskWith(1, day(2025, time.March, 3))
	task.Recurrence = Models.RecurrenceWeekly
	tasks := []Models.Task{task}
	now := day(2025, time.March, 3)

	assert.Len(t, ForDate(tasks, nil, day(2025, time.March, 10), now, DefaultPolicy()), 1)
	assert.Len(t, ForDate(tasks, nil, day(2025, time.March, 17), now, DefaultPolicy()), 1)
	assert.Empty(t, ForDate(tasks, nil, day(2025, time.March, 11), now, DefaultPolicy()))
}

func TestForDate_MonthlyClampsToShortMonths(t *testing.T) {
	task := taskWith(1, day(2025, time.January, 31))
	task.Recurrence = Models.RecurrenceMonthly
	tasks := []Models.Task{task}
	now := day(2025, time.January, 31)

	assert.Len(t, ForDate(tasks, nil, day(2025, time.February, 28), now, DefaultPolicy()), 1,
		"31st anchor fires on the last day of February")
	assert.Empty(t, ForDate(tasks, nil, day(2025, time.February, 27), now, DefaultPolicy()))
	assert.Len(t, ForDate(tasks, nil, day(2025, time.March, 31), now, DefaultPolicy()), 1)
}

func TestForDate_PolicyTags(t *testing.T) {
	now := day(2025, time.June, 1)
	policy := Policy{EndOfWeekDay: time.Friday, MidMonthDay: 15}

	eow := taskWith(1, day(2025, time.June, 1))
	eow.Recurrence = Models.RecurrenceEOW
	midm := taskWith(2, day(2025, time.June, 1))
	midm.Recurrence = Models.RecurrenceMidM
	eom := taskWith(3, day(2025, time.June, 1))
	eom.Recurrence = Models.RecurrenceEOM
	tasks := []Models.Task{eow, midm, eom}

	// 2025-06-06 is a Friday.
	friday := ForDate(tasks, nil, day(2025, time.June, 6), now, policy)
	assert.Len(t, friday, 1)
	assert.Equal(t, uint(1), friday[0].ID)

	fifteenth := ForDate(tasks, nil, day(2025, time.June, 15), now, policy)
	assert.Len(t, fifteenth, 1)
	assert.Equal(t, uint(2), fifteenth[0].ID)

	thirtieth := ForDate(tasks, nil, day(2025, time.June, 30), now, policy)
	assert.Len(t, thirtieth, 1)
	assert.Equal(t, uint(3), thirtieth[0].ID)

	// A different clinic policy moves the same tags.
	monday := ForDate(tasks, nil, day(2025, time.June, 2), now, Policy{EndOfWeekDay: time.Monday, MidMonthDay: 15})
	assert.Len(t, monday, 1)
	assert.Equal(t, uint(1), monday[0].ID)
}

func TestForDate_OverdueFlag(t *testing.T) {
	task := taskWith(1, day(2025, time.April, 1))
	task.Recurrence = Models.RecurrenceDaily
	tasks := []Models.Task{task}
	now := day(2025, time.April, 10)

	past := ForDate(tasks, nil, day(2025, time.April, 8), now, DefaultPolicy())
	assert.True(t, past[0].IsOverdue)

	today := ForDate(tasks, nil, day(2025, time.April, 10), now, DefaultPolicy())
	assert.False(t, today[0].IsOverdue)

	future := ForDate(tasks, nil, day(2025, time.April, 12), now, DefaultPolicy())
	assert.False(t, future[0].IsOverdue)
}

func TestForDate_OverdueComparesCalendarDaysAcrossZones(t *testing.T) {
	task := taskWith(1, day(2025, time.April, 1))
	task.Recurrence = Models.RecurrenceDaily
	tasks := []Models.Task{task}

	// Query-parsed targets are UTC midnight, the server clock is not.
	// UTC midnight of "today" precedes local midnight west of UTC, but
	// the same calendar day must never read as overdue.
	denver := time.FixedZone("MDT", -6*60*60)
	now := time.Date(2025, time.April, 10, 9, 30, 0, 0, denver)

	today := ForDate(tasks, nil, day(2025, time.April, 10), now, DefaultPolicy())
	assert.False(t, today[0].IsOverdue, "querying today must never set the overdue flag")

	yesterday := ForDate(tasks, nil, day(2025, time.April, 9), now, DefaultPolicy())
	assert.True(t, yesterday[0].IsOverdue)

	// East of UTC the local day can be ahead of the UTC day.
	tokyo := time.FixedZone("JST", 9*60*60)
	nowTokyo := time.Date(2025, time.April, 10, 1, 0, 0, 0, tokyo)
	sameDayTokyo := ForDate(tasks, nil, day(2025, time.April, 10), nowTokyo, DefaultPolicy())
	assert.False(t, sameDayTokyo[0].IsOverdue)
}

func TestForDate_OccurrenceRecordClearsOverdue(t *testing.T) {
	task := taskWith(1, day(2025, time.April, 1))
	task.Recurrence = Models.RecurrenceDaily
	tasks := []Models.Task{task}
	now := day(2025, time.April, 10)
	completedAt := day(2025, time.April, 8)

	occurrences := []Models.TaskOccurrence{{
		TaskID:      1,
		Date:        "2025-04-08",
		Status:      Models.StatusCompleted,
		CompletedAt: &completedAt,
	}}

	done := ForDate(tasks, occurrences, day(2025, time.April, 8), now, DefaultPolicy())
	assert.False(t, done[0].IsOverdue)
	assert.Equal(t, Models.StatusCompleted, done[0].Status)

	// The same definition is still pending, and overdue, the day after.
	pending := ForDate(tasks, occurrences, day(2025, time.April, 9), now, DefaultPolicy())
	assert.True(t, pending[0].IsOverdue)
	assert.Equal(t, Models.StatusPending, pending[0].Status)
}

func TestForDate_MalformedDatesExcluded(t *testing.T) {
	bad := taskWith(1, time.Time{})
	noDue := taskWith(2, day(2025, time.May, 1))
	noDue.CustomDueDate = "not-a-date"
	weeklyNoAnchor := Models.Task{Model: gorm.Model{ID: 3}, Recurrence: Models.RecurrenceWeekly}
	tasks := []Models.Task{bad, noDue, weeklyNoAnchor}
	now := day(2025, time.May, 1)

	for i := 0; i < 60; i++ {
		target := day(2025, time.April, 1).AddDate(0, 0, i)
		assert.NotPanics(t, func() {
			assert.Empty(t, ForDate(tasks, nil, target, now, DefaultPolicy()))
		})
	}
}

func TestForDate_UnknownRecurrenceTagExcluded(t *testing.T) {
	task := taskWith(1, day(2025, time.May, 1))
	task.Recurrence = "every-full-moon"
	now := day(2025, time.May, 1)

	assert.Empty(t, ForDate([]Models.Task{task}, nil, day(2025, time.May, 1), now, DefaultPolicy()))
}

func TestForDate_CustomDueDateOverridesRecurrence(t *testing.T) {
	task := taskWith(1, day(2025, time.May, 1))
	task.Recurrence = Models.RecurrenceDaily
	task.CustomDueDate = "2025-05-20"
	tasks := []Models.Task{task}
	now := day(2025, time.May, 1)

	assert.Empty(t, ForDate(tasks, nil, day(2025, time.May, 2), now, DefaultPolicy()),
		"pattern is ignored once a custom date is set")
	entries := ForDate(tasks, nil, day(2025, time.May, 20), now, DefaultPolicy())
	assert.Len(t, entries, 1)
	assert.False(t, entries[0].IsRecurringInstance)
}

func TestForDate_StableInputOrder(t *testing.T) {
	now := day(2025, time.May, 5)
	a := taskWith(7, day(2025, time.May, 5))
	b := taskWith(3, day(2025, time.May, 1))
	b.Recurrence = Models.RecurrenceDaily
	c := taskWith(9, day(2025, time.May, 5))

	entries := ForDate([]Models.Task{a, b, c}, nil, day(2025, time.May, 5), now, DefaultPolicy())
	assert.Len(t, entries, 3)
	assert.Equal(t, uint(7), entries[0].ID)
	assert.Equal(t, uint(3), entries[1].ID)
	assert.Equal(t, uint(9), entries[2].ID)
}

func TestForDate_DoesNotMutateInputs(t *testing.T) {
	task := taskWith(1, day(2025, time.May, 1))
	task.Recurrence = Models.RecurrenceDaily
	task.Status = Models.StatusInProgress
	tasks := []Models.Task{task}
	now := day(2025, time.May, 10)

	entries := ForDate(tasks, nil, day(2025, time.May, 4), now, DefaultPolicy())
	assert.Equal(t, Models.StatusPending, entries[0].Status)
	assert.Equal(t, Models.StatusInProgress, tasks[0].Status, "definition row untouched")
}

func TestForRange_CoversEveryDayInclusive(t *testing.T) {
	task := taskWith(1, day(2025, time.June, 1))
	task.Recurrence = Models.RecurrenceDaily
	now := day(2025, time.June, 30)

	agenda := ForRange([]Models.Task{task}, nil, day(2025, time.June, 1), day(2025, time.June, 7), now, DefaultPolicy())
	assert.Len(t, agenda, 7)
	for key, entries := range agenda {
		assert.Len(t, entries, 1, "day %s", key)
	}
}

func TestPolicyFromSettings(t *testing.T) {
	policy := PolicyFromSettings(Models.ClinicSettings{EndOfWeekDay: int(time.Thursday), MidMonthDay: 14})
	assert.Equal(t, time.Thursday, policy.EndOfWeekDay)
	assert.Equal(t, 14, policy.MidMonthDay)

	fallback := PolicyFromSettings(Models.ClinicSettings{EndOfWeekDay: 99, MidMonthDay: 0})
	assert.Equal(t, DefaultPolicy(), fallback)
}
