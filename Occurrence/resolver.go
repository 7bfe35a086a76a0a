// Package Occurrence projects task definitions onto calendar days. It is
// pure: no database access, no clock reads, callers pass tasks, per-date
// occurrence records and the reference "now" explicitly.
package Occurrence

import (
	"fmt"
	"time"

	"Denta/Models"
)

// Policy holds the clinic-configurable day arithmetic for the eow/midm/eom
// recurrence tags. Their exact semantics are clinic policy, not fixed.
type Policy struct {
	EndOfWeekDay time.Weekday
	MidMonthDay  int
}

func DefaultPolicy() Policy {
	return Policy{EndOfWeekDay: time.Friday, MidMonthDay: 15}
}

// PolicyFromSettings maps the stored clinic settings onto a Policy.
func PolicyFromSettings(s Models.ClinicSettings) Policy {
	p := DefaultPolicy()
	if s.EndOfWeekDay >= 0 && s.EndOfWeekDay <= 6 {
		p.EndOfWeekDay = time.Weekday(s.EndOfWeekDay)
	}
	if s.MidMonthDay >= 1 && s.MidMonthDay <= 31 {
		p.MidMonthDay = s.MidMonthDay
	}
	return p
}

// Entry is one agenda line: either a task definition that falls on the
// queried day, or a synthetic instance of a recurring definition. The Key
// disambiguates instances that share the underlying task ID.
type Entry struct {
	Models.Task
	Key                 string `json:"key"`
	InstanceDate        string `json:"instance_date,omitempty"`
	IsRecurringInstance bool   `json:"is_recurring_instance"`
	IsOverdue           bool   `json:"is_overdue"`
}

// ForDate returns the agenda for target in stable input order. now is the
// real current time used only for the overdue flag. Tasks with unusable
// dates are silently excluded.
func ForDate(tasks []Models.Task, occurrences []Models.TaskOccurrence, target, now time.Time, policy Policy) []Entry {
	occIndex := indexOccurrences(occurrences)
	targetKey := dayKey(target)

	var entries []Entry
	for _, task := range tasks {
		if !task.IsRecurring() {
			if oneOffFallsOn(task, target) {
				entries = append(entries, Entry{
					Task: task,
					Key:  fmt.Sprintf("%d", task.ID),
				})
			}
			continue
		}

		// An explicit custom due date wins over the pattern: the
		// definition behaves as a one-off on that date.
		if task.CustomDueDate != "" {
			due, ok := parseDay(task.CustomDueDate)
			if ok && sameDay(due, target) {
				entries = append(entries, Entry{
					Task: task,
					Key:  fmt.Sprintf("%d", task.ID),
				})
			}
			continue
		}

		if !matchesRecurrence(task, target, policy) {
			continue
		}

		entry := Entry{
			Task:                task,
			Key:                 fmt.Sprintf("%d_%s", task.ID, targetKey),
			InstanceDate:        targetKey,
			IsRecurringInstance: true,
		}

		// Completion for a recurring instance lives on the per-date
		// occurrence record, never on the definition row.
		occ, recorded := occIndex[occKey(task.ID, targetKey)]
		if recorded {
			entry.Status = occ.Status
			entry.CompletedAt = occ.CompletedAt
			entry.CompletedByID = occ.CompletedByID
		} else {
			entry.Status = Models.StatusPending
			entry.CompletedAt = nil
			entry.CompletedByID = nil
		}

		completed := recorded && occ.Status == Models.StatusCompleted
		entry.IsOverdue = beforeDay(target, now) && !completed

		entries = append(entries, entry)
	}
	return entries
}

// ForRange resolves every day in [from, to] inclusive, in day order.
func ForRange(tasks []Models.Task, occurrences []Models.TaskOccurrence, from, to, now time.Time, policy Policy) map[string][]Entry {
	out := make(map[string][]Entry)
	for d := startOfDay(from); !d.After(startOfDay(to)); d = d.AddDate(0, 0, 1) {
		out[dayKey(d)] = ForDate(tasks, occurrences, d, now, policy)
	}
	return out
}

// oneOffFallsOn applies the precedence custom due date > completion date >
// creation date; exactly one governs so a task never shows up twice.
func oneOffFallsOn(task Models.Task, target time.Time) bool {
	if task.CustomDueDate != "" {
		due, ok := parseDay(task.CustomDueDate)
		if !ok {
			return false
		}
		return sameDay(due, target)
	}
	if task.CompletedAt != nil && !task.CompletedAt.IsZero() {
		return sameDay(*task.CompletedAt, target)
	}
	if task.CreatedAt.IsZero() {
		return false
	}
	return sameDay(task.CreatedAt, target)
}

func matchesRecurrence(task Models.Task, target time.Time, policy Policy) bool {
	switch task.Recurrence {
	case Models.RecurrenceDaily:
		return true
	case Models.RecurrenceWeekly:
		if task.CreatedAt.IsZero() {
			return false
		}
		return target.Weekday() == task.CreatedAt.Weekday()
	case Models.RecurrenceMonthly:
		if task.CreatedAt.IsZero() {
			return false
		}
		return target.Day() == clampDay(task.CreatedAt.Day(), target)
	case Models.RecurrenceEOW:
		return target.Weekday() == policy.EndOfWeekDay
	case Models.RecurrenceMidM:
		return target.Day() == clampDay(policy.MidMonthDay, target)
	case Models.RecurrenceEOM:
		return target.Day() == lastDayOfMonth(target)
	}
	// Unknown tag: no occurrences rather than a guess.
	return false
}

func indexOccurrences(occurrences []Models.TaskOccurrence) map[string]Models.TaskOccurrence {
	index := make(map[string]Models.TaskOccurrence, len(occurrences))
	for _, occ := range occurrences {
		index[occKey(occ.TaskID, occ.Date)] = occ
	}
	return index
}

func occKey(taskID uint, date string) string {
	return fmt.Sprintf("%d_%s", taskID, date)
}

func dayKey(t time.Time) string {
	return t.Format(Models.DateLayout)
}

func parseDay(s string) (time.Time, bool) {
	t, err := time.Parse(Models.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// beforeDay compares calendar days, not instants. Each time's own location
// decides its day, so a UTC-parsed target and a local-zone now agree on
// whether "today" has passed.
func beforeDay(a, b time.Time) bool {
	return dayKey(a) < dayKey(b)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// clampDay pulls an anchor day-of-month into the target month, so a
// monthly task anchored on the 31st still fires in February.
func clampDay(day int, target time.Time) int {
	last := lastDayOfMonth(target)
	if day > last {
		return last
	}
	return day
}
