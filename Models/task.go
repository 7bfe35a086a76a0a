package Models

import (
	"time"

	"gorm.io/gorm"
)

// Task status values. Older mobile builds still send "To Do"/"Done",
// NormalizeStatus maps those onto the canonical set.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Recurrence tags. The set is open ended on the wire; anything the
// resolver does not recognize simply never produces an occurrence.
const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceEOW     = "eow"  // end of week
	RecurrenceMidM    = "midm" // mid month
	RecurrenceEOM     = "eom"  // end of month
)

// DateLayout is the day-granularity format used for custom due dates,
// occurrence keys and shift dates.
const DateLayout = "2006-01-02"

type Task struct {
	gorm.Model
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority" gorm:"default:'medium'"`
	Status      string `json:"status" gorm:"default:'pending'"`

	// DueType is an opaque tag ("today", "eod", "before_opening", ...).
	// Free text in practice, rendered by the frontend as-is.
	DueType  string `json:"due_type"`
	Category string `json:"category"`

	AssignedToID *uint      `json:"assigned_to_id" gorm:"index"`
	Recurrence   string     `json:"recurrence"`
	// CustomDueDate overrides recurrence and creation date when set.
	// Stored as "2006-01-02"; unparseable values exclude the task from
	// every agenda rather than erroring.
	CustomDueDate string     `json:"custom_due_date"`
	CompletedAt   *time.Time `json:"completed_at"`
	CompletedByID *uint      `json:"completed_by_id"`

	Checklist []ChecklistItem `json:"checklist" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// ChecklistItem is an independently toggled sub-item. Task completion is
// tracked separately and never derived from the checklist.
type ChecklistItem struct {
	gorm.Model
	TaskID    uint   `json:"task_id" gorm:"index;not null"`
	Text      string `json:"text"`
	Completed bool   `json:"completed" gorm:"default:false"`
	Position  int    `json:"position"`
}

// TaskOccurrence carries per-date completion state for a recurring
// definition. A single Task row cannot express "done Monday, pending
// Tuesday"; the resolver joins these rows on (task_id, date).
type TaskOccurrence struct {
	gorm.Model
	TaskID        uint       `json:"task_id" gorm:"index:idx_task_date,unique;not null"`
	Date          string     `json:"date" gorm:"index:idx_task_date,unique;not null;type:varchar(10)"`
	Status        string     `json:"status" gorm:"default:'pending'"`
	CompletedByID *uint      `json:"completed_by_id"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// IsRecurring reports whether the task is a recurring definition rather
// than a one-off.
func (t *Task) IsRecurring() bool {
	return t.Recurrence != "" && t.Recurrence != RecurrenceNone
}

// NormalizeStatus maps legacy status strings onto the canonical set.
func NormalizeStatus(s string) string {
	switch s {
	case "To Do", "todo", "open":
		return StatusPending
	case "Done", "done":
		return StatusCompleted
	case StatusPending, StatusInProgress, StatusCompleted:
		return s
	case "":
		return StatusPending
	}
	return s
}
