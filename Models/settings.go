package Models

import (
	"time"

	"gorm.io/gorm"
)

// ClinicSettings is a single-row table (id = 1). The recurrence policy
// fields drive the agenda resolver for the eow/midm/eom tags; the exact
// day arithmetic for those is clinic policy, not fixed semantics.
type ClinicSettings struct {
	gorm.Model
	ClinicName  string `json:"clinic_name"`
	OpeningTime string `json:"opening_time" gorm:"default:'08:00'"`
	ClosingTime string `json:"closing_time" gorm:"default:'17:00'"`

	// Comma-separated weekday names treated as weekend, e.g. "Saturday,Sunday".
	WeekendDays string `json:"weekend_days" gorm:"default:'Saturday,Sunday'"`

	// End-of-week tasks land on this weekday (time.Weekday, 5 = Friday).
	EndOfWeekDay int `json:"end_of_week_day" gorm:"default:5"`
	// Mid-month tasks land on this day of the month.
	MidMonthDay int `json:"mid_month_day" gorm:"default:15"`
}

// GetSettings returns the single settings row, creating it with defaults
// on first use.
func GetSettings(db *gorm.DB) (ClinicSettings, error) {
	var settings ClinicSettings
	err := db.Where("id = ?", 1).FirstOrCreate(&settings, ClinicSettings{
		Model:        gorm.Model{ID: 1},
		OpeningTime:  "08:00",
		ClosingTime:  "17:00",
		WeekendDays:  "Saturday,Sunday",
		EndOfWeekDay: int(time.Friday),
		MidMonthDay:  15,
	}).Error
	return settings, err
}
