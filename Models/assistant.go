package Models

import (
	"time"

	"gorm.io/gorm"
)

// Assistant is the clinic-facing profile a task can be assigned to.
// Deleting one unassigns their tasks; tasks are never cascade-deleted.
type Assistant struct {
	gorm.Model
	UserID   *uint  `json:"user_id" gorm:"index"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

type Certification struct {
	gorm.Model
	AssistantID uint   `json:"assistant_id" gorm:"index;not null"`
	Name        string `json:"name"`
	Issuer      string `json:"issuer"`
	IssuedDate  string `json:"issued_date"` // "2006-01-02"
	ExpiryDate  string `json:"expiry_date"` // "2006-01-02", empty = never expires
	Notes       string `json:"notes" gorm:"type:text"`
}

// ExpiringCertifications returns certifications whose expiry date falls
// within the next `days` days, soonest first. Records with no expiry are
// skipped. Shared by the API and the daily cron check.
func ExpiringCertifications(db *gorm.DB, now time.Time, days int) ([]Certification, error) {
	cutoff := now.AddDate(0, 0, days).Format(DateLayout)
	today := now.Format(DateLayout)

	var certs []Certification
	err := db.Where("expiry_date != '' AND expiry_date >= ? AND expiry_date <= ?", today, cutoff).
		Order("expiry_date").
		Find(&certs).Error
	return certs, err
}

type Feedback struct {
	gorm.Model
	AuthorUserID uint   `json:"author_user_id" gorm:"index"`
	AssistantID  *uint  `json:"assistant_id" gorm:"index"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment" gorm:"type:text"`
}

// Shift is one scheduled block for an assistant on a calendar day.
type Shift struct {
	gorm.Model
	AssistantID uint   `json:"assistant_id" gorm:"index;not null"`
	Date        string `json:"date" gorm:"index;not null;type:varchar(10)"`
	StartTime   string `json:"start_time"` // "15:04"
	EndTime     string `json:"end_time"`
	Role        string `json:"role"` // chairside, sterilization, front-desk, ...
	Notes       string `json:"notes"`
}
