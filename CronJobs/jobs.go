package CronJobs

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"Denta/Models"
	"Denta/Notifications"
	"Denta/Occurrence"
	"Denta/email"
)

// DailyJobs runs the morning agenda digest and the certification expiry
// check on a schedule.
type DailyJobs struct {
	cronScheduler  *cron.Cron
	runImmediately bool
	digestJobID    cron.EntryID
	certJobID      cron.EntryID
}

// NewDailyJobs creates the scheduler with the given configuration
func NewDailyJobs(runImmediately bool) *DailyJobs {
	return &DailyJobs{
		cronScheduler:  cron.New(cron.WithSeconds()),
		runImmediately: runImmediately,
	}
}

// Start registers and starts the scheduled jobs
func (d *DailyJobs) Start() error {
	var err error

	// Agenda digest every morning at 6:00.
	d.digestJobID, err = d.cronScheduler.AddFunc("0 0 6 * * *", func() {
		log.Println("Running scheduled daily agenda digest")
		d.runDailyDigest()
	})
	if err != nil {
		return fmt.Errorf("error scheduling digest job: %w", err)
	}

	// Certification expiry check at 7:00.
	d.certJobID, err = d.cronScheduler.AddFunc("0 0 7 * * *", func() {
		log.Println("Running scheduled certification expiry check")
		d.runCertificationCheck()
	})
	if err != nil {
		return fmt.Errorf("error scheduling certification job: %w", err)
	}

	d.cronScheduler.Start()
	log.Println("Daily job scheduler started - digest at 6:00, certification check at 7:00")

	if d.runImmediately {
		log.Println("Running initial digest and certification check")
		d.runDailyDigest()
		d.runCertificationCheck()
	}

	return nil
}

// Stop terminates the scheduler
func (d *DailyJobs) Stop() {
	if d.cronScheduler != nil {
		d.cronScheduler.Stop()
		log.Println("Daily job scheduler stopped")
	}
}

// UpdateDigestSchedule changes when the digest runs.
// Format: "0 0 6 * * *" = At 06:00:00 AM every day
func (d *DailyJobs) UpdateDigestSchedule(schedule string) error {
	d.cronScheduler.Remove(d.digestJobID)

	var err error
	d.digestJobID, err = d.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled daily agenda digest")
		d.runDailyDigest()
	})
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	log.Printf("Digest schedule updated to: %s\n", schedule)
	return nil
}

// runDailyDigest resolves today's agenda and emails it per assistant.
// Overdue recurring instances from yesterday get a push notification.
func (d *DailyJobs) runDailyDigest() {
	now := time.Now()

	var tasks []Models.Task
	if err := Models.DB.Order("id").Find(&tasks).Error; err != nil {
		log.Printf("Error loading tasks for digest: %v", err)
		return
	}

	var occurrences []Models.TaskOccurrence
	yesterday := now.AddDate(0, 0, -1)
	if err := Models.DB.Where("date IN ?", []string{
		now.Format(Models.DateLayout),
		yesterday.Format(Models.DateLayout),
	}).Find(&occurrences).Error; err != nil {
		log.Printf("Error loading occurrences for digest: %v", err)
		return
	}

	settings, err := Models.GetSettings(Models.DB)
	if err != nil {
		log.Printf("Error loading settings for digest: %v", err)
		return
	}
	policy := Occurrence.PolicyFromSettings(settings)

	todayEntries := Occurrence.ForDate(tasks, occurrences, now, now, policy)
	overdueEntries := Occurrence.ForDate(tasks, occurrences, yesterday, now, policy)

	var assistants []Models.Assistant
	if err := Models.DB.Where("is_active = ?", true).Find(&assistants).Error; err != nil {
		log.Printf("Error loading assistants for digest: %v", err)
		return
	}

	config, mailEnabled := email.ConfigFromEnv()

	for _, assistant := range assistants {
		body := buildDigestBody(assistant, todayEntries, now)
		if mailEnabled && assistant.Email != "" {
			message := Models.EmailMessage{
				To:      []string{assistant.Email},
				Subject: fmt.Sprintf("Your clinic tasks for %s", now.Format("Jan 2")),
				Body:    body,
			}
			if err := email.SendEmail(config, message); err != nil {
				log.Printf("Error emailing digest to %s: %v", assistant.Email, err)
			}
		}
	}

	for _, entry := range overdueEntries {
		if entry.IsOverdue && entry.AssignedToID != nil {
			Notifications.NotifyAssistant(*entry.AssignedToID,
				"Overdue task", fmt.Sprintf("%s was not completed yesterday", entry.Title))
		}
	}

	log.Printf("Daily digest complete: %d tasks today, %d assistants", len(todayEntries), len(assistants))
}

// buildDigestBody renders one assistant's agenda as plain text. Unclaimed
// tasks are listed for everyone so someone picks them up.
func buildDigestBody(assistant Models.Assistant, entries []Occurrence.Entry, now time.Time) string {
	var mine, unclaimed []Occurrence.Entry
	for _, entry := range entries {
		switch {
		case entry.AssignedToID != nil && *entry.AssignedToID == assistant.ID:
			mine = append(mine, entry)
		case entry.AssignedToID == nil:
			unclaimed = append(unclaimed, entry)
		}
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Good morning %s,\r\n\r\n", assistant.Name))
	builder.WriteString(fmt.Sprintf("Tasks for %s:\r\n\r\n", now.Format("Monday, Jan 2")))

	builder.WriteString("Assigned to you:\r\n")
	if len(mine) == 0 {
		builder.WriteString("  (none)\r\n")
	}
	for _, entry := range mine {
		builder.WriteString(formatDigestLine(entry))
	}

	builder.WriteString("\r\nUnclaimed:\r\n")
	if len(unclaimed) == 0 {
		builder.WriteString("  (none)\r\n")
	}
	for _, entry := range unclaimed {
		builder.WriteString(formatDigestLine(entry))
	}

	return builder.String()
}

func formatDigestLine(entry Occurrence.Entry) string {
	line := fmt.Sprintf("  - [%s] %s", entry.Priority, entry.Title)
	if entry.DueType != "" {
		line += fmt.Sprintf(" (%s)", entry.DueType)
	}
	return line + "\r\n"
}

// runCertificationCheck emails admins about certifications expiring in
// the next 30 days.
func (d *DailyJobs) runCertificationCheck() {
	certs, err := Models.ExpiringCertifications(Models.DB, time.Now(), 30)
	if err != nil {
		log.Printf("Error in certification check: %v", err)
		return
	}
	if len(certs) == 0 {
		log.Println("No certifications expiring soon")
		return
	}

	var admins []Models.User
	if err := Models.DB.Where("permission >= ? AND is_active = ?", Models.PermissionAdmin, true).
		Find(&admins).Error; err != nil {
		log.Printf("Error loading admins for certification check: %v", err)
		return
	}

	assistantNames := make(map[uint]string)
	var assistants []Models.Assistant
	Models.DB.Find(&assistants)
	for _, a := range assistants {
		assistantNames[a.ID] = a.Name
	}

	var builder strings.Builder
	builder.WriteString("The following certifications expire within 30 days:\r\n\r\n")
	for _, cert := range certs {
		name := assistantNames[cert.AssistantID]
		if name == "" {
			name = "Unknown"
		}
		builder.WriteString(fmt.Sprintf("  - %s: %s (expires %s)\r\n", name, cert.Name, cert.ExpiryDate))
	}

	config, mailEnabled := email.ConfigFromEnv()
	if !mailEnabled {
		log.Printf("SMTP not configured, %d expiring certifications not emailed", len(certs))
		return
	}

	for _, admin := range admins {
		message := Models.EmailMessage{
			To:      []string{admin.Email},
			Subject: "Certifications expiring soon",
			Body:    builder.String(),
		}
		if err := email.SendEmail(config, message); err != nil {
			log.Printf("Error emailing certification alert to %s: %v", admin.Email, err)
		}
	}

	log.Printf("Certification check complete: %d expiring, %d admins notified", len(certs), len(admins))
}
