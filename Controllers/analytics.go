package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Denta/Models"
)

// AnalyticsController handles dashboard analytics endpoints
type AnalyticsController struct {
	DB *gorm.DB
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(db *gorm.DB) *AnalyticsController {
	return &AnalyticsController{DB: db}
}

// TaskSummary is the headline widget data
type TaskSummary struct {
	TotalTasks      int64   `json:"total_tasks"`
	PendingTasks    int64   `json:"pending_tasks"`
	InProgress      int64   `json:"in_progress_tasks"`
	CompletedTasks  int64   `json:"completed_tasks"`
	UnassignedTasks int64   `json:"unassigned_tasks"`
	CompletionRate  float64 `json:"completion_rate"`
	AssistantCount  int64   `json:"assistant_count"`
}

// Summary returns overall task counts and the completion rate. Recurring
// completions live on occurrence rows, so those count alongside one-off
// completed definitions.
func (c *AnalyticsController) Summary(ctx *fiber.Ctx) error {
	var summary TaskSummary

	c.DB.Model(&Models.Task{}).Count(&summary.TotalTasks)
	c.DB.Model(&Models.Task{}).Where("status = ?", Models.StatusPending).Count(&summary.PendingTasks)
	c.DB.Model(&Models.Task{}).Where("status = ?", Models.StatusInProgress).Count(&summary.InProgress)
	c.DB.Model(&Models.Task{}).Where("status = ?", Models.StatusCompleted).Count(&summary.CompletedTasks)
	c.DB.Model(&Models.Task{}).Where("assigned_to_id IS NULL").Count(&summary.UnassignedTasks)
	c.DB.Model(&Models.Assistant{}).Where("is_active = ?", true).Count(&summary.AssistantCount)

	var totalOccurrences, completedOccurrences int64
	c.DB.Model(&Models.TaskOccurrence{}).Count(&totalOccurrences)
	c.DB.Model(&Models.TaskOccurrence{}).Where("status = ?", Models.StatusCompleted).Count(&completedOccurrences)
	summary.CompletedTasks += completedOccurrences

	// Recorded occurrences join the denominator so the rate stays <= 100%.
	if denominator := summary.TotalTasks + totalOccurrences; denominator > 0 {
		summary.CompletionRate = float64(summary.CompletedTasks) / float64(denominator) * 100
	}

	return ctx.JSON(summary)
}

// WeeklyTrend returns completions bucketed by day for the last 12 weeks.
// Bucketing happens in Go rather than SQL so occurrence rows and one-off
// completions can share one pass.
func (c *AnalyticsController) WeeklyTrend(ctx *fiber.Ctx) error {
	type WeeklyData struct {
		Week      string `json:"week"`
		Completed int    `json:"completed"`
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -12*7)

	var tasks []Models.Task
	if err := c.DB.Where("completed_at IS NOT NULL AND completed_at BETWEEN ? AND ?",
		startDate, endDate).Find(&tasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	var occurrences []Models.TaskOccurrence
	if err := c.DB.Where("status = ? AND completed_at IS NOT NULL AND completed_at BETWEEN ? AND ?",
		Models.StatusCompleted, startDate, endDate).Find(&occurrences).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve occurrences"})
	}

	// Key each completion by the Monday of its week.
	weekKey := func(t time.Time) string {
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset).Format(Models.DateLayout)
	}

	weeklySummary := make(map[string]*WeeklyData)
	for i := 0; i < 12; i++ {
		key := weekKey(endDate.AddDate(0, 0, -i*7))
		weeklySummary[key] = &WeeklyData{Week: key}
	}

	for _, task := range tasks {
		if data, exists := weeklySummary[weekKey(*task.CompletedAt)]; exists {
			data.Completed++
		}
	}
	for _, occ := range occurrences {
		if data, exists := weeklySummary[weekKey(*occ.CompletedAt)]; exists {
			data.Completed++
		}
	}

	var response []WeeklyData
	for i := 11; i >= 0; i-- {
		key := weekKey(endDate.AddDate(0, 0, -i*7))
		if data, exists := weeklySummary[key]; exists {
			response = append(response, *data)
		}
	}

	return ctx.JSON(response)
}

// AssistantLeaderboard returns per-assistant completion counts
func (c *AnalyticsController) AssistantLeaderboard(ctx *fiber.Ctx) error {
	type AssistantStats struct {
		ID        uint   `json:"id"`
		Name      string `json:"name"`
		Assigned  int    `json:"assigned"`
		Completed int    `json:"completed"`
	}

	var results []AssistantStats

	// Recurring completions are occurrence rows, credited to the
	// definition's assignee alongside one-off completions.
	c.DB.Raw(`
		SELECT
			a.id,
			a.name,
			(SELECT COUNT(t.id) FROM tasks t
				WHERE t.assigned_to_id = a.id AND t.deleted_at IS NULL) as assigned,
			(SELECT COUNT(t.id) FROM tasks t
				WHERE t.assigned_to_id = a.id AND t.deleted_at IS NULL
				AND t.status = 'completed')
			+ (SELECT COUNT(o.id) FROM task_occurrences o
				JOIN tasks t ON t.id = o.task_id AND t.deleted_at IS NULL
				WHERE t.assigned_to_id = a.id AND o.deleted_at IS NULL
				AND o.status = 'completed') as completed
		FROM assistants a
		WHERE a.deleted_at IS NULL
		AND a.is_active = 1
		ORDER BY completed DESC
	`).Scan(&results)

	return ctx.JSON(results)
}

// CategoryBreakdown returns task counts per category
func (c *AnalyticsController) CategoryBreakdown(ctx *fiber.Ctx) error {
	type CategoryStats struct {
		Category  string `json:"category"`
		Total     int    `json:"total"`
		Completed int    `json:"completed"`
	}

	var results []CategoryStats

	c.DB.Raw(`
		SELECT
			CASE WHEN category = '' THEN 'uncategorized' ELSE category END as category,
			COUNT(id) as total,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) as completed
		FROM tasks
		WHERE deleted_at IS NULL
		GROUP BY category
		ORDER BY total DESC
	`).Scan(&results)

	return ctx.JSON(results)
}

// RecentActivity returns the most recently completed tasks
func (c *AnalyticsController) RecentActivity(ctx *fiber.Ctx) error {
	type RecentCompletion struct {
		ID          uint      `json:"id"`
		Title       string    `json:"title"`
		Category    string    `json:"category"`
		CompletedAt time.Time `json:"completed_at"`
		CompletedBy string    `json:"completed_by"`
	}

	var results []RecentCompletion

	c.DB.Raw(`
		SELECT
			t.id,
			t.title,
			t.category,
			t.completed_at,
			COALESCE(u.name, 'Unknown') as completed_by
		FROM tasks t
		LEFT JOIN users u ON t.completed_by_id = u.id
		WHERE t.deleted_at IS NULL
		AND t.completed_at IS NOT NULL
		ORDER BY t.completed_at DESC
		LIMIT 10
	`).Scan(&results)

	return ctx.JSON(results)
}
