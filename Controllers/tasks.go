package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Denta/Models"
	"Denta/Notifications"
	"Denta/Occurrence"
)

// TaskController handles task-related API endpoints
type TaskController struct {
	DB *gorm.DB
}

// NewTaskController creates a new TaskController
func NewTaskController(db *gorm.DB) *TaskController {
	return &TaskController{DB: db}
}

type CreateTaskRequest struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueType       string   `json:"due_type"`
	Category      string   `json:"category"`
	AssignedToID  *uint    `json:"assigned_to_id"`
	Recurrence    string   `json:"recurrence"`
	CustomDueDate string   `json:"custom_due_date"`
	Checklist     []string `json:"checklist"`
}

// UpdateTaskRequest mirrors CreateTaskRequest for partial updates.
// CustomDueDate is a pointer so an explicit "" clears the pin while an
// absent field leaves it alone.
type UpdateTaskRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Priority      string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueType       string  `json:"due_type"`
	Category      string  `json:"category"`
	Recurrence    string  `json:"recurrence"`
	CustomDueDate *string `json:"custom_due_date"`
}

// GetTasks retrieves tasks with optional filters
func (tc *TaskController) GetTasks(ctx *fiber.Ctx) error {
	query := tc.DB.Model(&Models.Task{}).Preload("Checklist")

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", Models.NormalizeStatus(status))
	}
	if category := ctx.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if assignedTo := ctx.Query("assigned_to"); assignedTo != "" {
		if assignedTo == "unassigned" {
			query = query.Where("assigned_to_id IS NULL")
		} else if id, err := strconv.Atoi(assignedTo); err == nil {
			query = query.Where("assigned_to_id = ?", id)
		}
	}

	var tasks []Models.Task
	if err := query.Order("id").Find(&tasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}
	return ctx.JSON(tasks)
}

// GetTask retrieves a single task by ID
func (tc *TaskController) GetTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.Preload("Checklist").First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}
	return ctx.JSON(task)
}

// CreateTask creates a new task, optionally with checklist items
func (tc *TaskController) CreateTask(ctx *fiber.Ctx) error {
	var input CreateTaskRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	priority := input.Priority
	if priority == "" {
		priority = Models.PriorityMedium
	}

	task := Models.Task{
		Title:         input.Title,
		Description:   input.Description,
		Priority:      priority,
		Status:        Models.StatusPending,
		DueType:       input.DueType,
		Category:      input.Category,
		AssignedToID:  input.AssignedToID,
		Recurrence:    input.Recurrence,
		CustomDueDate: input.CustomDueDate,
	}
	for i, text := range input.Checklist {
		task.Checklist = append(task.Checklist, Models.ChecklistItem{Text: text, Position: i})
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}

	if task.AssignedToID != nil {
		Notifications.NotifyTaskAssigned(task)
	}

	return ctx.Status(fiber.StatusCreated).JSON(task)
}

// UpdateTask updates an existing task's definition fields
func (tc *TaskController) UpdateTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	var input UpdateTaskRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if input.Priority != "" {
		updates["priority"] = input.Priority
	}
	if input.DueType != "" {
		updates["due_type"] = input.DueType
	}
	if input.Category != "" {
		updates["category"] = input.Category
	}
	if input.Recurrence != "" {
		updates["recurrence"] = input.Recurrence
	}
	// A pointer distinguishes "field absent" from an explicit empty
	// string, which unpins a recurring task from its custom date.
	if input.CustomDueDate != nil {
		if *input.CustomDueDate != "" {
			if _, err := time.Parse(Models.DateLayout, *input.CustomDueDate); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
			}
		}
		updates["custom_due_date"] = *input.CustomDueDate
	}

	if err := tc.DB.Model(&task).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update task"})
	}
	return ctx.JSON(task)
}

// DeleteTask removes a task and its checklist/occurrence children
func (tc *TaskController) DeleteTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	tc.DB.Where("task_id = ?", task.ID).Delete(&Models.ChecklistItem{})
	tc.DB.Where("task_id = ?", task.ID).Delete(&Models.TaskOccurrence{})
	tc.DB.Delete(&task)

	return ctx.JSON(fiber.Map{"message": "Task deleted successfully"})
}

// GetAgenda resolves the task list for one calendar day. ?date=2006-01-02,
// defaults to today.
func (tc *TaskController) GetAgenda(ctx *fiber.Ctx) error {
	now := time.Now()
	target := now
	if dateStr := ctx.Query("date"); dateStr != "" {
		parsed, err := time.Parse(Models.DateLayout, dateStr)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
		}
		target = parsed
	}

	var tasks []Models.Task
	if err := tc.DB.Preload("Checklist").Order("id").Find(&tasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	var occurrences []Models.TaskOccurrence
	if err := tc.DB.Where("date = ?", target.Format(Models.DateLayout)).Find(&occurrences).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve occurrences"})
	}

	settings, err := Models.GetSettings(tc.DB)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load clinic settings"})
	}

	entries := Occurrence.ForDate(tasks, occurrences, target, now, Occurrence.PolicyFromSettings(settings))
	if entries == nil {
		entries = []Occurrence.Entry{}
	}

	return ctx.JSON(fiber.Map{
		"date":  target.Format(Models.DateLayout),
		"tasks": entries,
	})
}

// ClaimTask assigns an unclaimed task to the calling assistant. Claiming
// an already-assigned task is a 409, never a silent overwrite.
func (tc *TaskController) ClaimTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	assistant, err := tc.assistantForCaller(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No assistant profile for this account"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	// Guarded update so two racing claims cannot both win.
	result := tc.DB.Model(&Models.Task{}).
		Where("id = ? AND assigned_to_id IS NULL", task.ID).
		Update("assigned_to_id", assistant.ID)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to claim task"})
	}
	if result.RowsAffected == 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is already assigned"})
	}

	tc.DB.First(&task, id)
	return ctx.JSON(task)
}

// StartTask moves a pending task the caller holds to in_progress
func (tc *TaskController) StartTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	if !tc.callerHoldsTask(ctx, task) {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the current assignee may start this task"})
	}
	if task.Status != Models.StatusPending {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is not pending"})
	}

	if err := tc.DB.Model(&task).Update("status", Models.StatusInProgress).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start task"})
	}
	return ctx.JSON(task)
}

// CompleteTask marks a task done. For recurring definitions a "date" body
// field selects the occurrence; the definition row stays untouched so the
// same task can be done Monday and pending Tuesday.
func (tc *TaskController) CompleteTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	user, _ := ctx.Locals("user").(Models.User)
	if !tc.callerHoldsTask(ctx, task) && user.Permission < Models.PermissionAdmin {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the assignee or an admin may complete this task"})
	}

	now := time.Now()
	userID := user.ID

	if task.IsRecurring() {
		var body struct {
			Date string `json:"date"`
		}
		_ = ctx.BodyParser(&body)
		date := body.Date
		if date == "" {
			date = now.Format(Models.DateLayout)
		} else if _, err := time.Parse(Models.DateLayout, date); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
		}

		var occ Models.TaskOccurrence
		err := tc.DB.Where("task_id = ? AND date = ?", task.ID, date).
			FirstOrCreate(&occ, Models.TaskOccurrence{TaskID: task.ID, Date: date}).Error
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record occurrence"})
		}

		occ.Status = Models.StatusCompleted
		occ.CompletedByID = &userID
		occ.CompletedAt = &now
		if err := tc.DB.Save(&occ).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record occurrence"})
		}
		return ctx.JSON(occ)
	}

	// completed_at and completed_by always move together.
	updates := map[string]interface{}{
		"status":          Models.StatusCompleted,
		"completed_by_id": userID,
		"completed_at":    now,
	}
	if err := tc.DB.Model(&task).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete task"})
	}

	tc.DB.First(&task, id)
	return ctx.JSON(task)
}

// ReopenTask clears the completion pair and returns the task to pending
func (tc *TaskController) ReopenTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	user, _ := ctx.Locals("user").(Models.User)
	if !tc.callerHoldsTask(ctx, task) && user.Permission < Models.PermissionAdmin {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the assignee or an admin may reopen this task"})
	}

	if task.IsRecurring() {
		var body struct {
			Date string `json:"date"`
		}
		_ = ctx.BodyParser(&body)
		date := body.Date
		if date == "" {
			date = time.Now().Format(Models.DateLayout)
		} else if _, err := time.Parse(Models.DateLayout, date); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
		}

		result := tc.DB.Model(&Models.TaskOccurrence{}).
			Where("task_id = ? AND date = ?", task.ID, date).
			Updates(map[string]interface{}{
				"status":          Models.StatusPending,
				"completed_by_id": nil,
				"completed_at":    nil,
			})
		if result.Error != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reopen occurrence"})
		}
		return ctx.JSON(fiber.Map{"message": "Occurrence reopened", "date": date})
	}

	updates := map[string]interface{}{
		"status":          Models.StatusPending,
		"completed_by_id": nil,
		"completed_at":    nil,
	}
	if err := tc.DB.Model(&task).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reopen task"})
	}

	tc.DB.First(&task, id)
	return ctx.JSON(task)
}

// ReturnTask relinquishes ownership: clears the assignment and resets
// status to pending
func (tc *TaskController) ReturnTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	user, _ := ctx.Locals("user").(Models.User)
	if !tc.callerHoldsTask(ctx, task) && user.Permission < Models.PermissionAdmin {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the assignee may return this task"})
	}

	updates := map[string]interface{}{
		"assigned_to_id": nil,
		"status":         Models.StatusPending,
	}
	if err := tc.DB.Model(&task).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to return task"})
	}

	tc.DB.First(&task, id)
	return ctx.JSON(task)
}

// ToggleChecklistItem flips one checklist item's completed flag. Task
// completion is tracked independently.
func (tc *TaskController) ToggleChecklistItem(ctx *fiber.Ctx) error {
	taskID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}
	itemID, err := strconv.Atoi(ctx.Params("itemId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid checklist item ID"})
	}

	var item Models.ChecklistItem
	if err := tc.DB.Where("id = ? AND task_id = ?", itemID, taskID).First(&item).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Checklist item not found"})
	}

	item.Completed = !item.Completed
	if err := tc.DB.Save(&item).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update checklist item"})
	}
	return ctx.JSON(item)
}

// assistantForCaller resolves the assistant profile linked to the
// signed-in user.
func (tc *TaskController) assistantForCaller(ctx *fiber.Ctx) (Models.Assistant, error) {
	user, ok := ctx.Locals("user").(Models.User)
	if !ok {
		return Models.Assistant{}, gorm.ErrRecordNotFound
	}
	var assistant Models.Assistant
	err := tc.DB.Where("user_id = ? AND is_active = ?", user.ID, true).First(&assistant).Error
	return assistant, err
}

func (tc *TaskController) callerHoldsTask(ctx *fiber.Ctx, task Models.Task) bool {
	if task.AssignedToID == nil {
		return false
	}
	assistant, err := tc.assistantForCaller(ctx)
	if err != nil {
		return false
	}
	return *task.AssignedToID == assistant.ID
}
