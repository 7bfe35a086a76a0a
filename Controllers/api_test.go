package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Denta/Controllers"
	"Denta/FiberConfig"
	"Denta/Models"
)

const testPassword = "password123"

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	// Named shared-cache DSN so every pooled connection sees the same database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&Models.User{},
		&Models.Assistant{},
		&Models.Task{},
		&Models.ChecklistItem{},
		&Models.TaskOccurrence{},
		&Models.Certification{},
		&Models.Feedback{},
		&Models.Shift{},
		&Models.Invitation{},
		&Models.ClinicSettings{},
		&Models.DeviceToken{},
	))

	// The auth middleware and session handlers read the package-level handle.
	Models.DB = db

	app := fiber.New()
	FiberConfig.SetupRoutes(app, db)
	app.Post("/api/Login", Controllers.Login)

	return app, db
}

func createUser(t *testing.T, db *gorm.DB, name, email string, permission int) Models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := Models.User{Name: name, Email: email, Password: hash, Permission: permission, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createAssistant(t *testing.T, db *gorm.DB, name string, user Models.User) Models.Assistant {
	t.Helper()
	uid := user.ID
	assistant := Models.Assistant{Name: name, Email: user.Email, UserID: &uid, IsActive: true}
	require.NoError(t, db.Create(&assistant).Error)
	return assistant
}

// login exercises the real handler and returns the session cookie.
func login(t *testing.T, app *fiber.App, email string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(fiber.Map{"email": email, "password": testPassword})
	req := httptest.NewRequest("POST", "/api/Login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	t.Fatal("login response carried no jwt cookie")
	return nil
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie *http.Cookie) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestRoutesRequireLogin(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doJSON(t, app, "GET", "/api/tasks/", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateTaskRequiresFrontDesk(t *testing.T) {
	app, db := setupTestApp(t)

	assistantUser := createUser(t, db, "Nora", "nora@clinic.test", Models.PermissionAssistant)
	createAssistant(t, db, "Nora", assistantUser)
	frontDesk := createUser(t, db, "Dina", "dina@clinic.test", Models.PermissionFrontDesk)

	body := fiber.Map{"title": "Sterilize handpieces"}

	resp := doJSON(t, app, "POST", "/api/tasks/", body, login(t, app, assistantUser.Email))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/tasks/", body, login(t, app, frontDesk.Email))
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var task Models.Task
	decodeBody(t, resp, &task)
	assert.Equal(t, "Sterilize handpieces", task.Title)
	assert.Equal(t, Models.StatusPending, task.Status)
	assert.Equal(t, Models.PriorityMedium, task.Priority)
}

func TestClaimRejectsAlreadyAssigned(t *testing.T) {
	app, db := setupTestApp(t)

	userA := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	assistantA := createAssistant(t, db, "Aya", userA)
	userB := createUser(t, db, "Basma", "basma@clinic.test", Models.PermissionAssistant)
	createAssistant(t, db, "Basma", userB)

	task := Models.Task{Title: "Restock operatory 2", Status: Models.StatusPending}
	require.NoError(t, db.Create(&task).Error)

	claimPath := fmt.Sprintf("/api/tasks/%d/claim", task.ID)

	resp := doJSON(t, app, "POST", claimPath, nil, login(t, app, userA.Email))
	require.Equal(t, 200, resp.StatusCode)

	var claimed Models.Task
	decodeBody(t, resp, &claimed)
	require.NotNil(t, claimed.AssignedToID)
	assert.Equal(t, assistantA.ID, *claimed.AssignedToID)

	// Second claim must fail loudly and leave the first winner in place.
	resp = doJSON(t, app, "POST", claimPath, nil, login(t, app, userB.Email))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var after Models.Task
	require.NoError(t, db.First(&after, task.ID).Error)
	require.NotNil(t, after.AssignedToID)
	assert.Equal(t, assistantA.ID, *after.AssignedToID)
}

func TestStartOnlyByAssignee(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	holderProfile := createAssistant(t, db, "Aya", holder)
	other := createUser(t, db, "Basma", "basma@clinic.test", Models.PermissionAssistant)
	createAssistant(t, db, "Basma", other)

	aid := holderProfile.ID
	task := Models.Task{Title: "Prep tray setups", Status: Models.StatusPending, AssignedToID: &aid}
	require.NoError(t, db.Create(&task).Error)

	startPath := fmt.Sprintf("/api/tasks/%d/start", task.ID)

	resp := doJSON(t, app, "POST", startPath, nil, login(t, app, other.Email))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, "POST", startPath, nil, login(t, app, holder.Email))
	require.Equal(t, 200, resp.StatusCode)

	var after Models.Task
	require.NoError(t, db.First(&after, task.ID).Error)
	assert.Equal(t, Models.StatusInProgress, after.Status)

	// Starting again is a state conflict, not a no-op.
	resp = doJSON(t, app, "POST", startPath, nil, login(t, app, holder.Email))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCompleteAndReopenMoveFieldsTogether(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	holderProfile := createAssistant(t, db, "Aya", holder)

	aid := holderProfile.ID
	task := Models.Task{Title: "Order gloves", Status: Models.StatusInProgress, AssignedToID: &aid}
	require.NoError(t, db.Create(&task).Error)

	cookie := login(t, app, holder.Email)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/complete", task.ID), nil, cookie)
	require.Equal(t, 200, resp.StatusCode)

	var completed Models.Task
	require.NoError(t, db.First(&completed, task.ID).Error)
	assert.Equal(t, Models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.CompletedByID)
	assert.Equal(t, holder.ID, *completed.CompletedByID)

	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/reopen", task.ID), nil, cookie)
	require.Equal(t, 200, resp.StatusCode)

	var reopened Models.Task
	require.NoError(t, db.First(&reopened, task.ID).Error)
	assert.Equal(t, Models.StatusPending, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.CompletedByID)
}

func TestCompleteRecurringRecordsOccurrenceOnly(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	holderProfile := createAssistant(t, db, "Aya", holder)

	aid := holderProfile.ID
	task := Models.Task{
		Title:        "Run sterilizer spore test",
		Status:       Models.StatusPending,
		Recurrence:   Models.RecurrenceDaily,
		AssignedToID: &aid,
	}
	require.NoError(t, db.Create(&task).Error)

	today := time.Now().Format(Models.DateLayout)
	cookie := login(t, app, holder.Email)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/complete", task.ID),
		fiber.Map{"date": today}, cookie)
	require.Equal(t, 200, resp.StatusCode)

	// The definition row never flips for recurring tasks.
	var def Models.Task
	require.NoError(t, db.First(&def, task.ID).Error)
	assert.Equal(t, Models.StatusPending, def.Status)
	assert.Nil(t, def.CompletedAt)

	var occ Models.TaskOccurrence
	require.NoError(t, db.Where("task_id = ? AND date = ?", task.ID, today).First(&occ).Error)
	assert.Equal(t, Models.StatusCompleted, occ.Status)
	require.NotNil(t, occ.CompletedByID)
	assert.Equal(t, holder.ID, *occ.CompletedByID)

	// Completing the same date twice stays one row.
	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/complete", task.ID),
		fiber.Map{"date": today}, cookie)
	require.Equal(t, 200, resp.StatusCode)

	var count int64
	db.Model(&Models.TaskOccurrence{}).Where("task_id = ?", task.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAgendaShowsRecurringWithOccurrenceStatus(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	holderProfile := createAssistant(t, db, "Aya", holder)

	aid := holderProfile.ID
	task := Models.Task{
		Title:        "Flush waterlines",
		Status:       Models.StatusPending,
		Recurrence:   Models.RecurrenceDaily,
		AssignedToID: &aid,
	}
	require.NoError(t, db.Create(&task).Error)

	today := time.Now().Format(Models.DateLayout)
	tomorrow := time.Now().AddDate(0, 0, 1).Format(Models.DateLayout)
	cookie := login(t, app, holder.Email)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/complete", task.ID),
		fiber.Map{"date": today}, cookie)
	require.Equal(t, 200, resp.StatusCode)

	var agenda struct {
		Date  string `json:"date"`
		Tasks []struct {
			ID     uint   `json:"ID"`
			Status string `json:"status"`
			Key    string `json:"key"`
		} `json:"tasks"`
	}

	resp = doJSON(t, app, "GET", "/api/tasks/agenda?date="+today, nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &agenda)
	require.Len(t, agenda.Tasks, 1)
	assert.Equal(t, Models.StatusCompleted, agenda.Tasks[0].Status)

	// The next day's instance is independent and still pending.
	resp = doJSON(t, app, "GET", "/api/tasks/agenda?date="+tomorrow, nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &agenda)
	require.Len(t, agenda.Tasks, 1)
	assert.Equal(t, Models.StatusPending, agenda.Tasks[0].Status)
}

func TestReturnTaskClearsAssignment(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	holderProfile := createAssistant(t, db, "Aya", holder)

	aid := holderProfile.ID
	task := Models.Task{Title: "Stock front desk forms", Status: Models.StatusInProgress, AssignedToID: &aid}
	require.NoError(t, db.Create(&task).Error)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/return", task.ID), nil, login(t, app, holder.Email))
	require.Equal(t, 200, resp.StatusCode)

	var after Models.Task
	require.NoError(t, db.First(&after, task.ID).Error)
	assert.Nil(t, after.AssignedToID)
	assert.Equal(t, Models.StatusPending, after.Status)
}

func TestToggleChecklistItem(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	createAssistant(t, db, "Aya", holder)

	task := Models.Task{
		Title:  "Morning opening",
		Status: Models.StatusPending,
		Checklist: []Models.ChecklistItem{
			{Text: "Unlock doors", Position: 0},
			{Text: "Power on compressor", Position: 1},
		},
	}
	require.NoError(t, db.Create(&task).Error)

	cookie := login(t, app, holder.Email)
	itemID := task.Checklist[0].ID

	resp := doJSON(t, app, "PATCH", fmt.Sprintf("/api/tasks/%d/checklist/%d", task.ID, itemID), nil, cookie)
	require.Equal(t, 200, resp.StatusCode)

	var item Models.ChecklistItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.True(t, item.Completed)

	resp = doJSON(t, app, "PATCH", fmt.Sprintf("/api/tasks/%d/checklist/%d", task.ID, itemID), nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	require.NoError(t, db.First(&item, itemID).Error)
	assert.False(t, item.Completed)
}

func TestAnalyticsCountOccurrenceCompletions(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	holderProfile := createAssistant(t, db, "Aya", holder)
	admin := createUser(t, db, "Omar", "omar@clinic.test", Models.PermissionAdmin)

	aid := holderProfile.ID
	task := Models.Task{
		Title:        "Run sterilizer spore test",
		Status:       Models.StatusPending,
		Recurrence:   Models.RecurrenceDaily,
		AssignedToID: &aid,
	}
	require.NoError(t, db.Create(&task).Error)

	cookie := login(t, app, holder.Email)
	for _, date := range []string{"2025-08-01", "2025-08-02"} {
		resp := doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/complete", task.ID),
			fiber.Map{"date": date}, cookie)
		require.Equal(t, 200, resp.StatusCode)
	}

	adminCookie := login(t, app, admin.Email)

	// The definition row stays pending; the work still counts.
	var board []struct {
		ID        uint   `json:"id"`
		Name      string `json:"name"`
		Assigned  int    `json:"assigned"`
		Completed int    `json:"completed"`
	}
	resp := doJSON(t, app, "GET", "/api/analytics/leaderboard", nil, adminCookie)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &board)
	require.Len(t, board, 1)
	assert.Equal(t, holderProfile.ID, board[0].ID)
	assert.Equal(t, 1, board[0].Assigned)
	assert.Equal(t, 2, board[0].Completed)

	var summary struct {
		TotalTasks     int64   `json:"total_tasks"`
		CompletedTasks int64   `json:"completed_tasks"`
		CompletionRate float64 `json:"completion_rate"`
	}
	resp = doJSON(t, app, "GET", "/api/analytics/summary", nil, adminCookie)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &summary)
	assert.Equal(t, int64(1), summary.TotalTasks)
	assert.Equal(t, int64(2), summary.CompletedTasks)
	assert.LessOrEqual(t, summary.CompletionRate, 100.0)
}

func TestUpdateTaskClearsCustomDueDate(t *testing.T) {
	app, db := setupTestApp(t)

	frontDesk := createUser(t, db, "Dina", "dina@clinic.test", Models.PermissionFrontDesk)

	task := Models.Task{
		Title:         "Flush waterlines",
		Status:        Models.StatusPending,
		Recurrence:    Models.RecurrenceDaily,
		CustomDueDate: "2025-08-01",
	}
	require.NoError(t, db.Create(&task).Error)

	cookie := login(t, app, frontDesk.Email)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	// Updates that omit the field leave the pin in place.
	resp := doJSON(t, app, "PUT", path, fiber.Map{"title": "Flush all waterlines"}, cookie)
	require.Equal(t, 200, resp.StatusCode)
	var after Models.Task
	require.NoError(t, db.First(&after, task.ID).Error)
	assert.Equal(t, "2025-08-01", after.CustomDueDate)

	resp = doJSON(t, app, "PUT", path, fiber.Map{"custom_due_date": "08/15/2025"}, cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// An explicit empty string unpins the recurrence.
	resp = doJSON(t, app, "PUT", path, fiber.Map{"custom_due_date": ""}, cookie)
	require.Equal(t, 200, resp.StatusCode)
	require.NoError(t, db.First(&after, task.ID).Error)
	assert.Equal(t, "", after.CustomDueDate)
}

func TestReopenRecurringRejectsMalformedDate(t *testing.T) {
	app, db := setupTestApp(t)

	holder := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	holderProfile := createAssistant(t, db, "Aya", holder)

	aid := holderProfile.ID
	task := Models.Task{
		Title:        "Run sterilizer spore test",
		Status:       Models.StatusPending,
		Recurrence:   Models.RecurrenceDaily,
		AssignedToID: &aid,
	}
	require.NoError(t, db.Create(&task).Error)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/tasks/%d/reopen", task.ID),
		fiber.Map{"date": "not-a-date"}, login(t, app, holder.Email))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeactivatedAccountLocked(t *testing.T) {
	app, db := setupTestApp(t)

	user := createUser(t, db, "Aya", "aya@clinic.test", Models.PermissionAssistant)
	createAssistant(t, db, "Aya", user)
	cookie := login(t, app, user.Email)

	require.NoError(t, db.Model(&Models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	resp := doJSON(t, app, "GET", "/api/tasks/", nil, cookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
