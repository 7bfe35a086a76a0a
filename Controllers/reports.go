package Controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"Denta/Models"
)

// ReportController handles Excel export endpoints
type ReportController struct {
	DB *gorm.DB
}

// NewReportController creates a new ReportController
func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// ExportTasks generates an Excel workbook of tasks for a date range and
// streams it as a download. ?from and ?to default to the last 30 days.
func (c *ReportController) ExportTasks(ctx *fiber.Ctx) error {
	now := time.Now()
	from := ctx.Query("from", now.AddDate(0, 0, -30).Format(Models.DateLayout))
	to := ctx.Query("to", now.Format(Models.DateLayout))

	fromDate, err := time.Parse(Models.DateLayout, from)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date. Use YYYY-MM-DD"})
	}
	toDate, err := time.Parse(Models.DateLayout, to)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date. Use YYYY-MM-DD"})
	}
	// Include the whole "to" day.
	toDate = toDate.AddDate(0, 0, 1)

	var tasks []Models.Task
	if err := c.DB.Where("created_at < ? AND (completed_at IS NULL OR completed_at >= ?)",
		toDate, fromDate).Order("id").Find(&tasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	assistantNames := c.assistantNameIndex()

	buf, err := buildTaskWorkbook(tasks, assistantNames, from, to)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("Failed to build report: %v", err)})
	}

	filename := fmt.Sprintf("tasks_export_%s.xlsx", now.Format("20060102_150405"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	ctx.Set("Content-Length", fmt.Sprintf("%d", buf.Len()))

	return ctx.Send(buf.Bytes())
}

func (c *ReportController) assistantNameIndex() map[uint]string {
	var assistants []Models.Assistant
	c.DB.Find(&assistants)
	names := make(map[uint]string, len(assistants))
	for _, a := range assistants {
		names[a.ID] = a.Name
	}
	return names
}

func buildTaskWorkbook(tasks []Models.Task, assistantNames map[uint]string, from, to string) (*bytes.Buffer, error) {
	f := excelize.NewFile()

	sheetName := "Tasks"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Title", "Category", "Priority", "Status", "Due Type",
		"Recurrence", "Assigned To", "Created", "Completed",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}

	completedCount := 0
	for rowIndex, task := range tasks {
		row := rowIndex + 2

		assignedTo := "Unassigned"
		if task.AssignedToID != nil {
			if name, ok := assistantNames[*task.AssignedToID]; ok {
				assignedTo = name
			} else {
				assignedTo = "Unknown"
			}
		}

		completedAt := ""
		if task.CompletedAt != nil {
			completedAt = task.CompletedAt.Format("2006-01-02 15:04:05")
			completedCount++
		}

		values := []interface{}{
			task.ID,
			task.Title,
			task.Category,
			task.Priority,
			task.Status,
			task.DueType,
			task.Recurrence,
			assignedTo,
			task.CreatedAt.Format("2006-01-02 15:04:05"),
			completedAt,
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := 0; i < len(headers); i++ {
		f.SetColWidth(sheetName, string('A'+rune(i)), string('A'+rune(i)), 18)
	}

	// Summary sheet with the headline numbers.
	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err == nil {
		f.SetCellValue(summarySheet, "A1", "Report range")
		f.SetCellValue(summarySheet, "B1", fmt.Sprintf("%s to %s", from, to))
		f.SetCellValue(summarySheet, "A2", "Total tasks")
		f.SetCellValue(summarySheet, "B2", len(tasks))
		f.SetCellValue(summarySheet, "A3", "Completed")
		f.SetCellValue(summarySheet, "B3", completedCount)
		if len(tasks) > 0 {
			f.SetCellValue(summarySheet, "A4", "Completion rate")
			f.SetCellValue(summarySheet, "B4", fmt.Sprintf("%.1f%%", float64(completedCount)/float64(len(tasks))*100))
		}
		f.SetColWidth(summarySheet, "A", "B", 20)
	}

	if f.GetSheetName(0) != sheetName {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %v", err)
	}
	return &buf, nil
}
