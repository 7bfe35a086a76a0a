package Controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogEntry mirrors one line of the request log file
type LogEntry struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	Error         string        `json:"error,omitempty"`
	UserID        interface{}   `json:"user_id"`
	Username      string        `json:"username"`
	ContentLength int64         `json:"content_length"`
}

// LogGroup represents a group of logs by path
type LogGroup struct {
	Path        string     `json:"path"`
	Method      string     `json:"method"`
	Count       int        `json:"count"`
	AvgLatency  float64    `json:"avg_latency_ms"`
	MaxLatency  float64    `json:"max_latency_ms"`
	SuccessRate float64    `json:"success_rate"`
	Logs        []LogEntry `json:"logs"`
}

// LogsResponse represents the response structure for the logs API
type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// GetLogs retrieves request logs with pagination, date filtering and
// per-path grouping
func GetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	pathFilter := c.Query("path", "")
	methodFilter := c.Query("method", "")

	dateFrom, dateTo, err := parseDateRange(c.Query("date_from", ""), c.Query("date_to", ""))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	logs, err := readLogsFromFile("logs/requests.log", dateFrom, dateTo)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	var filtered []LogEntry
	for _, entry := range logs {
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(pathFilter)) {
			continue
		}
		if methodFilter != "" && !strings.EqualFold(entry.Method, methodFilter) {
			continue
		}
		filtered = append(filtered, entry)
	}

	groups := groupLogsByPath(filtered)

	totalGroups := len(groups)
	totalPages := (totalGroups + pageSize - 1) / pageSize
	startIndex := (page - 1) * pageSize
	endIndex := startIndex + pageSize
	if startIndex > totalGroups {
		startIndex = totalGroups
	}
	if endIndex > totalGroups {
		endIndex = totalGroups
	}

	return c.JSON(LogsResponse{
		Groups:      groups[startIndex:endIndex],
		TotalLogs:   len(filtered),
		TotalGroups: totalGroups,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	})
}

// GetLogStats returns headline numbers over the selected date range
func GetLogStats(c *fiber.Ctx) error {
	dateFrom, dateTo, err := parseDateRange(c.Query("date_from", ""), c.Query("date_to", ""))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogsFromFile("logs/requests.log", dateFrom, dateTo)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	var totalLatencyMs float64
	errorCount := 0
	for _, entry := range logs {
		totalLatencyMs += float64(entry.Latency.Microseconds()) / 1000.0
		if entry.Status >= 400 {
			errorCount++
		}
	}

	avgLatency := 0.0
	if len(logs) > 0 {
		avgLatency = totalLatencyMs / float64(len(logs))
	}

	return c.JSON(fiber.Map{
		"total_requests": len(logs),
		"error_count":    errorCount,
		"avg_latency_ms": avgLatency,
		"date_from":      dateFrom,
		"date_to":        dateTo,
	})
}

// parseDateRange defaults to today when no bounds are given
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	if fromStr == "" && toStr == "" {
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		to := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
		return from, to, nil
	}

	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	to := now
	if fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid date_from format, use YYYY-MM-DD")
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid date_to format, use YYYY-MM-DD")
		}
		to = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 999999999, parsed.Location())
	}
	return from, to, nil
}

// readLogsFromFile reads logs from the specified file and filters by date range
func readLogsFromFile(filePath string, dateFrom, dateTo time.Time) ([]LogEntry, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0666)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var logs []LogEntry
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var logEntry LogEntry
		if err := json.Unmarshal([]byte(line), &logEntry); err != nil {
			// Skip invalid JSON lines
			continue
		}

		if logEntry.Timestamp.After(dateFrom) && logEntry.Timestamp.Before(dateTo) {
			logs = append(logs, logEntry)
		}
	}

	return logs, nil
}

// groupLogsByPath groups logs by method+path and aggregates latency and
// success-rate stats
func groupLogsByPath(logs []LogEntry) []LogGroup {
	groupMap := make(map[string]*LogGroup)

	for _, entry := range logs {
		key := fmt.Sprintf("%s %s", entry.Method, entry.Path)
		latencyMs := float64(entry.Latency.Microseconds()) / 1000.0
		success := 0.0
		if entry.Status >= 200 && entry.Status < 300 {
			success = 1.0
		}

		group, exists := groupMap[key]
		if !exists {
			groupMap[key] = &LogGroup{
				Path:        entry.Path,
				Method:      entry.Method,
				Count:       1,
				AvgLatency:  latencyMs,
				MaxLatency:  latencyMs,
				SuccessRate: success,
				Logs:        []LogEntry{entry},
			}
			continue
		}

		group.Count++
		group.Logs = append(group.Logs, entry)
		group.AvgLatency = (group.AvgLatency*float64(group.Count-1) + latencyMs) / float64(group.Count)
		if latencyMs > group.MaxLatency {
			group.MaxLatency = latencyMs
		}
		group.SuccessRate = (group.SuccessRate*float64(group.Count-1) + success) / float64(group.Count)
	}

	var groups []LogGroup
	for _, group := range groupMap {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}
