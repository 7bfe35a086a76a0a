package TaskAI

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Client calls an OpenAI-compatible chat-completions endpoint to turn a
// free-text prompt into structured task suggestions. The service is
// treated as an opaque text-to-JSON box.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	HTTP    *http.Client
}

// TaskSuggestion is one structured task proposed by the model.
type TaskSuggestion struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category    string `json:"category"`
	DueType     string `json:"due_type"`
	Recurrence  string `json:"recurrence"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = `You are a task planner for a dental clinic. Given a description of work, respond with ONLY a JSON array of task objects with fields: title, description, priority (low|medium|high), category, due_type, recurrence (none|daily|weekly|monthly|eow|midm|eom). No prose, no markdown fences.`

// NewClient loads configuration from the environment (.env supported).
// Returns an error when no API key is configured.
func NewClient() (*Client, error) {
	godotenv.Load(".env")

	apiKey := os.Getenv("TASKAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("TASKAI_API_KEY not set")
	}

	baseURL := os.Getenv("TASKAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := os.Getenv("TASKAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SuggestTasks sends the prompt and parses the model's JSON answer.
func (c *Client) SuggestTasks(prompt string) ([]TaskSuggestion, error) {
	payload := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected response format: %v", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("upstream error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("upstream returned no choices")
	}

	return ParseSuggestions(parsed.Choices[0].Message.Content)
}

// ParseSuggestions extracts the JSON array from the model output. Models
// sometimes wrap the array in markdown fences despite instructions, so
// strip those before decoding.
func ParseSuggestions(content string) ([]TaskSuggestion, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var suggestions []TaskSuggestion
	if err := json.Unmarshal([]byte(content), &suggestions); err != nil {
		return nil, fmt.Errorf("could not parse task suggestions: %v", err)
	}

	// Drop entries the model produced without a title rather than
	// failing the whole batch.
	valid := suggestions[:0]
	for _, s := range suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		if s.Priority == "" {
			s.Priority = "medium"
		}
		if s.Recurrence == "" {
			s.Recurrence = "none"
		}
		valid = append(valid, s)
	}
	return valid, nil
}
