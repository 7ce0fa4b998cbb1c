package remarks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sheetStat/internal/logger"
	"sheetStat/internal/tally"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// FileName is the remark file written next to a sheet's charts
const FileName = "remarks.md"

// Options configures the Gemini model
type Options struct {
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Advisor asks Gemini for a short teaching remark about a sheet
type Advisor struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewAdvisor creates a new advisor instance
func NewAdvisor(apiKey string, opts Options) (*Advisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	logger.Info("Initializing remark advisor with Gemini API")
	logger.Debug("API key length", "length", len(apiKey))

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		logger.Error("Failed to create Gemini client", "error", err)
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.SetTemperature(opts.Temperature)

	logger.Info("Remark advisor initialized", "model", opts.Model, "temperature", opts.Temperature)

	return &Advisor{
		client:  client,
		model:   model,
		timeout: opts.Timeout,
	}, nil
}

// Close cleans up the advisor resources
func (a *Advisor) Close() error {
	if a.client != nil {
		logger.Debug("Closing Gemini client")
		return a.client.Close()
	}
	return nil
}

// Remark returns a short remark on the class's weakest knowledge points
func (a *Advisor) Remark(ctx context.Context, sheet string, summary tally.Summary) (string, error) {
	if len(summary.Weakest(1)) == 0 {
		return "", fmt.Errorf("sheet %s has no errors to comment on", sheet)
	}

	prompt := BuildPrompt(sheet, summary)
	logger.Debug("Remark prompt", "sheet", sheet, "length", len(prompt))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type apiResult struct {
		resp *genai.GenerateContentResponse
		err  error
	}

	resultChan := make(chan apiResult, 1)
	start := time.Now()

	go func() {
		resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
		resultChan <- apiResult{resp: resp, err: err}
	}()

	select {
	case result := <-resultChan:
		if result.err != nil {
			logger.Error("Gemini API request failed", "error", result.err, "duration", time.Since(start))
			return "", fmt.Errorf("failed to generate remark: %w", result.err)
		}
		logger.Info("Received remark from Gemini API", "sheet", sheet, "duration", time.Since(start))

		text, err := extractText(result.resp)
		if err != nil {
			return "", err
		}
		return CleanRemark(text), nil

	case <-ctx.Done():
		logger.Error("Gemini API request timed out", "timeout", a.timeout)
		return "", fmt.Errorf("remark request timed out after %v", a.timeout)
	}
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response generated from AI")
	}

	var b strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		} else {
			logger.Warn("Non-text part in response", "index", i, "type", fmt.Sprintf("%T", part))
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("no text in AI response")
	}
	return b.String(), nil
}

// BuildPrompt describes the sheet's class summary for the model
func BuildPrompt(sheet string, summary tally.Summary) string {
	var b strings.Builder

	b.WriteString(`You are an experienced teacher reviewing a class's mistakes on a test.

TASK: Write a short remark (at most 5 sentences, in Chinese) for the teacher.
Name the weakest knowledge points and suggest what to review first.

`)
	fmt.Fprintf(&b, "SHEET: %s\n", sheet)
	fmt.Fprintf(&b, "STUDENTS: %d (%d with at least one error)\n", summary.Students, summary.StudentsWithError)
	fmt.Fprintf(&b, "TOTAL ERRORS: %d (mean %.2f per student)\n\n", summary.TotalErrors, summary.MeanPerStudent)

	b.WriteString("KNOWLEDGE POINTS (errors | students affected):\n")
	for _, p := range summary.Weakest(len(summary.Points)) {
		fmt.Fprintf(&b, "- %s | %d | %d\n", p.KnowledgePoint, p.TotalErrors, p.Students)
	}

	b.WriteString("\nReply with the remark text only, no headings.")
	return b.String()
}

// CleanRemark strips code fences and surrounding whitespace
func CleanRemark(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		lines = lines[1:]
		if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
			lines = lines[:n-1]
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return text
}

// WriteRemark saves a remark as markdown in dir and returns its path
func WriteRemark(dir, sheet, text string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create remark directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	content := fmt.Sprintf("# %s\n\n%s\n", sheet, text)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write remark: %w", err)
	}
	return path, nil
}

// GetGeminiAPIKey gets the API key from environment variable
func GetGeminiAPIKey() string {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY environment variable not set")
	}
	return apiKey
}
