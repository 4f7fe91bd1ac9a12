package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when config leaves it blank.
const DefaultModel = "gemini-2.0-flash"

// ErrNothingToAnalyze is returned when the ledger holds no transactions.
var ErrNothingToAnalyze = errors.New("analysis: no transactions to analyze")

// Analyzer asks Gemini for a budgeting assessment of a ledger summary.
type Analyzer struct {
	client *genai.Client
	model  string
}

// NewAnalyzer creates the Gemini client. The API key comes from config;
// an empty model falls back to DefaultModel.
func NewAnalyzer(ctx context.Context, apiKey, model string) (*Analyzer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("analysis: missing Gemini API key")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &Analyzer{client: client, model: model}, nil
}

// Analyze sends the summary and the user's optional question to the model
// and returns the response text verbatim.
func (a *Analyzer) Analyze(ctx context.Context, summary Summary, question string) (string, error) {
	if summary.Empty() {
		return "", ErrNothingToAnalyze
	}

	start := time.Now()
	resp, err := a.client.Models.GenerateContent(ctx, a.model,
		genai.Text(renderPrompt(summary, question)), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("analysis: empty model response")
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	slog.InfoContext(ctx, "Analysis completed",
		"model", a.model,
		"transaction_count", summary.TransactionCount,
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}
