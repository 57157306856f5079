package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"golang-news-signal/internal/monitor/config"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/pkg/logger"
)

// ErrMalformedOutput reports model output that could not be parsed. The
// accompanying result is the safe default.
var ErrMalformedOutput = errors.New("malformed model output")

// AIRepository wraps the ticker matcher and impact analyzer models.
type AIRepository interface {
	Match(ctx context.Context, title, summary string) ([]string, error)
	Analyze(ctx context.Context, ticker, title, summary string) (dto.Verdict, error)
}

// contentGenerator is the subset of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiAIRepository struct {
	cfg            config.Gemini
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	models         contentGenerator
}

// NewGeminiAIRepository creates an AIRepository backed by the Gemini API.
func NewGeminiAIRepository(cfg config.Gemini, log *logger.Logger, genAiClient *genai.Client) AIRepository {
	return newGeminiAIRepository(cfg, log, genAiClient.Models)
}

func newGeminiAIRepository(cfg config.Gemini, log *logger.Logger, models contentGenerator) *geminiAIRepository {
	limit := rate.Inf
	if cfg.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxRequestPerMinute))
	}
	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(limit, 1),
		models:         models,
	}
}

// Match returns the validated tickers mentioned in the item.
func (r *geminiAIRepository) Match(ctx context.Context, title, summary string) ([]string, error) {
	text, err := r.generate(ctx, r.cfg.MatcherModel, BuildMatchTickersPrompt(title, summary))
	if err != nil {
		return nil, fmt.Errorf("failed to match tickers: %w", err)
	}
	tickers, ok := dto.ParseTickers(text)
	if !ok {
		return nil, fmt.Errorf("failed to parse matcher output: %w", ErrMalformedOutput)
	}
	return tickers, nil
}

// Analyze returns the verdict for ticker. Unparsable output yields the default
// verdict together with ErrMalformedOutput.
func (r *geminiAIRepository) Analyze(ctx context.Context, ticker, title, summary string) (dto.Verdict, error) {
	text, err := r.generate(ctx, r.cfg.AnalyzerModel, BuildAnalyzeImpactPrompt(ticker, title, summary))
	if err != nil {
		return dto.DefaultVerdict(), fmt.Errorf("failed to analyze %s: %w", ticker, err)
	}
	verdict, ok := dto.ParseVerdict(text)
	if !ok {
		return verdict, fmt.Errorf("failed to parse analyzer output for %s: %w", ticker, ErrMalformedOutput)
	}
	return verdict, nil
}

func (r *geminiAIRepository) generate(ctx context.Context, model, prompt string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := r.models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with %s: %w", model, err)
	}

	text := responseText(resp)
	r.logger.DebugContext(ctx, "Gemini response", logger.StringField("model", model), logger.StringField("text", text))
	if text == "" {
		return "", fmt.Errorf("empty response from %s: %w", model, ErrMalformedOutput)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
