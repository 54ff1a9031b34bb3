package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arifhasan/khata/internal/config"
	"github.com/arifhasan/khata/internal/domain"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Gemini extracts transactions by sending the user's text to a Gemini
// model and decoding the strict-JSON object it is instructed to return.
type Gemini struct {
	model   string
	apiKey  string
	timeout time.Duration
	log     zerolog.Logger
}

// NewGemini builds the Gemini-backed extractor from startup configuration.
func NewGemini(cfg *config.Config, log zerolog.Logger) *Gemini {
	return &Gemini{
		model:   cfg.ExtractionModel,
		apiKey:  cfg.ExtractionAPIKey,
		timeout: cfg.ExtractionTimeout,
		log:     log,
	}
}

// Extract implements Extractor. The call is bounded by the configured
// timeout; expiry, transport errors and malformed model output all
// degrade to ErrExtractionFailed.
func (g *Gemini) Extract(ctx context.Context, text string, referenceDate domain.Date) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		g.log.Error().Err(err).Msg("Failed to create genai client")
		return nil, fmt.Errorf("Extract: create genai client: %w", ErrExtractionFailed)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(referenceDate)},
				{Text: text},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		g.log.Error().Err(err).Msg("Model call failed")
		return nil, fmt.Errorf("Extract: generate content: %w", ErrExtractionFailed)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Extract: empty response from model: %w", ErrExtractionFailed)
	}

	clean := cleanModelJSON(rawText)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		g.log.Warn().Str("raw", rawText).Msg("Model returned non-JSON output")
		return nil, fmt.Errorf("Extract: unmarshal model output: %w", ErrExtractionFailed)
	}

	result, err := resultFromModelOutput(obj, referenceDate)
	if err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}

	g.log.Debug().
		Str("kind", string(result.Kind)).
		Str("category", result.Category).
		Str("date", result.Date.String()).
		Msg("Extraction succeeded")

	return result, nil
}

var _ Extractor = (*Gemini)(nil)
