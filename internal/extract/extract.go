// Package extract turns free-text input (English, Bangla or mixed) into a
// structured transaction guess using an external language model.
//
// The model is an injected collaborator behind the Extractor interface;
// its understanding of the text is entirely opaque to the rest of the
// service. Any failure mode — missing credentials, timeout, malformed
// output, no usable amount — collapses to ErrExtractionFailed, which the
// HTTP layer reports as a client-visible "could not understand" error.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arifhasan/khata/internal/config"
	"github.com/arifhasan/khata/internal/domain"
	"github.com/arifhasan/khata/internal/money"
	"github.com/rs/zerolog"
)

// ErrExtractionFailed is returned whenever the collaborator produces
// nothing usable. Callers surface it as a client error.
var ErrExtractionFailed = errors.New("could not extract transaction data")

// Result is the collaborator's best-effort structured guess.
type Result struct {
	Kind     domain.Kind
	Amount   money.Amount
	Category string
	Date     domain.Date
	Note     string

	// Raw is the decoded model output, echoed back to the caller so the
	// frontend can show what the model actually said.
	Raw map[string]interface{}
}

// Extractor is the contract consumed by the chat endpoint. referenceDate
// is the calendar date the model should resolve relative or omitted dates
// against.
type Extractor interface {
	Extract(ctx context.Context, text string, referenceDate domain.Date) (*Result, error)
}

// New builds the extractor matching the configured backend.
func New(cfg *config.Config, log zerolog.Logger) Extractor {
	switch cfg.ExtractionBackend {
	case config.BackendGemini:
		log.Info().Str("model", cfg.ExtractionModel).Msg("Extraction: using Gemini")
		return NewGemini(cfg, log)
	default:
		log.Warn().Msg("Extraction: no API key found, chat endpoint will reject all input")
		return Disabled{}
	}
}

// Disabled is the extractor used when no credential is configured. It
// fails every request without crashing the process.
type Disabled struct{}

// Extract implements Extractor.
func (Disabled) Extract(ctx context.Context, text string, referenceDate domain.Date) (*Result, error) {
	return nil, fmt.Errorf("Extract: no extraction backend configured: %w", ErrExtractionFailed)
}

// resultFromModelOutput converts the loosely-typed JSON object the model
// returned into a Result. A missing or non-positive amount means the model
// did not understand the input, and the whole extraction fails.
func resultFromModelOutput(obj map[string]interface{}, referenceDate domain.Date) (*Result, error) {
	if len(obj) == 0 {
		return nil, fmt.Errorf("resultFromModelOutput: empty model output: %w", ErrExtractionFailed)
	}

	amountF, err := getOptionalFloat64Field(obj, "amount")
	if err != nil || amountF == nil || *amountF <= 0 {
		return nil, fmt.Errorf("resultFromModelOutput: no usable amount: %w", ErrExtractionFailed)
	}
	amount, err := money.FromFloat(*amountF)
	if err != nil {
		return nil, fmt.Errorf("resultFromModelOutput: amount: %w", ErrExtractionFailed)
	}

	kindStr, err := getStringField(obj, "type")
	if err != nil {
		return nil, fmt.Errorf("resultFromModelOutput: type: %w", ErrExtractionFailed)
	}
	kind, err := domain.ParseKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("resultFromModelOutput: %v: %w", err, ErrExtractionFailed)
	}

	category, _ := getStringField(obj, "category")
	if category == "" {
		category = "Other"
	}

	// A missing or unparseable date falls back to the reference date, the
	// same default the model is told to use.
	date := referenceDate
	if dateStr, err := getStringField(obj, "date"); err == nil && dateStr != "" {
		if parsed, err := domain.ParseDate(dateStr); err == nil {
			date = parsed
		}
	}

	note, _ := getStringField(obj, "note")

	return &Result{
		Kind:     kind,
		Amount:   amount,
		Category: category,
		Date:     date,
		Note:     note,
		Raw:      obj,
	}, nil
}

func getStringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	return strings.TrimSpace(s), nil
}

func getOptionalFloat64Field(m map[string]interface{}, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f, nil
	case string:
		// Some model runs quote the number.
		a, err := money.ParseDecimal(val)
		if err != nil {
			return nil, fmt.Errorf("field %q is a non-numeric string", key)
		}
		f := a.Float64()
		return &f, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the strict-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there is still text around the JSON object, keep only from the
	// first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
