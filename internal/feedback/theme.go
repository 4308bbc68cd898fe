package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dgh-platform/feedback-service/internal/sentiment"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// FallbackTheme derives a theme name from sentiment and rating alone, used
// when no LLM extractor is configured or extraction fails.
func FallbackTheme(label sentiment.Label, rating int) string {
	switch label {
	case sentiment.LabelPositive:
		if rating >= 4 {
			return "Satisfaction - Service excellent"
		}
		return "Satisfaction - Service correct"
	case sentiment.LabelNegative:
		if rating <= 2 {
			return "Insatisfaction - Problème majeur"
		}
		return "Insatisfaction - Service à améliorer"
	default:
		switch {
		case rating >= 4:
			return "Neutre - Globalement satisfait"
		case rating <= 2:
			return "Neutre - Globalement insatisfait"
		default:
			return "Neutre - Service moyen"
		}
	}
}

// GeminiThemeExtractor asks Gemini for a concise theme for the feedback,
// preferring an existing theme over inventing near-duplicates.
type GeminiThemeExtractor struct {
	client  *genai.Client
	modelID string
	themes  themeLister
	logger  *logging.Logger
}

type themeLister interface {
	ListThemes(ctx context.Context) ([]Theme, error)
}

// NewGeminiThemeExtractor creates an extractor. themes supplies the existing
// theme names offered to the model.
func NewGeminiThemeExtractor(ctx context.Context, apiKey, modelID string, themes themeLister, logger *logging.Logger) (*GeminiThemeExtractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("feedback: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("feedback: create gemini client: %w", err)
	}
	return &GeminiThemeExtractor{client: client, modelID: modelID, themes: themes, logger: logger}, nil
}

// Close releases the underlying API client.
func (e *GeminiThemeExtractor) Close() error {
	return e.client.Close()
}

var _ ThemeExtractor = (*GeminiThemeExtractor)(nil)

// ExtractTheme returns a theme name for the feedback text.
func (e *GeminiThemeExtractor) ExtractTheme(ctx context.Context, text string, label sentiment.Label, rating int) (string, error) {
	existing := e.existingThemeNames(ctx)

	model := e.client.GenerativeModel(e.modelID)
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(200)
	model.SystemInstruction = genai.NewUserContent(genai.Text(
		"Tu classes des retours de patients d'hôpital par thème. Réponds uniquement en JSON valide."))

	resp, err := model.GenerateContent(ctx, genai.Text(themePrompt(text, label, existing)))
	if err != nil {
		return "", fmt.Errorf("feedback: gemini theme extraction: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("feedback: gemini returned empty content")
	}

	raw, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("feedback: gemini returned non-text content")
	}
	return parseThemeJSON(string(raw))
}

func (e *GeminiThemeExtractor) existingThemeNames(ctx context.Context) []string {
	if e.themes == nil {
		return nil
	}
	themes, err := e.themes.ListThemes(ctx)
	if err != nil {
		e.logger.Warn("listing existing themes failed", "error", err)
		return nil
	}
	names := make([]string, 0, len(themes))
	for _, t := range themes {
		names = append(names, t.ThemeName)
	}
	return names
}

func parseThemeJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("feedback: no JSON object in theme output")
	}
	var parsed struct {
		Theme string `json:"theme"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return "", fmt.Errorf("feedback: parse theme output: %w", err)
	}
	theme := strings.TrimSpace(parsed.Theme)
	if theme == "" {
		return "", errors.New("feedback: empty theme in output")
	}
	return theme, nil
}

func themePrompt(text string, label sentiment.Label, existing []string) string {
	var list strings.Builder
	for _, name := range existing {
		fmt.Fprintf(&list, "- %s\n", name)
	}
	return fmt.Sprintf(`Analyse ce retour patient et assigne-lui le thème le plus approprié.

RETOUR:
%q

SENTIMENT DÉTECTÉ: %s

THÈMES EXISTANTS (réutilise un de ces thèmes si approprié):
%s
Si aucun thème existant ne convient, propose un nouveau thème concis.
Réponds UNIQUEMENT au format JSON: {"theme": "nom du thème"}`, text, label, list.String())
}
