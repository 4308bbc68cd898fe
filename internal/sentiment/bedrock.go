package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// BedrockConverseAPI is the subset of the Bedrock client used for classification.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClassifier classifies feedback text via a Bedrock-hosted model.
// Temperature is pinned to zero so repeated calls on the same text with the
// same model yield the same label and scores.
type BedrockClassifier struct {
	client        BedrockConverseAPI
	modelID       string
	maxInputChars int
	logger        *logging.Logger
}

// NewBedrockClassifier creates a classifier backed by the given model.
// maxInputChars bounds input length; longer text is truncated, never rejected.
func NewBedrockClassifier(client BedrockConverseAPI, modelID string, maxInputChars int, logger *logging.Logger) *BedrockClassifier {
	if logger == nil {
		logger = logging.Default()
	}
	if maxInputChars <= 0 {
		maxInputChars = 2000
	}
	return &BedrockClassifier{
		client:        client,
		modelID:       modelID,
		maxInputChars: maxInputChars,
		logger:        logger,
	}
}

var _ Classifier = (*BedrockClassifier)(nil)

// Classify sends the text to the model and maps its reported distribution to
// a Result. The model host is treated as a black box; only its 3-way
// confidence output matters here.
func (c *BedrockClassifier) Classify(ctx context.Context, text string) (Result, error) {
	text = Truncate(text, c.maxInputChars)
	if text == "" {
		return Result{}, ErrEmptyInput
	}
	if c.client == nil {
		return Result{}, ErrUnavailable
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: classificationSystemPrompt},
		},
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: classificationPrompt(text)},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(256),
			Temperature: aws.Float32(0.0),
		},
	}

	resp, err := c.client.Converse(ctx, input)
	if err != nil {
		return Result{}, fmt.Errorf("%w: bedrock converse: %v", ErrUnavailable, err)
	}

	raw := extractResponseText(resp)
	if raw == "" {
		return Result{}, fmt.Errorf("sentiment: bedrock returned empty response")
	}

	dist, err := parseDistributionJSON(raw)
	if err != nil {
		return Result{}, err
	}
	return FromDistribution(dist.Negative, dist.Neutral, dist.Positive), nil
}

type distribution struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

func extractResponseText(resp *bedrockruntime.ConverseOutput) string {
	if resp == nil || resp.Output == nil {
		return ""
	}
	output, ok := resp.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(output.Value.Content) == 0 {
		return ""
	}
	textBlock, ok := output.Value.Content[0].(*brtypes.ContentBlockMemberText)
	if !ok {
		return ""
	}
	return textBlock.Value
}

func parseDistributionJSON(text string) (distribution, error) {
	// The model may wrap its JSON in markdown fences.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return distribution{}, fmt.Errorf("sentiment: no JSON object in model output")
	}
	var dist distribution
	if err := json.Unmarshal([]byte(text[start:end+1]), &dist); err != nil {
		return distribution{}, fmt.Errorf("sentiment: parse model output: %w", err)
	}
	if dist.Negative == 0 && dist.Neutral == 0 && dist.Positive == 0 {
		return distribution{}, fmt.Errorf("sentiment: model output has no weights")
	}
	return dist, nil
}

const classificationSystemPrompt = `You are a sentiment classifier for hospital patient feedback. Feedback may be written in French, English, Duala, Basaa or Ewondo. Respond only with valid JSON.`

func classificationPrompt(text string) string {
	return fmt.Sprintf(`Classify the sentiment of this patient feedback. Return ONLY a JSON object:

{"negative": <weight>, "neutral": <weight>, "positive": <weight>}

Weights are non-negative confidences for each class; they need not sum to any
particular total. Judge the overall tone of the patient, not individual words.

Feedback:
%s`, text)
}
