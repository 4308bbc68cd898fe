package sentiment

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type fakeConverse struct {
	response string
	err      error
	lastText string
	calls    int
}

func (f *fakeConverse) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.calls++
	if len(params.Messages) > 0 && len(params.Messages[0].Content) > 0 {
		if block, ok := params.Messages[0].Content[0].(*brtypes.ContentBlockMemberText); ok {
			f.lastText = block.Value
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: f.response},
				},
			},
		},
	}, nil
}

func TestBedrockClassify(t *testing.T) {
	fake := &fakeConverse{response: `{"negative": 0.03, "neutral": 0.07, "positive": 0.90}`}
	c := NewBedrockClassifier(fake, "model-id", 2000, nil)

	res, err := c.Classify(context.Background(), "Excellent service")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != LabelPositive {
		t.Errorf("label = %q, want positive", res.Label)
	}
	if math.Abs(res.Scores.Sum()-100) > 0.1 {
		t.Errorf("scores sum = %v, want ≈100", res.Scores.Sum())
	}
	if res.Scores.Positive != 90 {
		t.Errorf("positive score = %v, want 90", res.Scores.Positive)
	}
}

func TestBedrockClassifyMarkdownWrapped(t *testing.T) {
	fake := &fakeConverse{response: "```json\n{\"negative\": 0.8, \"neutral\": 0.15, \"positive\": 0.05}\n```"}
	c := NewBedrockClassifier(fake, "model-id", 2000, nil)

	res, err := c.Classify(context.Background(), "Attente interminable, personnel désagréable")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != LabelNegative {
		t.Errorf("label = %q, want negative", res.Label)
	}
}

func TestBedrockClassifyTruncatesLongInput(t *testing.T) {
	fake := &fakeConverse{response: `{"negative": 0.1, "neutral": 0.8, "positive": 0.1}`}
	c := NewBedrockClassifier(fake, "model-id", 50, nil)

	long := strings.Repeat("très long retour patient ", 100)
	if _, err := c.Classify(context.Background(), long); err != nil {
		t.Fatalf("Classify on long input: %v", err)
	}
	if !strings.Contains(fake.lastText, Truncate(long, 50)) {
		t.Error("prompt should contain the truncated text")
	}
	if strings.Contains(fake.lastText, long) {
		t.Error("prompt should not contain the full untruncated text")
	}
}

func TestBedrockClassifyErrors(t *testing.T) {
	t.Run("backend failure maps to ErrUnavailable", func(t *testing.T) {
		fake := &fakeConverse{err: errors.New("throttled")}
		c := NewBedrockClassifier(fake, "model-id", 2000, nil)
		if _, err := c.Classify(context.Background(), "ok"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		c := NewBedrockClassifier(&fakeConverse{}, "model-id", 2000, nil)
		if _, err := c.Classify(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("err = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("nil client", func(t *testing.T) {
		c := NewBedrockClassifier(nil, "model-id", 2000, nil)
		if _, err := c.Classify(context.Background(), "ok"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("garbage model output", func(t *testing.T) {
		fake := &fakeConverse{response: "I think the patient is happy."}
		c := NewBedrockClassifier(fake, "model-id", 2000, nil)
		if _, err := c.Classify(context.Background(), "ok"); err == nil {
			t.Error("expected error for non-JSON model output")
		}
	})
}
