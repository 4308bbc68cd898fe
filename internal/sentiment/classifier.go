// Package sentiment classifies free-text patient feedback into a 3-class
// sentiment label with percentage scores.
package sentiment

import (
	"context"
	"errors"
	"strings"
)

// Label is one of the three sentiment classes.
type Label string

const (
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
	LabelPositive Label = "positive"
)

// Valid reports whether l is a known label.
func (l Label) Valid() bool {
	switch l {
	case LabelNegative, LabelNeutral, LabelPositive:
		return true
	}
	return false
}

// Scores holds the per-class percentage scores in [0,100].
// The three values sum to 100 within rounding (±0.1).
type Scores struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// Sum returns the total of the three scores.
func (s Scores) Sum() float64 {
	return s.Negative + s.Neutral + s.Positive
}

// Result is the output of one classification call.
type Result struct {
	Label  Label  `json:"label"`
	Scores Scores `json:"scores"`
}

// ErrUnavailable indicates the classifier backend could not be reached.
// Callers leave the feedback unprocessed and retry later.
var ErrUnavailable = errors.New("sentiment: classifier unavailable")

// ErrEmptyInput indicates there was no text to classify.
var ErrEmptyInput = errors.New("sentiment: empty input")

// Classifier maps free text to a sentiment label and score distribution.
// Implementations must be deterministic for a fixed model and input, and
// safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Truncate trims text to at most maxChars runes so long input degrades to a
// best-effort classification instead of a hard failure. maxChars <= 0 leaves
// the text untouched.
func Truncate(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
