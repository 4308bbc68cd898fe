package feedback

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/internal/sentiment"
)

// Language is the language the patient submitted feedback in. The classifier
// is only guaranteed trained for a subset; the rest degrade to best-effort.
type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
	LanguageDuala   Language = "dua"
	LanguageBasaa   Language = "bas"
	LanguageEwondo  Language = "ewo"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LanguageFrench, LanguageEnglish, LanguageDuala, LanguageBasaa, LanguageEwondo:
		return true
	}
	return false
}

// InputType is how the feedback was captured.
type InputType string

const (
	InputText  InputType = "text"
	InputAudio InputType = "audio"
)

func (t InputType) Valid() bool {
	return t == InputText || t == InputAudio
}

var (
	ErrInvalidRating    = errors.New("feedback: rating must be between 1 and 5")
	ErrInvalidLanguage  = errors.New("feedback: unsupported language")
	ErrInvalidInputType = errors.New("feedback: unsupported input type")
	ErrEmptyDescription = errors.New("feedback: description required")
	ErrNotFound         = errors.New("feedback: not found")
)

// Feedback is one patient feedback record. patient_id and department_id are
// weak references owned by the gateway. Sentiment fields are null until the
// classifier has run; they are set together or not at all.
type Feedback struct {
	FeedbackID  uuid.UUID `json:"feedback_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Department  uuid.UUID `json:"department_id"`
	Rating      int       `json:"rating"`
	Language    Language  `json:"language"`
	InputType   InputType `json:"input_type"`
	Description string    `json:"description"`
	AudioKey    string    `json:"audio_key,omitempty"`

	ThemeID *uuid.UUID `json:"theme_id,omitempty"`

	Sentiment     *sentiment.Label `json:"sentiment,omitempty"`
	PositiveScore *float64         `json:"sentiment_positive_score,omitempty"`
	NegativeScore *float64         `json:"sentiment_negative_score,omitempty"`
	NeutralScore  *float64         `json:"sentiment_neutral_score,omitempty"`

	IsProcessed bool       `json:"is_processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks write-time invariants. Violations reject the whole write;
// there are no partial writes.
func (f *Feedback) Validate() error {
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, f.Rating)
	}
	if !f.Language.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, f.Language)
	}
	if !f.InputType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidInputType, f.InputType)
	}
	if f.Description == "" {
		return ErrEmptyDescription
	}
	return nil
}

// Theme is a feedback classification theme, generated during processing.
type Theme struct {
	ThemeID   uuid.UUID `json:"theme_id"`
	ThemeName string    `json:"theme_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
