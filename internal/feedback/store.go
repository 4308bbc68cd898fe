package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dgh-platform/feedback-service/internal/sentiment"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists feedback and themes in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

const feedbackColumns = `feedback_id, patient_id, department_id, rating, language, input_type,
	       description, audio_key, theme_id, sentiment, sentiment_positive_score,
	       sentiment_negative_score, sentiment_neutral_score, is_processed, processed_at,
	       created_at, updated_at`

// Create inserts a new unprocessed feedback row after validation.
func (s *Store) Create(ctx context.Context, f *Feedback) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.FeedbackID == uuid.Nil {
		f.FeedbackID = uuid.New()
	}
	query := `
		INSERT INTO feedbacks (feedback_id, patient_id, department_id, rating, language,
		    input_type, description, audio_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		f.FeedbackID, f.PatientID, f.Department, f.Rating, f.Language,
		f.InputType, f.Description, f.AudioKey).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("feedback: create: %w", err)
	}
	return nil
}

// Get loads one feedback by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE feedback_id = $1`
	f, err := scanFeedback(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("feedback: get: %w", err)
	}
	return f, nil
}

// ListByPatient returns a patient's feedback, newest first.
func (s *Store) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedbacks
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("feedback: list by patient: %w", err)
	}
	defer rows.Close()
	return collectFeedbacks(rows)
}

// ListByTheme returns processed feedback carrying the given theme.
func (s *Store) ListByTheme(ctx context.Context, themeID uuid.UUID, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedbacks
		WHERE theme_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, themeID, limit)
	if err != nil {
		return nil, fmt.Errorf("feedback: list by theme: %w", err)
	}
	defer rows.Close()
	return collectFeedbacks(rows)
}

// ListUnprocessed returns unprocessed feedback oldest first, for requeueing.
func (s *Store) ListUnprocessed(ctx context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedbacks
		WHERE is_processed = false
		ORDER BY created_at ASC
		LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("feedback: list unprocessed: %w", err)
	}
	defer rows.Close()
	return collectFeedbacks(rows)
}

// ProcessedUpdate carries everything one classification run produces. It is
// applied in a single UPDATE so sentiment fields and processing flags can
// never be observed partially set.
type ProcessedUpdate struct {
	Sentiment   sentiment.Result
	ThemeID     *uuid.UUID
	ProcessedAt time.Time
}

// SetProcessed applies a classification result. Re-applying to an already
// processed row overwrites the previous result (last-write-wins).
func (s *Store) SetProcessed(ctx context.Context, id uuid.UUID, upd ProcessedUpdate) error {
	query := `
		UPDATE feedbacks
		SET sentiment = $2,
		    sentiment_positive_score = $3,
		    sentiment_negative_score = $4,
		    sentiment_neutral_score = $5,
		    theme_id = $6,
		    is_processed = true,
		    processed_at = $7,
		    updated_at = now()
		WHERE feedback_id = $1`
	ct, err := s.pool.Exec(ctx, query, id,
		upd.Sentiment.Label,
		upd.Sentiment.Scores.Positive,
		upd.Sentiment.Scores.Negative,
		upd.Sentiment.Scores.Neutral,
		upd.ThemeID,
		upd.ProcessedAt)
	if err != nil {
		return fmt.Errorf("feedback: set processed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrCreateTheme finds an active theme by name, creating it when missing.
func (s *Store) GetOrCreateTheme(ctx context.Context, name string) (*Theme, error) {
	query := `
		INSERT INTO feedback_themes (theme_id, theme_name)
		VALUES ($1, $2)
		ON CONFLICT (theme_name) DO UPDATE SET updated_at = now()
		RETURNING theme_id, theme_name, is_active, created_at, updated_at`
	var t Theme
	err := s.pool.QueryRow(ctx, query, uuid.New(), name).Scan(
		&t.ThemeID, &t.ThemeName, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("feedback: get or create theme: %w", err)
	}
	return &t, nil
}

// ListThemes returns active themes.
func (s *Store) ListThemes(ctx context.Context) ([]Theme, error) {
	query := `
		SELECT theme_id, theme_name, is_active, created_at, updated_at
		FROM feedback_themes
		WHERE is_active = true
		ORDER BY theme_name ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("feedback: list themes: %w", err)
	}
	defer rows.Close()

	var out []Theme
	for rows.Next() {
		var t Theme
		if err := rows.Scan(&t.ThemeID, &t.ThemeName, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("feedback: scan theme: %w", err)
		}
		out = append(out, t)
	}
	if out == nil {
		out = []Theme{}
	}
	return out, rows.Err()
}

func scanFeedback(row pgx.Row) (*Feedback, error) {
	var f Feedback
	var audioKey *string
	var label *string
	err := row.Scan(&f.FeedbackID, &f.PatientID, &f.Department, &f.Rating, &f.Language,
		&f.InputType, &f.Description, &audioKey, &f.ThemeID, &label,
		&f.PositiveScore, &f.NegativeScore, &f.NeutralScore,
		&f.IsProcessed, &f.ProcessedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if audioKey != nil {
		f.AudioKey = *audioKey
	}
	if label != nil {
		l := sentiment.Label(*label)
		f.Sentiment = &l
	}
	return &f, nil
}

func collectFeedbacks(rows pgx.Rows) ([]Feedback, error) {
	var out []Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("feedback: scan: %w", err)
		}
		out = append(out, *f)
	}
	if out == nil {
		out = []Feedback{}
	}
	return out, rows.Err()
}
