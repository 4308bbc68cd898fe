package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

type fakeJobRecorder struct {
	jobs map[string]*JobRecord
}

func (r *fakeJobRecorder) PutQueued(_ context.Context, job *JobRecord) error {
	job.Status = JobStatusQueued
	r.jobs[job.JobID] = job
	return nil
}

func (r *fakeJobRecorder) GetJob(_ context.Context, jobID string) (*JobRecord, error) {
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface, *MemoryQueue, *fakeJobRecorder) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	queue := NewMemoryQueue(8)
	jobs := &fakeJobRecorder{jobs: map[string]*JobRecord{}}
	h := NewHandler(HandlerConfig{
		Store:     NewStore(mock),
		Publisher: NewPublisher(queue, jobs, logging.Default()),
		Jobs:      jobs,
		Logger:    logging.Default(),
	})
	return h, mock, queue, jobs
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/feedbacks", h.Create)
	r.Get("/feedbacks/{feedbackID}", h.Get)
	r.Get("/feedbacks/jobs/{jobID}", h.JobStatus)
	r.Post("/feedbacks/{feedbackID}/reprocess", h.Reprocess)
	r.Get("/patients/{patientID}/feedbacks", h.ListByPatient)
	r.Get("/themes", h.ListThemes)
	return r
}

func TestHandlerCreate(t *testing.T) {
	h, mock, queue, jobs := newTestHandler(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO feedbacks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 5, LanguageFrench,
			InputText, "Accueil rapide et chaleureux", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	body := `{
		"patient_id": "` + uuid.NewString() + `",
		"department_id": "` + uuid.NewString() + `",
		"rating": 5,
		"description": "Accueil rapide et chaleureux"
	}`
	req := httptest.NewRequest(http.MethodPost, "/feedbacks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp createFeedbackResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Feedback == nil || resp.Feedback.FeedbackID == uuid.Nil {
		t.Fatal("expected created feedback in response")
	}
	if resp.Feedback.Language != LanguageFrench || resp.Feedback.InputType != InputText {
		t.Error("expected defaulted language and input type")
	}
	if resp.JobID == "" {
		t.Fatal("expected job_id in response")
	}
	if jobs.jobs[resp.JobID] == nil {
		t.Error("expected job record")
	}

	msgs, err := queue.Receive(context.Background(), 1, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("queue receive = %v, %v", msgs, err)
	}
	payload, err := decodePayload(msgs[0].Body)
	if err != nil {
		t.Fatal(err)
	}
	if payload.FeedbackID != resp.Feedback.FeedbackID {
		t.Error("queued payload does not match created feedback")
	}
}

func TestHandlerCreateRejectsBadRating(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	body := `{"patient_id":"` + uuid.NewString() + `","department_id":"` + uuid.NewString() + `","rating":9,"description":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/feedbacks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	h, mock, _, _ := newTestHandler(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .* FROM feedbacks").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"feedback_id"}))

	req := httptest.NewRequest(http.MethodGet, "/feedbacks/"+id.String(), nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerGetInvalidID(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/feedbacks/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerJobStatus(t *testing.T) {
	h, _, _, jobs := newTestHandler(t)
	jobs.jobs["job-1"] = &JobRecord{JobID: "job-1", Status: JobStatusCompleted, Sentiment: "positive"}

	req := httptest.NewRequest(http.MethodGet, "/feedbacks/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var job JobRecord
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	if job.Status != JobStatusCompleted {
		t.Errorf("status = %s", job.Status)
	}

	req = httptest.NewRequest(http.MethodGet, "/feedbacks/jobs/missing", nil)
	rec = httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerReprocess(t *testing.T) {
	h, mock, queue, _ := newTestHandler(t)
	id := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"feedback_id", "patient_id", "department_id", "rating", "language", "input_type",
		"description", "audio_key", "theme_id", "sentiment", "sentiment_positive_score",
		"sentiment_negative_score", "sentiment_neutral_score", "is_processed", "processed_at",
		"created_at", "updated_at",
	}).AddRow(id, uuid.New(), uuid.New(), 2, LanguageFrench, InputText,
		"Attente trop longue", nil, nil, nil, nil, nil, nil, false, nil, now, now)

	mock.ExpectQuery("SELECT .* FROM feedbacks").WithArgs(id).WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodPost, "/feedbacks/"+id.String()+"/reprocess", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	msgs, err := queue.Receive(context.Background(), 1, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("queue receive = %v, %v", msgs, err)
	}
	payload, err := decodePayload(msgs[0].Body)
	if err != nil {
		t.Fatal(err)
	}
	if !payload.Reprocess || payload.FeedbackID != id {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandlerListByPatient(t *testing.T) {
	h, mock, _, _ := newTestHandler(t)
	patientID := uuid.New()

	mock.ExpectQuery("SELECT .* FROM feedbacks").
		WithArgs(patientID, 50).
		WillReturnRows(pgxmock.NewRows([]string{"feedback_id"}))

	req := httptest.NewRequest(http.MethodGet, "/patients/"+patientID.String()+"/feedbacks", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"feedbacks":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
