package departments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

func TestHandlerCreateDefaultsToActive(t *testing.T) {
	repo, mock := newMockRepo(t)
	h := NewHandler(repo, logging.Default())
	now := time.Now()

	mock.ExpectQuery("INSERT INTO departments").
		WithArgs(sqlmock.AnyArg(), "Radiologie", "", true, pq.Array([]string{})).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/departments",
		strings.NewReader(`{"name":"Radiologie"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var d Department
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if !d.IsActive {
		t.Error("department created without is_active must default to active")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandlerCreateDeactivated(t *testing.T) {
	repo, mock := newMockRepo(t)
	h := NewHandler(repo, logging.Default())
	now := time.Now()

	mock.ExpectQuery("INSERT INTO departments").
		WithArgs(sqlmock.AnyArg(), "Archives", "", false, pq.Array([]string{})).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/departments",
		strings.NewReader(`{"name":"Archives","is_active":false}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
