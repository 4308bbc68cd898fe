package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/internal/reminders"
)

func testSubmission() reminders.Submission {
	return reminders.Submission{
		ReminderID: uuid.New(),
		To:         "+237650000001",
		Message:    "Rappel: prenez votre Paracétamol 500mg",
		Language:   "fr",
	}
}

func TestTwilioSMSSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("To"); got != "+237650000001" {
			t.Errorf("To = %q", got)
		}
		if got := r.PostForm.Get("From"); got != "+15550001111" {
			t.Errorf("From = %q", got)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("expected basic auth")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM123", "status": "queued"}`))
	}))
	defer srv.Close()

	s := NewTwilioSMSSender("AC1", "token", "+15550001111", nil)
	s.baseURL = srv.URL

	sid, err := s.Submit(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sid != "SM123" {
		t.Errorf("sid = %q, want SM123", sid)
	}
}

func TestTwilioSMSRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"sid": "SM456"}`))
	}))
	defer srv.Close()

	s := NewTwilioSMSSender("AC1", "token", "+15550001111", nil)
	s.baseURL = srv.URL

	sid, err := s.Submit(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sid != "SM456" {
		t.Errorf("sid = %q, want SM456", sid)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestTwilioSMSDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "invalid number", "code": 21211}`))
	}))
	defer srv.Close()

	s := NewTwilioSMSSender("AC1", "token", "+15550001111", nil)
	s.baseURL = srv.URL

	if _, err := s.Submit(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestTwilioSMSValidation(t *testing.T) {
	s := NewTwilioSMSSender("", "", "+15550001111", nil)
	if _, err := s.Submit(context.Background(), testSubmission()); err == nil {
		t.Error("expected error for missing credentials")
	}

	s = NewTwilioSMSSender("AC1", "token", "+15550001111", nil)
	sub := testSubmission()
	sub.To = ""
	if _, err := s.Submit(context.Background(), sub); err == nil {
		t.Error("expected error for missing recipient")
	}

	sub = testSubmission()
	sub.Message = "   "
	if _, err := s.Submit(context.Background(), sub); err == nil {
		t.Error("expected error for empty message")
	}
}

func TestTwilioVoiceSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("Url"); got == "" {
			t.Error("expected TwiML Url parameter")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "CA789"}`))
	}))
	defer srv.Close()

	c := NewTwilioVoiceCaller("AC1", "token", "+15550001111", "http://twimlets.com/message", nil)
	c.baseURL = srv.URL

	sid, err := c.Submit(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sid != "CA789" {
		t.Errorf("sid = %q, want CA789", sid)
	}
}
