package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

func TestDescriptorsCoverAllEntities(t *testing.T) {
	want := map[string]bool{
		"departments": false, "feedbacks": false, "feedback_themes": false,
		"appointments": false, "reminders": false, "medications": false,
		"prescriptions": false, "prescription_medications": false,
	}
	for _, d := range Descriptors() {
		if _, ok := want[d.Entity]; !ok {
			t.Errorf("unexpected entity %q", d.Entity)
			continue
		}
		want[d.Entity] = true
		if len(d.ListColumns) == 0 {
			t.Errorf("%s: no list columns", d.Entity)
		}
		if len(d.Ordering) == 0 {
			t.Errorf("%s: no ordering", d.Entity)
		}
	}
	for entity, seen := range want {
		if !seen {
			t.Errorf("missing descriptor for %q", entity)
		}
	}
}

func TestPrescriptionMedicationsDescriptor(t *testing.T) {
	for _, d := range Descriptors() {
		if d.Entity != "prescription_medications" {
			continue
		}
		cols := map[string]bool{}
		for _, c := range d.ListColumns {
			cols[c] = true
		}
		for _, c := range []string{"prescription_medication_id", "dosage", "frequency", "start_date", "end_date"} {
			if !cols[c] {
				t.Errorf("list columns missing %q: %v", c, d.ListColumns)
			}
		}
		return
	}
	t.Fatal("no descriptor for prescription_medications")
}

func TestHandlerDescriptors(t *testing.T) {
	h := NewHandler(logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/descriptors", nil)
	rec := httptest.NewRecorder()
	h.Descriptors(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Descriptors []Descriptor `json:"descriptors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Descriptors) != len(Descriptors()) {
		t.Errorf("got %d descriptors, want %d", len(resp.Descriptors), len(Descriptors()))
	}
}
