package admin

// Descriptor tells a generic CRUD frontend how to render one entity: which
// columns to list, what to filter and search on, and the default ordering.
type Descriptor struct {
	Entity       string   `json:"entity"`
	ListColumns  []string `json:"list_columns"`
	FilterFields []string `json:"filter_fields"`
	SearchFields []string `json:"search_fields"`
	Ordering     []string `json:"ordering"`
}

// Descriptors returns the descriptor table for every entity this service
// owns. The table is static; entities and their admin affordances only change
// with a deploy.
func Descriptors() []Descriptor {
	return []Descriptor{
		{
			Entity:       "departments",
			ListColumns:  []string{"department_id", "name", "description", "created_at"},
			FilterFields: []string{"created_at"},
			SearchFields: []string{"name", "description"},
			Ordering:     []string{"name"},
		},
		{
			Entity:       "feedbacks",
			ListColumns:  []string{"feedback_id", "patient_id", "rating", "language", "sentiment", "is_processed", "created_at"},
			FilterFields: []string{"rating", "language", "input_type", "sentiment", "is_processed", "theme_id"},
			SearchFields: []string{"description"},
			Ordering:     []string{"-created_at"},
		},
		{
			Entity:       "feedback_themes",
			ListColumns:  []string{"theme_id", "theme_name", "is_active", "created_at"},
			FilterFields: []string{"is_active"},
			SearchFields: []string{"theme_name"},
			Ordering:     []string{"theme_name"},
		},
		{
			Entity:       "appointments",
			ListColumns:  []string{"appointment_id", "patient_id", "professional_id", "scheduled", "type"},
			FilterFields: []string{"type", "scheduled"},
			SearchFields: []string{"notes"},
			Ordering:     []string{"-scheduled"},
		},
		{
			Entity:       "reminders",
			ListColumns:  []string{"reminder_id", "patient_id", "channel", "scheduled_time", "status", "delivery_status"},
			FilterFields: []string{"channel", "status", "scheduled_time"},
			SearchFields: []string{"message_content"},
			Ordering:     []string{"-scheduled_time"},
		},
		{
			Entity:       "medications",
			ListColumns:  []string{"medication_id", "name", "created_at"},
			FilterFields: []string{},
			SearchFields: []string{"name"},
			Ordering:     []string{"name"},
		},
		{
			Entity:       "prescriptions",
			ListColumns:  []string{"prescription_id", "appointment_id", "created_at"},
			FilterFields: []string{"appointment_id", "created_at"},
			SearchFields: []string{"notes"},
			Ordering:     []string{"-created_at"},
		},
		{
			Entity:       "prescription_medications",
			ListColumns:  []string{"prescription_medication_id", "prescription_id", "medication_id", "dosage", "frequency", "start_date", "end_date"},
			FilterFields: []string{"frequency", "start_date", "end_date"},
			SearchFields: []string{"dosage"},
			Ordering:     []string{"start_date"},
		},
	}
}
