package reminders

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the notification channel a reminder goes out on.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelSMS || c == ChannelVoice
}

// Reminder is a scheduled patient notification. patient_id is a weak
// reference resolved through the gateway; prescription_id is optional and
// links medication reminders to their prescription.
type Reminder struct {
	ReminderID     uuid.UUID  `json:"reminder_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	PrescriptionID *uuid.UUID `json:"prescription_id,omitempty"`
	Channel        Channel    `json:"channel"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	SendTime       *time.Time `json:"send_time,omitempty"`
	Status         Status     `json:"status"`
	MessageContent string     `json:"message_content"`
	Language       string     `json:"language"`
	ProviderSID    string     `json:"provider_sid,omitempty"`
	DeliveryStatus string     `json:"delivery_status,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Due reports whether the reminder is eligible for submission at t.
func (r *Reminder) Due(t time.Time) bool {
	return r.Status == StatusPending && !r.ScheduledTime.After(t)
}
