package models

import "time"

// EmailMessage is the payload published to the mail worker queue. The worker
// owns templating and SMTP; this service only enqueues jobs.
type EmailMessage struct {
	Type         string    `json:"type"`
	To           string    `json:"to"`
	FullName     string    `json:"full_name"`
	LanguageCode string    `json:"language_code,omitempty"`
	RecoveryCode int       `json:"recovery_code,omitempty"`
	SessionName  string    `json:"session_name,omitempty"`
	SessionDate  string    `json:"session_date,omitempty"`
	SessionHour  string    `json:"session_hour,omitempty"`
	ZoomID       string    `json:"zoom_id,omitempty"`
	ZoomPassword string    `json:"zoom_password,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Email message type constants.
const (
	EmailTypeRecovery       = "password_recovery"
	EmailTypeSessionCancel  = "session_canceled"
	EmailTypeSessionStarted = "session_started"
)
