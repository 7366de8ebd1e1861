package stream

import "time"

// Event kinds delivered over a session stream.
const (
	EventHeartRate    = "HEARTRATE"
	EventHRV          = "HRV"
	EventEnterSession = "ENTER_SESSION"
	EventLeaveSession = "LEAVE_SESSION"
)

// TimestampLayout is the wall clock format the mobile clients expect,
// ISO 8601 with second precision.
const TimestampLayout = "2006-01-02T15:04:05"

// Event is one telemetry or membership notification for a session. Events
// are transient: they exist only between publish and delivery, nothing is
// persisted or replayed.
type Event struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	TimeStamp string `json:"timeStamp"`
	Event     string `json:"event"`
	Value     string `json:"value"`
}

// NewEvent builds an event stamped with the given instant.
func NewEvent(sessionID, username, kind, value string, at time.Time) Event {
	return Event{
		SessionID: sessionID,
		Username:  username,
		TimeStamp: at.Format(TimestampLayout),
		Event:     kind,
		Value:     value,
	}
}
