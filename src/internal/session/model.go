package session

// Activity status values for a class session. Transitions are driven by
// teacher actions only: scheduled -> active on start, active -> canceled on
// close or cancel.
const (
	StatusCanceled  = -1
	StatusScheduled = 0
	StatusActive    = 1
)

// View types used when listing a user's or teacher's sessions.
const (
	ViewJoinable = "joinable"
	ViewPrevious = "previous"
	ViewSigned   = "signed"
)

// Session is a scheduled class. FilledSpots is derived from the signing
// records at read time and never stored.
type Session struct {
	ID          string `json:"id" bson:"session_id"`
	Name        string `json:"name" bson:"name"`
	Date        string `json:"date" bson:"date"`
	Hour        string `json:"hour" bson:"hour"`
	Teacher     string `json:"teacher" bson:"teacher"`
	TotalSpots  int    `json:"totalSpots" bson:"total_spots"`
	FilledSpots int    `json:"filledSpots" bson:"-"`
	Description string `json:"description" bson:"description"`
	IsActive    int    `json:"isActive" bson:"is_active"`
}

// Signing is a durable record that a user registered for a session.
type Signing struct {
	SessionID string `bson:"session_id"`
	Username  string `bson:"username"`
}

// Summary holds the heart rate statistics recorded for one user in one
// session. Its presence marks the session as "previous" for that user.
type Summary struct {
	SessionID string `bson:"session_id"`
	Username  string `bson:"username"`
	Count     int    `bson:"hr_count"`
	Average   int    `bson:"hr_average"`
	Maximum   int    `bson:"hr_maximum"`
	Minimum   int    `bson:"hr_minimum"`
	HRV       int    `bson:"hrv"`
}

// SummaryResponse is the wire shape of a stored summary, paired with the
// session it belongs to.
type SummaryResponse struct {
	Session *Session `json:"session"`
	Count   int      `json:"count"`
	Average int      `json:"average"`
	Maximum int      `json:"maximum"`
	Minimum int      `json:"minimum"`
	HRV     int      `json:"hrv"`
}

// SignRequest is the body of session-sign-in / session-sign-out /
// get-session-summary.
type SignRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Username  string `json:"username" binding:"required"`
}

// OperationRequest is the body of enter-session / leave-session.
type OperationRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Username  string `json:"username" binding:"required"`
}

// SummaryRequest is the body of session-summary.
type SummaryRequest struct {
	SessionID    string `json:"sessionId" binding:"required"`
	Username     string `json:"username" binding:"required"`
	Measurements []int  `json:"measurements" binding:"required"`
	HRV          int    `json:"hrv"`
}

// CreateRequest is the body of create-session.
type CreateRequest struct {
	Teacher     string `json:"teacher" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
	Hour        string `json:"hour" binding:"required"`
	TotalSpots  int    `json:"totalSpots" binding:"required"`
}

// TeacherSessionsRequest is the body of get-teacher-sessions.
type TeacherSessionsRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// CancelRequest is the body of cancel-session.
type CancelRequest struct {
	Name      string `json:"name" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}

// StartRequest is the body of start-session.
type StartRequest struct {
	SessionID    string `json:"sessionId" binding:"required"`
	ZoomID       string `json:"zoomId"`
	ZoomPassword string `json:"zoomPassword"`
}

// CloseRequest is the body of close-session.
type CloseRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}
