package session

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DateLayout is the calendar date format used by the mobile clients.
const DateLayout = "02-01-2006"

// Date comparisons work at calendar-day granularity. "Today" is always passed
// in by the caller, taken from the clock at call time, so none of these
// results may be cached across a day boundary.

// IsJoinable reports whether a session with the given date can be joined
// right now under the requested view type.
func IsJoinable(viewType, date string, today time.Time) bool {
	return viewType == ViewJoinable && sameDay(date, today)
}

// IsPrevious reports whether a session already happened (today counts) under
// the requested view type.
func IsPrevious(viewType, date string, today time.Time) bool {
	if viewType != ViewPrevious {
		return false
	}
	d, ok := parseDate(date)
	return ok && !d.After(dateOnly(today))
}

// IsSignedOut reports whether a still-future session can be withdrawn from
// under the requested view type.
func IsSignedOut(viewType, date string, today time.Time) bool {
	if viewType != ViewSigned {
		return false
	}
	d, ok := parseDate(date)
	return ok && d.After(dateOnly(today))
}

// IsSignable reports whether a session still accepts new signings: its date
// must not be in the past.
func IsSignable(date string, today time.Time) bool {
	d, ok := parseDate(date)
	return ok && !d.Before(dateOnly(today))
}

// IsToday reports whether the session date is today.
func IsToday(date string, today time.Time) bool {
	return sameDay(date, today)
}

// ClassifyForUser decides whether a signed-up session belongs in the
// requested view for a user: joinable sessions must be running today with no
// recorded summary, previous sessions require a summary, signed sessions are
// future ones the user can still withdraw from.
func ClassifyForUser(viewType string, sess *Session, hasSummary bool, today time.Time) bool {
	if sess == nil {
		return false
	}
	joinable := IsJoinable(viewType, sess.Date, today) && !hasSummary && sess.IsActive == StatusActive
	previous := IsPrevious(viewType, sess.Date, today) && hasSummary
	return joinable || previous || IsSignedOut(viewType, sess.Date, today)
}

// ClassifyForTeacher decides whether one of the teacher's scheduled sessions
// belongs in the requested view. Teachers have no summaries, so the previous
// branch does not apply.
func ClassifyForTeacher(viewType string, sess *Session, today time.Time) bool {
	if sess == nil {
		return false
	}
	return IsJoinable(viewType, sess.Date, today) || IsSignedOut(viewType, sess.Date, today)
}

func sameDay(date string, today time.Time) bool {
	d, ok := parseDate(date)
	return ok && d.Equal(dateOnly(today))
}

func parseDate(date string) (time.Time, bool) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		logrus.WithField("date", date).Warn("Malformed session date")
		return time.Time{}, false
	}
	return d, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
