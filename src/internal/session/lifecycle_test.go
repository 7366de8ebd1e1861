package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var lifecycleToday = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

const (
	dateYesterday = "09-03-2026"
	dateToday     = "10-03-2026"
	dateTomorrow  = "11-03-2026"
)

func TestIsJoinable(t *testing.T) {
	assert.True(t, IsJoinable(ViewJoinable, dateToday, lifecycleToday))
	assert.False(t, IsJoinable(ViewJoinable, dateYesterday, lifecycleToday))
	assert.False(t, IsJoinable(ViewJoinable, dateTomorrow, lifecycleToday))
	assert.False(t, IsJoinable(ViewPrevious, dateToday, lifecycleToday))
	assert.False(t, IsJoinable(ViewJoinable, "not-a-date", lifecycleToday))
}

func TestIsPrevious(t *testing.T) {
	assert.True(t, IsPrevious(ViewPrevious, dateYesterday, lifecycleToday))
	assert.True(t, IsPrevious(ViewPrevious, dateToday, lifecycleToday))
	assert.False(t, IsPrevious(ViewPrevious, dateTomorrow, lifecycleToday))
	assert.False(t, IsPrevious(ViewJoinable, dateYesterday, lifecycleToday))
}

func TestIsSignedOut(t *testing.T) {
	assert.True(t, IsSignedOut(ViewSigned, dateTomorrow, lifecycleToday))
	assert.False(t, IsSignedOut(ViewSigned, dateToday, lifecycleToday))
	assert.False(t, IsSignedOut(ViewSigned, dateYesterday, lifecycleToday))
	assert.False(t, IsSignedOut(ViewJoinable, dateTomorrow, lifecycleToday))
}

func TestIsSignable(t *testing.T) {
	assert.True(t, IsSignable(dateToday, lifecycleToday))
	assert.True(t, IsSignable(dateTomorrow, lifecycleToday))
	assert.False(t, IsSignable(dateYesterday, lifecycleToday))
	assert.False(t, IsSignable("", lifecycleToday))
}

func TestClassifyForUser(t *testing.T) {
	tests := []struct {
		name       string
		viewType   string
		date       string
		isActive   int
		hasSummary bool
		want       bool
	}{
		{"joinable today active no summary", ViewJoinable, dateToday, StatusActive, false, true},
		{"joinable today active with summary", ViewJoinable, dateToday, StatusActive, true, false},
		{"joinable today scheduled", ViewJoinable, dateToday, StatusScheduled, false, false},
		{"joinable tomorrow active", ViewJoinable, dateTomorrow, StatusActive, false, false},
		{"previous yesterday with summary", ViewPrevious, dateYesterday, StatusScheduled, true, true},
		{"previous today with summary", ViewPrevious, dateToday, StatusScheduled, true, true},
		{"previous yesterday no summary", ViewPrevious, dateYesterday, StatusScheduled, false, false},
		{"previous tomorrow with summary", ViewPrevious, dateTomorrow, StatusScheduled, true, false},
		{"signed tomorrow", ViewSigned, dateTomorrow, StatusScheduled, false, true},
		{"signed tomorrow with summary", ViewSigned, dateTomorrow, StatusScheduled, true, true},
		{"signed today", ViewSigned, dateToday, StatusScheduled, false, false},
		{"signed yesterday", ViewSigned, dateYesterday, StatusScheduled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &Session{ID: "1", Date: tt.date, IsActive: tt.isActive}
			got := ClassifyForUser(tt.viewType, sess, tt.hasSummary, lifecycleToday)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.False(t, ClassifyForUser(ViewJoinable, nil, false, lifecycleToday))
}

func TestClassifyForTeacher(t *testing.T) {
	today := &Session{ID: "1", Date: dateToday}
	future := &Session{ID: "2", Date: dateTomorrow}
	past := &Session{ID: "3", Date: dateYesterday}

	assert.True(t, ClassifyForTeacher(ViewJoinable, today, lifecycleToday))
	assert.False(t, ClassifyForTeacher(ViewJoinable, future, lifecycleToday))
	assert.True(t, ClassifyForTeacher(ViewSigned, future, lifecycleToday))
	assert.False(t, ClassifyForTeacher(ViewSigned, past, lifecycleToday))
	assert.False(t, ClassifyForTeacher(ViewPrevious, past, lifecycleToday))
}
