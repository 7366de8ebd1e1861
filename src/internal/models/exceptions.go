package models

import "errors"

var (
	ErrRedisGet    = errors.New("redis get error")
	ErrRedisSet    = errors.New("redis set error")
	ErrRedisDelete = errors.New("redis delete error")
)

var (
	ErrAlreadyLogged    = errors.New("principal already has an active token")
	ErrInvalidToken     = errors.New("missing, unknown or expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionInactive  = errors.New("session is not active")
	ErrSessionNotToday  = errors.New("session is not scheduled for today")
	ErrNotSigned        = errors.New("no signing record for session")
	ErrAlreadySigned    = errors.New("already signed into session")
	ErrSessionFull      = errors.New("session has no free spots")
	ErrSummaryNotFound  = errors.New("session summary not found")
	ErrNoMeasurements   = errors.New("no measurements provided")
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already registered")
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidBirthdate = errors.New("invalid birthdate")
	ErrTeacherNotFound  = errors.New("teacher not found")
	ErrRecoveryToken    = errors.New("invalid or expired recovery token")
)

var (
	ErrDatabaseQuery  = errors.New("database query error")
	ErrDatabaseInsert = errors.New("database insert error")
	ErrDatabaseUpdate = errors.New("database update error")
	ErrDatabaseDelete = errors.New("database delete error")
)

var (
	ErrEmailPublish = errors.New("error publishing email message")
)
