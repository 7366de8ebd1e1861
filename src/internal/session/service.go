package session

import (
	"context"
	"errors"

	"heartmon-svc/src/internal/clock"
	"heartmon-svc/src/internal/models"
	"heartmon-svc/src/internal/stream"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Member is the slice of a user account the session service needs for
// admission checks and notification emails.
type Member struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// UserDirectory resolves usernames to member details. Implemented by the
// user service through an adapter in the dependency manager.
type UserDirectory interface {
	Member(ctx context.Context, username string) (*Member, error)
}

// Cache is the read-through session cache. Satisfied by cache.Service.
type Cache interface {
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	CacheSession(ctx context.Context, sess *Session) error
	InvalidateSession(ctx context.Context, sessionID string) error
}

// Mailer delivers the teacher-action notification emails. Satisfied by
// clients.MailerClient.
type Mailer interface {
	SendCancellationEmail(to, fullName, sessionName, sessionDate, sessionHour string) error
	SendSessionStartEmail(to, fullName, sessionName, zoomID, zoomPassword string) error
}

type Service interface {
	SignableSessions(ctx context.Context, username string) ([]*Session, error)
	UserSessions(ctx context.Context, username, viewType string) ([]*Session, error)
	TeacherSessions(ctx context.Context, teacherName, viewType string) ([]*Session, error)

	SignIn(ctx context.Context, sessionID, username string) error
	SignOut(ctx context.Context, sessionID, username string) error

	CanEnter(ctx context.Context, sessionID string) bool
	CanLeave(ctx context.Context, sessionID, username string) bool
	Enter(ctx context.Context, sessionID, username string) error
	Leave(ctx context.Context, sessionID, username string) error

	Create(ctx context.Context, req *CreateRequest) error
	Cancel(ctx context.Context, teacherName, sessionID string) error
	Start(ctx context.Context, req *StartRequest) error
	Close(ctx context.Context, sessionID string) error

	SaveSummary(ctx context.Context, req *SummaryRequest) error
	GetSummary(ctx context.Context, username, sessionID string) (*SummaryResponse, error)
}

type service struct {
	repo   Repository
	cache  Cache
	users  UserDirectory
	bus    stream.Publisher
	mailer Mailer
	clk    clock.Clock
}

func NewService(repo Repository, cache Cache, users UserDirectory, bus stream.Publisher, mailer Mailer, clk clock.Clock) Service {
	return &service{
		repo:   repo,
		cache:  cache,
		users:  users,
		bus:    bus,
		mailer: mailer,
		clk:    clk,
	}
}

// SignableSessions lists the sessions a user can still register for: every
// non-canceled session the user has not signed into whose date is not past.
func (s *service) SignableSessions(ctx context.Context, username string) ([]*Session, error) {
	ids, err := s.repo.AllSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	signed, err := s.repo.SignedSessionIDs(ctx, username)
	if err != nil {
		return nil, err
	}
	signedSet := make(map[string]struct{}, len(signed))
	for _, id := range signed {
		signedSet[id] = struct{}{}
	}

	today := s.clk.Now()
	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if _, ok := signedSet[id]; ok {
			continue
		}
		sess, err := s.getSession(ctx, id)
		if err != nil {
			continue
		}
		if IsSignable(sess.Date, today) {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

// UserSessions lists the user's signed-up sessions matching the requested
// view type.
func (s *service) UserSessions(ctx context.Context, username, viewType string) ([]*Session, error) {
	ids, err := s.repo.SignedSessionIDs(ctx, username)
	if err != nil {
		return nil, err
	}

	today := s.clk.Now()
	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.getSession(ctx, id)
		if err != nil {
			continue
		}
		hasSummary, err := s.repo.SummaryExists(ctx, username, id)
		if err != nil {
			return nil, err
		}
		if ClassifyForUser(viewType, sess, hasSummary, today) {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

// TeacherSessions lists the teacher's scheduled sessions matching the
// requested view type.
func (s *service) TeacherSessions(ctx context.Context, teacherName, viewType string) ([]*Session, error) {
	ids, err := s.repo.TeacherSessionIDs(ctx, teacherName)
	if err != nil {
		return nil, err
	}

	today := s.clk.Now()
	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.getSession(ctx, id)
		if err != nil {
			continue
		}
		if ClassifyForTeacher(viewType, sess, today) {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

func (s *service) SignIn(ctx context.Context, sessionID, username string) error {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.SignIn(ctx, sessionID, username); err != nil {
		return err
	}

	// Filled spots changed, cached copy is stale.
	s.invalidate(ctx, sessionID)

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"username":   username,
	}).Info("User signed into session")
	return nil
}

func (s *service) SignOut(ctx context.Context, sessionID, username string) error {
	if err := s.repo.SignOut(ctx, sessionID, username); err != nil {
		return err
	}

	s.invalidate(ctx, sessionID)

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"username":   username,
	}).Info("User signed out of session")
	return nil
}

// CanEnter permits entering only while the teacher has the session running.
func (s *service) CanEnter(ctx context.Context, sessionID string) bool {
	sess, err := s.getSession(ctx, sessionID)
	return err == nil && sess.IsActive == StatusActive
}

// CanLeave requires an existing signing record; the session status does not
// matter.
func (s *service) CanLeave(ctx context.Context, sessionID, username string) bool {
	exists, err := s.repo.SigningExists(ctx, sessionID, username)
	return err == nil && exists
}

// Enter announces the user to everyone watching the session stream.
func (s *service) Enter(ctx context.Context, sessionID, username string) error {
	if !s.CanEnter(ctx, sessionID) {
		return models.ErrSessionInactive
	}

	member, err := s.users.Member(ctx, username)
	if err != nil {
		return models.ErrUserNotFound
	}

	s.bus.Publish(stream.NewEvent(sessionID, username, stream.EventEnterSession, member.FirstName, s.clk.Now()))

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"username":   username,
	}).Info("User entered session")
	return nil
}

// Leave announces the departure; the value field stays empty.
func (s *service) Leave(ctx context.Context, sessionID, username string) error {
	if !s.CanLeave(ctx, sessionID, username) {
		return models.ErrNotSigned
	}

	s.bus.Publish(stream.NewEvent(sessionID, username, stream.EventLeaveSession, "", s.clk.Now()))

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"username":   username,
	}).Info("User left session")
	return nil
}

func (s *service) Create(ctx context.Context, req *CreateRequest) error {
	sess := &Session{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Date:        req.Date,
		Hour:        req.Hour,
		Teacher:     req.Teacher,
		TotalSpots:  req.TotalSpots,
		Description: req.Description,
		IsActive:    StatusScheduled,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"teacher":    sess.Teacher,
		"date":       sess.Date,
	}).Info("Session created")
	return nil
}

// Cancel removes one of the teacher's sessions and notifies every signed
// user by email. Email failures are logged and skipped; the cancellation
// itself must not depend on the mail queue.
func (s *service) Cancel(ctx context.Context, teacherName, sessionID string) error {
	owned, err := s.repo.ExistsWithTeacher(ctx, teacherName, sessionID)
	if err != nil {
		return err
	}
	if !owned {
		return models.ErrSessionNotFound
	}

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}

	s.notifySignedUsers(ctx, sessionID, func(member *Member) error {
		return s.mailer.SendCancellationEmail(member.Email, member.FirstName+" "+member.LastName,
			sess.Name, sess.Date, sess.Hour)
	})

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.invalidate(ctx, sessionID)

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"teacher":    teacherName,
	}).Info("Session canceled")
	return nil
}

// Start moves a session scheduled for today to active and mails the meeting
// credentials to the signed users.
func (s *service) Start(ctx context.Context, req *StartRequest) error {
	sess, err := s.getSession(ctx, req.SessionID)
	if err != nil {
		return err
	}
	if !IsToday(sess.Date, s.clk.Now()) {
		return models.ErrSessionNotToday
	}

	if err := s.repo.SetStatus(ctx, req.SessionID, StatusActive); err != nil {
		return err
	}
	s.invalidate(ctx, req.SessionID)

	s.notifySignedUsers(ctx, req.SessionID, func(member *Member) error {
		return s.mailer.SendSessionStartEmail(member.Email, member.FirstName+" "+member.LastName,
			sess.Name, req.ZoomID, req.ZoomPassword)
	})

	logrus.WithField("session_id", req.SessionID).Info("Session started")
	return nil
}

// Close moves a session running today to canceled, hiding it from all
// further lookups.
func (s *service) Close(ctx context.Context, sessionID string) error {
	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !IsToday(sess.Date, s.clk.Now()) {
		return models.ErrSessionNotToday
	}

	if err := s.repo.SetStatus(ctx, sessionID, StatusCanceled); err != nil {
		return err
	}
	s.invalidate(ctx, sessionID)

	logrus.WithField("session_id", sessionID).Info("Session closed")
	return nil
}

// SaveSummary computes the heart rate statistics for a finished session and
// persists them, marking the session as previous for the user.
func (s *service) SaveSummary(ctx context.Context, req *SummaryRequest) error {
	if len(req.Measurements) == 0 {
		return models.ErrNoMeasurements
	}

	sum, maximum, minimum := 0, req.Measurements[0], req.Measurements[0]
	for _, m := range req.Measurements {
		sum += m
		if m > maximum {
			maximum = m
		}
		if m < minimum {
			minimum = m
		}
	}

	summary := &Summary{
		SessionID: req.SessionID,
		Username:  req.Username,
		Count:     len(req.Measurements),
		Average:   sum / len(req.Measurements),
		Maximum:   maximum,
		Minimum:   minimum,
		HRV:       req.HRV,
	}

	if err := s.repo.SaveSummary(ctx, summary); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": req.SessionID,
		"username":   req.Username,
		"count":      summary.Count,
	}).Info("Session summary saved")
	return nil
}

func (s *service) GetSummary(ctx context.Context, username, sessionID string) (*SummaryResponse, error) {
	summary, err := s.repo.GetSummary(ctx, username, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SummaryResponse{
		Session: sess,
		Count:   summary.Count,
		Average: summary.Average,
		Maximum: summary.Maximum,
		Minimum: summary.Minimum,
		HRV:     summary.HRV,
	}, nil
}

// getSession reads through the cache; cache failures degrade to the
// repository.
func (s *service) getSession(ctx context.Context, sessionID string) (*Session, error) {
	if s.cache != nil {
		if sess, err := s.cache.GetSession(ctx, sessionID); err == nil && sess != nil {
			return sess, nil
		}
	}

	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheSession(ctx, sess); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Debug("Failed to cache session")
		}
	}
	return sess, nil
}

func (s *service) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSession(ctx, sessionID); err != nil && !errors.Is(err, models.ErrRedisDelete) {
		logrus.WithError(err).WithField("session_id", sessionID).Debug("Failed to invalidate cached session")
	}
}

func (s *service) notifySignedUsers(ctx context.Context, sessionID string, send func(*Member) error) {
	usernames, err := s.repo.UsersInSession(ctx, sessionID)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to list users for notification")
		return
	}

	for _, username := range usernames {
		member, err := s.users.Member(ctx, username)
		if err != nil {
			logrus.WithError(err).WithField("username", username).Warn("Skipping notification, user lookup failed")
			continue
		}
		if err := send(member); err != nil {
			logrus.WithError(err).WithField("username", username).Warn("Failed to queue notification email")
		}
	}
}
