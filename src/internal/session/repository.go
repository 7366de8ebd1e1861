package session

import (
	"context"
	"errors"

	"heartmon-svc/src/clients"
	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Repository interface {
	GetByID(ctx context.Context, sessionID string) (*Session, error)
	Create(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, sessionID string) error
	SetStatus(ctx context.Context, sessionID string, status int) error
	ExistsWithTeacher(ctx context.Context, teacherName, sessionID string) (bool, error)
	AllSessionIDs(ctx context.Context) ([]string, error)
	TeacherSessionIDs(ctx context.Context, teacherName string) ([]string, error)

	SignIn(ctx context.Context, sessionID, username string) error
	SignOut(ctx context.Context, sessionID, username string) error
	SigningExists(ctx context.Context, sessionID, username string) (bool, error)
	SignedSessionIDs(ctx context.Context, username string) ([]string, error)
	UsersInSession(ctx context.Context, sessionID string) ([]string, error)

	SaveSummary(ctx context.Context, summary *Summary) error
	GetSummary(ctx context.Context, username, sessionID string) (*Summary, error)
	SummaryExists(ctx context.Context, username, sessionID string) (bool, error)
}

type repository struct {
	sessions  *mongo.Collection
	signings  *mongo.Collection
	summaries *mongo.Collection
}

func NewRepository(db *clients.MongoDB, cfg *config.Collections) Repository {
	return &repository{
		sessions:  db.Database.Collection(cfg.Sessions),
		signings:  db.Database.Collection(cfg.Signings),
		summaries: db.Database.Collection(cfg.Summaries),
	}
}

// GetByID returns the session with the given id. Canceled sessions are
// invisible everywhere, matching the booking clients' expectations.
func (r *repository) GetByID(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	filter := bson.M{"session_id": sessionID, "is_active": bson.M{"$ne": StatusCanceled}}

	err := r.sessions.FindOne(ctx, filter).Decode(&sess)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSessionNotFound
		}
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to get session")
		return nil, models.ErrDatabaseQuery
	}

	filled, err := r.signings.CountDocuments(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to count signings")
		return nil, models.ErrDatabaseQuery
	}
	sess.FilledSpots = int(filled)

	return &sess, nil
}

func (r *repository) Create(ctx context.Context, sess *Session) error {
	if _, err := r.sessions.InsertOne(ctx, sess); err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Error("Failed to insert session")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, sessionID string) error {
	res, err := r.sessions.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to delete session")
		return models.ErrDatabaseDelete
	}
	if res.DeletedCount == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, sessionID string, status int) error {
	res, err := r.sessions.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"is_active": status}},
	)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"status":     status,
		}).Error("Failed to update session status")
		return models.ErrDatabaseUpdate
	}
	if res.MatchedCount == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (r *repository) ExistsWithTeacher(ctx context.Context, teacherName, sessionID string) (bool, error) {
	count, err := r.sessions.CountDocuments(ctx, bson.M{"session_id": sessionID, "teacher": teacherName})
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to check session teacher")
		return false, models.ErrDatabaseQuery
	}
	return count > 0, nil
}

func (r *repository) AllSessionIDs(ctx context.Context) ([]string, error) {
	return r.distinctSessionIDs(ctx, r.sessions, bson.M{})
}

func (r *repository) TeacherSessionIDs(ctx context.Context, teacherName string) ([]string, error) {
	return r.distinctSessionIDs(ctx, r.sessions, bson.M{
		"teacher":   teacherName,
		"is_active": StatusScheduled,
	})
}

func (r *repository) SignIn(ctx context.Context, sessionID, username string) error {
	exists, err := r.SigningExists(ctx, sessionID, username)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrAlreadySigned
	}

	if _, err := r.signings.InsertOne(ctx, Signing{SessionID: sessionID, Username: username}); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"username":   username,
		}).Error("Failed to insert signing")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *repository) SignOut(ctx context.Context, sessionID, username string) error {
	res, err := r.signings.DeleteOne(ctx, bson.M{"session_id": sessionID, "username": username})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"username":   username,
		}).Error("Failed to delete signing")
		return models.ErrDatabaseDelete
	}
	if res.DeletedCount == 0 {
		return models.ErrNotSigned
	}
	return nil
}

func (r *repository) SigningExists(ctx context.Context, sessionID, username string) (bool, error) {
	count, err := r.signings.CountDocuments(ctx, bson.M{"session_id": sessionID, "username": username})
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to check signing")
		return false, models.ErrDatabaseQuery
	}
	return count > 0, nil
}

func (r *repository) SignedSessionIDs(ctx context.Context, username string) ([]string, error) {
	return r.distinctSessionIDs(ctx, r.signings, bson.M{"username": username})
}

func (r *repository) UsersInSession(ctx context.Context, sessionID string) ([]string, error) {
	values, err := r.signings.Distinct(ctx, "username", bson.M{"session_id": sessionID})
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to list session users")
		return nil, models.ErrDatabaseQuery
	}
	return toStrings(values), nil
}

func (r *repository) SaveSummary(ctx context.Context, summary *Summary) error {
	if _, err := r.summaries.InsertOne(ctx, summary); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": summary.SessionID,
			"username":   summary.Username,
		}).Error("Failed to insert session summary")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *repository) GetSummary(ctx context.Context, username, sessionID string) (*Summary, error) {
	var summary Summary
	filter := bson.M{"username": username, "session_id": sessionID}

	err := r.summaries.FindOne(ctx, filter).Decode(&summary)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSummaryNotFound
		}
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to get session summary")
		return nil, models.ErrDatabaseQuery
	}
	return &summary, nil
}

func (r *repository) SummaryExists(ctx context.Context, username, sessionID string) (bool, error) {
	count, err := r.summaries.CountDocuments(ctx, bson.M{"username": username, "session_id": sessionID})
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to check session summary")
		return false, models.ErrDatabaseQuery
	}
	return count > 0, nil
}

func (r *repository) distinctSessionIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]string, error) {
	values, err := coll.Distinct(ctx, "session_id", filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to list session ids")
		return nil, models.ErrDatabaseQuery
	}
	return toStrings(values), nil
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
