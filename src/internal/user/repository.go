package user

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
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsWithEmail(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	GetTeacher(ctx context.Context, name string) (*Teacher, error)
}

type repository struct {
	users    *mongo.Collection
	teachers *mongo.Collection
}

func NewRepository(db *clients.MongoDB, cfg *config.Collections) Repository {
	return &repository{
		users:    db.Database.Collection(cfg.Users),
		teachers: db.Database.Collection(cfg.Teachers),
	}
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		logrus.WithError(err).WithField("username", username).Error("Failed to get user")
		return nil, models.ErrDatabaseQuery
	}
	return &u, nil
}

func (r *repository) ExistsWithEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		logrus.WithError(err).Error("Failed to check email uniqueness")
		return false, models.ErrDatabaseQuery
	}
	return count > 0, nil
}

func (r *repository) Insert(ctx context.Context, u *User) error {
	if _, err := r.users.InsertOne(ctx, u); err != nil {
		logrus.WithError(err).WithField("username", u.Username).Error("Failed to insert user")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *repository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result, err := r.users.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"password": passwordHash}},
	)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("Failed to update password")
		return models.ErrDatabaseUpdate
	}
	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *repository) GetTeacher(ctx context.Context, name string) (*Teacher, error) {
	var t Teacher
	err := r.teachers.FindOne(ctx, bson.M{"name": name}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrTeacherNotFound
		}
		logrus.WithError(err).WithField("teacher", name).Error("Failed to get teacher")
		return nil, models.ErrDatabaseQuery
	}
	return &t, nil
}
