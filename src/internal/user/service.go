package user

import (
	"context"
	"time"

	"heartmon-svc/src/internal/clock"
	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/models"
	"heartmon-svc/src/internal/token"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Mailer delivers the password recovery email. Satisfied by
// clients.MailerClient.
type Mailer interface {
	SendRecoveryEmail(to, fullName, languageCode string, code int) error
}

type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(username, deviceToken string) error
	Register(ctx context.Context, req *RegisterRequest) error
	Details(ctx context.Context, username string) (*Details, error)
	SendRecoveryEmail(ctx context.Context, req *RecoveryRequest) (string, error)
	ChangePassword(ctx context.Context, req *ChangePasswordRequest) error
	TeacherLogin(ctx context.Context, name, password string) error
}

type service struct {
	repo     Repository
	tokens   *token.Store
	mailer   Mailer
	recovery *recoverySigner
	clk      clock.Clock
}

func NewService(cfg *config.Configuration, repo Repository, tokens *token.Store, mailer Mailer, clk clock.Clock) Service {
	return &service{
		repo:     repo,
		tokens:   tokens,
		mailer:   mailer,
		recovery: newRecoverySigner(cfg.Security.JwtKey, cfg.Security.RecoveryTokenMinutes),
		clk:      clk,
	}
}

// Login verifies the credentials and issues a device token. A login while a
// token is still live fails with models.ErrAlreadyLogged; bad credentials
// fail with models.ErrInvalidCredentials.
func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", models.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		logrus.WithField("username", username).Debug("Login rejected, wrong password")
		return "", models.ErrInvalidCredentials
	}

	deviceToken, err := s.tokens.Issue(username)
	if err != nil {
		return "", err
	}

	logrus.WithField("username", username).Info("User logged in")
	return deviceToken, nil
}

// Logout revokes the device token after proving the caller holds it.
func (s *service) Logout(username, deviceToken string) error {
	if !s.tokens.Validate(username, deviceToken) {
		return models.ErrInvalidToken
	}
	s.tokens.Revoke(username)
	logrus.WithField("username", username).Info("User logged out")
	return nil
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) error {
	birthDate, ok := validBirthdate(req.BirthDay, req.BirthMonth, req.BirthYear, s.clk.Now())
	if !ok {
		return models.ErrInvalidBirthdate
	}

	taken, err := s.repo.ExistsWithEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if taken {
		return models.ErrEmailTaken
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return models.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u := &User{
		Username:  req.Username,
		Password:  string(hash),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: birthDate.Format(BirthDateLayout),
		Gender:    req.Gender,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return err
	}

	logrus.WithField("username", req.Username).Info("User registered")
	return nil
}

func (s *service) Details(ctx context.Context, username string) (*Details, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return &Details{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       ageFrom(u.BirthDate, s.clk.Now()),
		Gender:    u.Gender,
	}, nil
}

// SendRecoveryEmail queues the recovery email carrying the client generated
// code and returns the signed token change-password will require.
func (s *service) SendRecoveryEmail(ctx context.Context, req *RecoveryRequest) (string, error) {
	u, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return "", err
	}

	recoveryToken, err := s.recovery.mint(u.Username, s.clk.Now())
	if err != nil {
		return "", err
	}

	if err := s.mailer.SendRecoveryEmail(u.Email, u.FirstName+" "+u.LastName, req.LanguageCode, req.Code); err != nil {
		return "", err
	}

	logrus.WithField("username", req.Username).Info("Recovery email queued")
	return recoveryToken, nil
}

func (s *service) ChangePassword(ctx context.Context, req *ChangePasswordRequest) error {
	if err := s.recovery.verify(req.RecoveryToken, req.Username, s.clk.Now()); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, req.Username, string(hash)); err != nil {
		return err
	}

	logrus.WithField("username", req.Username).Info("Password changed")
	return nil
}

func (s *service) TeacherLogin(ctx context.Context, name, password string) error {
	t, err := s.repo.GetTeacher(ctx, name)
	if err != nil {
		return models.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(t.Password), []byte(password)) != nil {
		return models.ErrInvalidCredentials
	}

	logrus.WithField("teacher", name).Info("Teacher logged in")
	return nil
}

// validBirthdate rejects impossible calendar dates and dates in the future.
func validBirthdate(day, month, year int, now time.Time) (time.Time, bool) {
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflows like 31-02, so a round trip detects them.
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return time.Time{}, false
	}
	if !d.Before(now) {
		return time.Time{}, false
	}
	return d, true
}

func ageFrom(birthDate string, now time.Time) int {
	d, err := time.Parse(BirthDateLayout, birthDate)
	if err != nil {
		logrus.WithField("birth_date", birthDate).Warn("Malformed birth date")
		return 0
	}
	age := now.Year() - d.Year()
	if now.Month() < d.Month() || (now.Month() == d.Month() && now.Day() < d.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
