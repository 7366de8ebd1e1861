package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/models"
	"heartmon-svc/src/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Register(c *gin.Context)
	GetUser(c *gin.Context)
	SendRecoveryEmail(c *gin.Context)
	ChangePassword(c *gin.Context)
	TeacherLogin(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.LoginResponse{StatusCode: 400, Message: models.MsgLoginFail})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	deviceToken, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyLogged) {
			c.JSON(http.StatusBadRequest, models.LoginResponse{StatusCode: 400, Message: models.MsgAlreadyLogged})
			return
		}
		c.JSON(http.StatusBadRequest, models.LoginResponse{StatusCode: 400, Message: models.MsgLoginFail})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		StatusCode:  200,
		Message:     models.MsgLoginOK,
		DeviceToken: deviceToken,
	})
}

func (h *handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgInvalidToken))
		return
	}

	if err := h.service.Logout(req.Username, c.GetHeader(token.HeaderName)); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgInvalidToken))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgLogoutOK))
}

func (h *handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgRegisterFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Register(ctx, &req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(registerFailureMessage(err)))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgRegisterOK))
}

// GetUser serves get-user; the token is checked by the auth middleware on
// the route.
func (h *handler) GetUser(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	username := c.Param("username")

	details, err := h.service.Details(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logrus.WithError(err).WithField("username", username).Error("Failed to get user details")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *handler) SendRecoveryEmail(c *gin.Context) {
	var req RecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgEmailNotSent))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	recoveryToken, err := h.service.SendRecoveryEmail(ctx, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgEmailNotSent))
		return
	}

	c.JSON(http.StatusOK, RecoveryResponse{
		StatusCode:    200,
		Message:       models.MsgEmailSent,
		RecoveryToken: recoveryToken,
	})
}

func (h *handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgChangePassFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.ChangePassword(ctx, &req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgChangePassFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgChangePassOK))
}

func (h *handler) TeacherLogin(c *gin.Context) {
	var req TeacherLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgLoginFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.TeacherLogin(ctx, req.Name, req.Password); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgLoginFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgLoginOK))
}

func registerFailureMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidBirthdate):
		return models.MsgBadBirthdate
	case errors.Is(err, models.ErrUsernameTaken):
		return models.MsgUsernameUsed
	case errors.Is(err, models.ErrEmailTaken):
		return models.MsgEmailUsed
	default:
		return models.MsgRegisterFail
	}
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}
