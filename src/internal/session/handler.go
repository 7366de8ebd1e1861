package session

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
	UserSessions(c *gin.Context)
	SignableSessions(c *gin.Context)
	SignIn(c *gin.Context)
	SignOut(c *gin.Context)
	Enter(c *gin.Context)
	Leave(c *gin.Context)
	SaveSummary(c *gin.Context)
	GetSummary(c *gin.Context)
	Create(c *gin.Context)
	TeacherSessions(c *gin.Context)
	Cancel(c *gin.Context)
	Start(c *gin.Context)
	Close(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
	tokens  *token.Store
}

func NewHandler(cfg *config.Configuration, service Service, tokens *token.Store) Handler {
	return &handler{
		config:  cfg,
		service: service,
		tokens:  tokens,
	}
}

// UserSessions serves get-user-sessions; the token is checked by the auth
// middleware on the route.
func (h *handler) UserSessions(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	username := c.Param("username")
	viewType := c.Param("type")

	sessions, err := h.service.UserSessions(ctx, username, viewType)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("Failed to list user sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// SignableSessions serves get-sessions; the route allows the anonymous
// Guest caller.
func (h *handler) SignableSessions(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	username := c.Param("username")

	sessions, err := h.service.SignableSessions(ctx, username)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("Failed to list signable sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *handler) SignIn(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSignInFail))
		return
	}
	if !h.authorized(c, req.Username) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.SignIn(ctx, req.SessionID, req.Username); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": req.SessionID,
			"username":   req.Username,
		}).Warn("Session sign-in rejected")
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSignInFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgSignInOK))
}

func (h *handler) SignOut(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSignOutFail))
		return
	}
	if !h.authorized(c, req.Username) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.SignOut(ctx, req.SessionID, req.Username); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSignOutFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgSignOutOK))
}

// Enter admits a user into a running session and announces it on the
// stream. Like the telemetry endpoints it is not token gated; admission is
// decided by the session status alone.
func (h *handler) Enter(c *gin.Context) {
	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgEnterSessionFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Enter(ctx, req.SessionID, req.Username); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgEnterSessionFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgEnterSessionOK))
}

func (h *handler) Leave(c *gin.Context) {
	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgLeaveSessionFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Leave(ctx, req.SessionID, req.Username); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgLeaveSessionFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgLeaveSessionOK))
}

func (h *handler) SaveSummary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSummaryFail))
		return
	}
	if !h.authorized(c, req.Username) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.SaveSummary(ctx, &req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSummaryFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgSummaryOK))
}

func (h *handler) GetSummary(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSummaryFail))
		return
	}
	if !h.authorized(c, req.Username) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	summary, err := h.service.GetSummary(ctx, req.Username, req.SessionID)
	if err != nil {
		if errors.Is(err, models.ErrSummaryNotFound) || errors.Is(err, models.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, models.Fail(models.MsgSummaryFail))
			return
		}
		c.JSON(http.StatusInternalServerError, models.Fail(models.MsgSummaryFail))
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgCreateSessionFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Create(ctx, &req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgCreateSessionFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgCreateSessionOK))
}

func (h *handler) TeacherSessions(c *gin.Context) {
	var req TeacherSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid teacher session request"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	sessions, err := h.service.TeacherSessions(ctx, req.Name, req.Type)
	if err != nil {
		logrus.WithError(err).WithField("teacher", req.Name).Error("Failed to list teacher sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *handler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSessionCancelFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Cancel(ctx, req.Name, req.SessionID); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSessionCancelFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgSessionCancelOK))
}

func (h *handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSessionStartFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Start(ctx, &req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSessionStartFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgSessionStartOK))
}

func (h *handler) Close(c *gin.Context) {
	var req CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSessionCloseFail))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Close(ctx, req.SessionID); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail(models.MsgSessionCloseFail))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.MsgSessionCloseOK))
}

// authorized validates the device token for body-carried principals. The
// response never distinguishes an expired token from an unknown one.
func (h *handler) authorized(c *gin.Context, username string) bool {
	if h.tokens.Validate(username, c.GetHeader(token.HeaderName)) {
		return true
	}
	logrus.WithField("username", username).Warn("Request rejected, invalid device token")
	c.JSON(http.StatusBadRequest, models.Fail(models.MsgInvalidToken))
	return false
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}
