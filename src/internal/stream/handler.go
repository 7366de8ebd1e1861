package stream

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"heartmon-svc/src/internal/clock"
	"heartmon-svc/src/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HeartbeatRequest is the body of heartbeat-info.
type HeartbeatRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Username  string `json:"username" binding:"required"`
	HeartRate int    `json:"heartRate"`
	TimeStamp int64  `json:"timeStamp"`
}

// HRVRequest is the body of hrv.
type HRVRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Username  string `json:"username" binding:"required"`
	HRV       int    `json:"hrv"`
}

type Handler interface {
	Heartbeat(c *gin.Context)
	HRV(c *gin.Context)
	Stream(c *gin.Context)
}

type handler struct {
	bus  *Bus
	cfg  *config.Configuration
	clk  clock.Clock
	idle time.Duration
}

func NewHandler(cfg *config.Configuration, bus *Bus, clk clock.Clock) Handler {
	idle := time.Duration(cfg.Stream.IdleTimeoutMinutes) * time.Minute
	if idle <= 0 {
		idle = time.Hour
	}
	return &handler{
		bus:  bus,
		cfg:  cfg,
		clk:  clk,
		idle: idle,
	}
}

// Heartbeat publishes one heart rate sample to the session stream.
func (h *handler) Heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid heartbeat payload"})
		return
	}

	h.bus.Publish(NewEvent(req.SessionID, req.Username, EventHeartRate, strconv.Itoa(req.HeartRate), h.clk.Now()))

	logrus.WithFields(logrus.Fields{
		"session_id": req.SessionID,
		"username":   req.Username,
		"heart_rate": req.HeartRate,
	}).Debug("Heartbeat published")

	c.Status(http.StatusOK)
}

// HRV publishes one heart rate variability sample to the session stream.
func (h *handler) HRV(c *gin.Context) {
	var req HRVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hrv payload"})
		return
	}

	h.bus.Publish(NewEvent(req.SessionID, req.Username, EventHRV, strconv.Itoa(req.HRV), h.clk.Now()))

	logrus.WithFields(logrus.Fields{
		"session_id": req.SessionID,
		"username":   req.Username,
		"hrv":        req.HRV,
	}).Debug("HRV published")

	c.Status(http.StatusOK)
}

// Stream serves the live event feed for one session over SSE. The stream
// ends when the client disconnects or when no event has been delivered to
// this subscriber for the configured idle window. One timer covers the whole
// subscription; traffic for other sessions never extends it.
func (h *handler) Stream(c *gin.Context) {
	sessionID := c.Param("sessionId")

	sub := h.bus.Subscribe(sessionID)
	defer sub.Close()

	timer := time.NewTimer(h.idle)
	defer timer.Stop()

	logrus.WithField("session_id", sessionID).Info("Stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent("message", event)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(h.idle)
			return true
		case <-timer.C:
			logrus.WithField("session_id", sessionID).Info("Stream idle timeout reached")
			return false
		case <-c.Request.Context().Done():
			logrus.WithField("session_id", sessionID).Debug("Stream client disconnected")
			return false
		}
	})
}
