package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"heartmon-svc/src/internal/clock"
	"heartmon-svc/src/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, idle time.Duration) (*Bus, *clock.Mock, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := NewBus(8)
	clk := clock.NewMock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	h := &handler{
		bus:  bus,
		cfg:  &config.Configuration{},
		clk:  clk,
		idle: idle,
	}

	router := gin.New()
	router.GET("/session/:sessionId", h.Stream)
	router.POST("/heartbeat-info", h.Heartbeat)
	router.POST("/hrv", h.HRV)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return bus, clk, srv
}

func readFirstDataLine(body io.Reader) (string, error) {
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data:")), nil
		}
	}
}

func TestStreamDeliversPublishedEvent(t *testing.T) {
	bus, _, srv := newStreamServer(t, time.Minute)

	type result struct {
		payload string
		err     error
	}
	results := make(chan result, 1)

	go func() {
		resp, err := http.Get(srv.URL + "/session/7")
		if err != nil {
			results <- result{err: err}
			return
		}
		defer resp.Body.Close()
		payload, err := readFirstDataLine(resp.Body)
		results <- result{payload: payload, err: err}
	}()

	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond, "stream handler should register its subscription")

	bus.Publish(NewEvent("7", "alice", EventHeartRate, "72", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))

	select {
	case res := <-results:
		require.NoError(t, res.err)

		var got Event
		require.NoError(t, json.Unmarshal([]byte(res.payload), &got))
		assert.Equal(t, Event{
			SessionID: "7",
			Username:  "alice",
			TimeStamp: "2026-03-10T12:00:00",
			Event:     EventHeartRate,
			Value:     "72",
		}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for streamed event")
	}
}

func TestStreamIdleTimeout(t *testing.T) {
	_, _, srv := newStreamServer(t, 300*time.Millisecond)

	start := time.Now()
	resp, err := http.Get(srv.URL + "/session/7")
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 250*time.Millisecond, "stream must not end before the idle window")
	assert.Less(t, elapsed, 3*time.Second, "stream must terminate once the idle window elapses")
}

func TestStreamSubscriptionReleasedOnDisconnect(t *testing.T) {
	bus, _, srv := newStreamServer(t, time.Minute)

	resp := make(chan *http.Response, 1)
	go func() {
		r, err := http.Get(srv.URL + "/session/7")
		if err == nil {
			resp <- r
		}
	}()

	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	// One event unblocks the handler so the response reaches the client.
	bus.Publish(NewEvent("7", "alice", EventHeartRate, "72", time.Now()))

	select {
	case r := <-resp:
		r.Body.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream response")
	}

	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "subscription should be released after disconnect")
}

func TestHeartbeatEndpointPublishes(t *testing.T) {
	bus, _, srv := newStreamServer(t, time.Minute)

	sub := bus.Subscribe("7")
	defer sub.Close()

	body := bytes.NewBufferString(`{"sessionId":"7","username":"alice","heartRate":72,"timeStamp":1760000000}`)
	resp, err := http.Post(srv.URL+"/heartbeat-info", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := receiveOne(t, sub)
	assert.Equal(t, EventHeartRate, got.Event)
	assert.Equal(t, "72", got.Value)
	assert.Equal(t, "alice", got.Username)
}

func TestHRVEndpointPublishes(t *testing.T) {
	bus, _, srv := newStreamServer(t, time.Minute)

	sub := bus.Subscribe("7")
	defer sub.Close()

	body := bytes.NewBufferString(`{"sessionId":"7","username":"alice","hrv":50}`)
	resp, err := http.Post(srv.URL+"/hrv", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := receiveOne(t, sub)
	assert.Equal(t, EventHRV, got.Event)
	assert.Equal(t, "50", got.Value)
}

func TestHeartbeatRejectsMalformedPayload(t *testing.T) {
	_, _, srv := newStreamServer(t, time.Minute)

	resp, err := http.Post(srv.URL+"/heartbeat-info", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
