package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/fakeyudi/lapse/internal/encoder"
	"github.com/fakeyudi/lapse/internal/recorder"
	"github.com/fakeyudi/lapse/internal/target"
)

const writeWait = 10 * time.Second

// StartRequest is the body of POST /api/capture/start.
type StartRequest struct {
	TargetID          string `json:"targetId" binding:"required"`
	TargetDisplayName string `json:"targetDisplayName"`
	Quality           string `json:"quality"`
}

// Handlers serves the capture API.
type Handlers struct {
	rec            Recorder
	targets        TargetLister
	logger         hclog.Logger
	defaultQuality string
	wsUpgrader     websocket.Upgrader

	mu         sync.Mutex
	lastStatus recorder.Status
	cancel     func()
	done       chan struct{}
}

// NewHandlers returns API handlers over rec. They follow rec's events to
// answer status queries; call Close to release the subscription.
func NewHandlers(rec Recorder, targets TargetLister, defaultQuality string, logger hclog.Logger) *Handlers {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	h := &Handlers{
		rec:            rec,
		targets:        targets,
		logger:         logger.Named("api"),
		defaultQuality: defaultQuality,
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: sameOrigin,
		},
		done: make(chan struct{}),
	}
	events, cancel := rec.Subscribe()
	h.cancel = cancel
	go h.followStatus(events)
	return h
}

// Close stops following recorder events.
func (h *Handlers) Close() {
	h.cancel()
	<-h.done
}

func (h *Handlers) followStatus(events <-chan recorder.Event) {
	defer close(h.done)
	for ev := range events {
		if ev.Type != recorder.EventStatus {
			continue
		}
		h.mu.Lock()
		h.lastStatus = ev.Status
		h.mu.Unlock()
	}
}

// RegisterRoutes registers the capture API routes.
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/targets", h.ListTargets)

	capture := router.Group("/capture")
	{
		capture.POST("/start", h.StartCapture)
		capture.POST("/stop", h.StopCapture)
		capture.GET("/status", h.GetStatus)
		capture.GET("/events", h.HandleWebSocket)
	}
}

// ListTargets returns the targets currently available for capture.
func (h *Handlers) ListTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"targets": h.targets.List(c.Request.Context())})
}

// StartCapture starts recording the requested target, replacing any
// recording in progress.
func (h *Handlers) StartCapture(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start command: " + err.Error()})
		return
	}

	quality := req.Quality
	if quality == "" {
		quality = h.defaultQuality
	}
	if quality != "" && quality != encoder.Low.Name && quality != encoder.High.Name {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quality must be low or high"})
		return
	}

	t, ok := target.Resolve(h.targets.List(c.Request.Context()), req.TargetID, req.TargetDisplayName)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown target " + req.TargetID})
		return
	}

	info, err := h.rec.Start(t, encoder.ProfileByName(quality))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, recorder.ErrBinaryNotFound) {
			status = http.StatusFailedDependency
		}
		h.logger.Warn("start command failed", "target", t.ID, "error", err)
		c.JSON(status, gin.H{"error": err.Error(), "session": info})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session": info})
}

// StopCapture begins a graceful stop. It is idempotent.
func (h *Handlers) StopCapture(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	h.rec.Stop()
	c.JSON(http.StatusAccepted, gin.H{"session": h.rec.Snapshot()})
}

// requireJSON refuses commands that are not sent as application/json, so
// that a plain HTML form or text/plain fetch from another site cannot issue
// them.
func requireJSON(c *gin.Context) bool {
	if c.ContentType() == "application/json" {
		return true
	}
	c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "commands must be sent as application/json"})
	return false
}

// GetStatus returns the latest status event together with a session snapshot.
func (h *Handlers) GetStatus(c *gin.Context) {
	info := h.rec.Snapshot()

	h.mu.Lock()
	st := h.lastStatus
	h.mu.Unlock()
	if info.State == recorder.StateRecording {
		st = recorder.Status{IsCapturing: true, Duration: info.Duration}
	}
	c.JSON(http.StatusOK, gin.H{"status": st, "session": info})
}

// HandleWebSocket streams every recorder event to the client as JSON until
// the client disconnects.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	conn, err := h.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.rec.Subscribe()
	defer cancel()

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("event stream opened", "remote", c.Request.RemoteAddr)
	for {
		select {
		case <-gone:
			h.logger.Debug("event stream closed", "remote", c.Request.RemoteAddr)
			return
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "recorder shut down"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
