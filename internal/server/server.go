// Package server exposes the recorder over HTTP: JSON commands for
// enumerating targets and starting or stopping a capture, and a WebSocket
// stream of status events.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/fakeyudi/lapse/internal/encoder"
	"github.com/fakeyudi/lapse/internal/recorder"
	"github.com/fakeyudi/lapse/internal/target"
)

// Recorder is the part of recorder.Orchestrator the API drives.
type Recorder interface {
	Start(t target.Target, p encoder.QualityProfile) (recorder.SessionInfo, error)
	Stop()
	Snapshot() recorder.SessionInfo
	Subscribe() (<-chan recorder.Event, func())
}

// TargetLister enumerates capture targets.
type TargetLister interface {
	List(ctx context.Context) []target.Target
}

// NewRouter returns a gin engine with every route mounted under /api.
func NewRouter(h *Handlers, logger hclog.Logger) *gin.Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger.Named("http")), originGuard(logger.Named("http")))
	h.RegisterRoutes(router.Group("/api"))
	return router
}

// requestLogger logs every request at debug level.
func requestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}

// originGuard rejects requests sent by pages from other origins. Browsers
// attach Origin to cross-site requests even when no preflight is needed.
func originGuard(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sameOrigin(c.Request) {
			logger.Warn("rejected cross-origin request",
				"origin", c.GetHeader("Origin"), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cross-origin requests are not allowed"})
			return
		}
		c.Next()
	}
}

// sameOrigin accepts requests without an Origin header, from an origin
// whose host matches the request's Host, or from a loopback origin.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully. ready, when non-nil, receives the bound address.
func Serve(ctx context.Context, addr string, handler http.Handler, logger hclog.Logger, ready func(net.Addr)) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	if ready != nil {
		ready(ln.Addr())
	}
	logger.Info("control API listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
