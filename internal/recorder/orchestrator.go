package recorder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/fakeyudi/lapse/internal/artifact"
	"github.com/fakeyudi/lapse/internal/encoder"
	"github.com/fakeyudi/lapse/internal/target"
)

// Default timings.
const (
	DefaultGracePeriod     = 3 * time.Second
	DefaultTerminatePeriod = 3 * time.Second
	DefaultTickInterval    = time.Second
	DefaultDrainTimeout    = 2 * time.Second
	DefaultEventBuffer     = 64
)

// Options configures an Orchestrator. Zero values select the defaults.
type Options struct {
	Builder encoder.Builder
	// Binary is the encoder executable, by path or by name on PATH.
	Binary   string
	Launcher Launcher
	// OutputDir receives capture-YYYYMMDD-HHMMSS.mp4 files.
	OutputDir string
	Logger    hclog.Logger

	// GracePeriod is how long the encoder may take to exit after the quit
	// command before it is terminated.
	GracePeriod time.Duration
	// TerminatePeriod is how long the encoder may take to exit after the
	// terminate signal before it is killed.
	TerminatePeriod time.Duration
	TickInterval    time.Duration
	// DrainTimeout bounds how long a finished session waits for the rest of
	// the encoder's stderr.
	DrainTimeout time.Duration
	// EventBuffer is how many undelivered ticks a subscriber may fall behind
	// before further ticks are dropped for it.
	EventBuffer int
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Launcher == nil {
		o.Launcher = ExecLauncher{}
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	if o.TerminatePeriod <= 0 {
		o.TerminatePeriod = DefaultTerminatePeriod
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = DefaultEventBuffer
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// stopPhase is the escalation step a stopping session has reached.
type stopPhase int

const (
	phaseNone stopPhase = iota
	phaseQuit
	phaseTerminate
	phaseKill
)

type session struct {
	id         string
	state      State
	target     target.Target
	quality    string
	outputPath string
	startedAt  time.Time
	proc       Process
	pid        int

	phase           stopPhase
	graceTimer      *time.Timer
	killTimer       *time.Timer
	stopRequestedAt time.Time
	forced          bool
	superseded      bool
	exited          bool
	duration        time.Duration
	lastDriverError string

	tickStop  chan struct{}
	tickOnce  sync.Once
	tickDone  chan struct{}
	relayDone chan struct{}
	finished  chan struct{}
	exitOnce  sync.Once
}

// Orchestrator owns the single capture session slot. All session state is
// guarded by mu; events are published through a Broadcaster.
type Orchestrator struct {
	opts   Options
	logger hclog.Logger
	events *Broadcaster[Event]

	mu  sync.Mutex
	cur *session
}

// New returns an idle Orchestrator.
func New(opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		opts:   opts,
		logger: opts.Logger.Named("recorder"),
		events: NewBroadcaster(opts.EventBuffer, Event.IsTick),
	}
}

// Subscribe returns a channel of events and a function that cancels the
// subscription.
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.events.Subscribe()
}

// Start records t with quality p. A session that is still active is killed
// first, without the graceful shutdown sequence. Start returns once the
// encoder has been spawned; progress is reported through events.
func (o *Orchestrator) Start(t target.Target, p encoder.QualityProfile) (SessionInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if prev := o.cur; prev != nil && prev.state.Active() {
		o.supersedeLocked(prev)
	}

	bin, err := encoder.ResolveBinary(o.opts.Binary)
	if err != nil {
		o.logger.Error("cannot start capture", "error", err)
		o.events.Publish(Event{Type: EventStatus, Status: Status{Error: err.Error()}})
		return SessionInfo{State: StateIdle}, err
	}

	now := o.opts.Now()
	s := &session{
		id:        uuid.NewString(),
		state:     StateStarting,
		target:    t,
		quality:   p.Name,
		startedAt: now,
		tickStop:  make(chan struct{}),
		tickDone:  make(chan struct{}),
		relayDone: make(chan struct{}),
		finished:  make(chan struct{}),
	}
	o.cur = s

	inv := o.opts.Builder.Build(t, encoder.OutputPath(o.opts.OutputDir, now), p)
	inv.Binary = bin
	s.outputPath = inv.OutputPath()
	for _, w := range inv.Warnings {
		o.logger.Warn("encoder preparation", "session", s.id, "warning", w)
	}
	o.logger.Debug("launching encoder", "session", s.id, "command", inv.String())

	proc, err := o.opts.Launcher.Launch(inv)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSpawnFailure, err)
		s.state = StateFailed
		close(s.tickDone)
		close(s.relayDone)
		close(s.finished)
		o.logger.Error("encoder failed to start", "session", s.id, "error", err)
		o.publish(s, Event{Type: EventError, Err: err})
		o.publish(s, Event{Type: EventStatus, Status: Status{Error: err.Error()}})
		return s.info(o.opts.Now()), err
	}

	s.proc = proc
	s.pid = proc.Pid()
	s.state = StateRecording
	o.logger.Info("recording started", "session", s.id, "target", t.ID, "pid", s.pid, "output", s.outputPath)

	go o.relay(s, proc.Stderr())
	go o.tick(s)
	go o.watch(s, proc)
	return s.info(now), nil
}

// Stop begins a graceful shutdown of the active session: the quit command,
// then a terminate signal after GracePeriod, then a kill after
// TerminatePeriod. It returns immediately. Stop without an active session,
// or on a session that is already stopping, does nothing.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.cur
	if s == nil || s.state != StateRecording {
		return
	}
	s.state = StateStopping
	s.stopRequestedAt = o.opts.Now()
	s.phase = phaseQuit
	s.stopTicks()
	o.logger.Info("stopping recording", "session", s.id)

	if err := s.proc.Quit(); err != nil {
		o.logger.Warn("quit command failed", "session", s.id, "error", fmt.Errorf("%w: %v", ErrShutdownEscalation, err))
	}
	s.graceTimer = time.AfterFunc(o.opts.GracePeriod, func() { o.escalate(s, phaseTerminate) })
}

// escalate moves a stopping session to phase unless it has already exited
// or progressed further. Late timers are therefore harmless.
func (o *Orchestrator) escalate(s *session, phase stopPhase) {
	o.mu.Lock()
	if s.exited || s.phase >= phase {
		o.mu.Unlock()
		return
	}
	s.phase = phase
	s.forced = true

	var killErr error
	switch phase {
	case phaseTerminate:
		o.logger.Warn("encoder ignored quit, terminating", "session", s.id, "pid", s.pid)
		if err := s.proc.Terminate(); err != nil {
			o.logger.Warn("terminate failed", "session", s.id, "error", fmt.Errorf("%w: %v", ErrShutdownEscalation, err))
		}
		s.killTimer = time.AfterFunc(o.opts.TerminatePeriod, func() { o.escalate(s, phaseKill) })
	case phaseKill:
		o.logger.Warn("encoder ignored terminate, killing", "session", s.id, "pid", s.pid)
		if err := s.proc.Kill(); err != nil {
			killErr = fmt.Errorf("%w: %v", ErrShutdownEscalation, err)
			o.logger.Error("kill failed", "session", s.id, "error", killErr)
		}
	}
	o.mu.Unlock()

	if killErr != nil {
		go o.finish(s, -1, killErr)
	}
}

// supersedeLocked kills prev immediately to make room for a new session.
func (o *Orchestrator) supersedeLocked(prev *session) {
	o.logger.Info("replacing active recording", "session", prev.id)
	prev.superseded = true
	prev.forced = true
	if prev.stopRequestedAt.IsZero() {
		prev.stopRequestedAt = o.opts.Now()
	}
	prev.state = StateStopping
	prev.phase = phaseKill
	prev.stopTimersLocked()
	prev.stopTicks()
	if err := prev.proc.Kill(); err != nil {
		err = fmt.Errorf("%w: %v", ErrShutdownEscalation, err)
		o.logger.Error("kill failed", "session", prev.id, "error", err)
		go o.finish(prev, -1, err)
	}
}

func (o *Orchestrator) watch(s *session, proc Process) {
	code, err := proc.Wait()
	o.mu.Lock()
	s.exited = true
	s.stopTimersLocked()
	o.mu.Unlock()
	o.finish(s, code, err)
}

// finish runs exactly once per spawned session, whichever of process exit or
// a failed kill gets there first.
func (o *Orchestrator) finish(s *session, code int, waitErr error) {
	s.exitOnce.Do(func() {
		o.mu.Lock()
		s.exited = true
		s.stopTimersLocked()
		s.stopTicks()
		o.mu.Unlock()

		<-s.tickDone
		o.drain(s)
		art := artifact.Validate(s.outputPath)

		o.mu.Lock()
		var err error
		if s.state == StateStopping {
			s.state = StateStopped
			err = waitErr
		} else {
			s.state = StateFailed
			err = &ExitError{Code: code, Detail: s.lastDriverError}
			if waitErr != nil {
				err = fmt.Errorf("%w: %v", err, waitErr)
			}
		}
		end := s.stopRequestedAt
		if end.IsZero() {
			end = o.opts.Now()
		}
		s.duration = end.Sub(s.startedAt)
		s.proc = nil
		result := &StopResult{
			SessionID: s.id,
			State:     s.state,
			Artifact:  art,
			ExitCode:  code,
			Forced:    s.forced,
			Duration:  s.duration,
			Err:       err,
		}
		superseded := s.superseded
		o.mu.Unlock()

		status := Status{Duration: int(result.Duration / time.Second)}
		switch {
		case result.State == StateFailed:
			status.Duration = 0
			status.Error = err.Error()
		case err != nil:
			status.Error = err.Error()
		case !art.Valid:
			status.Error = art.Err().Error()
		}
		if result.Err == nil {
			result.Err = art.Err()
		}

		o.logger.Info("recording finished", "session", s.id, "state", result.State, "exit_code", code,
			"forced", result.Forced, "duration", result.Duration.Round(time.Second), "bytes", art.SizeBytes, "valid", art.Valid)

		if !superseded {
			o.publish(s, Event{Type: EventStatus, Status: status})
		}
		o.publish(s, Event{Type: EventSessionStopped, Result: result})
		close(s.finished)
	})
}

// drain waits for the stderr relay, closing the pipe if the encoder's output
// does not reach EOF in time.
func (o *Orchestrator) drain(s *session) {
	select {
	case <-s.relayDone:
		return
	case <-time.After(o.opts.DrainTimeout):
	}
	o.logger.Debug("stderr still open after exit, closing", "session", s.id)
	o.mu.Lock()
	proc := s.proc
	o.mu.Unlock()
	if proc != nil {
		_ = proc.Stderr().Close()
	}
	<-s.relayDone
}

func (o *Orchestrator) tick(s *session) {
	defer close(s.tickDone)
	t := time.NewTicker(o.opts.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-s.tickStop:
			return
		case <-t.C:
		}
		o.mu.Lock()
		if s.state != StateRecording {
			o.mu.Unlock()
			return
		}
		secs := int(o.opts.Now().Sub(s.startedAt) / time.Second)
		o.mu.Unlock()
		o.publish(s, Event{Type: EventStatus, Status: Status{IsCapturing: true, Duration: secs}})
	}
}

func (o *Orchestrator) relay(s *session, r io.ReadCloser) {
	defer close(s.relayDone)
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanLines)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		o.logger.Trace("encoder output", "session", s.id, "line", line)
		if ce, ok := Classify(line); ok {
			o.mu.Lock()
			s.lastDriverError = ce.Error()
			o.mu.Unlock()
			o.logger.Warn("capture driver error", "session", s.id, "kind", ce.Kind.String(), "line", line)
			o.publish(s, Event{Type: EventError, Err: ce})
			continue
		}
		o.publish(s, Event{Type: EventLog, Line: line})
	}
}

// scanLines splits on either line feeds or carriage returns; ffmpeg redraws
// its progress line with bare carriage returns.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (o *Orchestrator) publish(s *session, ev Event) {
	ev.SessionID = s.id
	if n := o.events.Publish(ev); n > 0 {
		o.logger.Trace("event dropped for slow subscribers", "type", ev.Type, "subscribers", n)
	}
}

// Snapshot returns the current or most recent session. With no session yet
// it reports StateIdle.
func (o *Orchestrator) Snapshot() SessionInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur == nil {
		return SessionInfo{State: StateIdle}
	}
	return o.cur.info(o.opts.Now())
}

// Wait blocks until the current session, if any, has finished or ctx is
// done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	s := o.cur
	o.mu.Unlock()
	if s == nil {
		return nil
	}
	select {
	case <-s.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the active session gracefully, kills it if ctx ends first,
// and then closes every subscription once pending events are delivered.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.Stop()
	err := o.Wait(ctx)
	if err != nil {
		o.mu.Lock()
		if s := o.cur; s != nil && s.state.Active() && !s.exited {
			s.phase = phaseKill
			s.forced = true
			if kerr := s.proc.Kill(); kerr != nil {
				o.logger.Error("kill failed", "session", s.id, "error", kerr)
			}
		}
		o.mu.Unlock()
		waitCtx, cancel := context.WithTimeout(context.Background(), o.opts.DrainTimeout+time.Second)
		_ = o.Wait(waitCtx)
		cancel()
	}
	o.events.Stop()
	return err
}

func (s *session) stopTicks() {
	s.tickOnce.Do(func() { close(s.tickStop) })
}

func (s *session) stopTimersLocked() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	if s.killTimer != nil {
		s.killTimer.Stop()
		s.killTimer = nil
	}
}

func (s *session) info(now time.Time) SessionInfo {
	info := SessionInfo{
		ID:         s.id,
		State:      s.state,
		Target:     s.target,
		Quality:    s.quality,
		OutputPath: s.outputPath,
		StartedAt:  s.startedAt,
		PID:        s.pid,
	}
	switch {
	case s.state.Terminal():
		info.Duration = int(s.duration / time.Second)
	case !s.stopRequestedAt.IsZero():
		info.Duration = int(s.stopRequestedAt.Sub(s.startedAt) / time.Second)
	case s.state == StateRecording:
		info.Duration = int(now.Sub(s.startedAt) / time.Second)
	}
	return info
}
