package loop

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultCommandBuffer is the command queue capacity used when none is given.
const DefaultCommandBuffer = 64

// Service is the part of an external handle the loop drives. It is only ever
// called from the loop goroutine.
type Service interface {
	// Iterate does pending protocol work and fires registered callbacks.
	Iterate()
	// IterationInterval is how long to wait before the next Iterate.
	IterationInterval() time.Duration
}

// Config describes one actor loop.
type Config[C any] struct {
	// Name identifies the actor in logs.
	Name string
	// Service is owned by the loop from Spawn until Release returns.
	Service Service
	// Dispatch runs one command against the service.
	Dispatch func(C)
	// Halted returns the reason the loop must stop, e.g. a failed event
	// sink, or nil to keep going. Optional.
	Halted func() error
	// Linger returns a channel the loop keeps servicing until it closes,
	// after it stopped accepting commands. nil means release immediately.
	// Optional.
	Linger func() <-chan struct{}
	// Release destroys the service. Called exactly once.
	Release func()

	CommandBuffer int
	TimeProvider  TimeProvider
}

// Loop is a running actor loop.
type Loop[C any] struct {
	id   uuid.UUID
	cfg  Config[C]
	box  *mailbox[C]
	time TimeProvider
	log  *logrus.Entry

	released chan struct{}
}

// Spawn starts the loop goroutine and returns the first reference to it.
func Spawn[C any](cfg Config[C]) (*Ref[C], *Loop[C]) {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultCommandBuffer
	}
	if cfg.Halted == nil {
		cfg.Halted = func() error { return nil }
	}
	if cfg.Linger == nil {
		cfg.Linger = func() <-chan struct{} { return nil }
	}
	if cfg.Release == nil {
		cfg.Release = func() {}
	}

	tp := cfg.TimeProvider
	if tp == nil {
		tp = DefaultTimeProvider{}
	}

	id := uuid.New()
	l := &Loop[C]{
		id:   id,
		cfg:  cfg,
		box:  newMailbox[C](cfg.CommandBuffer),
		time: tp,
		log: logrus.WithFields(logrus.Fields{
			"actor":    cfg.Name,
			"actor_id": id.String(),
		}),
		released: make(chan struct{}),
	}

	ref := newRef(l.box)
	go l.run()

	l.log.WithFields(logrus.Fields{
		"function":       "Spawn",
		"command_buffer": cfg.CommandBuffer,
	}).Info("Actor loop started")

	return ref, l
}

// ID returns the loop identity used in logs.
func (l *Loop[C]) ID() uuid.UUID {
	return l.id
}

// Done closes when the loop stops servicing commands.
func (l *Loop[C]) Done() <-chan struct{} {
	return l.box.done
}

// Released closes after Release returned.
func (l *Loop[C]) Released() <-chan struct{} {
	return l.released
}

func (l *Loop[C]) run() {
	defer close(l.released)

	reason := l.serve()
	close(l.box.done)

	l.log.WithFields(logrus.Fields{
		"function": "run",
		"reason":   reason,
	}).Info("Actor loop stopped accepting commands")

	if wait := l.cfg.Linger(); wait != nil {
		l.linger(wait)
	}

	l.cfg.Release()
	l.log.WithField("function", "run").Info("Actor released its handle")
}

func (l *Loop[C]) serve() string {
	for {
		l.cfg.Service.Iterate()
		if err := l.cfg.Halted(); err != nil {
			l.log.WithFields(logrus.Fields{
				"function": "serve",
				"error":    err.Error(),
			}).Warn("Actor halted, stopping")
			return "halted"
		}

		if l.drain() {
			return "all control handles closed"
		}

		l.sleep(l.cfg.Service.IterationInterval(), l.box.disconnected)
	}
}

// drain dispatches the commands queued right now and reports whether the
// mailbox is disconnected.
func (l *Loop[C]) drain() bool {
	for n := len(l.box.commands); n > 0; n-- {
		l.dispatch(<-l.box.commands)
	}

	select {
	case <-l.box.disconnected:
	default:
		return false
	}

	// Nothing can be enqueued after disconnection, so this terminates.
	for {
		select {
		case cmd := <-l.box.commands:
			l.dispatch(cmd)
		default:
			return true
		}
	}
}

func (l *Loop[C]) dispatch(cmd C) {
	if l.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		l.log.WithFields(logrus.Fields{
			"function": "dispatch",
			"command":  fmt.Sprintf("%T", cmd),
		}).Debug("Dispatching command")
	}
	l.cfg.Dispatch(cmd)
}

// linger keeps servicing the handle, without commands, until wait closes.
func (l *Loop[C]) linger(wait <-chan struct{}) {
	l.log.WithField("function", "linger").Warn("Secondary actor still attached, servicing handle until it finishes")

	for {
		select {
		case <-wait:
			return
		default:
		}

		l.sleep(l.cfg.Service.IterationInterval(), wait)

		select {
		case <-wait:
			return
		default:
		}

		l.cfg.Service.Iterate()
	}
}

func (l *Loop[C]) sleep(d time.Duration, wake <-chan struct{}) {
	if d < MinInterval {
		d = MinInterval
	}
	select {
	case <-l.time.After(d):
	case <-wake:
	}
}
