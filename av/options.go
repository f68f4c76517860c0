package av

import (
	"time"

	"github.com/opd-ai/toxloop/internal/loop"
)

// DefaultMaxCalls is the number of simultaneous calls a new AV facet
// supports unless told otherwise.
const DefaultMaxCalls = 8

// Options configures the AV actor.
type Options struct {
	// MaxCalls is passed to the handle when the AV facet is created.
	MaxCalls int

	// EventBuffer bounds the event queue. Overflow stops the actor.
	EventBuffer int
	// CommandBuffer bounds the command queue. Submitting blocks when full.
	CommandBuffer int
	// CallTimeout bounds every call-and-wait operation. Zero waits.
	CallTimeout time.Duration

	TimeProvider loop.TimeProvider
}

// NewOptions returns the default AV actor settings.
func NewOptions() *Options {
	return &Options{
		MaxCalls:      DefaultMaxCalls,
		EventBuffer:   loop.DefaultEventBuffer,
		CommandBuffer: loop.DefaultCommandBuffer,
	}
}

func (o *Options) withDefaults() *Options {
	if o == nil {
		return NewOptions()
	}
	out := *o
	if out.MaxCalls <= 0 {
		out.MaxCalls = DefaultMaxCalls
	}
	if out.EventBuffer <= 0 {
		out.EventBuffer = loop.DefaultEventBuffer
	}
	if out.CommandBuffer <= 0 {
		out.CommandBuffer = loop.DefaultCommandBuffer
	}
	return &out
}
