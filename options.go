package toxloop

import (
	"time"

	"github.com/opd-ai/toxloop/internal/loop"
)

// TimeProvider abstracts time for the actor loops. Tests use it to observe
// the intervals the loop sleeps.
type TimeProvider = loop.TimeProvider

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider = loop.DefaultTimeProvider

// Options contains the handle settings and the actor settings.
type Options struct {
	// Handle settings, passed to the Constructor untouched.
	UDPEnabled     bool
	IPv6Enabled    bool
	LocalDiscovery bool
	Proxy          *ProxyOptions
	StartPort      uint16
	EndPort        uint16
	SavedataType   SaveDataType
	SavedataData   []byte

	// EventBuffer bounds the event queue. Overflow stops the actor.
	EventBuffer int
	// CommandBuffer bounds the command queue. Submitting blocks when full.
	CommandBuffer int
	// CallTimeout bounds every call-and-wait operation. Zero waits.
	CallTimeout time.Duration
	// TimeProvider drives the loop's sleeps. Nil uses real time.
	TimeProvider TimeProvider
}

// ProxyOptions contains proxy configuration.
type ProxyOptions struct {
	Type ProxyType
	Host string
	Port uint16
}

// ProxyType specifies the type of proxy to use.
type ProxyType uint8

const (
	ProxyTypeNone ProxyType = iota
	ProxyTypeHTTP
	ProxyTypeSOCKS5
)

// SaveDataType specifies what SavedataData holds.
type SaveDataType uint8

const (
	SaveDataTypeNone SaveDataType = iota
	SaveDataTypeToxSave
	SaveDataTypeSecretKey
)

// NewOptions creates default options.
func NewOptions() *Options {
	return &Options{
		UDPEnabled:     true,
		IPv6Enabled:    true,
		LocalDiscovery: true,
		StartPort:      33445,
		EndPort:        33545,
		SavedataType:   SaveDataTypeNone,
		EventBuffer:    loop.DefaultEventBuffer,
		CommandBuffer:  loop.DefaultCommandBuffer,
	}
}
