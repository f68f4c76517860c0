package av

import (
	"errors"
	"fmt"

	"github.com/opd-ai/toxloop/internal/loop"
)

// Error is a failure code reported by the AV facet of the handle. It is
// returned to the caller unchanged.
type Error int

const (
	ErrorNone                   Error = 0
	ErrorUnknown                Error = -1
	ErrorNoCall                 Error = -20
	ErrorInvalidState           Error = -21
	ErrorAlreadyInCallWithPeer  Error = -22
	ErrorReachedCallLimit       Error = -23
	ErrorInitializingCodecs     Error = -30
	ErrorSettingVideoResolution Error = -31
	ErrorSettingVideoBitrate    Error = -32
	ErrorSplittingVideoPayload  Error = -33
	ErrorEncodingVideo          Error = -34
	ErrorEncodingAudio          Error = -35
	ErrorSendingPayload         Error = -40
	ErrorCreatingRtpSessions    Error = -41
	ErrorNoRtpSession           Error = -50
	ErrorInvalidCodecState      Error = -51
	ErrorPacketTooLarge         Error = -52

	// ErrorInvalidAudio is reported by the actor itself for an AudioBit whose
	// sample count does not match its PCM length.
	ErrorInvalidAudio Error = -60
)

var errorText = map[Error]string{
	ErrorNone:                   "no error",
	ErrorUnknown:                "unknown error",
	ErrorNoCall:                 "no such call",
	ErrorInvalidState:           "invalid call state",
	ErrorAlreadyInCallWithPeer:  "already in a call with this peer",
	ErrorReachedCallLimit:       "call limit reached",
	ErrorInitializingCodecs:     "codec initialization failed",
	ErrorSettingVideoResolution: "setting video resolution failed",
	ErrorSettingVideoBitrate:    "setting video bitrate failed",
	ErrorSplittingVideoPayload:  "splitting video payload failed",
	ErrorEncodingVideo:          "video encoding failed",
	ErrorEncodingAudio:          "audio encoding failed",
	ErrorSendingPayload:         "sending payload failed",
	ErrorCreatingRtpSessions:    "creating RTP sessions failed",
	ErrorNoRtpSession:           "no RTP session",
	ErrorInvalidCodecState:      "invalid codec state",
	ErrorPacketTooLarge:         "packet too large",
	ErrorInvalidAudio:           "audio bit does not match its sample count",
}

func (e Error) Error() string {
	if text, ok := errorText[e]; ok {
		return "toxav: " + text
	}
	return fmt.Sprintf("toxav: error %d", int(e))
}

// Lifecycle errors, shared with the primary actor so errors.Is matches
// across packages.
var (
	// ErrActorUnavailable indicates the AV actor has terminated.
	ErrActorUnavailable = loop.ErrUnavailable

	// ErrHandleClosed indicates the ToxAV value used was already closed.
	ErrHandleClosed = loop.ErrHandleClosed

	// ErrCallTimeout indicates Options.CallTimeout expired before the reply.
	ErrCallTimeout = loop.ErrCallTimeout

	// ErrNotSubmitted accompanies ErrCallTimeout when the command was never
	// queued and so never ran.
	ErrNotSubmitted = loop.ErrNotSubmitted

	// ErrReplyAbandoned accompanies ErrCallTimeout when the command was
	// queued. It still runs.
	ErrReplyAbandoned = loop.ErrReplyAbandoned

	// ErrEventsClosed indicates the event source was closed.
	ErrEventsClosed = loop.ErrSinkClosed

	// ErrNoEvent indicates Events.Next timed out.
	ErrNoEvent = loop.ErrNoEvent
)

// ErrNilHandle indicates Spawn was given no handle.
var ErrNilHandle = errors.New("nil AV handle")
