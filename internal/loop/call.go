package loop

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Call submits the command built around a fresh reply channel and waits for
// the single reply.
func Call[C, R any](r *Ref[C], build func(reply chan<- R) C) (R, error) {
	return CallContext(context.Background(), r, build)
}

// CallWithin is Call bounded by timeout. A zero timeout waits for the reply
// or the loop's termination.
func CallWithin[C, R any](r *Ref[C], timeout time.Duration, build func(reply chan<- R) C) (R, error) {
	if timeout <= 0 {
		return Call(r, build)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	v, err := CallContext(ctx, r, build)
	if errors.Is(err, context.DeadlineExceeded) {
		return v, fmt.Errorf("%w after %s: %w", ErrCallTimeout, timeout, err)
	}
	return v, err
}

// CallContext is Call bounded by ctx. If ctx ends before the command was
// queued the error wraps ErrNotSubmitted and the command never runs. If it
// ends later the error wraps ErrReplyAbandoned: the command still runs and
// its reply lands in a channel nobody reads.
func CallContext[C, R any](ctx context.Context, r *Ref[C], build func(reply chan<- R) C) (R, error) {
	var zero R

	reply := make(chan R, 1)
	if err := r.SubmitContext(ctx, build(reply)); err != nil {
		return zero, err
	}

	select {
	case v := <-reply:
		return v, nil
	case <-r.box.done:
		// The reply is sent before done closes.
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrUnavailable
		}
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrReplyAbandoned, ctx.Err())
	}
}

// Reply delivers v without ever blocking the loop. Reply channels created by
// Call have room for exactly one value.
func Reply[R any](reply chan<- R, v R) {
	select {
	case reply <- v:
	default:
	}
}
