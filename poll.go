package capmonster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var errNoTaskID = errors.New("capmonster: poll without task id")

// pollOutcome is what the poll loop hands back to the dispatch layer.
type pollOutcome struct {
	state PollState
	polls int
}

// poll calls getTaskResult for h every tm.Interval until the task is ready, fails, the
// deadline tm.Timeout after creation passes, or ctx ends. The first call also waits one
// interval. Calls never overlap. Up to PollRetries consecutive transport failures are
// retried; service errors end the loop immediately.
func (c *Client) poll(ctx context.Context, h TaskHandle, tm Timing, log *slog.Logger) (pollOutcome, error) {
	var out pollOutcome
	if h.ID == 0 {
		return out, errNoTaskID
	}

	pctx, cancel := context.WithDeadlineCause(ctx, h.CreatedAt.Add(tm.Timeout), ErrTimeout)
	defer cancel()

	wait := tm.Interval
	failures := 0
	for {
		if err := sleep(pctx, wait); err != nil {
			return out, stopReason(ctx, pctx, tm)
		}

		out.polls++
		st, err := c.getTaskResult(pctx, h)
		if pctx.Err() != nil {
			// In-flight result is discarded once the deadline or caller cancel fired.
			return out, stopReason(ctx, pctx, tm)
		}

		if err != nil {
			if !IsRetryable(err) || failures >= c.opts.PollRetries {
				return out, err
			}
			failures++
			wait = max(tm.Interval, c.opts.RetryBackoff.Duration(failures-1))
			log.Warn("poll failed, retrying",
				slog.Int64("task_id", h.ID),
				slog.Int("failures", failures),
				slog.Duration("wait", wait),
				slog.Any("error", err))
			continue
		}
		failures = 0

		switch st.Status {
		case PollPending:
			log.Debug("task pending", slog.Int64("task_id", h.ID), slog.Int("poll", out.polls))
			wait = tm.Interval
		case PollReady:
			out.state = st
			return out, nil
		case PollFailed:
			out.state = st
			return out, st.Err
		}
	}
}

// stopReason tells a caller cancel apart from the poll deadline.
func stopReason(ctx, pctx context.Context, tm Timing) error {
	if ctx.Err() != nil {
		return cancelled(ctx)
	}
	if errors.Is(context.Cause(pctx), ErrTimeout) {
		return fmt.Errorf("%w after %s", ErrTimeout, tm.Timeout)
	}
	return cancelled(pctx)
}

// sleep waits for d or until ctx ends. A non-positive d only checks ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
