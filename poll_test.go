package capmonster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoll_RespectsInterval(t *testing.T) {
	const interval = 20 * time.Millisecond
	ft := newFakeTransport(created(1), pending(), pending(), pending(), ready(map[string]any{"token": "t"}))
	c := newTestClient(t, ft, func(o *ClientOptions) {
		o.Timings = map[TaskType]Timing{TaskTurnstileProxyless: {Interval: interval, Timeout: 5 * time.Second}}
	})

	res, err := c.SolveTurnstile(context.Background(), TurnstileRequest{WebsiteURL: "https://a.test", WebsiteKey: "k"})
	require.NoError(t, err)
	require.Equal(t, 4, res.Polls)

	reqs := ft.Requests()
	require.Len(t, reqs, 5)
	// The first poll also waits a full interval after creation.
	for i := 1; i < len(reqs); i++ {
		gap := reqs[i].At.Sub(reqs[i-1].At)
		require.GreaterOrEqual(t, gap, interval, "request %d came %s after the previous one", i, gap)
	}
}

func TestPoll_GlobalIntervalOverride(t *testing.T) {
	ft := newFakeTransport(created(1), pending(), ready(map[string]any{"token": "t"}))
	c := newTestClient(t, ft, func(o *ClientOptions) {
		o.Timings = nil
		o.PollInterval = 15 * time.Millisecond
		o.PollTimeout = 2 * time.Second
	})

	start := time.Now()
	_, err := c.SolveFunCaptcha(context.Background(), FunCaptchaRequest{WebsiteURL: "https://a.test", WebsitePublicKey: "k"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPoll_TimesOut(t *testing.T) {
	ft := newFakeTransport(created(5))
	p := pending()
	ft.fallback = &p
	c := newTestClient(t, ft, func(o *ClientOptions) {
		o.Timings = map[TaskType]Timing{TaskImageToText: {Interval: 5 * time.Millisecond, Timeout: 60 * time.Millisecond}}
	})

	start := time.Now()
	res, err := c.SolveImageToText(context.Background(), NewImageToTextRequest([]byte("img")))
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrTimeout)
	require.NotErrorIs(t, err, ErrCancelled)
	require.Less(t, time.Since(start), 2*time.Second)

	var se *SolveError
	require.ErrorAs(t, err, &se)
	require.Equal(t, PhasePoll, se.Phase)
	require.Equal(t, int64(5), se.TaskID)
	require.Greater(t, ft.count(RequestGetTaskResult), 1)
}

func TestPoll_CancelDiscardsInFlightResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ft := newFakeTransport(created(11), pending(), ready(map[string]any{"text": "too late"}))
	ft.onRequest = func(n int, rt RequestType) {
		// Cancel while the second poll is in flight; its ready answer must be dropped.
		if n == 3 {
			cancel()
		}
	}
	c := newTestClient(t, ft)

	res, err := c.SolveImageToText(ctx, NewImageToTextRequest([]byte("img")))
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrTimeout)
	require.Equal(t, 2, ft.count(RequestGetTaskResult))
}

func TestPoll_CancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ft := newFakeTransport(created(12), pending(), pending())
	ft.onRequest = func(n int, rt RequestType) {
		if rt == RequestCreateTask {
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
		}
	}
	c := newTestClient(t, ft, func(o *ClientOptions) {
		o.Timings = map[TaskType]Timing{TaskHCaptchaProxyless: {Interval: time.Hour, Timeout: 2 * time.Hour}}
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.SolveHCaptcha(ctx, HCaptchaRequest{WebsiteURL: "https://a.test", WebsiteKey: "k"})
		done <- err
	}()

	// With a one hour interval the first poll never fires; cancel lands mid-sleep.
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("solve did not return after cancel")
	}
	require.Equal(t, 0, ft.count(RequestGetTaskResult))
}

func TestPoll_RetriesTransientTransportErrors(t *testing.T) {
	ft := newFakeTransport(
		created(21),
		httpStatus(503),
		fakeResponse{err: errors.New("connection reset by peer")},
		pending(),
		ready(map[string]any{"gRecaptchaResponse": "tok"}),
	)
	c := newTestClient(t, ft)

	res, err := c.SolveRecaptchaV3(context.Background(), RecaptchaV3Request{WebsiteURL: "https://a.test", WebsiteKey: "k"})
	require.NoError(t, err)
	require.Equal(t, "tok", res.Solution.GRecaptchaResponse)
	require.Equal(t, 4, res.Polls)
}

func TestPoll_RetryBudgetExhausted(t *testing.T) {
	ft := newFakeTransport(created(22), httpStatus(500), httpStatus(500), httpStatus(500), httpStatus(500), pending())
	c := newTestClient(t, ft, func(o *ClientOptions) { o.PollRetries = 3 })

	_, err := c.SolveRecaptchaV3(context.Background(), RecaptchaV3Request{WebsiteURL: "https://a.test", WebsiteKey: "k"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, 500, te.Status)
	require.Equal(t, "getTaskResult", te.Op)
	require.Equal(t, 4, ft.count(RequestGetTaskResult))
}

func TestPoll_RetryCounterResetsAfterSuccess(t *testing.T) {
	ft := newFakeTransport(
		created(23),
		httpStatus(500), pending(),
		httpStatus(500), pending(),
		ready(map[string]any{"token": "t"}),
	)
	c := newTestClient(t, ft, func(o *ClientOptions) { o.PollRetries = 1 })

	res, err := c.SolveTurnstile(context.Background(), TurnstileRequest{WebsiteURL: "https://a.test", WebsiteKey: "k"})
	require.NoError(t, err)
	require.Equal(t, 5, res.Polls)
}

func TestPoll_RequiresTaskID(t *testing.T) {
	c := newTestClient(t, newFakeTransport())
	_, err := c.poll(context.Background(), TaskHandle{Type: TaskImageToText, CreatedAt: time.Now()}, Timing{Timeout: time.Second}, discardLogger())
	require.ErrorIs(t, err, errNoTaskID)
}

func TestSleep(t *testing.T) {
	require.NoError(t, sleep(context.Background(), 0))
	require.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	require.ErrorIs(t, sleep(ctx, 0), context.Canceled)
}
