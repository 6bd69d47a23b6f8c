package capmonster

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/stretchr/testify/require"
)

// recordedRequest is one call observed by fakeTransport.
type recordedRequest struct {
	Type RequestType
	Body map[string]any
	At   time.Time
}

// fakeResponse is one scripted reply. A non-nil err simulates a network failure.
type fakeResponse struct {
	status  int
	body    any
	headers map[string]string
	err     error
}

// fakeTransport replays scripted responses in order and records every request.
type fakeTransport struct {
	mu        sync.Mutex
	responses []fakeResponse
	fallback  *fakeResponse
	requests  []recordedRequest

	// onRequest runs before the n-th (1-based) response is returned.
	onRequest func(n int, rt RequestType)
}

func newFakeTransport(responses ...fakeResponse) *fakeTransport {
	return &fakeTransport{responses: responses}
}

func (f *fakeTransport) Do(ctx context.Context, method, rawURL string, headers map[string]string, body []byte) ([]byte, map[string]string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, 0, err
	}
	rt, err := ParseRequestType(u.Path)
	if err != nil {
		return nil, nil, 0, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, nil, 0, err
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Type: rt, Body: decoded, At: time.Now()})
	n := len(f.requests)
	var resp fakeResponse
	switch {
	case len(f.responses) > 0:
		resp = f.responses[0]
		f.responses = f.responses[1:]
	case f.fallback != nil:
		resp = *f.fallback
	default:
		f.mu.Unlock()
		return nil, nil, 0, errors.New("fake transport: no scripted response")
	}
	hook := f.onRequest
	f.mu.Unlock()

	if hook != nil {
		hook(n, rt)
	}
	if resp.err != nil {
		return nil, nil, 0, resp.err
	}
	status := resp.status
	if status == 0 {
		status = 200
	}
	var data []byte
	switch b := resp.body.(type) {
	case string:
		data = []byte(b)
	default:
		data, _ = json.Marshal(b)
	}
	return data, resp.headers, status, nil
}

func (f *fakeTransport) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeTransport) count(rt RequestType) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Type == rt {
			n++
		}
	}
	return n
}

func created(id int64) fakeResponse {
	return fakeResponse{body: map[string]any{"errorId": 0, "taskId": id}}
}

func pending() fakeResponse {
	return fakeResponse{body: map[string]any{"errorId": 0, "status": "processing"}}
}

func ready(solution any) fakeResponse {
	return fakeResponse{body: map[string]any{"errorId": 0, "status": "ready", "solution": solution, "cost": 0.0003}}
}

func serviceFailure(code string) fakeResponse {
	return fakeResponse{body: map[string]any{"errorId": 1, "errorCode": code, "errorDescription": "scripted failure"}}
}

func httpStatus(status int) fakeResponse {
	return fakeResponse{status: status, body: "upstream unavailable"}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// zeroIntervalTimings polls every task type back to back with the given timeout.
func zeroIntervalTimings(timeout time.Duration) map[TaskType]Timing {
	out := make(map[TaskType]Timing, len(DefaultTimings))
	for t := range DefaultTimings {
		out[t] = Timing{Interval: 0, Timeout: timeout}
	}
	return out
}

func testOptions() ClientOptions {
	return ClientOptions{
		ServiceURL: "http://capmonster.test",
		ClientKey:  "test-key",
		Timings:    zeroIntervalTimings(5 * time.Second),
		RetryBackoff: stealth.BackoffConfig{
			InitialWait: time.Millisecond,
			MaxWait:     2 * time.Millisecond,
			Multiplier:  1.0,
		},
		Logger: discardLogger(),
	}
}

func newTestClient(t *testing.T, ft *fakeTransport, mutate ...func(*ClientOptions)) *Client {
	t.Helper()
	opts := testOptions()
	for _, m := range mutate {
		m(&opts)
	}
	c, err := NewClient(opts, func(ClientOptions) (Transport, error) { return ft, nil })
	require.NoError(t, err)
	return c
}

// unwrap flattens a typed result so variant tests can share one table.
func unwrap[S any](res *CaptchaResult[S], err error) (any, int, error) {
	if err != nil {
		return nil, 0, err
	}
	return res.Solution, res.Polls, nil
}
