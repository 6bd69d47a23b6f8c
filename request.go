package capmonster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

var (
	errEmptyTaskID   = errors.New("empty taskId in response")
	errEmptySolution = errors.New("ready but empty solution")
)

// TaskHandle identifies a created remote task.
type TaskHandle struct {
	ID        int64
	Type      TaskType
	CreatedAt time.Time
}

// PollStatus is the outcome of one getTaskResult call.
type PollStatus int

const (
	PollPending PollStatus = iota
	PollReady
	PollFailed
)

func (s PollStatus) String() string {
	switch s {
	case PollPending:
		return "pending"
	case PollReady:
		return "ready"
	case PollFailed:
		return "failed"
	}
	return "unknown"
}

// PollState is the decoded result of one getTaskResult call.
type PollState struct {
	Status   PollStatus
	Solution json.RawMessage // set when Ready
	Cost     float64         // set when Ready
	Err      *ServiceError   // set when Failed
}

type apiResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

func (r apiResponse) serviceError(op RequestType) *ServiceError {
	return &ServiceError{
		Op:          string(op),
		ErrorID:     r.ErrorID,
		Code:        r.ErrorCode,
		Description: r.ErrorDescription,
	}
}

type createTaskRequest struct {
	ClientKey   string          `json:"clientKey"`
	Task        json.RawMessage `json:"task"`
	SoftID      int             `json:"softId,omitempty"`
	CallbackURL string          `json:"callbackUrl,omitempty"`
}

type createTaskResponse struct {
	apiResponse
	TaskID int64 `json:"taskId"`
}

type getTaskResultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    int64  `json:"taskId"`
}

type getTaskResultResponse struct {
	apiResponse
	Status   string          `json:"status"`
	Solution json.RawMessage `json:"solution"`
	Cost     float64         `json:"cost"`
}

type getBalanceRequest struct {
	ClientKey string `json:"clientKey"`
}

type getBalanceResponse struct {
	apiResponse
	Balance float64 `json:"balance"`
}

// createTask submits t and returns the handle of the created remote task.
func (c *Client) createTask(ctx context.Context, t Task) (TaskHandle, error) {
	raw, err := encodeTask(c.enc, t)
	if err != nil {
		return TaskHandle{}, &TransportError{Op: string(RequestCreateTask), Err: fmt.Errorf("encode task: %w", err)}
	}

	req := createTaskRequest{
		ClientKey:   c.opts.ClientKey,
		Task:        raw,
		SoftID:      c.opts.SoftID,
		CallbackURL: c.opts.CallbackURL,
	}
	var resp createTaskResponse
	if err := c.post(ctx, RequestCreateTask, req, &resp); err != nil {
		return TaskHandle{}, err
	}
	if resp.ErrorID != 0 {
		return TaskHandle{}, resp.serviceError(RequestCreateTask)
	}
	if resp.TaskID == 0 {
		return TaskHandle{}, &TransportError{Op: string(RequestCreateTask), Status: 200, Err: errEmptyTaskID}
	}
	return TaskHandle{ID: resp.TaskID, Type: t.TaskType(), CreatedAt: time.Now()}, nil
}

// getTaskResult performs one poll of h.
func (c *Client) getTaskResult(ctx context.Context, h TaskHandle) (PollState, error) {
	var resp getTaskResultResponse
	req := getTaskResultRequest{ClientKey: c.opts.ClientKey, TaskID: h.ID}
	if err := c.post(ctx, RequestGetTaskResult, req, &resp); err != nil {
		return PollState{}, err
	}

	if resp.ErrorID != 0 {
		if resp.ErrorCode == codeNotReady {
			return PollState{Status: PollPending}, nil
		}
		return PollState{Status: PollFailed, Err: resp.serviceError(RequestGetTaskResult)}, nil
	}

	switch resp.Status {
	case "processing":
		return PollState{Status: PollPending}, nil
	case "ready":
		if len(resp.Solution) == 0 || string(resp.Solution) == "null" {
			return PollState{}, &TransportError{Op: string(RequestGetTaskResult), Status: 200, Err: errEmptySolution}
		}
		return PollState{Status: PollReady, Solution: resp.Solution, Cost: resp.Cost}, nil
	default:
		return PollState{}, &TransportError{
			Op:     string(RequestGetTaskResult),
			Status: 200,
			Err:    fmt.Errorf("unexpected status %q", resp.Status),
		}
	}
}

// post sends a JSON POST for rt and decodes the response into result.
func (c *Client) post(ctx context.Context, rt RequestType, payload, result any) error {
	op := string(rt)
	if err := c.throttle(ctx, rt); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	body, err := c.enc.Encode(payload)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode: %w", err)}
	}

	rctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	data, respHdrs, status, err := c.transport.Do(rctx, "POST", rt.URL(c.opts.ServiceURL), apiHeaders(), body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if status == 429 {
		c.markRateLimited(rt, parseRetryAfter(respHdrs["retry-after"]))
	}
	if status < 200 || status > 299 {
		return &TransportError{Op: op, Status: status, Body: truncateBytes(data, 200)}
	}
	if err := c.enc.Decode(data, result); err != nil {
		return &TransportError{Op: op, Status: status, Body: truncateBytes(data, 200), Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// throttle blocks until the client-side limiter admits a call to rt.
func (c *Client) throttle(ctx context.Context, rt RequestType) error {
	if c.limiter == nil {
		return nil
	}
	for !c.limiter.Allow(string(rt)) {
		wait := time.Until(c.limiter.AvailableAt(string(rt)))
		if wait <= 0 {
			wait = 50 * time.Millisecond
		}
		c.log.Debug("rate limited, waiting", slog.String("endpoint", string(rt)), slog.Duration("wait", wait))
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) markRateLimited(rt RequestType, until time.Time) {
	c.log.Warn("service rate limit hit", slog.String("endpoint", string(rt)), slog.Time("until", until))
	if c.limiter != nil {
		c.limiter.MarkRateLimited(string(rt), until)
	}
}

// parseRetryAfter parses a Retry-After header given in seconds.
// Falls back to one minute from now if missing or invalid.
func parseRetryAfter(v string) time.Time {
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Now().Add(time.Duration(secs) * time.Second)
	}
	return time.Now().Add(time.Minute)
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
