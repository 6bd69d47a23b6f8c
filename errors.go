package capmonster

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when polling exceeds the task's timeout without a terminal state.
	// The remote task may still be running.
	ErrTimeout = errors.New("capmonster: solve timeout")

	// ErrCancelled is returned when the caller's context ends before a terminal state.
	ErrCancelled = errors.New("capmonster: solve cancelled")

	// ErrInvalidTask is matched by every *ValidationError.
	ErrInvalidTask = errors.New("capmonster: invalid task")
)

// Service-reported failures. A *ServiceError matches one of these via errors.Is.
var (
	ErrKeyDoesNotExist   = errors.New("capmonster: client key does not exist")
	ErrZeroBalance       = errors.New("capmonster: zero balance")
	ErrCaptchaUnsolvable = errors.New("capmonster: captcha unsolvable")
	ErrNoSuchTask        = errors.New("capmonster: no such task")
	ErrIPBanned          = errors.New("capmonster: ip banned")
	ErrTooManyRequests   = errors.New("capmonster: too many requests")
	ErrDomainNotAllowed  = errors.New("capmonster: domain not allowed")
	ErrTokenExpired      = errors.New("capmonster: token expired")
	ErrNoSlotAvailable   = errors.New("capmonster: no slot available")
	ErrUnsupportedTask   = errors.New("capmonster: unsupported task type")
	ErrImageEmpty        = errors.New("capmonster: image is empty")
	ErrImageTooBig       = errors.New("capmonster: image too big")
	ErrProxyUnavailable  = errors.New("capmonster: proxy unavailable")
)

// errorCodes maps the service's errorCode strings to sentinel errors.
var errorCodes = map[string]error{
	"ERROR_KEY_DOES_NOT_EXIST":       ErrKeyDoesNotExist,
	"ERROR_WRONG_USER_KEY":           ErrKeyDoesNotExist,
	"ERROR_ZERO_BALANCE":             ErrZeroBalance,
	"ERROR_CAPTCHA_UNSOLVABLE":       ErrCaptchaUnsolvable,
	"ERROR_NO_SUCH_CAPCHA_ID":        ErrNoSuchTask,
	"WRONG_CAPTCHA_ID":               ErrNoSuchTask,
	"ERROR_IP_BANNED":                ErrIPBanned,
	"ERROR_IP_NOT_ALLOWED":           ErrIPBanned,
	"ERROR_TOO_MUCH_REQUESTS":        ErrTooManyRequests,
	"ERROR_DOMAIN_NOT_ALLOWED":       ErrDomainNotAllowed,
	"ERROR_TOKEN_EXPIRED":            ErrTokenExpired,
	"ERROR_NO_SLOT_AVAILABLE":        ErrNoSlotAvailable,
	"ERROR_NO_SUCH_METHOD":           ErrUnsupportedTask,
	"ERROR_TASK_NOT_SUPPORTED":       ErrUnsupportedTask,
	"ERROR_TASK_ABSENT":              ErrUnsupportedTask,
	"ERROR_ZERO_CAPTCHA_FILESIZE":    ErrImageEmpty,
	"ERROR_TOO_BIG_CAPTCHA_FILESIZE": ErrImageTooBig,
	"ERROR_PROXY_CONNECTION_FAILED":  ErrProxyUnavailable,
	"ERROR_PROXY_BANNED":             ErrProxyUnavailable,
}

// codeNotReady is reported by some deployments instead of status "processing".
const codeNotReady = "CAPTCHA_NOT_READY"

// classifyError returns the sentinel for a service error code, or nil if unknown.
func classifyError(code string) error {
	return errorCodes[code]
}

// TransportError reports a network, HTTP status or response decoding failure.
type TransportError struct {
	Op     string // createTask, getTaskResult, getBalance
	Status int    // 0 when no HTTP response was received
	Body   string // truncated response body
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("capmonster %s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("capmonster %s HTTP %d: %v: %s", e.Op, e.Status, e.Err, e.Body)
	default:
		return fmt.Sprintf("capmonster %s HTTP %d: %s", e.Op, e.Status, e.Body)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is a semantic failure reported by the service (errorId != 0).
// Service errors are fatal and never retried.
type ServiceError struct {
	Op          string
	ErrorID     int
	Code        string
	Description string
}

func (e *ServiceError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("capmonster %s error %s", e.Op, e.Code)
	}
	return fmt.Sprintf("capmonster %s error %s: %s", e.Op, e.Code, e.Description)
}

// Is reports whether target is the sentinel for e's code.
func (e *ServiceError) Is(target error) bool {
	known := classifyError(e.Code)
	return known != nil && known == target
}

// ValidationError is returned before any network call when a task is malformed.
type ValidationError struct {
	Task   TaskType
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("capmonster: invalid %s: %s %s", e.Task, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidTask }

// Phase identifies where in the solve lifecycle an error occurred.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseCreate   Phase = "create"
	PhasePoll     Phase = "poll"
)

// SolveError wraps any failure of a solve call with the variant and phase it came from.
type SolveError struct {
	Task   TaskType
	Phase  Phase
	TaskID int64 // zero when the task was never created
	Err    error
}

func (e *SolveError) Error() string {
	if e.TaskID != 0 {
		return fmt.Sprintf("solve %s (task %d) %s: %v", e.Task, e.TaskID, e.Phase, e.Err)
	}
	return fmt.Sprintf("solve %s %s: %v", e.Task, e.Phase, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

// cancelled wraps the caller's context error so it matches both ErrCancelled and ctx.Err().
func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}

// IsRetryable reports whether err is a transport failure that polling may retry.
// Service errors, timeouts and cancellations are never retryable.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrTimeout) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return false
	}
	var te *TransportError
	return errors.As(err, &te)
}
