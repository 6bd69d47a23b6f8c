package capmonster

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		code     string
		expected error
	}{
		{"ERROR_KEY_DOES_NOT_EXIST", ErrKeyDoesNotExist},
		{"ERROR_WRONG_USER_KEY", ErrKeyDoesNotExist},
		{"ERROR_ZERO_BALANCE", ErrZeroBalance},
		{"ERROR_CAPTCHA_UNSOLVABLE", ErrCaptchaUnsolvable},
		{"ERROR_NO_SUCH_CAPCHA_ID", ErrNoSuchTask},
		{"WRONG_CAPTCHA_ID", ErrNoSuchTask},
		{"ERROR_IP_BANNED", ErrIPBanned},
		{"ERROR_TOO_MUCH_REQUESTS", ErrTooManyRequests},
		{"ERROR_DOMAIN_NOT_ALLOWED", ErrDomainNotAllowed},
		{"ERROR_TOKEN_EXPIRED", ErrTokenExpired},
		{"ERROR_NO_SLOT_AVAILABLE", ErrNoSlotAvailable},
		{"ERROR_TASK_NOT_SUPPORTED", ErrUnsupportedTask},
		{"ERROR_ZERO_CAPTCHA_FILESIZE", ErrImageEmpty},
		{"ERROR_TOO_BIG_CAPTCHA_FILESIZE", ErrImageTooBig},
		{"ERROR_PROXY_BANNED", ErrProxyUnavailable},
		{"ERROR_SOMETHING_NEW", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := classifyError(tt.code); got != tt.expected {
				t.Fatalf("classifyError(%q) = %v, want %v", tt.code, got, tt.expected)
			}
		})
	}
}

func TestServiceError(t *testing.T) {
	err := error(&ServiceError{Op: "createTask", ErrorID: 1, Code: "ERROR_ZERO_BALANCE", Description: "no money"})
	require.ErrorIs(t, err, ErrZeroBalance)
	require.NotErrorIs(t, err, ErrKeyDoesNotExist)
	require.Equal(t, "capmonster createTask error ERROR_ZERO_BALANCE: no money", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	require.ErrorIs(t, wrapped, ErrZeroBalance)

	unknown := &ServiceError{Op: "getTaskResult", ErrorID: 1, Code: "ERROR_NEW"}
	require.Equal(t, "capmonster getTaskResult error ERROR_NEW", unknown.Error())
	for _, sentinel := range errorCodes {
		require.NotErrorIs(t, unknown, sentinel)
	}
}

func TestTransportError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	tests := []struct {
		name string
		err  *TransportError
		want string
	}{
		{"network", &TransportError{Op: "createTask", Err: cause}, "capmonster createTask: dial tcp: refused"},
		{"status", &TransportError{Op: "getBalance", Status: 502, Body: "bad gateway"}, "capmonster getBalance HTTP 502: bad gateway"},
		{"decode", &TransportError{Op: "getTaskResult", Status: 200, Body: "{", Err: cause}, "capmonster getTaskResult HTTP 200: dial tcp: refused: {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
	require.ErrorIs(t, tests[0].err, cause)
}

func TestValidationError(t *testing.T) {
	err := invalid(TaskTurnstileProxyless, "websiteKey", "is required")
	require.ErrorIs(t, err, ErrInvalidTask)
	require.Equal(t, "capmonster: invalid TurnstileTaskProxyless: websiteKey is required", err.Error())

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "websiteKey", ve.Field)
}

func TestSolveError(t *testing.T) {
	inner := &ServiceError{Op: "getTaskResult", Code: "ERROR_CAPTCHA_UNSOLVABLE"}
	err := &SolveError{Task: TaskImageToText, Phase: PhasePoll, TaskID: 42, Err: inner}
	require.ErrorIs(t, err, ErrCaptchaUnsolvable)
	require.Equal(t, "solve ImageToTextTask (task 42) poll: capmonster getTaskResult error ERROR_CAPTCHA_UNSOLVABLE", err.Error())

	early := &SolveError{Task: TaskCustom, Phase: PhaseValidate, Err: invalid(TaskCustom, "websiteURL", "is required")}
	require.ErrorIs(t, early, ErrInvalidTask)
	require.Equal(t, "solve CustomTask validate: capmonster: invalid CustomTask: websiteURL is required", early.Error())
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cancelled(ctx)
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrTimeout)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"transport", &TransportError{Op: "getTaskResult", Status: 503}, true},
		{"wrapped transport", fmt.Errorf("poll: %w", &TransportError{Op: "getTaskResult", Err: errors.New("reset")}), true},
		{"service", &ServiceError{Code: "ERROR_CAPTCHA_UNSOLVABLE"}, false},
		{"timeout", ErrTimeout, false},
		{"cancelled transport", &TransportError{Op: "getTaskResult", Err: fmt.Errorf("%w: %w", ErrCancelled, context.Canceled)}, false},
		{"validation", invalid(TaskCustom, "x", "y"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
