package capmonster

import (
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// ClientOptions holds all configuration for the client. It is copied by NewClient and
// never mutated afterwards.
type ClientOptions struct {
	// ServiceURL is the API base address. Default: DefaultServiceURL.
	ServiceURL string

	// ClientKey is the account API key. Required.
	ClientKey string

	// SoftID and CallbackURL are passed through on createTask when set.
	SoftID      int
	CallbackURL string

	// PollInterval and PollTimeout override the per-task-type defaults for every task
	// when positive.
	PollInterval time.Duration
	PollTimeout  time.Duration

	// Timings overrides interval and timeout per task type. Entries win over
	// PollInterval/PollTimeout and may use a zero interval.
	Timings map[TaskType]Timing

	// PollRetries is how many consecutive transport failures a poll loop tolerates.
	// Zero means 3; negative disables retries.
	PollRetries int

	// RetryBackoff spaces retried polls. The wait is never shorter than the poll interval.
	RetryBackoff stealth.BackoffConfig

	// RequestTimeout bounds a single round trip. Default: 30s.
	RequestTimeout time.Duration

	// Proxy routes API traffic (not the solving itself) through a proxy URL.
	Proxy string

	// RateLimit enables client-side per-endpoint throttling when RequestsPerWindow > 0.
	RateLimit ratelimit.Config

	// BalanceWarnLevel makes CheckBalance log a warning below this amount. Default: 5.
	BalanceWarnLevel float64

	// Logger receives the client's structured logs. Default: slog.Default().
	Logger *slog.Logger
}

const defaultPollRetries = 3

// defaults fills in zero-value fields with sensible defaults.
func (o *ClientOptions) defaults() {
	if o.ServiceURL == "" {
		o.ServiceURL = DefaultServiceURL
	}
	if o.PollRetries == 0 {
		o.PollRetries = defaultPollRetries
	}
	if o.PollRetries < 0 {
		o.PollRetries = 0
	}
	if o.RetryBackoff.InitialWait == 0 {
		o.RetryBackoff = stealth.BackoffConfig{
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
			JitterPct:   0.2,
		}
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.BalanceWarnLevel == 0 {
		o.BalanceWarnLevel = 5.0
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Timings = maps.Clone(o.Timings)
}

// validate checks fields that have no usable default.
func (o *ClientOptions) validate() error {
	if o.ClientKey == "" {
		return fmt.Errorf("capmonster: client key is required")
	}
	u, err := url.Parse(o.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("capmonster: invalid service URL %q", o.ServiceURL)
	}
	for t, tm := range o.Timings {
		if tm.Interval < 0 || tm.Timeout <= 0 {
			return fmt.Errorf("capmonster: invalid timing for %s", t)
		}
	}
	return nil
}
