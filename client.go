package capmonster

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Client talks to the captcha-solving service. It is safe for concurrent use; solve calls
// share nothing but the read-only options, the transport and the optional limiter.
type Client struct {
	opts      ClientOptions
	transport Transport
	enc       Encoder
	limiter   *ratelimit.Limiter
	log       *slog.Logger
}

// NewClient creates a client. A nil factory uses DefaultTransport.
func NewClient(opts ClientOptions, factory TransportFactory) (*Client, error) {
	opts.defaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if factory == nil {
		factory = DefaultTransport
	}
	tr, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("capmonster transport: %w", err)
	}
	if tr == nil {
		return nil, fmt.Errorf("capmonster transport: factory returned nil")
	}

	c := &Client{
		opts:      opts,
		transport: tr,
		enc:       &JSONEncoder{},
		log:       opts.Logger,
	}
	if opts.RateLimit.RequestsPerWindow > 0 {
		c.limiter = ratelimit.NewLimiter(opts.RateLimit)
	}
	return c, nil
}

// Options returns a copy of the client's effective options. Changing it does not affect c.
func (c *Client) Options() ClientOptions {
	opts := c.opts
	opts.Timings = maps.Clone(c.opts.Timings)
	return opts
}

// GetBalance returns the account balance in USD. It makes exactly one request.
// The service sends the balance as a JSON number and it is decoded into a float64, so
// amounts are exact only to about 15 significant digits. Round before comparing cents.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	var resp getBalanceResponse
	if err := c.post(ctx, RequestGetBalance, getBalanceRequest{ClientKey: c.opts.ClientKey}, &resp); err != nil {
		if ctx.Err() != nil {
			return 0, cancelled(ctx)
		}
		return 0, err
	}
	if resp.ErrorID != 0 {
		return 0, resp.serviceError(RequestGetBalance)
	}
	return resp.Balance, nil
}

// CheckBalance is GetBalance that also logs a warning when the balance is below
// ClientOptions.BalanceWarnLevel.
func (c *Client) CheckBalance(ctx context.Context) (float64, error) {
	bal, err := c.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	if bal < c.opts.BalanceWarnLevel {
		c.log.Warn("capmonster balance low", slog.Float64("balance", bal), slog.Float64("warn_level", c.opts.BalanceWarnLevel))
	}
	return bal, nil
}
