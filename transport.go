package capmonster

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Transport performs one HTTP round trip. Response header keys are lower-case.
// Implementations must be safe for concurrent use.
type Transport interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (respBody []byte, respHeaders map[string]string, status int, err error)
}

// TransportFactory builds the Transport a Client uses. It receives the client's
// options after defaults have been applied.
type TransportFactory func(opts ClientOptions) (Transport, error)

// DefaultTransport builds a go-stealth browser client, routed through opts.Proxy if set.
// The client's own timeout matches opts.RequestTimeout so an abandoned round trip does not
// outlive it.
func DefaultTransport(opts ClientOptions) (Transport, error) {
	sopts := []stealth.ClientOption{
		stealth.WithHeaderOrder(apiHeaderOrder),
		stealth.WithTimeout(timeoutSeconds(opts.RequestTimeout)),
	}
	if opts.Proxy != "" {
		sopts = append(sopts, stealth.WithProxy(opts.Proxy))
	}
	bc, err := stealth.NewClient(sopts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return &stealthTransport{bc: bc}, nil
}

// timeoutSeconds rounds d up to whole seconds, at least one.
func timeoutSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

type stealthTransport struct {
	bc *stealth.BrowserClient
}

func (t *stealthTransport) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, map[string]string, int, error) {
	return t.bc.DoWithHeaderOrderCtx(ctx, method, url, headers, bytes.NewReader(body), apiHeaderOrder)
}

// NewHTTPTransport adapts a standard *http.Client. A nil client uses http.DefaultClient.
func NewHTTPTransport(hc *http.Client) Transport {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &httpTransport{hc: hc}
}

// HTTPTransportFactory returns a TransportFactory that always uses hc.
func HTTPTransportFactory(hc *http.Client) TransportFactory {
	return func(ClientOptions) (Transport, error) {
		return NewHTTPTransport(hc), nil
	}
}

type httpTransport struct {
	hc *http.Client
}

func (t *httpTransport) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, map[string]string, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.hc.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, resp.StatusCode, err
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			respHeaders[strings.ToLower(k)] = v[0]
		}
	}
	return data, respHeaders, resp.StatusCode, nil
}
