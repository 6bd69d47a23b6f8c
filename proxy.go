package capmonster

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	stealth "github.com/anatolykoptev/go-stealth"
)

// ProxyType is the proxy protocol the service should use to reach the target site.
type ProxyType string

const (
	ProxyHTTP   ProxyType = "http"
	ProxyHTTPS  ProxyType = "https"
	ProxySocks4 ProxyType = "socks4"
	ProxySocks5 ProxyType = "socks5"
)

// Proxy holds the caller's proxy credentials for non-proxyless tasks.
// Embedded by pointer in task structs; a nil Proxy selects the proxyless task type.
type Proxy struct {
	Type     ProxyType `json:"proxyType"`
	Address  string    `json:"proxyAddress"`
	Port     int       `json:"proxyPort"`
	Login    string    `json:"proxyLogin,omitempty"`
	Password string    `json:"proxyPassword,omitempty"`
}

// URL renders the proxy as a URL string, credentials included.
func (p *Proxy) URL() string {
	u := url.URL{
		Scheme: string(p.Type),
		Host:   net.JoinHostPort(p.Address, strconv.Itoa(p.Port)),
	}
	if p.Login != "" {
		u.User = url.UserPassword(p.Login, p.Password)
	}
	return u.String()
}

// Masked returns the proxy URL with credentials hidden, safe for logs.
func (p *Proxy) Masked() string {
	if p == nil {
		return ""
	}
	return stealth.MaskProxy(p.URL())
}

func (p *Proxy) validate() error {
	switch p.Type {
	case ProxyHTTP, ProxyHTTPS, ProxySocks4, ProxySocks5:
	default:
		return fmt.Errorf("unknown proxy type %q", p.Type)
	}
	if p.Address == "" {
		return fmt.Errorf("proxy address is required")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("proxy port %d out of range", p.Port)
	}
	return nil
}
