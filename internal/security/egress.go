// Package security keeps outbound webhook traffic away from internal
// addresses.
//
// The webhook URL is operator-supplied configuration. Guard resolves the
// host before every dial and redirect and refuses loopback, private,
// link-local (including the instance metadata endpoint) and reserved ranges.
package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// DefaultDNSTimeout bounds each lookup.
const DefaultDNSTimeout = 500 * time.Millisecond

var (
	ErrBlockedAddress   = errors.New("egress: destination address is blocked")
	ErrDNSTimeout       = errors.New("egress: DNS resolution timed out")
	ErrDNSFailed        = errors.New("egress: DNS resolution failed")
	ErrTooManyRedirects = errors.New("egress: too many redirects")
	ErrMissingHost      = errors.New("egress: URL has no host")
)

var blockedNets = mustParseCIDRs(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("security: bad CIDR %q: %v", c, err))
		}
		nets = append(nets, n)
	}
	return nets
}

// IsBlocked reports whether ip falls in a blocked range.
func IsBlocked(ip net.IP) bool {
	for _, n := range blockedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Resolver abstracts DNS so tests can pin answers.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Guard checks outbound destinations.
type Guard struct {
	Resolver   Resolver
	DNSTimeout time.Duration
}

// NewGuard returns a Guard backed by net.DefaultResolver.
func NewGuard() *Guard {
	return &Guard{Resolver: net.DefaultResolver, DNSTimeout: DefaultDNSTimeout}
}

// resolve returns the addresses for host. Every address must be allowed,
// otherwise a mixed answer could be used to rebind to an internal one.
func (g *Guard) resolve(ctx context.Context, host string) ([]net.IP, error) {
	if host == "" {
		return nil, ErrMissingHost
	}
	if ip := net.ParseIP(host); ip != nil {
		if IsBlocked(ip) {
			return nil, fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
		}
		return []net.IP{ip}, nil
	}

	timeout := g.DNSTimeout
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}
	dnsCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := g.Resolver.LookupIPAddr(dnsCtx, host)
	if err != nil {
		if dnsCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %q", ErrDNSTimeout, host)
		}
		return nil, fmt.Errorf("%w: %q: %v", ErrDNSFailed, host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %q has no addresses", ErrDNSFailed, host)
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if IsBlocked(a.IP) {
			return nil, fmt.Errorf("%w: %s (from %s)", ErrBlockedAddress, a.IP, host)
		}
		ips = append(ips, a.IP)
	}
	return ips, nil
}

// CheckURL validates a URL's host without connecting. Used as a preflight
// when an operator stores a new webhook.
func (g *Guard) CheckURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingHost, err)
	}
	_, err = g.resolve(ctx, u.Hostname())
	return err
}

// DialContext dials the first resolved address after checking all of them.
func (g *Guard) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("egress: invalid address %q: %w", addr, err)
	}
	ips, err := g.resolve(ctx, host)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(ips[0].String(), port))
}

// CheckRedirect limits redirects and applies the same address checks to
// each hop.
func (g *Guard) CheckRedirect(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: limit is %d", ErrTooManyRedirects, maxRedirects)
		}
		_, err := g.resolve(req.Context(), req.URL.Hostname())
		return err
	}
}

// NewHTTPClient returns a client whose dials and redirects go through g.
func NewHTTPClient(g *Guard, timeout time.Duration, maxRedirects int) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         g.DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        4,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: g.CheckRedirect(maxRedirects),
	}
}
