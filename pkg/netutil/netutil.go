// Package netutil provides target URL normalization and reachability
// preflight checks for the scanner.
//
// NormalizeTarget turns user input like "app.example.com" into a full
// URL the HTTP client can use. Preflight verifies the target host
// answers before a scan is started, using an ICMP echo request via the
// go-ping library with a TCP dial fallback for hosts that drop ICMP.
package netutil

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-ping/ping"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface over the ping library, kept narrow so tests
// can substitute a fake.
type Pinger interface {
	Run() error
	Stop()
	Statistics() *ping.Statistics

	SetPrivileged(bool)
	SetCount(int)
	SetTimeout(time.Duration)
}

type pingerFactoryFunc func(host string) (Pinger, error)

// NormalizeTarget validates and normalizes a raw target into a URL
// suitable for scanning.
//
// A missing scheme defaults to https so a bare hostname is not
// reported as insecure transport the user never chose. Fragments are
// dropped, the host is lowercased, and only http and https schemes
// are accepted.
func NormalizeTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", fmt.Errorf("target must not be empty")
	}

	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target URL %q: %w", raw, err)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported target scheme %q, expected http or https", u.Scheme)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("target URL %q has no host", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	return u.String(), nil
}

// TargetAddr returns the host:port dial address for a target URL,
// filling in the default port for the scheme when none is given.
func TargetAddr(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target URL %q: %w", target, err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("target URL %q has no host", target)
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	return net.JoinHostPort(host, port), nil
}

// Preflight checks that the target host is reachable before a scan.
//
// It sends a single unprivileged ICMP echo request first and falls
// back to a TCP dial against the target's service port, since many
// hosts answer HTTP but drop ICMP. Returns nil when either probe
// succeeds.
type Preflight struct {
	// Timeout bounds each individual probe.
	Timeout time.Duration

	pingerFactory pingerFactoryFunc
	dialer        *net.Dialer
}

// NewPreflight creates a Preflight with the given per-probe timeout.
func NewPreflight(timeout time.Duration) *Preflight {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Preflight{
		Timeout: timeout,
		pingerFactory: func(host string) (Pinger, error) {
			p, err := ping.NewPinger(host)
			if err != nil {
				return nil, err
			}
			return &realPingerAdapter{p: p}, nil
		},
		dialer: &net.Dialer{},
	}
}

// Check verifies the target host answers. The target must be a
// normalized URL as produced by NormalizeTarget.
func (p *Preflight) Check(ctx context.Context, target string) error {
	addr, err := TargetAddr(target)
	if err != nil {
		return err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", addr, err)
	}

	logger := log.With().Str("component", "preflight").Str("host", host).Logger()

	if err := p.icmpProbe(ctx, host); err == nil {
		logger.Debug().Msg("Host answered ICMP echo")
		return nil
	} else {
		logger.Debug().Err(err).Msg("ICMP probe failed, falling back to TCP dial")
	}

	if err := p.tcpProbe(ctx, addr); err != nil {
		return fmt.Errorf("target %s is unreachable: %w", host, err)
	}

	logger.Debug().Str("addr", addr).Msg("Host accepted TCP connection")
	return nil
}

// icmpProbe sends one unprivileged echo request and waits for a reply.
func (p *Preflight) icmpProbe(ctx context.Context, host string) error {
	pinger, err := p.pingerFactory(host)
	if err != nil {
		return fmt.Errorf("create pinger: %w", err)
	}

	pinger.SetPrivileged(false)
	pinger.SetCount(1)
	pinger.SetTimeout(p.Timeout)

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ping: %w", err)
		}
	}

	stats := pinger.Statistics()
	if stats == nil || stats.PacketsRecv == 0 {
		return fmt.Errorf("no echo reply from %s", host)
	}
	return nil
}

// tcpProbe dials the target's service port.
func (p *Preflight) tcpProbe(ctx context.Context, addr string) error {
	dialCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}

// realPingerAdapter wraps github.com/go-ping/ping.Pinger to implement
// the Pinger interface.
type realPingerAdapter struct {
	p *ping.Pinger
}

func (r *realPingerAdapter) Run() error                   { return r.p.Run() }
func (r *realPingerAdapter) Stop()                        { r.p.Stop() }
func (r *realPingerAdapter) Statistics() *ping.Statistics { return r.p.Statistics() }
func (r *realPingerAdapter) SetPrivileged(v bool)         { r.p.SetPrivileged(v) }
func (r *realPingerAdapter) SetCount(n int)               { r.p.Count = n }
func (r *realPingerAdapter) SetTimeout(d time.Duration)   { r.p.Timeout = d }
