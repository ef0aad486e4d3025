package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/go-ping/ping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "full https URL",
			raw:  "https://app.example.com/login",
			want: "https://app.example.com/login",
		},
		{
			name: "http URL preserved",
			raw:  "http://legacy.example.com",
			want: "http://legacy.example.com",
		},
		{
			name: "bare hostname defaults to https",
			raw:  "app.example.com",
			want: "https://app.example.com",
		},
		{
			name: "host with port",
			raw:  "app.example.com:8443",
			want: "https://app.example.com:8443",
		},
		{
			name: "uppercase host is lowercased",
			raw:  "https://APP.Example.COM/Path",
			want: "https://app.example.com/Path",
		},
		{
			name: "fragment is dropped",
			raw:  "https://app.example.com/page#section",
			want: "https://app.example.com/page",
		},
		{
			name: "surrounding whitespace",
			raw:  "  https://app.example.com  ",
			want: "https://app.example.com",
		},
		{
			name:    "empty target",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			raw:     "ftp://files.example.com",
			wantErr: true,
		},
		{
			name:    "no host",
			raw:     "https:///path-only",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTarget(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Result must round-trip through url.Parse
			_, err = url.Parse(got)
			require.NoError(t, err)
		})
	}
}

func TestTargetAddr(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{
			name:   "https default port",
			target: "https://app.example.com",
			want:   "app.example.com:443",
		},
		{
			name:   "http default port",
			target: "http://app.example.com",
			want:   "app.example.com:80",
		},
		{
			name:   "explicit port wins",
			target: "https://app.example.com:8443/path",
			want:   "app.example.com:8443",
		},
		{
			name:    "no host",
			target:  "https://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TargetAddr(tt.target)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// fakePinger lets tests control ICMP probe behavior without sockets.
type fakePinger struct {
	runErr  error
	recv    int
	stopped bool
}

func (f *fakePinger) Run() error { return f.runErr }
func (f *fakePinger) Stop()      { f.stopped = true }
func (f *fakePinger) Statistics() *ping.Statistics {
	return &ping.Statistics{PacketsRecv: f.recv}
}
func (f *fakePinger) SetPrivileged(bool)       {}
func (f *fakePinger) SetCount(int)             {}
func (f *fakePinger) SetTimeout(time.Duration) {}

func TestPreflight_Check_ICMPSuccess(t *testing.T) {
	p := NewPreflight(time.Second)
	p.pingerFactory = func(host string) (Pinger, error) {
		return &fakePinger{recv: 1}, nil
	}

	err := p.Check(context.Background(), "https://app.example.com")
	require.NoError(t, err)
}

func TestPreflight_Check_TCPFallback(t *testing.T) {
	// Local listener stands in for the target service
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	p := NewPreflight(time.Second)
	p.pingerFactory = func(host string) (Pinger, error) {
		return &fakePinger{runErr: errors.New("icmp blocked")}, nil
	}

	err = p.Check(context.Background(), "http://"+ln.Addr().String())
	require.NoError(t, err)
}

func TestPreflight_Check_Unreachable(t *testing.T) {
	// Grab a free port, then close it so the dial is refused
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	p := NewPreflight(time.Second)
	p.pingerFactory = func(host string) (Pinger, error) {
		return &fakePinger{recv: 0}, nil
	}

	err = p.Check(context.Background(), "http://"+addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestPreflight_Check_NoEchoReplyFallsBack(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	p := NewPreflight(time.Second)
	p.pingerFactory = func(host string) (Pinger, error) {
		// Run succeeds but zero replies arrive, e.g. echo filtered upstream
		return &fakePinger{recv: 0}, nil
	}

	err = p.Check(context.Background(), "http://"+ln.Addr().String())
	require.NoError(t, err)
}

func TestPreflight_Check_InvalidTarget(t *testing.T) {
	p := NewPreflight(time.Second)
	err := p.Check(context.Background(), "https://")
	require.Error(t, err)
}

func TestNewPreflight_DefaultTimeout(t *testing.T) {
	p := NewPreflight(0)
	assert.Equal(t, 3*time.Second, p.Timeout)
}
