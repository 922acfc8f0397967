// Package zeroconf advertises the now-playing HTTP API as an mDNS/DNS-SD
// service so LAN clients can find it without configuration.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/grandcat/zeroconf"
)

const (
	serviceType = "_http._tcp"
	domain      = "local."
)

// Service manages mDNS service registration.
type Service struct {
	name    string // instance name, e.g. "nowplaying on kitchen"
	port    int
	version string
	secured bool
}

// New creates a Service that will advertise on port. An empty name uses
// "nowplaying on <hostname>".
func New(name string, port int, version string, secured bool) *Service {
	if name == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "localhost"
		}
		name = "nowplaying on " + host
	}
	return &Service{name: name, port: port, version: version, secured: secured}
}

// Name returns the advertised instance name.
func (s *Service) Name() string { return s.name }

// TXT returns the TXT records published with the service.
func (s *Service) TXT() []string {
	auth := "none"
	if s.secured {
		auth = "api-key"
	}
	return []string{
		"app=nowplaying",
		"path=/api",
		"version=" + s.version,
		"auth=" + auth,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	if s.port <= 0 || s.port > 65535 {
		return fmt.Errorf("zeroconf: invalid port %d", s.port)
	}
	txt := s.TXT()

	server, err := zeroconf.Register(s.name, serviceType, domain, s.port, txt, nil)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
