package sandbox

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/orgdesk/internal/config"
)

const (
	// DefaultHost is the loopback interface used when no host override is provided.
	DefaultHost = "127.0.0.1"
	// DefaultPort matches the default api.base_url in config.yaml.
	DefaultPort = 8765
	// DefaultMaxBodyBytes limits request payloads to 64 KB.
	DefaultMaxBodyBytes int64 = 64 << 10
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
)

// Settings captures runtime configuration for the sandbox organization service.
type Settings struct {
	Enabled           bool
	Host              string
	Port              int
	OrganizationsPath string
	MaxBodyBytes      int64
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// SettingsFromConfig builds Settings from .orgdesk/config.yaml and the
// ORGDESK_SANDBOX_* overrides already parsed into cfg.Env.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		Host:              DefaultHost,
		Port:              DefaultPort,
		OrganizationsPath: config.DefaultOrganizationsPath,
		MaxBodyBytes:      DefaultMaxBodyBytes,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	if cfg != nil {
		raw := cfg.Project.Sandbox
		if raw.Enabled != nil {
			settings.Enabled = *raw.Enabled
		}
		if host := strings.TrimSpace(raw.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(raw.Port) {
			settings.Port = raw.Port
		}
		if path := cfg.OrganizationsPath(); path != "" {
			settings.OrganizationsPath = path
		}

		overrides := cfg.Env
		if overrides.SandboxEnabled != nil {
			settings.Enabled = *overrides.SandboxEnabled
		}
		if host := strings.TrimSpace(overrides.SandboxHost); host != "" {
			settings.Host = host
		}
		if isValidPort(overrides.SandboxPort) {
			settings.Port = overrides.SandboxPort
		}
	}
	settings.normalize()
	return settings
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port != 0 && !isValidPort(s.Port) {
		s.Port = DefaultPort
	}
	s.OrganizationsPath = "/" + strings.Trim(strings.TrimSpace(s.OrganizationsPath), "/")
	if s.OrganizationsPath == "/" {
		s.OrganizationsPath = config.DefaultOrganizationsPath
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
