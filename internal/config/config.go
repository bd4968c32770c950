// internal/config/config.go
//
// This package handles configuration and the .orgdesk directory structure.
// Every project directory orgdesk runs in gets a .orgdesk/ folder with the
// session logs and a config.yaml that points the client at an organization
// service.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".orgdesk"

	// EnvPrefix namespaces every environment override.
	EnvPrefix = "ORGDESK_"

	DefaultAPIBaseURL        = "http://127.0.0.1:8765"
	DefaultOrganizationsPath = "/api/organizations"
	DefaultRequestIDHeader   = "X-Request-ID"
)

const defaultProjectConfigYAML = `# orgdesk project configuration
version: 1

# Organization service the client talks to. The default points at the
# bundled sandbox (run "orgdesk sandbox" or "orgdesk --sandbox").
api:
  base_url: http://127.0.0.1:8765
  organizations_path: /api/organizations
  request_id_header: X-Request-ID

# Local sandbox organization service.
sandbox:
  host: 127.0.0.1
  port: 8765
`

// APIConfig describes the organization service endpoint.
type APIConfig struct {
	BaseURL           string `yaml:"base_url"`
	OrganizationsPath string `yaml:"organizations_path"`
	RequestIDHeader   string `yaml:"request_id_header"`
}

// SandboxConfig captures the local sandbox service settings.
type SandboxConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .orgdesk/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	API     APIConfig     `yaml:"api"`
	Sandbox SandboxConfig `yaml:"sandbox"`
}

// EnvOverrides are read from ORGDESK_* variables and win over config.yaml.
type EnvOverrides struct {
	APIURL            string  `env:"API_URL"`
	OrganizationsPath string  `env:"ORGANIZATIONS_PATH"`
	RequestIDHeader   *string `env:"REQUEST_ID_HEADER"`
	SandboxEnabled    *bool   `env:"SANDBOX_ENABLED"`
	SandboxHost       string  `env:"SANDBOX_HOST"`
	SandboxPort       int     `env:"SANDBOX_PORT"`
}

// Config holds the runtime configuration for orgdesk.
type Config struct {
	// ProjectDir is the directory where the user ran `orgdesk` from
	ProjectDir string

	// OrgdeskDir is ProjectDir/.orgdesk
	OrgdeskDir string

	Project ProjectConfig
	Env     EnvOverrides
}

// InitDir creates the .orgdesk directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .orgdesk/
// ├── config.yaml
// └── logs/
func InitDir(projectDir string) error {
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: ensure %s: %w", dir, err)
	}
	return ensureProjectConfig(filepath.Join(dir, "config.yaml"))
}

// NewConfig loads .env files, config.yaml, and ORGDESK_* overrides for the
// project directory.
func NewConfig(projectDir string) (*Config, error) {
	if _, err := LoadEnv(projectDir); err != nil {
		return nil, fmt.Errorf("config: load env files: %w", err)
	}
	cfg := &Config{
		ProjectDir: projectDir,
		OrgdeskDir: filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(&cfg.Env, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.validateOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads .env and .env.local from dir when present. Variables already
// set in the process environment are left alone.
func LoadEnv(dir string) (int, error) {
	var existing []string
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.OrgdeskDir, "logs")
}

// LogPath returns the session log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "orgdesk.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.OrgdeskDir, "config.yaml")
}

// APIBaseURL returns the organization service base URL.
func (c *Config) APIBaseURL() string {
	if v := strings.TrimSpace(c.Env.APIURL); v != "" {
		return v
	}
	return c.Project.API.BaseURL
}

// OrganizationsPath returns the collection endpoint path.
func (c *Config) OrganizationsPath() string {
	if v := strings.TrimSpace(c.Env.OrganizationsPath); v != "" {
		return v
	}
	return c.Project.API.OrganizationsPath
}

// RequestIDHeader returns the correlation header name. An explicit empty
// override disables the header.
func (c *Config) RequestIDHeader() string {
	if c.Env.RequestIDHeader != nil {
		return strings.TrimSpace(*c.Env.RequestIDHeader)
	}
	return c.Project.API.RequestIDHeader
}

// SetAPIBaseURL updates the base URL and persists it to .orgdesk/config.yaml.
func (c *Config) SetAPIBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if err := validateBaseURL(raw); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.API.BaseURL = strings.TrimRight(raw, "/")
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) validateOverrides() error {
	if v := strings.TrimSpace(c.Env.APIURL); v != "" {
		if err := validateBaseURL(v); err != nil {
			return fmt.Errorf("config: %sAPI_URL: %w", EnvPrefix, err)
		}
	}
	if v := strings.TrimSpace(c.Env.OrganizationsPath); v != "" && !strings.HasPrefix(v, "/") {
		return fmt.Errorf("config: %sORGANIZATIONS_PATH must start with /", EnvPrefix)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{Version: 1}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.API.BaseURL) == "" {
		pc.API.BaseURL = DefaultAPIBaseURL
	}
	if strings.TrimSpace(pc.API.OrganizationsPath) == "" {
		pc.API.OrganizationsPath = DefaultOrganizationsPath
	}
	if strings.TrimSpace(pc.API.RequestIDHeader) == "" {
		pc.API.RequestIDHeader = DefaultRequestIDHeader
	}
}

func (pc *ProjectConfig) normalize() {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	pc.API.OrganizationsPath = strings.TrimSpace(pc.API.OrganizationsPath)
	pc.API.RequestIDHeader = strings.TrimSpace(pc.API.RequestIDHeader)
	pc.Sandbox.Host = strings.TrimSpace(pc.Sandbox.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validateBaseURL(pc.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if !strings.HasPrefix(pc.API.OrganizationsPath, "/") {
		return fmt.Errorf("api.organizations_path must start with /")
	}
	if pc.Sandbox.Port < 0 || pc.Sandbox.Port > 65535 {
		return fmt.Errorf("sandbox.port must be between 0 and 65535")
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.OrgdeskDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure orgdesk dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
