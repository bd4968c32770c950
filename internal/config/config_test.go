package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	}
}

var allKeys = []string{
	"ORGDESK_API_URL",
	"ORGDESK_ORGANIZATIONS_PATH",
	"ORGDESK_REQUEST_ID_HEADER",
	"ORGDESK_SANDBOX_ENABLED",
	"ORGDESK_SANDBOX_HOST",
	"ORGDESK_SANDBOX_PORT",
}

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, OrgdeskDir: dir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.APIBaseURL() != DefaultAPIBaseURL {
		t.Fatalf("expected default base url %q, got %q", DefaultAPIBaseURL, c.APIBaseURL())
	}
	if c.OrganizationsPath() != DefaultOrganizationsPath {
		t.Fatalf("expected default path %q, got %q", DefaultOrganizationsPath, c.OrganizationsPath())
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
api:
  base_url: https://orgs.example.com/
  organizations_path: /v1/organizations
sandbox:
  enabled: true
  port: 9100
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, OrgdeskDir: dir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if got := c.APIBaseURL(); got != "https://orgs.example.com" {
		t.Fatalf("base url = %q", got)
	}
	if got := c.OrganizationsPath(); got != "/v1/organizations" {
		t.Fatalf("organizations path = %q", got)
	}
	if got := c.RequestIDHeader(); got != DefaultRequestIDHeader {
		t.Fatalf("request id header = %q", got)
	}
	if c.Project.Sandbox.Enabled == nil || !*c.Project.Sandbox.Enabled {
		t.Fatalf("expected sandbox enabled")
	}
	if c.Project.Sandbox.Port != 9100 {
		t.Fatalf("sandbox port = %d", c.Project.Sandbox.Port)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, body := range []string{
		"version: 1\napi:\n  base_url: ftp://orgs.example.com\n",
		"version: 1\napi:\n  organizations_path: organizations\n",
		"version: -1\n",
		"version: 1\nsandbox:\n  port: 70000\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		c := &Config{ProjectDir: projectDir, OrgdeskDir: dir, Project: defaultProjectConfig()}
		if err := c.loadProjectConfig(); err == nil {
			t.Fatalf("expected validation error for %q", body)
		}
	}
}

func TestNewConfigAppliesEnvOverrides(t *testing.T) {
	clearEnv(t, allKeys...)
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("init dir: %v", err)
	}
	t.Setenv("ORGDESK_API_URL", "http://localhost:3000")
	t.Setenv("ORGDESK_REQUEST_ID_HEADER", "")
	t.Setenv("ORGDESK_SANDBOX_ENABLED", "true")
	t.Setenv("ORGDESK_SANDBOX_PORT", "9001")

	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if got := cfg.APIBaseURL(); got != "http://localhost:3000" {
		t.Fatalf("base url = %q", got)
	}
	if cfg.Env.SandboxEnabled == nil || !*cfg.Env.SandboxEnabled {
		t.Fatalf("expected sandbox enabled override")
	}
	if cfg.Env.SandboxPort != 9001 {
		t.Fatalf("sandbox port override = %d", cfg.Env.SandboxPort)
	}
	if got := cfg.Project.API.BaseURL; got != DefaultAPIBaseURL {
		t.Fatalf("file value should be untouched, got %q", got)
	}
}

func TestNewConfigRejectsBadEnvURL(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("ORGDESK_API_URL", "localhost:3000")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error for schemeless url")
	}
}

func TestNewConfigReadsDotEnv(t *testing.T) {
	clearEnv(t, allKeys...)
	projectDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte("ORGDESK_ORGANIZATIONS_PATH=/v2/orgs\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if got := cfg.OrganizationsPath(); got != "/v2/orgs" {
		t.Fatalf("organizations path = %q", got)
	}
}

func TestInitDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("init dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(projectDir, Dir, "logs")); err != nil {
		t.Fatalf("logs dir missing: %v", err)
	}
	c := &Config{ProjectDir: projectDir, OrgdeskDir: filepath.Join(projectDir, Dir), Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("default config does not load: %v", err)
	}
	if c.Project.Sandbox.Port != 8765 {
		t.Fatalf("default sandbox port = %d", c.Project.Sandbox.Port)
	}
}

func TestSetAPIBaseURLPersists(t *testing.T) {
	clearEnv(t, allKeys...)
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("init dir: %v", err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if err := cfg.SetAPIBaseURL("not a url"); err == nil {
		t.Fatalf("expected invalid url to be rejected")
	}
	if err := cfg.SetAPIBaseURL("https://orgs.example.com/"); err != nil {
		t.Fatalf("set base url: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.APIBaseURL(); got != "https://orgs.example.com" {
		t.Fatalf("persisted base url = %q", got)
	}
}
