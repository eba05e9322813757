package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"domainkit/pkg/filtering"
)

const sampleConfig = `
[logging]
level = "debug"
error_limit = 5

[build]
cache_dir = "/tmp/domainkit-cache"
update_interval = "6h"
debug_domain = "tracker"
allowlist = [".safe.example.com", "ok.example.net"]
rejected_log = "/tmp/rejected.log"
custom = ["/etc/domainkit/local.txt"]

[output]
path = "/srv/domainset.yaml"
format = "yaml"
description = "merged"

[metrics]
textfile = "/var/lib/node_exporter/domainkit.prom"

[lists.EasyList]
enabled = true

[lists.private]
enabled = true
url = "https://lists.example.com/private.txt"
kind = "hosts"
include_subdomains = true
mirrors = ["https://mirror.example.com/private.txt"]
token = "secret"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domainkit.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

func TestSetupFromFile(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Setup(newFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	want := &Config{
		Logging: LoggingConfig{Level: "debug", File: "stdout", ErrorLimit: 5},
		Build: BuildConfig{
			CacheDir:       "/tmp/domainkit-cache",
			UpdateInterval: 6 * time.Hour,
			DebugDomain:    "tracker",
			Allowlist:      []string{".safe.example.com", "ok.example.net"},
			RejectedLog:    "/tmp/rejected.log",
			Custom:         []string{"/etc/domainkit/local.txt"},
		},
		Output: OutputConfig{
			Path:        "/srv/domainset.yaml",
			Format:      "yaml",
			Title:       "domainkit",
			Description: "merged",
		},
		Metrics: MetricsConfig{Textfile: "/var/lib/node_exporter/domainkit.prom"},
		Lists: map[string]filtering.ListConfig{
			"easylist": {Enabled: true},
			"private": {
				Enabled:           true,
				URL:               "https://lists.example.com/private.txt",
				Kind:              "hosts",
				IncludeSubdomains: true,
				Mirrors:           []string{"https://mirror.example.com/private.txt"},
				Token:             "secret",
			},
		},
		Path: path,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSetupPathFromEnv(t *testing.T) {
	path := writeConfig(t, "[logging]\nlevel = \"warn\"\n")
	t.Setenv(configEnvVar, path)

	cfg, err := Setup(nil)
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if cfg.Path != path || cfg.Logging.Level != "warn" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Build.CacheDir != "/var/cache/domainkit" || cfg.Output.Format != "text" || len(cfg.Lists) != 0 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSetupFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Setup(newFlags(t, "--config", path, "--log-level", "error", "--interval", "30m"))
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %q, want error", cfg.Logging.Level)
	}
	if cfg.Build.UpdateInterval != 30*time.Minute {
		t.Errorf("UpdateInterval = %v, want 30m", cfg.Build.UpdateInterval)
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid level", "[logging]\nlevel = \"trace\"\n"},
		{"invalid error limit", "[logging]\nerror_limit = -2\n"},
		{"invalid interval", "[build]\nupdate_interval = \"soon\"\n"},
		{"invalid format", "[output]\nformat = \"surge\"\n"},
		{"invalid kind", "[lists.bad]\nenabled = true\nkind = \"clash\"\n"},
		{"list not a table", "[lists]\nbad = \"x\"\n"},
		{"invalid toml", "[logging\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Setup(newFlags(t, "--config", path)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := Setup(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.toml"))); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestValidateLogLevel(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error", "DEBUG", "INFO", "WARN", "ERROR"}
	for _, level := range validLevels {
		if err := ValidateLogLevel(level); err != nil {
			t.Errorf("ValidateLogLevel(%s) returned error: %v", level, err)
		}
	}

	invalidLevels := []string{"", "trace", "fatal", "invalid", "debugging"}
	for _, level := range invalidLevels {
		if err := ValidateLogLevel(level); err == nil {
			t.Errorf("ValidateLogLevel(%s) should return error", level)
		}
	}
}

func TestValidateFormatAndKind(t *testing.T) {
	for _, format := range []string{"", "text", "yaml"} {
		if err := ValidateFormat(format); err != nil {
			t.Errorf("ValidateFormat(%q) returned error: %v", format, err)
		}
	}
	if err := ValidateFormat("clash"); err == nil {
		t.Error("ValidateFormat(clash) should return error")
	}

	for _, kind := range []string{"", "filter", "hosts", "domains"} {
		if err := ValidateKind(kind); err != nil {
			t.Errorf("ValidateKind(%q) returned error: %v", kind, err)
		}
	}
	if err := ValidateKind("surge"); err == nil {
		t.Error("ValidateKind(surge) should return error")
	}
}
