package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	testCases := []struct {
		level    string
		message  string
		logFile  string
		wantText string
	}{
		{"debug", "debug message", "stdout", "debug message"},
		{"info", "info message", "stdout", "info message"},
		{"warn", "warn message", "stderr", "warn message"},
		{"error", "error message", "stdout", "error message"},
		{"debug", "debug to file", "test.log", "debug to file"},
		{"info", "info to file", "test.log", "info to file"},
		{"warn", "warn to file", "test.log", "warn to file"},
		{"error", "error to file", "test.log", "error to file"},
	}

	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	for _, tc := range testCases {
		t.Run(tc.level+"-"+tc.logFile, func(t *testing.T) {
			logFile := tc.logFile
			if logFile != "stdout" && logFile != "stderr" {
				logFile = filepath.Join(t.TempDir(), tc.logFile)
			}

			if _, err := Setup(tc.level, logFile); err != nil {
				t.Fatalf("Setup returned error: %v", err)
			}

			slog.Debug(tc.message)
			slog.Info(tc.message)
			slog.Warn(tc.message)
			slog.Error(tc.message)

			if logFile == tc.logFile {
				// Terminal output can only be checked for a successful setup.
				return
			}

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("Failed to read log file: %v", err)
			}

			logContent := string(content)
			if !strings.Contains(logContent, tc.wantText) {
				t.Errorf("Log file does not contain expected text %q", tc.wantText)
			}
			if !strings.Contains(logContent, "time=") {
				t.Error("Log file entries should carry a time stamp")
			}

			switch tc.level {
			case "error":
				if strings.Contains(logContent, "level=INFO") {
					t.Error("Error level log contains INFO messages")
				}
			case "warn":
				if strings.Contains(logContent, "level=DEBUG") {
					t.Error("Warn level log contains DEBUG messages")
				}
			case "info":
				if strings.Contains(logContent, "level=DEBUG") {
					t.Error("Info level log contains DEBUG messages")
				}
			}
		})
	}
}

func TestSetupUnwritableFile(t *testing.T) {
	if _, err := Setup("info", filepath.Join(t.TempDir(), "missing", "domainkit.log")); err == nil {
		t.Error("expected an error for a log file in a missing directory")
	}
}
