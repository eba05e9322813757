package filtering

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// RejectedLogger appends recorded diagnostics to a file for manual curation.
// Each diagnostic is written once per process, so periodic rebuilds do not
// repeat lines. It is safe for concurrent use.
type RejectedLogger struct {
	file *os.File
	mu   sync.Mutex
	now  func() time.Time
	seen map[Diagnostic]struct{}
}

// NewRejectedLogger opens path for appending. It returns nil when path is
// empty or cannot be opened; a nil *RejectedLogger discards records.
func NewRejectedLogger(path string, log *slog.Logger) *RejectedLogger {
	if path == "" {
		return nil
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path provided via config.
	if err != nil {
		if log == nil {
			slog.Default().Error("failed to open rejected log file", "error", err)
		} else {
			log.Error("failed to open rejected log file", "error", err)
		}
		return nil
	}
	return &RejectedLogger{file: file, now: time.Now, seen: make(map[Diagnostic]struct{})}
}

// Record implements RejectionSink.
func (r *RejectedLogger) Record(d Diagnostic) {
	if r == nil || r.file == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[d]; ok {
		return
	}
	r.seen[d] = struct{}{}
	line := fmt.Sprintf("%s stage=%s source=%s line=%q\n",
		r.now().UTC().Format(time.RFC3339),
		d.Stage,
		d.Source,
		d.Text,
	)
	_, _ = r.file.WriteString(line)
}

// Close closes the underlying file.
func (r *RejectedLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
