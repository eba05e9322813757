package filtering

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingSink struct {
	records []Diagnostic
}

func (s *recordingSink) Record(d Diagnostic) {
	s.records = append(s.records, d)
}

func TestDiagnosticsWarnOnce(t *testing.T) {
	sink := &recordingSink{}
	diag := NewDiagnostics("list", discardLogger(), 0).WithSink(sink)

	diag.Reject(StageAnchor, "||bad^.com^")
	diag.Reject(StageAnchor, "||bad^.com^")
	diag.Reject(StageUnparsed, "||bad^.com^")
	diag.Reject(StageFast, "! comment")

	want := []Diagnostic{
		{Source: "list", Stage: StageAnchor, Text: "||bad^.com^"},
		{Source: "list", Stage: StageUnparsed, Text: "||bad^.com^"},
	}
	if diff := cmp.Diff(want, diag.Records()); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, sink.records); diff != "" {
		t.Errorf("sink mismatch (-want +got):\n%s", diff)
	}
	if got := diag.Count(StageAnchor); got != 2 {
		t.Errorf("Count(anchor) = %d, want 2", got)
	}
	if got := diag.Count(StageFast); got != 1 {
		t.Errorf("Count(fast) = %d, want 1", got)
	}
	if got := diag.Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
}

func TestDiagnosticsLogLimit(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	diag := NewDiagnostics("list", logger, 2)

	for _, line := range []string{"a^", "b^", "c^", "d^"} {
		diag.Reject(StageBoundary, line)
	}
	diag.Summary()

	logText := logBuf.String()
	if got := strings.Count(logText, `msg="rejected rule"`); got != 2 {
		t.Fatalf("expected 2 rejected rule logs, got %d", got)
	}
	if !strings.Contains(logText, "rejected rules suppressed") {
		t.Error("expected summary log for suppressed rejections")
	}
	if got := len(diag.Records()); got != 4 {
		t.Errorf("expected every distinct rejection recorded, got %d", got)
	}
}

func TestNilDiagnostics(t *testing.T) {
	var diag *Diagnostics
	diag.Reject(StageUnparsed, "x")
	diag.Summary()
	if diag.Count(StageUnparsed) != 0 || diag.Total() != 0 || diag.Records() != nil {
		t.Error("expected nil diagnostics to discard everything")
	}
}
