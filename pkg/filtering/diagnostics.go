package filtering

import (
	"log/slog"
	"maps"
	"slices"
)

// Rejection stages. Stages listed in silentStages are counted but never
// recorded or logged; every other stage is recorded and passed to the sink.
const (
	StageFast            = "fast"
	StageUnsupported     = "unsupported"
	StagePartyRestricted = "party-restricted"
	StageUnlistedSuffix  = "unlisted-suffix"
	StagePublicSuffix    = "public-suffix"
	StageStructured      = "structured"
	StageException       = "exception"
	StageAnchor          = "anchor"
	StageDotBoundary     = "dot-boundary"
	StageScheme          = "scheme"
	StageBoundary        = "boundary"
	StageLeadingDot      = "leading-dot"
	StageBareDomain      = "bare-domain"
	StageUnparsed        = "unparsed"
	StageHosts           = "hosts"
	StageDomains         = "domains"
)

var silentStages = map[string]bool{
	StageFast:        true,
	StageUnsupported: true,
}

// Diagnostic is one recorded rejection.
type Diagnostic struct {
	Source string
	Stage  string
	Text   string
}

// RejectionSink receives every recorded diagnostic.
type RejectionSink interface {
	Record(d Diagnostic)
}

// Diagnostics collects the rejections of one source. Identical rejections are
// recorded once. At most limit records are logged; zero disables logging and
// a negative limit logs everything. A nil *Diagnostics discards everything.
type Diagnostics struct {
	source string
	log    *slog.Logger
	limit  int
	sink   RejectionSink

	logged  int
	seen    map[Diagnostic]struct{}
	records []Diagnostic
	counts  map[string]int
}

// NewDiagnostics creates a collector for source.
func NewDiagnostics(source string, log *slog.Logger, limit int) *Diagnostics {
	if log == nil {
		log = slog.Default()
	}
	return &Diagnostics{
		source: source,
		log:    log,
		limit:  limit,
		seen:   make(map[Diagnostic]struct{}),
		counts: make(map[string]int),
	}
}

// WithSink forwards recorded diagnostics to sink as well.
func (d *Diagnostics) WithSink(sink RejectionSink) *Diagnostics {
	if d != nil {
		d.sink = sink
	}
	return d
}

// Source returns the source the collector belongs to.
func (d *Diagnostics) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// Reject counts a rejection at stage. Non-silent stages are recorded and
// logged once per distinct text.
func (d *Diagnostics) Reject(stage, text string) {
	d.reject(stage, text, true)
}

// RejectQuietly is Reject without the log entry. Lists carry many lines of
// these shapes; they still reach Records and the sink.
func (d *Diagnostics) RejectQuietly(stage, text string) {
	d.reject(stage, text, false)
}

func (d *Diagnostics) reject(stage, text string, logIt bool) {
	if d == nil {
		return
	}
	d.counts[stage]++
	if silentStages[stage] {
		return
	}

	rec := Diagnostic{Source: d.source, Stage: stage, Text: text}
	if _, ok := d.seen[rec]; ok {
		return
	}
	d.seen[rec] = struct{}{}
	d.records = append(d.records, rec)
	if d.sink != nil {
		d.sink.Record(rec)
	}

	if !logIt || d.limit == 0 {
		return
	}
	d.logged++
	if d.limit > 0 && d.logged > d.limit {
		return
	}
	d.log.Warn("rejected rule", "list", d.source, "stage", stage, "line", text)
}

// Count returns the number of rejections counted at stage.
func (d *Diagnostics) Count(stage string) int {
	if d == nil {
		return 0
	}
	return d.counts[stage]
}

// Counts returns a copy of the per-stage rejection counts.
func (d *Diagnostics) Counts() map[string]int {
	if d == nil {
		return map[string]int{}
	}
	return maps.Clone(d.counts)
}

// Total returns the number of rejections over all stages.
func (d *Diagnostics) Total() int {
	total := 0
	for _, n := range d.Counts() {
		total += n
	}
	return total
}

// Records returns the recorded diagnostics in the order they were first seen.
func (d *Diagnostics) Records() []Diagnostic {
	if d == nil {
		return nil
	}
	return slices.Clone(d.records)
}

// Summary logs the number of records that exceeded the log limit.
func (d *Diagnostics) Summary() {
	if d == nil || d.limit <= 0 {
		return
	}
	if d.logged > d.limit {
		d.log.Warn("rejected rules suppressed", "list", d.source, "rejected", d.logged, "logged", d.limit)
	}
}
