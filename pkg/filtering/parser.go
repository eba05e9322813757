package filtering

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net"
	"strings"

	"domainkit/pkg/domain"
)

// Filter lists carry very long lines; the scanner buffer grows up to this.
const maxLineSize = 2 * 1024 * 1024

// ParseOptions configures a single list parse.
type ParseOptions struct {
	ListID string
	Logger *slog.Logger
	// Diagnostics receives rejections. A collector without logging is used
	// when nil.
	Diagnostics *Diagnostics
	// IncludeSubdomains makes hosts entries subtree rules.
	IncludeSubdomains bool
	// DebugDomain logs every directive whose hostname contains it.
	DebugDomain string
}

// ListParser applies the classifier and normalizer to whole lists.
type ListParser struct {
	classifier *Classifier
	norm       *domain.Normalizer
}

// NewListParser creates a ListParser around classifier.
func NewListParser(classifier *Classifier) *ListParser {
	return &ListParser{classifier: classifier, norm: classifier.Normalizer()}
}

type lineHandler func(dst []Directive, line string, opts ParseOptions, diag *Diagnostics) []Directive

// Parse reads a list of the given kind into allow and block sets. Malformed
// lines are rejected and recorded; only an invalid directive is an error.
func (p *ListParser) Parse(r io.Reader, kind Kind, opts ParseOptions) (*RuleSets, ParseStats, error) {
	var handle lineHandler
	switch kind {
	case KindFilter, "":
		handle = p.filterLine
	case KindHosts:
		handle = p.hostsLine
	case KindDomains:
		handle = p.domainLine
	default:
		return nil, ParseStats{}, fmt.Errorf("parse %s: unknown list kind %q", opts.ListID, kind)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	diag := opts.Diagnostics
	if diag == nil {
		diag = NewDiagnostics(opts.ListID, logger, 0)
	}

	sets := NewRuleSets()
	stats := ParseStats{}
	var buf []Directive

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for line := range scannerLines(scanner) {
		stats.TotalLines++
		line = stripBOM(line)
		if isCommentLine(line) {
			continue
		}

		buf = handle(buf[:0], line, opts, diag)
		if len(buf) == 0 {
			stats.Rejected++
			continue
		}
		for _, d := range buf {
			if err := sets.Apply(d); err != nil {
				return nil, stats, fmt.Errorf("parse %s: %w", opts.ListID, err)
			}
			if d.Polarity == PolarityAllow {
				stats.Allow++
			} else {
				stats.Block++
			}
			if opts.DebugDomain != "" && strings.Contains(d.Hostname, opts.DebugDomain) {
				stats.DebugHits++
				logger.Info("debug domain matched", "list", opts.ListID, "line", line,
					"hostname", d.Hostname, "scope", d.Scope, "polarity", d.Polarity)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan list: %w", err)
	}

	diag.Summary()
	logger.Info("parsed list", "list", opts.ListID, "kind", string(kind),
		"allow", stats.Allow, "block", stats.Block, "rejected", stats.Rejected)
	return sets, stats, nil
}

func (p *ListParser) filterLine(dst []Directive, line string, _ ParseOptions, diag *Diagnostics) []Directive {
	if d, ok := p.classifier.Classify(line, diag); ok {
		dst = append(dst, d)
	}
	return dst
}

func (p *ListParser) hostsLine(dst []Directive, line string, opts ParseOptions, diag *Diagnostics) []Directive {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return dst
	}
	if ip := net.ParseIP(fields[0]); ip != nil {
		fields = fields[1:]
	}

	scope := ScopeExact
	if opts.IncludeSubdomains {
		scope = ScopeSubtree
	}
	for _, token := range fields {
		if isCommentToken(token) {
			break
		}
		name, err := p.norm.Normalize(token)
		if err != nil {
			diag.Reject(StageHosts, token)
			continue
		}
		dst = append(dst, Directive{Hostname: name, Scope: scope, Polarity: PolarityBlock})
	}
	return dst
}

func (p *ListParser) domainLine(dst []Directive, line string, _ ParseOptions, diag *Diagnostics) []Directive {
	fields := strings.Fields(line)
	if len(fields) == 0 || isCommentToken(fields[0]) {
		return dst
	}

	host, scope := ParseDomain(fields[0])
	name, err := p.norm.Normalize(host)
	if err != nil {
		diag.Reject(StageDomains, fields[0])
		return dst
	}
	return append(dst, Directive{Hostname: name, Scope: scope, Polarity: PolarityBlock})
}

func scannerLines(sc *bufio.Scanner) iter.Seq[string] {
	return func(yield func(string) bool) {
		for sc.Scan() {
			if !yield(sc.Text()) {
				return
			}
		}
	}
}

func stripBOM(line string) string {
	return strings.TrimPrefix(line, "\ufeff")
}

// isCommentLine reports blank lines and lines opening with a comment marker
// or whitespace.
func isCommentLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	switch line[0] {
	case '#', '!', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

func isCommentToken(token string) bool {
	return strings.HasPrefix(token, "#") || strings.HasPrefix(token, "//") || strings.HasPrefix(token, ";")
}
