package filtering

import (
	"errors"
	"strings"

	"domainkit/pkg/domain"
)

type verdict int

const (
	verdictNext verdict = iota
	verdictAccept
	verdictReject
)

// Classifier turns filter list lines into directives. It keeps no mutable
// state and is safe for concurrent use.
type Classifier struct {
	norm   *domain.Normalizer
	parser StructuredParser
	rules  []fallbackRule
}

// NewClassifier returns a Classifier using the default network filter grammar.
func NewClassifier(norm *domain.Normalizer) *Classifier {
	return NewClassifierWithParser(norm, GrammarParser{})
}

// NewClassifierWithParser returns a Classifier that tries parser before the
// fallback rules.
func NewClassifierWithParser(norm *domain.Normalizer, parser StructuredParser) *Classifier {
	if norm == nil {
		norm = domain.NewNormalizer()
	}
	return &Classifier{norm: norm, parser: parser, rules: fallbackRules}
}

// Normalizer returns the normalizer used by the classifier.
func (c *Classifier) Normalizer() *domain.Normalizer {
	return c.norm
}

// Classify returns the directive expressed by line. It returns false when the
// line does not express an unconditional domain match; the reason is counted
// in diag, which may be nil.
func (c *Classifier) Classify(line string, diag *Diagnostics) (Directive, bool) {
	if fastReject(line) {
		diag.Reject(StageFast, line)
		return Directive{}, false
	}
	line = strings.TrimSpace(line)

	if c.parser != nil {
		if f, ok := c.parser.Parse(line); ok {
			d, v := c.classifyFilter(f, diag)
			switch v {
			case verdictAccept:
				return d, true
			case verdictReject:
				return Directive{}, false
			}
		}
	}

	l := newRuleLine(line)
	for _, rule := range c.rules {
		if !rule.match(l) {
			continue
		}
		d, v := rule.apply(c, l, diag)
		switch v {
		case verdictAccept:
			return d, true
		case verdictReject:
			return Directive{}, false
		}
	}
	return Directive{}, false
}

func (c *Classifier) classifyFilter(f *NetworkFilter, diag *Diagnostics) (Directive, verdict) {
	if f.IsElemHide() || f.IsGenericHide() || f.IsSpecificHide() ||
		f.IsRedirect() || f.IsCSP() || f.HasDomains() ||
		(!f.FromAny() && !f.FromDocument()) {
		diag.Reject(StageUnsupported, f.Raw)
		return Directive{}, verdictReject
	}
	if !f.IsPlainHostname() {
		return Directive{}, verdictNext
	}

	if _, err := c.norm.Apex(f.Hostname); err != nil {
		stage := StageUnlistedSuffix
		if errors.Is(err, domain.ErrPublicSuffix) {
			stage = StagePublicSuffix
		}
		diag.RejectQuietly(stage, f.Raw)
		return Directive{}, verdictReject
	}
	host, err := c.norm.Normalize(f.Hostname)
	if err != nil {
		diag.Reject(StageStructured, f.Raw)
		return Directive{}, verdictReject
	}

	scope := ScopeExact
	if f.IsHostnameAnchor() {
		scope = ScopeSubtree
	}
	if f.IsException() || f.IsBadFilter() {
		return Directive{Hostname: host, Scope: scope, Polarity: PolarityAllow}, verdictAccept
	}

	switch {
	case f.FirstParty() && f.ThirdParty():
		return Directive{Hostname: host, Scope: scope, Polarity: PolarityBlock}, verdictAccept
	case f.FirstParty() || f.ThirdParty():
		diag.RejectQuietly(StagePartyRestricted, f.Raw)
		return Directive{}, verdictReject
	}
	return Directive{}, verdictNext
}

// fastReject drops lines that cannot be plain domain rules without looking at
// their structure.
func fastReject(raw string) bool {
	if !strings.Contains(raw, ".") || strings.ContainsAny(raw, "!?*[](),#%&=~") {
		return true
	}

	line := strings.TrimSpace(raw)
	if line == "" || line[0] == '/' {
		return true
	}
	switch line[len(line)-1] {
	case '.', '-', '_':
		return true
	}
	for _, opt := range []string{"$popup", "$removeparam", "$popunder", "$csp"} {
		if strings.Contains(line, opt) {
			return true
		}
	}
	if strings.ContainsAny(line, "/:") && !strings.Contains(line, "://") {
		return true
	}
	return false
}
