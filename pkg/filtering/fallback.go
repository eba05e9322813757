package filtering

import "strings"

// ruleLine is a trimmed line with its trailer shape precomputed.
type ruleLine struct {
	text     string
	caret    bool // ends with "^"
	caretBar bool // ends with "^|"
}

func newRuleLine(text string) ruleLine {
	return ruleLine{
		text:     text,
		caret:    strings.HasSuffix(text, "^"),
		caretBar: strings.HasSuffix(text, "^|"),
	}
}

func (l ruleLine) boundary() bool {
	return l.caret || l.caretBar
}

// trimBoundary strips a trailing "^|" or "^" from s.
func trimBoundary(s string) string {
	if t, ok := strings.CutSuffix(s, "^|"); ok {
		return t
	}
	return strings.TrimSuffix(s, "^")
}

// fallbackRule handles one line shape the structured parser could not
// classify. Rules run in order and each assumes the shapes matched by earlier
// rules are gone.
type fallbackRule struct {
	stage string
	match func(l ruleLine) bool
	apply func(c *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict)
}

var fallbackRules = []fallbackRule{
	{stage: StagePartyRestricted, match: matchPartyRestricted, apply: rejectQuietlyAt(StagePartyRestricted)},
	{stage: StageException, match: matchException, apply: applyException},
	{stage: StageAnchor, match: matchAnchor, apply: applyAnchor},
	{stage: StageDotBoundary, match: matchDotBoundary, apply: applyDotBoundary},
	{stage: StageScheme, match: matchScheme, apply: applyScheme},
	{stage: StageBoundary, match: matchBoundary, apply: applyBoundary},
	{stage: StageLeadingDot, match: matchLeadingDot, apply: applyLeadingDot},
	{stage: StageBareDomain, match: matchBareDomain, apply: applyBareDomain},
	{stage: StageUnparsed, match: func(ruleLine) bool { return true }, apply: rejectAt(StageUnparsed)},
}

func rejectAt(stage string) func(*Classifier, ruleLine, *Diagnostics) (Directive, verdict) {
	return func(_ *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
		diag.Reject(stage, l.text)
		return Directive{}, verdictReject
	}
}

func rejectQuietlyAt(stage string) func(*Classifier, ruleLine, *Diagnostics) (Directive, verdict) {
	return func(_ *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
		diag.RejectQuietly(stage, l.text)
		return Directive{}, verdictReject
	}
}

// hostOnly reports whether s carries nothing but a hostname: no scheme,
// credentials, port, path or query that would narrow the rule.
func hostOnly(s string) bool {
	return !strings.ContainsAny(s, "/:?#@")
}

// emit normalizes host and builds a directive, recording stage on failure.
func (c *Classifier) emit(host string, scope Scope, polarity Polarity, stage string, l ruleLine, diag *Diagnostics) (Directive, verdict) {
	name, err := c.norm.Normalize(strings.TrimSpace(host))
	if err != nil {
		diag.Reject(stage, l.text)
		return Directive{}, verdictReject
	}
	return Directive{Hostname: name, Scope: scope, Polarity: polarity}, verdictAccept
}

// listed reports whether the public suffix of host is in the list.
func (c *Classifier) listed(host string) bool {
	_, ok := c.norm.PublicSuffix(host)
	return ok
}

func matchPartyRestricted(l ruleLine) bool {
	return strings.Contains(l.text, "$third-party") || strings.Contains(l.text, "$frame")
}

var exceptionPrefixes = []struct {
	prefix string
	scope  Scope
}{
	{"@@||", ScopeSubtree},
	{"@@://", ScopeExact},
	{"@@|", ScopeExact},
	{"@@.", ScopeExact},
}

var exceptionTrailers = []string{"^$genericblock", "$genericblock", "^$document", "$document", "^|", "^"}

func matchException(l ruleLine) bool {
	if !strings.HasPrefix(l.text, "@@") {
		return false
	}
	if strings.HasSuffix(l.text, "$cname") {
		return true
	}
	known := false
	for _, p := range exceptionPrefixes {
		if strings.HasPrefix(l.text, p.prefix) {
			known = true
			break
		}
	}
	return known && (l.boundary() ||
		strings.HasSuffix(l.text, "$genericblock") ||
		strings.HasSuffix(l.text, "$document"))
}

func applyException(c *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
	if strings.HasSuffix(l.text, "$cname") {
		diag.RejectQuietly(StageException, l.text)
		return Directive{}, verdictReject
	}

	host, scope := l.text, ScopeExact
	for _, p := range exceptionPrefixes {
		if rest, ok := strings.CutPrefix(host, p.prefix); ok {
			host, scope = rest, p.scope
			break
		}
	}
	for _, t := range exceptionTrailers {
		if rest, ok := strings.CutSuffix(host, t); ok {
			host = rest
			break
		}
	}
	return c.emit(host, scope, PolarityAllow, StageException, l, diag)
}

func matchAnchor(l ruleLine) bool {
	return strings.HasPrefix(l.text, "|") && (l.boundary() || strings.HasSuffix(l.text, "$cname"))
}

func applyAnchor(c *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
	host, scope := strings.TrimPrefix(l.text, "|"), ScopeExact
	if rest, ok := strings.CutPrefix(host, "|"); ok {
		host, scope = rest, ScopeSubtree
	}
	if rest, ok := strings.CutSuffix(host, "$cname"); ok {
		host = strings.TrimSuffix(rest, "^")
	} else {
		host = trimBoundary(host)
	}
	if scope == ScopeExact {
		for _, p := range []string{"https://", "http://", "://"} {
			if rest, ok := strings.CutPrefix(host, p); ok {
				host = rest
				break
			}
		}
	}
	if !hostOnly(host) {
		diag.Reject(StageAnchor, l.text)
		return Directive{}, verdictReject
	}
	return c.emit(host, scope, PolarityBlock, StageAnchor, l, diag)
}

func matchDotBoundary(l ruleLine) bool {
	return strings.HasPrefix(l.text, ".") && l.boundary()
}

func applyDotBoundary(c *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
	host := trimBoundary(l.text[1:])
	if !c.listed(host) {
		diag.RejectQuietly(StageDotBoundary, l.text)
		return Directive{}, verdictReject
	}
	return c.emit(host, ScopeSubtree, PolarityBlock, StageDotBoundary, l, diag)
}

var schemePrefixes = []string{"|https://", "|http://", "https://", "http://", "://"}

func matchScheme(l ruleLine) bool {
	if !l.boundary() {
		return false
	}
	for _, p := range schemePrefixes {
		if strings.HasPrefix(l.text, p) {
			return true
		}
	}
	return false
}

func applyScheme(c *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
	host := l.text
	for _, p := range schemePrefixes {
		if rest, ok := strings.CutPrefix(host, p); ok {
			host = rest
			break
		}
	}
	host = trimBoundary(host)
	if !hostOnly(host) {
		diag.Reject(StageScheme, l.text)
		return Directive{}, verdictReject
	}
	return c.emit(host, ScopeExact, PolarityBlock, StageScheme, l, diag)
}

func matchBoundary(l ruleLine) bool {
	return !strings.HasPrefix(l.text, "|") && l.caret
}

func applyBoundary(c *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
	host := strings.TrimSuffix(l.text, "^")
	if !c.listed(host) {
		diag.RejectQuietly(StageBoundary, l.text)
		return Directive{}, verdictReject
	}
	return c.emit(host, ScopeExact, PolarityBlock, StageBoundary, l, diag)
}

func matchLeadingDot(l ruleLine) bool {
	return strings.HasPrefix(l.text, ".")
}

// applyLeadingDot accepts ".example.com" only when the rest is already a
// canonical hostname; anything else goes straight to the unparsed rule.
func applyLeadingDot(c *Classifier, l ruleLine, diag *Diagnostics) (Directive, verdict) {
	host := l.text[1:]
	if !c.listed(host) {
		diag.RejectQuietly(StageLeadingDot, l.text)
		return Directive{}, verdictReject
	}
	if name, err := c.norm.Normalize(host); err == nil && name == host {
		return Directive{Hostname: name, Scope: ScopeSubtree, Polarity: PolarityBlock}, verdictAccept
	}
	return Directive{}, verdictNext
}

func matchBareDomain(l ruleLine) bool {
	return !strings.HasPrefix(l.text, ".")
}

func applyBareDomain(c *Classifier, l ruleLine, _ *Diagnostics) (Directive, verdict) {
	if name, err := c.norm.Normalize(l.text); err == nil && name == l.text {
		return Directive{Hostname: name, Scope: ScopeSubtree, Polarity: PolarityBlock}, verdictAccept
	}
	return Directive{}, verdictNext
}
