package filtering

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirective reports a directive with an unknown scope or polarity.
var ErrInvalidDirective = errors.New("invalid directive")

// Scope selects which names a directive matches.
type Scope int

const (
	// ScopeExact matches only the hostname itself.
	ScopeExact Scope = iota + 1
	// ScopeSubtree matches the hostname and every subdomain.
	ScopeSubtree
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeExact:
		return "exact"
	case ScopeSubtree:
		return "subtree"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Polarity tells whether a directive blocks or allows.
type Polarity int

const (
	PolarityBlock Polarity = iota + 1
	PolarityAllow
)

// String returns the polarity name.
func (p Polarity) String() string {
	switch p {
	case PolarityBlock:
		return "block"
	case PolarityAllow:
		return "allow"
	default:
		return fmt.Sprintf("polarity(%d)", int(p))
	}
}

// Directive is one classified rule line.
type Directive struct {
	Hostname string
	Scope    Scope
	Polarity Polarity
}

// Domain returns the domain string form: a leading dot marks subtree scope.
func (d Directive) Domain() string {
	if d.Scope == ScopeSubtree {
		return "." + d.Hostname
	}
	return d.Hostname
}

// Validate reports whether d can be stored in a RuleSets.
func (d Directive) Validate() error {
	if d.Hostname == "" || strings.HasPrefix(d.Hostname, ".") {
		return fmt.Errorf("hostname %q: %w", d.Hostname, ErrInvalidDirective)
	}
	if d.Scope != ScopeExact && d.Scope != ScopeSubtree {
		return fmt.Errorf("%s: %w", d.Scope, ErrInvalidDirective)
	}
	if d.Polarity != PolarityBlock && d.Polarity != PolarityAllow {
		return fmt.Errorf("%s: %w", d.Polarity, ErrInvalidDirective)
	}
	return nil
}

// ParseDomain splits a domain string into its hostname and scope.
func ParseDomain(domain string) (string, Scope) {
	if host, ok := strings.CutPrefix(domain, "."); ok {
		return host, ScopeSubtree
	}
	return domain, ScopeExact
}
