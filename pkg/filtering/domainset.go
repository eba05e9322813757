package filtering

import (
	"slices"
	"strings"
)

// DomainSet stores domain strings of one polarity. A leading dot marks a
// subtree entry.
type DomainSet struct {
	entries map[string]struct{}
}

// NewDomainSet creates an empty DomainSet.
func NewDomainSet() *DomainSet {
	return &DomainSet{entries: make(map[string]struct{})}
}

// NewDomainSetFrom creates a DomainSet holding domains.
func NewDomainSetFrom(domains []string) *DomainSet {
	s := NewDomainSet()
	for _, d := range domains {
		s.Add(d)
	}
	return s
}

// Add adds a domain string to the set.
func (s *DomainSet) Add(domain string) {
	if domain == "" || domain == "." {
		return
	}
	s.entries[domain] = struct{}{}
}

// Has reports whether the exact domain string is in the set.
func (s *DomainSet) Has(domain string) bool {
	if s == nil {
		return false
	}
	_, ok := s.entries[domain]
	return ok
}

// Len returns the number of entries.
func (s *DomainSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Domains returns the entries in lexical order.
func (s *DomainSet) Domains() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.entries))
	for d := range s.entries {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Merge merges another DomainSet into this one.
func (s *DomainSet) Merge(other *DomainSet) {
	if other == nil {
		return
	}
	for d := range other.entries {
		s.entries[d] = struct{}{}
	}
}

// Matches reports whether name is matched by an exact entry for name or by a
// subtree entry for name or one of its parents.
func (s *DomainSet) Matches(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Lookup returns the entry that matches name. An exact entry wins over a
// subtree entry; closer subtree entries win over farther ones.
func (s *DomainSet) Lookup(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	normalised := normalizeLookupName(name)
	if normalised == "" {
		return "", false
	}
	if _, ok := s.entries[normalised]; ok {
		return normalised, true
	}
	labels := strings.Split(normalised, ".")
	for i := 0; i < len(labels); i++ {
		suffix := "." + strings.Join(labels[i:], ".")
		if _, ok := s.entries[suffix]; ok {
			return suffix, true
		}
	}
	return "", false
}

func normalizeLookupName(name string) string {
	trimmed := strings.TrimSpace(name)
	trimmed = strings.TrimSuffix(trimmed, ".")
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}

// RuleSets holds the allow and block sets produced from one or more lists.
type RuleSets struct {
	Allow *DomainSet
	Block *DomainSet
}

// NewRuleSets creates empty allow and block sets.
func NewRuleSets() *RuleSets {
	return &RuleSets{Allow: NewDomainSet(), Block: NewDomainSet()}
}

// Apply stores d in the set matching its polarity.
func (r *RuleSets) Apply(d Directive) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Polarity == PolarityAllow {
		r.Allow.Add(d.Domain())
	} else {
		r.Block.Add(d.Domain())
	}
	return nil
}

// Merge merges other into r.
func (r *RuleSets) Merge(other *RuleSets) {
	if other == nil {
		return
	}
	r.Allow.Merge(other.Allow)
	r.Block.Merge(other.Block)
}
