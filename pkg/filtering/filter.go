package filtering

import "sync/atomic"

// Verdict is the outcome of checking a name against built rules.
type Verdict struct {
	Name    string
	Blocked bool
	// Allowed is set when an allow entry matched; it wins over any block entry.
	Allowed bool
	// Rule is the entry that decided the verdict, empty when nothing matched.
	Rule string
}

// Matcher answers block checks against the most recently built rules. It is
// safe for concurrent use; Update swaps the rules atomically.
type Matcher struct {
	rules atomic.Pointer[ruleSnapshot]
}

// ruleSnapshot pairs the sets of one build so Check never mixes builds.
type ruleSnapshot struct {
	block *DomainSet
	allow *DomainSet
}

// NewMatcher constructs a Matcher with empty rules.
func NewMatcher() *Matcher {
	m := &Matcher{}
	m.Update(nil, nil)
	return m
}

// Update replaces the block and allow sets. Nil sets are treated as empty.
func (m *Matcher) Update(block, allow *DomainSet) {
	if block == nil {
		block = NewDomainSet()
	}
	if allow == nil {
		allow = NewDomainSet()
	}
	m.rules.Store(&ruleSnapshot{block: block, allow: allow})
}

// Check returns the verdict for name.
func (m *Matcher) Check(name string) Verdict {
	v := Verdict{Name: normalizeLookupName(name)}
	if m == nil {
		return v
	}
	rules := m.rules.Load()
	if rule, ok := rules.allow.Lookup(name); ok {
		v.Allowed = true
		v.Rule = rule
		return v
	}
	if rule, ok := rules.block.Lookup(name); ok {
		v.Blocked = true
		v.Rule = rule
	}
	return v
}

// ShouldBlock returns true when name is blocked and not allowed.
func (m *Matcher) ShouldBlock(name string) bool {
	return m.Check(name).Blocked
}
