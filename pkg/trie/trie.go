// Package trie indexes domains by label, suffix first, so that descendant and
// ancestor lookups become prefix walks.
package trie

import (
	"maps"
	"slices"
	"strings"
)

type node struct {
	children map[string]*node
	// exact is set for "example.com", subtree for ".example.com".
	exact   bool
	subtree bool
}

// Trie is a domain label trie. It is not safe for concurrent mutation.
type Trie struct {
	root *node
	size int
}

// New creates an empty Trie.
func New() *Trie {
	return &Trie{root: &node{}}
}

// FromDomains builds a Trie holding every domain in domains.
func FromDomains(domains []string) *Trie {
	t := New()
	for _, d := range domains {
		t.Insert(d)
	}
	return t
}

// Insert indexes domain. A leading dot records SUBTREE scope on the terminal
// node, otherwise EXACT scope is recorded.
func (t *Trie) Insert(domain string) {
	host, subtree := split(domain)
	if host == "" {
		return
	}

	n := t.root
	labels := strings.Split(host, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child := n.children[labels[i]]
		if child == nil {
			child = &node{}
			n.children[labels[i]] = child
		}
		n = child
	}

	if subtree {
		if !n.subtree {
			n.subtree = true
			t.size++
		}
		return
	}
	if !n.exact {
		n.exact = true
		t.size++
	}
}

// Has reports whether domain was inserted, in either scope.
func (t *Trie) Has(domain string) bool {
	n := t.lookup(domain)
	return n != nil && (n.exact || n.subtree)
}

// Len returns the number of stored entries. "x" and ".x" count separately.
func (t *Trie) Len() int {
	return t.size
}

// Find returns every stored domain below domain, in stored form (SUBTREE
// entries keep their leading dot). With includeSelf, entries stored on domain
// itself are returned too. Results are ordered by label, depth first.
func (t *Trie) Find(domain string, includeSelf bool) []string {
	host, _ := split(domain)
	n := t.lookup(domain)
	if n == nil {
		return nil
	}

	var out []string
	if includeSelf {
		out = appendEntries(out, n, host)
	}
	return collect(out, n, host)
}

// Covered reports whether a SUBTREE entry is stored on a strict ancestor of
// domain, or on domain itself when includeSelf is set.
func (t *Trie) Covered(domain string, includeSelf bool) bool {
	host, _ := split(domain)
	if host == "" {
		return false
	}

	n := t.root
	labels := strings.Split(host, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		n = n.children[labels[i]]
		if n == nil {
			return false
		}
		if !n.subtree {
			continue
		}
		if i > 0 || includeSelf {
			return true
		}
	}
	return false
}

func (t *Trie) lookup(domain string) *node {
	host, _ := split(domain)
	if host == "" {
		return nil
	}

	n := t.root
	labels := strings.Split(host, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		n = n.children[labels[i]]
		if n == nil {
			return nil
		}
	}
	return n
}

func collect(out []string, n *node, host string) []string {
	for _, label := range slices.Sorted(maps.Keys(n.children)) {
		child := n.children[label]
		name := label + "." + host
		out = appendEntries(out, child, name)
		out = collect(out, child, name)
	}
	return out
}

func appendEntries(out []string, n *node, host string) []string {
	if n.exact {
		out = append(out, host)
	}
	if n.subtree {
		out = append(out, "."+host)
	}
	return out
}

func split(domain string) (string, bool) {
	if strings.HasPrefix(domain, ".") {
		return domain[1:], true
	}
	return domain, false
}
