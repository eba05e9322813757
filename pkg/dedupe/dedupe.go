// Package dedupe reduces domain sets to their minimal covering form and puts
// them in a stable, apex-grouped order.
package dedupe

import (
	"strings"

	"domainkit/pkg/trie"
)

// Dedupe removes exact duplicates and every entry already covered by a
// SUBTREE entry (".example.com") of the same input. The relative order of the
// surviving entries is kept.
func Dedupe(domains []string) []string {
	unique := make([]string, 0, len(domains))
	seen := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if d == "" || d == "." {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}

	index := trie.FromDomains(unique)
	removed := make(map[string]struct{})
	for _, d := range unique {
		if !strings.HasPrefix(d, ".") {
			continue
		}
		if _, ok := removed[d]; ok {
			// Anything below d is below its covering ancestor as well.
			continue
		}
		for _, covered := range index.Find(d, true) {
			if covered != d {
				removed[covered] = struct{}{}
			}
		}
	}

	out := unique[:0]
	for _, d := range unique {
		if _, ok := removed[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}

// Subtract removes the entries of domains that safe entries exempt. A SUBTREE
// safe entry removes its whole subtree in both scopes; an EXACT safe entry
// removes only the identical EXACT entry.
func Subtract(domains []string, safe []string) []string {
	if len(safe) == 0 || len(domains) == 0 {
		return domains
	}

	index := trie.FromDomains(domains)
	removed := make(map[string]struct{})
	for _, s := range safe {
		if strings.HasPrefix(s, ".") {
			for _, d := range index.Find(s, true) {
				removed[d] = struct{}{}
			}
			continue
		}
		removed[s] = struct{}{}
	}

	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if _, ok := removed[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}
