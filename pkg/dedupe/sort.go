package dedupe

import (
	"slices"
	"strings"
)

// ApexFunc returns the registrable domain of a hostname.
type ApexFunc func(hostname string) (string, error)

// Sorter orders domains so that every domain sharing an apex is contiguous,
// groups follow apex order, and each group starts at its apex and then walks
// the hierarchy label by label. Output is byte-stable across runs.
type Sorter struct {
	apex ApexFunc
}

// NewSorter returns a Sorter using apex to group domains. *domain.Normalizer's
// Apex method satisfies ApexFunc.
func NewSorter(apex ApexFunc) *Sorter {
	return &Sorter{apex: apex}
}

type sortKey struct {
	raw    string
	apex   string
	labels []string // reversed: "a.example.com" -> [com example a]
}

func (s *Sorter) key(d string) sortKey {
	host := strings.TrimPrefix(d, ".")
	apex, err := s.apex(host)
	if err != nil || apex == "" {
		// Bare suffixes and unparsable names form a group of their own.
		apex = host
	}
	labels := strings.Split(host, ".")
	slices.Reverse(labels)
	return sortKey{raw: d, apex: apex, labels: labels}
}

// Compare returns -1, 0 or +1. It is a total order: only identical strings
// compare equal.
func (s *Sorter) Compare(a, b string) int {
	if a == b {
		return 0
	}
	return compareKeys(s.key(a), s.key(b))
}

// Sort orders domains in place.
func (s *Sorter) Sort(domains []string) {
	keys := make([]sortKey, len(domains))
	for i, d := range domains {
		keys[i] = s.key(d)
	}
	slices.SortFunc(keys, compareKeys)
	for i := range keys {
		domains[i] = keys[i].raw
	}
}

// Sorted returns a sorted copy of domains.
func (s *Sorter) Sorted(domains []string) []string {
	out := slices.Clone(domains)
	s.Sort(out)
	return out
}

func compareKeys(a, b sortKey) int {
	if c := strings.Compare(a.apex, b.apex); c != 0 {
		return c
	}
	// Within a group the apex has the fewest labels, so comparing reversed
	// labels with shorter-prefix-first puts it at the front.
	if c := slices.Compare(a.labels, b.labels); c != 0 {
		return c
	}
	return strings.Compare(a.raw, b.raw)
}
