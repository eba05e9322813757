package dedupe

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"domainkit/pkg/domain"
)

func newTestSorter() *Sorter {
	return NewSorter(domain.NewNormalizer().Apex)
}

func TestSortGroupsByApex(t *testing.T) {
	s := newTestSorter()

	got := s.Sorted([]string{"b.example.com", "example.com", "a.example.org"})
	want := []string{"example.com", "b.example.com", "a.example.org"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
}

func TestSortHierarchy(t *testing.T) {
	s := newTestSorter()

	got := s.Sorted([]string{
		"z.a.example.com",
		".example.com",
		"b.example.com",
		"example.com",
		".a.example.com",
		"a.example.com",
		"shop.example.co.uk",
		"co.uk",
		"aaa.example.net",
	})
	want := []string{
		"co.uk",
		"shop.example.co.uk",
		".example.com",
		"example.com",
		".a.example.com",
		"a.example.com",
		"z.a.example.com",
		"b.example.com",
		"aaa.example.net",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare(t *testing.T) {
	s := newTestSorter()

	if got := s.Compare("example.com", "example.com"); got != 0 {
		t.Errorf("Compare(equal) = %d, want 0", got)
	}
	if got := s.Compare("example.com", "b.example.com"); got >= 0 {
		t.Errorf("expected apex before subdomain, got %d", got)
	}
	if got := s.Compare("b.example.com", "example.com"); got <= 0 {
		t.Errorf("expected subdomain after apex, got %d", got)
	}
	if got := s.Compare("zzz.example.com", "a.example.org"); got >= 0 {
		t.Errorf("expected example.com group before example.org group, got %d", got)
	}
}

func TestSortIsStableUnderShuffle(t *testing.T) {
	s := newTestSorter()
	input := []string{
		".example.com", "a.example.com", "b.a.example.com", "example.org",
		"x.example.org", ".cdn.example.net", "img.cdn.example.net", "example.co.uk",
		"www.example.co.uk", "tracker.io", "a.tracker.io", ".someone.github.io",
	}

	want := s.Sorted(input)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(input)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if diff := cmp.Diff(want, s.Sorted(shuffled)); diff != "" {
			t.Fatalf("sort depends on input order (-want +got):\n%s", diff)
		}
	}

	assertGrouped(t, want)
}

func assertGrouped(t *testing.T, sorted []string) {
	t.Helper()
	n := domain.NewNormalizer()
	closed := make(map[string]bool)
	prev := ""
	for _, d := range sorted {
		apex, err := n.Apex(strings.TrimPrefix(d, "."))
		if err != nil {
			apex = strings.TrimPrefix(d, ".")
		}
		if apex != prev {
			if closed[apex] {
				t.Fatalf("apex %q appears in two separate groups: %v", apex, sorted)
			}
			if prev != "" {
				closed[prev] = true
			}
			prev = apex
		}
	}
}
