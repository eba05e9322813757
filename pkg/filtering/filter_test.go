package filtering

import (
	"strings"
	"sync"
	"testing"

	"domainkit/pkg/domain"
)

func TestMatcherAllowOverride(t *testing.T) {
	m := NewMatcher()
	m.Update(
		NewDomainSetFrom([]string{"blocked.example.com", "allow.example.com", ".wild.example.net", ".example.org"}),
		NewDomainSetFrom([]string{"allow.example.com", ".safe.example.org"}),
	)

	tests := []struct {
		name    string
		blocked bool
		allowed bool
		rule    string
	}{
		{name: "blocked.example.com", blocked: true, rule: "blocked.example.com"},
		{name: "allow.example.com", allowed: true, rule: "allow.example.com"},
		{name: "host.wild.example.net", blocked: true, rule: ".wild.example.net"},
		{name: "host.safe.example.org", allowed: true, rule: ".safe.example.org"},
		{name: "ads.example.org", blocked: true, rule: ".example.org"},
		{name: "unrelated.example.com"},
	}

	for _, tt := range tests {
		v := m.Check(tt.name)
		if v.Blocked != tt.blocked || v.Allowed != tt.allowed || v.Rule != tt.rule {
			t.Errorf("Check(%q) = %+v, want blocked=%v allowed=%v rule=%q", tt.name, v, tt.blocked, tt.allowed, tt.rule)
		}
		if m.ShouldBlock(tt.name) != tt.blocked {
			t.Errorf("ShouldBlock(%q) != %v", tt.name, tt.blocked)
		}
	}
}

func TestMatcherEmpty(t *testing.T) {
	m := NewMatcher()
	if m.ShouldBlock("example.com") {
		t.Error("expected empty matcher to block nothing")
	}
	m.Update(NewDomainSetFrom([]string{"example.com"}), nil)
	if !m.ShouldBlock("EXAMPLE.com.") {
		t.Error("expected lookup to ignore case and trailing dot")
	}
}

func TestMatcherUpdateIsAtomic(t *testing.T) {
	m := NewMatcher()
	// Both states leave x.example.com unblocked; only a mix of them would block it.
	withAllow := func() {
		m.Update(NewDomainSetFrom([]string{"x.example.com"}), NewDomainSetFrom([]string{"x.example.com"}))
	}
	empty := func() { m.Update(nil, nil) }

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				withAllow()
				empty()
			}
		}
	}()

	for i := 0; i < 20000; i++ {
		if m.ShouldBlock("x.example.com") {
			close(stop)
			wg.Wait()
			t.Fatalf("check %d saw block rules without their allow rules", i)
		}
	}
	close(stop)
	wg.Wait()
}

func TestAllowlist(t *testing.T) {
	norm := domain.NewNormalizer()

	a, err := NewAllowlist([]string{".Tracker.Example.net", "ads.example.org"}, norm)
	if err != nil {
		t.Fatalf("NewAllowlist returned error: %v", err)
	}
	if !a.Matches("cdn.tracker.example.net") || !a.Matches("ads.example.org") || a.Matches("x.ads.example.org") {
		t.Errorf("unexpected allowlist matches for %v", a.Domains())
	}

	if _, err := NewAllowlist([]string{"not a domain"}, norm); err == nil {
		t.Error("expected an error for an invalid allowlist entry")
	}

	input := strings.Join([]string{
		"# comment",
		"allow.example.com",
		"; another comment",
		".safe.example.com # trailing",
		"bad..entry",
	}, "\n")
	fromFile, err := readAllowlist(strings.NewReader(input), norm, discardLogger())
	if err != nil {
		t.Fatalf("readAllowlist returned error: %v", err)
	}
	if fromFile.Len() != 2 || !fromFile.Matches("host.safe.example.com") || !fromFile.Matches("allow.example.com") {
		t.Errorf("unexpected allowlist %v", fromFile.Domains())
	}

	a.Merge(fromFile)
	if a.Len() != 4 {
		t.Errorf("merged Len() = %d, want 4", a.Len())
	}
}

func TestLoadAllowlistMissingFile(t *testing.T) {
	if _, err := LoadAllowlist("/nonexistent/allowlist.txt", domain.NewNormalizer(), discardLogger()); err == nil {
		t.Error("expected an error for a missing allowlist file")
	}
	a, err := LoadAllowlist("", domain.NewNormalizer(), discardLogger())
	if err != nil || a.Len() != 0 {
		t.Errorf("expected empty allowlist without a path, got %v, %v", a, err)
	}
}
