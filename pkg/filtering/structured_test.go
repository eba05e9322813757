package filtering

import "testing"

func TestGrammarParser(t *testing.T) {
	tests := []struct {
		line       string
		recognized bool
		hostname   string
		plain      bool
		check      func(f *NetworkFilter) bool
	}{
		{line: "||ads.example.com^", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.IsHostnameAnchor() && f.FromAny() }},
		{line: "@@||ads.example.com^|", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.IsException() }},
		{line: "|http://ads.example.com|", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.IsLeftAnchor() && !f.IsHostnameAnchor() }},
		{line: "||ads.example.com/banner^", recognized: true, hostname: "ads.example.com", plain: false},
		{line: "||ads.example.com^$third-party", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return !f.FirstParty() && f.ThirdParty() }},
		{line: "||ads.example.com^$~third-party", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.FirstParty() && !f.ThirdParty() }},
		{line: "||ads.example.com^$doc", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.FromDocument() && !f.FromAny() }},
		{line: "||ads.example.com^$all", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.FromAny() }},
		{line: "||ads.example.com^$~image", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return !f.FromAny() && f.FromDocument() }},
		{line: "||ads.example.com^$domain=example.org", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.HasDomains() }},
		{line: "||ads.example.com^$redirect=noopjs", recognized: true, hostname: "ads.example.com", plain: true,
			check: func(f *NetworkFilter) bool { return f.IsRedirect() }},
		{line: "example.com$ghide", recognized: true, plain: false,
			check: func(f *NetworkFilter) bool { return f.IsGenericHide() }},
		{line: "||ads*.example.com^", recognized: true, plain: false,
			check: func(f *NetworkFilter) bool { return f.IsRegex() }},
		{line: "/banner[0-9]+/", recognized: true, plain: false,
			check: func(f *NetworkFilter) bool { return f.IsRegex() }},
		{line: ".ads.example.com^", recognized: true, plain: false},
		{line: "||ads.example.com^$genericblock", recognized: false},
		{line: "||ads.example.com^$", recognized: false},
		{line: "@@", recognized: false},
	}

	var p GrammarParser
	for _, tt := range tests {
		f, ok := p.Parse(tt.line)
		if ok != tt.recognized {
			t.Errorf("Parse(%q) recognized = %v, want %v", tt.line, ok, tt.recognized)
			continue
		}
		if !ok {
			continue
		}
		if f.Hostname != tt.hostname {
			t.Errorf("Parse(%q) hostname = %q, want %q", tt.line, f.Hostname, tt.hostname)
		}
		if f.IsPlainHostname() != tt.plain {
			t.Errorf("Parse(%q) plain = %v, want %v", tt.line, f.IsPlainHostname(), tt.plain)
		}
		if tt.check != nil && !tt.check(f) {
			t.Errorf("Parse(%q) flags mismatch: %+v", tt.line, f)
		}
	}
}
