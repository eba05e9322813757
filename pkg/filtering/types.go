package filtering

import "fmt"

// Kind is the syntax of a list.
type Kind string

const (
	KindFilter  Kind = "filter"
	KindHosts   Kind = "hosts"
	KindDomains Kind = "domains"
)

// ParseKind validates a list kind. An empty value means KindFilter.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case "":
		return KindFilter, nil
	case KindFilter, KindHosts, KindDomains:
		return Kind(raw), nil
	default:
		return "", fmt.Errorf("unknown list kind %q", raw)
	}
}

// Source describes a configured list source.
type Source struct {
	ID       string
	Location string
	// Mirrors are raced against Location; the first successful body wins.
	Mirrors           []string
	Kind              Kind
	IncludeSubdomains bool
	Enabled           bool
	Auth              AuthConfig
}

// AuthConfig defines optional authentication for a source.
type AuthConfig struct {
	Username string
	Password string
	Token    string
	Header   string
	Scheme   string
}

// ListConfig defines a list configuration entry.
type ListConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	URL               string   `mapstructure:"url"`
	Kind              string   `mapstructure:"kind"`
	IncludeSubdomains bool     `mapstructure:"include_subdomains"`
	Mirrors           []string `mapstructure:"mirrors"`
	Username          string   `mapstructure:"username"`
	Password          string   `mapstructure:"password"`
	Token             string   `mapstructure:"token"`
	Header            string   `mapstructure:"header"`
	Scheme            string   `mapstructure:"scheme"`
}

// ParseStats summarises list parsing results.
type ParseStats struct {
	TotalLines int
	Allow      int
	Block      int
	Rejected   int
	// DebugHits counts accepted directives whose hostname contains the
	// configured debug domain.
	DebugHits int
}

// Accepted returns the number of lines that produced a directive.
func (s ParseStats) Accepted() int {
	return s.Allow + s.Block
}

// Add accumulates other into s.
func (s *ParseStats) Add(other ParseStats) {
	s.TotalLines += other.TotalLines
	s.Allow += other.Allow
	s.Block += other.Block
	s.Rejected += other.Rejected
	s.DebugHits += other.DebugHits
}
