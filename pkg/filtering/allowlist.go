package filtering

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"domainkit/pkg/domain"
)

// Allowlist holds locally curated domains that are carved out of the built
// block set. ".example.com" exempts the whole subtree.
type Allowlist struct {
	set *DomainSet
}

// NewAllowlist validates entries and returns an Allowlist holding them.
func NewAllowlist(entries []string, norm *domain.Normalizer) (*Allowlist, error) {
	a := &Allowlist{set: NewDomainSet()}
	for _, entry := range entries {
		d, err := allowEntry(strings.TrimSpace(entry), norm)
		if err != nil {
			return nil, fmt.Errorf("allowlist entry %q: %w", entry, err)
		}
		a.set.Add(d)
	}
	return a, nil
}

// LoadAllowlist reads the allowlist file, one domain per line. Invalid lines
// are logged and skipped.
func LoadAllowlist(path string, norm *domain.Normalizer, log *slog.Logger) (*Allowlist, error) {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		return &Allowlist{set: NewDomainSet()}, nil
	}

	file, err := os.Open(path) // #nosec G304 -- path is provided via config.
	if err != nil {
		return nil, fmt.Errorf("open allowlist: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn("failed to close allowlist file", "error", err)
		}
	}()

	return readAllowlist(file, norm, log)
}

func readAllowlist(r io.Reader, norm *domain.Normalizer, log *slog.Logger) (*Allowlist, error) {
	a := &Allowlist{set: NewDomainSet()}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for line := range scannerLines(scanner) {
		lineNum++
		line = stripBOM(line)
		if isCommentLine(line) {
			continue
		}
		token := strings.Fields(line)[0]
		if isCommentToken(token) {
			continue
		}
		d, err := allowEntry(token, norm)
		if err != nil {
			log.Warn("invalid allowlist entry", "line", lineNum, "entry", token, "error", err)
			continue
		}
		a.set.Add(d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan allowlist: %w", err)
	}
	return a, nil
}

func allowEntry(entry string, norm *domain.Normalizer) (string, error) {
	host, scope := ParseDomain(entry)
	name, err := norm.Normalize(host)
	if err != nil {
		return "", err
	}
	return Directive{Hostname: name, Scope: scope, Polarity: PolarityAllow}.Domain(), nil
}

// Merge adds the entries of other.
func (a *Allowlist) Merge(other *Allowlist) {
	if other == nil {
		return
	}
	a.set.Merge(other.set)
}

// Domains returns the allowlist entries in lexical order.
func (a *Allowlist) Domains() []string {
	if a == nil {
		return nil
	}
	return a.set.Domains()
}

// Len returns the number of entries.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return a.set.Len()
}

// Matches reports whether name is exempted.
func (a *Allowlist) Matches(name string) bool {
	if a == nil {
		return false
	}
	return a.set.Matches(name)
}
