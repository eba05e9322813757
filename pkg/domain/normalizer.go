// Package domain validates hostnames against public suffix data.
package domain

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/miekg/dns"
	"github.com/weppos/publicsuffix-go/publicsuffix"
	"golang.org/x/net/idna"
)

var (
	ErrEmpty           = errors.New("empty hostname")
	ErrIPLiteral       = errors.New("ip literals are not domains")
	ErrInvalidHostname = errors.New("invalid hostname")
	ErrUnlistedSuffix  = errors.New("suffix not in public suffix list")
	ErrPublicSuffix    = errors.New("hostname is a public suffix")
)

// SuffixKind classifies the public suffix rule that matched a name.
type SuffixKind int

const (
	SuffixUnlisted SuffixKind = iota
	SuffixICANN
	SuffixPrivate
)

// String returns the suffix kind name.
func (k SuffixKind) String() string {
	switch k {
	case SuffixICANN:
		return "icann"
	case SuffixPrivate:
		return "private"
	default:
		return "unlisted"
	}
}

// Normalizer canonicalises hostnames. It holds no mutable state and is safe
// for concurrent use.
type Normalizer struct {
	list *publicsuffix.List
	find *publicsuffix.FindOptions
}

// NewNormalizer returns a Normalizer backed by the embedded public suffix list,
// including its private section.
func NewNormalizer() *Normalizer {
	return NewNormalizerWithList(publicsuffix.DefaultList)
}

// NewNormalizerWithList returns a Normalizer backed by list.
func NewNormalizerWithList(list *publicsuffix.List) *Normalizer {
	return &Normalizer{
		list: list,
		// No default rule: unlisted suffixes must not match.
		find: &publicsuffix.FindOptions{IgnorePrivate: false, DefaultRule: nil},
	}
}

// Normalize converts token to a canonical lower-case hostname.
func (n *Normalizer) Normalize(token string) (string, error) {
	host, err := extractHostname(token)
	if err != nil {
		return "", err
	}

	rule := n.list.Find(host, n.find)
	if rule == nil {
		return "", fmt.Errorf("%s: %w", host, ErrUnlistedSuffix)
	}
	if parts := rule.Decompose(host); parts[0] == "" {
		return "", fmt.Errorf("%s: %w", host, ErrPublicSuffix)
	}
	return host, nil
}

// Apex returns the registrable domain of hostname, looked up in the same list
// Normalize validates against. It fails with ErrUnlistedSuffix or
// ErrPublicSuffix when hostname has no registrable domain.
func (n *Normalizer) Apex(hostname string) (string, error) {
	host := strings.ToLower(strings.TrimPrefix(hostname, "."))
	if host == "" {
		return "", ErrEmpty
	}
	apex, err := publicsuffix.DomainFromListWithOptions(n.list, host, n.find)
	if err != nil {
		if _, listed := n.PublicSuffix(host); !listed {
			return "", fmt.Errorf("apex of %s: %w", host, ErrUnlistedSuffix)
		}
		return "", fmt.Errorf("apex of %s: %w", host, ErrPublicSuffix)
	}
	return apex, nil
}

// PublicSuffix returns the public suffix of name and whether a listed rule
// produced it.
func (n *Normalizer) PublicSuffix(name string) (string, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if name == "" {
		return "", false
	}
	rule := n.list.Find(name, n.find)
	if rule == nil {
		return "", false
	}
	if parts := rule.Decompose(name); parts[1] != "" {
		return parts[1], true
	}
	// name is the suffix itself
	return name, true
}

// Classify reports which section of the public suffix list covers name.
func (n *Normalizer) Classify(name string) SuffixKind {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	rule := n.list.Find(name, n.find)
	switch {
	case rule == nil:
		return SuffixUnlisted
	case rule.Private:
		return SuffixPrivate
	default:
		return SuffixICANN
	}
}

func extractHostname(token string) (string, error) {
	host := strings.TrimSpace(token)
	if host == "" {
		return "", ErrEmpty
	}

	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
		if at := strings.LastIndexByte(host, '@'); at != -1 {
			host = host[at+1:]
		}
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}

	// IPv6 literals come wrapped in brackets.
	if strings.HasPrefix(host, "[") {
		return "", ErrIPLiteral
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		if net.ParseIP(host) != nil {
			return "", ErrIPLiteral
		}
		host = host[:i]
	}

	host = strings.TrimPrefix(host, ".")
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", ErrEmpty
	}

	lower, err := toLowerASCII(host)
	if err != nil {
		return "", err
	}
	if net.ParseIP(lower) != nil {
		return "", ErrIPLiteral
	}
	if !validLabels(lower) {
		return "", fmt.Errorf("%q: %w", lower, ErrInvalidHostname)
	}
	if _, ok := dns.IsDomainName(lower); !ok {
		return "", fmt.Errorf("%q: %w", lower, ErrInvalidHostname)
	}
	return lower, nil
}

func toLowerASCII(host string) (string, error) {
	if isASCII(host) {
		return strings.ToLower(host), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("idna: %w", ErrInvalidHostname)
	}
	return strings.ToLower(ascii), nil
}

func validLabels(host string) bool {
	for label := range strings.SplitSeq(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z':
			case c >= '0' && c <= '9':
			case c == '-' || c == '_':
			default:
				return false
			}
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
