package filtering

import "strings"

// StructuredParser recognizes network filter syntax. Parse returns false when
// the line is outside the grammar the parser understands.
type StructuredParser interface {
	Parse(line string) (*NetworkFilter, bool)
}

type requestType uint16

const (
	typeScript requestType = 1 << iota
	typeImage
	typeStylesheet
	typeXHR
	typeSubdocument
	typeFont
	typeMedia
	typeObject
	typePing
	typeWebsocket
	typeOther
	typeDocument

	typeAny = typeScript | typeImage | typeStylesheet | typeXHR | typeSubdocument | typeFont |
		typeMedia | typeObject | typePing | typeWebsocket | typeOther | typeDocument
)

var requestTypes = map[string]requestType{
	"script":         typeScript,
	"image":          typeImage,
	"stylesheet":     typeStylesheet,
	"css":            typeStylesheet,
	"xmlhttprequest": typeXHR,
	"xhr":            typeXHR,
	"subdocument":    typeSubdocument,
	"frame":          typeSubdocument,
	"font":           typeFont,
	"media":          typeMedia,
	"object":         typeObject,
	"ping":           typePing,
	"websocket":      typeWebsocket,
	"other":          typeOther,
	"document":       typeDocument,
	"doc":            typeDocument,
}

// NetworkFilter is a parsed network filter. Only the parts that matter for
// domain matching are kept.
type NetworkFilter struct {
	Raw string
	// Hostname is set when the filter is anchored on a hostname (`||host` or
	// `|http(s)://host`).
	Hostname string

	exception      bool
	hostnameAnchor bool
	leftAnchor     bool
	regex          bool
	plain          bool

	badfilter    bool
	elemhide     bool
	generichide  bool
	specifichide bool
	redirect     bool
	csp          bool
	domains      bool

	firstParty bool
	thirdParty bool
	types      requestType
}

func (f *NetworkFilter) IsException() bool      { return f.exception }
func (f *NetworkFilter) IsHostnameAnchor() bool { return f.hostnameAnchor }
func (f *NetworkFilter) IsLeftAnchor() bool     { return f.leftAnchor }
func (f *NetworkFilter) IsRegex() bool          { return f.regex }
func (f *NetworkFilter) IsBadFilter() bool      { return f.badfilter }
func (f *NetworkFilter) IsElemHide() bool       { return f.elemhide }
func (f *NetworkFilter) IsGenericHide() bool    { return f.generichide }
func (f *NetworkFilter) IsSpecificHide() bool   { return f.specifichide }
func (f *NetworkFilter) IsRedirect() bool       { return f.redirect }
func (f *NetworkFilter) IsCSP() bool            { return f.csp }
func (f *NetworkFilter) HasDomains() bool       { return f.domains }
func (f *NetworkFilter) FirstParty() bool       { return f.firstParty }
func (f *NetworkFilter) ThirdParty() bool       { return f.thirdParty }

// FromAny reports whether the filter applies to every request type.
func (f *NetworkFilter) FromAny() bool { return f.types == typeAny }

// FromDocument reports whether the filter applies to top-level documents.
func (f *NetworkFilter) FromDocument() bool { return f.types&typeDocument != 0 }

// IsPlainHostname reports whether the filter is nothing but an anchored
// hostname, optionally followed by a separator.
func (f *NetworkFilter) IsPlainHostname() bool {
	return f.Hostname != "" && f.plain && !f.regex
}

// GrammarParser is the default StructuredParser. It accepts
//
//	[@@] ( '||' hostname | '|' scheme hostname | pattern ) ['^'] ['|'] ['$' options]
//
// and refuses any line carrying an option it does not know.
type GrammarParser struct{}

// Parse implements StructuredParser.
func (GrammarParser) Parse(line string) (*NetworkFilter, bool) {
	f := &NetworkFilter{
		Raw:        line,
		firstParty: true,
		thirdParty: true,
		types:      typeAny,
	}

	rest := line
	if after, ok := strings.CutPrefix(rest, "@@"); ok {
		f.exception = true
		rest = after
	}

	if i := strings.LastIndexByte(rest, '$'); i >= 0 {
		if !f.parseOptions(rest[i+1:]) {
			return nil, false
		}
		rest = rest[:i]
	}
	if rest == "" {
		return nil, false
	}

	if len(rest) > 1 && rest[0] == '/' && rest[len(rest)-1] == '/' {
		f.regex = true
		return f, true
	}
	if strings.Contains(rest, "*") {
		f.regex = true
	}

	switch {
	case strings.HasPrefix(rest, "||"):
		f.hostnameAnchor = true
		f.extractHostname(rest[2:])
	case strings.HasPrefix(rest, "|"):
		f.leftAnchor = true
		rest = rest[1:]
		lower := strings.ToLower(rest)
		for _, scheme := range []string{"https://", "http://"} {
			if strings.HasPrefix(lower, scheme) {
				f.extractHostname(rest[len(scheme):])
				break
			}
		}
	}
	return f, true
}

func (f *NetworkFilter) extractHostname(s string) {
	end := strings.IndexAny(s, "^/|")
	host, tail := s, ""
	if end >= 0 {
		host, tail = s[:end], s[end:]
	}
	if !isHostnameText(host) {
		return
	}
	f.Hostname = host
	switch tail {
	case "", "^", "^|", "|":
		f.plain = true
	}
}

func isHostnameText(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

func (f *NetworkFilter) parseOptions(opts string) bool {
	if strings.TrimSpace(opts) == "" {
		return false
	}

	var include, exclude requestType
	for raw := range strings.SplitSeq(opts, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		key, _, hasValue := strings.Cut(raw, "=")
		switch key {
		case "csp":
			f.csp = true
			continue
		case "redirect", "redirect-rule":
			f.redirect = true
			continue
		case "domain":
			if !hasValue {
				return false
			}
			f.domains = true
			continue
		}
		if hasValue {
			return false
		}

		neg := strings.HasPrefix(raw, "~")
		name := strings.TrimPrefix(raw, "~")
		switch name {
		case "third-party", "3p":
			f.firstParty, f.thirdParty = neg, !neg
		case "first-party", "1p":
			f.firstParty, f.thirdParty = !neg, neg
		case "important", "match-case":
		case "badfilter":
			f.badfilter = true
		case "elemhide", "ehide":
			f.elemhide = true
		case "generichide", "ghide":
			f.generichide = true
		case "specifichide", "shide":
			f.specifichide = true
		case "all":
			include |= typeAny
		default:
			t, ok := requestTypes[name]
			if !ok {
				return false
			}
			if neg {
				exclude |= t
			} else {
				include |= t
			}
		}
	}

	if include != 0 {
		f.types = include
	}
	f.types &^= exclude
	return true
}
