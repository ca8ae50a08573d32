package htmlsanitizer

import (
	"strings"

	"github.com/njchilds90/htmlsanitizer/v2/config"
)

// Sentinel protocol tokens for relative URLs.
const (
	FragmentRelative = "#"
	PathRelative     = "/"
)

// Protocol is an entry of a protocol allow-list: either a literal scheme or
// the relative marker, which admits fragment- and path-relative URLs.
type Protocol struct {
	scheme   string
	relative bool
}

// Relative admits URLs starting with "#" or "/" and references without a
// scheme.
var Relative = Protocol{relative: true}

// Scheme admits URLs with the given scheme, compared case-insensitively.
func Scheme(name string) Protocol {
	return Protocol{scheme: name}
}

// ParseProtocol converts a configuration token into a Protocol.
// config.RelativeProtocol yields Relative; anything else is a scheme.
func ParseProtocol(tok string) Protocol {
	if tok == config.RelativeProtocol {
		return Relative
	}
	return Scheme(tok)
}

func (p Protocol) String() string {
	if p.relative {
		return config.RelativeProtocol
	}
	return p.scheme
}

func (p Protocol) tokens() []string {
	if p.relative {
		return []string{FragmentRelative, PathRelative}
	}
	return []string{p.scheme}
}

// HasAllowedProtocol reports whether value is admitted by the protocol tokens
// in allowed. The scheme ends at the first ':', '/' or '#'. A value whose
// first delimiter is '/' is path-relative and '#' is fragment-relative.
//
// A value without any delimiter, such as "page.html", cannot carry a scheme.
// It is not matched against the scheme tokens as a whole; it is a relative
// reference and is admitted only when PathRelative is in allowed.
func HasAllowedProtocol(allowed []string, value string) bool {
	if value == "" {
		return false
	}

	i := strings.IndexAny(value, ":/#")
	if i < 0 {
		return contains(allowed, PathRelative)
	}
	switch value[i] {
	case '/':
		return contains(allowed, PathRelative)
	case '#':
		return contains(allowed, FragmentRelative)
	}

	scheme := strings.ToLower(value[:i])
	if scheme == "" {
		return false
	}
	for _, p := range allowed {
		if strings.ToLower(p) == scheme {
			return true
		}
	}
	return false
}

// FilterClasses keeps the classes of value that appear in global or local and
// joins them with single spaces. With both sets empty, value passes through
// unchanged. It reports false when no class survives.
func FilterClasses(value string, global, local map[string]bool) (string, bool) {
	if len(global) == 0 && len(local) == 0 {
		return value, true
	}

	var kept []string
	for _, class := range strings.Fields(value) {
		if global[class] || local[class] {
			kept = append(kept, class)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
