package htmlsanitizer

import (
	"context"
	"strings"
	"unicode"

	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/njchilds90/htmlsanitizer/v2/internal/logging"
	"github.com/njchilds90/htmlsanitizer/v2/tags"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

// outputCharset is the only encoding the sanitizer emits.
const outputCharset = "utf-8"

// sanitizeAttributes filters the attributes of a kept element. It reports
// true when the element itself had to be removed.
func (s *Sanitizer) sanitizeAttributes(el Element, tag tags.Tag) (bool, error) {
	flags := s.flags[tag.Index]
	policy := &s.elements[tag.Index]

	for _, name := range el.AttributeNames() {
		// A comment opener inside a start tag means the markup was built
		// to confuse parsers; drop the whole element.
		if strings.HasPrefix(name, "<!--") {
			logging.LogSecurityEvent(context.Background(), s.logger, "comment_injection",
				"tag", tag.Name, "attribute", logging.Truncate(name, 64))
			return true, s.removeElement(el, tag, flags)
		}

		raw, _ := el.GetAttribute(name)
		if raw == "" {
			el.RemoveAttribute(name)
			continue
		}

		// Entities can decode to leading whitespace, so trim again.
		value := strings.TrimLeftFunc(raw, unicode.IsSpace)
		value = strings.TrimLeftFunc(html.UnescapeString(value), unicode.IsSpace)
		if value == "" {
			el.RemoveAttribute(name)
			continue
		}

		value, keep := s.keepAttribute(policy, name, value)
		if !keep {
			s.debug("attribute removed", "tag", tag.Name, "attribute", name)
			el.RemoveAttribute(name)
			continue
		}

		if err := el.SetAttribute(name, encodeAttribute(tag, name, value)); err != nil {
			return false, &AttributeError{Tag: tag.Name, Name: name, Err: err}
		}
	}

	if missingRequired(el, policy) {
		s.debug("element removed", "tag", tag.Name, "reason", "missing required attribute")
		return true, s.removeElement(el, tag, flags)
	}
	return false, nil
}

// keepAttribute reports whether a decoded attribute passes the allow-lists
// and returns the value to keep, which differs for filtered class lists.
func (s *Sanitizer) keepAttribute(policy *elementPolicy, name, value string) (string, bool) {
	if !policy.allowedAttrs[name] && !s.allowedAttrs[name] {
		return "", false
	}

	if protocols, ok := policy.protocols[name]; ok && !HasAllowedProtocol(protocols, value) {
		return "", false
	}

	if name == "class" {
		return FilterClasses(value, s.allowedClasses, policy.allowedClasses)
	}
	return value, true
}

func missingRequired(el Element, policy *elementPolicy) bool {
	required := policy.requiredAttrs
	if len(required) == 0 || required[config.AnyRequired] {
		return false
	}
	for _, name := range el.AttributeNames() {
		if required[name] {
			return false
		}
	}
	return true
}

// encodeAttribute re-encodes a decoded value for output.
func encodeAttribute(tag tags.Tag, name, value string) string {
	switch {
	case tag.IsMeta() && name == "charset" && !isOutputCharset(value):
		return outputCharset
	case name == "href":
		return escapeHref(value)
	default:
		return html.EscapeString(value)
	}
}

func isOutputCharset(label string) bool {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return false
	}
	name, err := htmlindex.Name(enc)
	return err == nil && name == outputCharset
}

const hexDigits = "0123456789ABCDEF"

// hrefSafe lists the bytes written to an href unchanged. '&' and '\'' are
// entity-encoded; every other byte is percent-encoded.
var hrefSafe = func() (t [256]bool) {
	for c := '0'; c <= '9'; c++ {
		t[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		t[c] = true
		t[c-'a'+'A'] = true
	}
	for _, c := range "-_.~!*();:@=+$,/?#[]%" {
		t[c] = true
	}
	return t
}()

func escapeHref(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case hrefSafe[c]:
			sb.WriteByte(c)
		case c == '&':
			sb.WriteString("&amp;")
		case c == '\'':
			sb.WriteString("&#x27;")
		default:
			sb.WriteByte('%')
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0x0f])
		}
	}
	return sb.String()
}
