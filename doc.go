// Package htmlsanitizer cleans untrusted HTML against an allow-list policy
// while it streams, without building a document tree.
//
// # Overview
//
// Markup is tokenized by golang.org/x/net/html (see package rewriter) and
// every start tag, comment and doctype is handed to a [Sanitizer] that decides
// what survives. Output is always UTF-8 and always balanced.
//
// # Policies
//
// A [Sanitizer] is built from a [config.Config] and can be adjusted through
// its setters before a pass:
//   - Per-tag flags ([FlagAllow], [FlagRemoveContents], [FlagWrapWhitespace])
//     decide whether an element is kept, dropped with its content, or
//     unwrapped.
//   - Attribute and class allow-lists exist per element and globally; an
//     attribute survives if either list admits it.
//   - Protocol lists restrict URL-bearing attributes to given schemes and,
//     with [Relative], to fragment- and path-relative URLs.
//   - Required attributes unwrap elements such as links that lose every
//     attribute that made them useful.
//   - Comments and doctype declarations are dropped unless allowed.
//
// Four presets are provided by package config: Default (no elements),
// Restricted, Basic and Relaxed.
//
// # Security
//
// Elements whose content is raw text (script, style, textarea, iframe, ...)
// are never unwrapped: when disallowed, their content goes with them. Kept
// iframes lose their content. Attribute values are entity-decoded before they
// are checked, so "&#106;avascript:" is caught, and re-encoded before they are
// written. A start tag carrying comment syntax in an attribute name is removed
// entirely.
//
// CSS and JavaScript are not sanitized; allowing style or script lets them
// through verbatim.
//
// # Concurrency
//
// A Sanitizer does no locking. Configure it first, then run passes one at a
// time; independent documents may reuse the same Sanitizer sequentially.
//
// # Example
//
//	s, err := htmlsanitizer.New(config.Basic())
//	if err != nil {
//		return err
//	}
//	clean, err := s.SanitizeString(userInput)
package htmlsanitizer
