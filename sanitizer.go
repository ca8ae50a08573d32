package htmlsanitizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/njchilds90/htmlsanitizer/v2/internal/logging"
	"github.com/njchilds90/htmlsanitizer/v2/tags"
)

// Flag is one bit of a tag's removal policy.
type Flag uint8

const (
	// FlagAllow keeps the element.
	FlagAllow Flag = 1 << iota

	// FlagRemoveContents drops a disallowed element's content along with it
	// instead of unwrapping it.
	FlagRemoveContents

	// FlagWrapWhitespace surrounds an unwrapped element's content with
	// spaces so neighbouring words do not merge.
	FlagWrapWhitespace
)

// String returns the set bits, e.g. "allow|wrap_whitespace".
func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	var s string
	for _, b := range []struct {
		f    Flag
		name string
	}{
		{FlagAllow, "allow"},
		{FlagRemoveContents, "remove_contents"},
		{FlagWrapWhitespace, "wrap_whitespace"},
	} {
		if f&b.f == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += b.name
	}
	return s
}

// elementPolicy is the allow-list bundle for one tag slot.
type elementPolicy struct {
	allowedAttrs   map[string]bool
	requiredAttrs  map[string]bool
	allowedClasses map[string]bool
	protocols      map[string][]string
}

// Transformer runs on every kept element after its attributes have been
// sanitized. It may mutate the element further; an error aborts the pass.
type Transformer func(el Element) error

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithLogger sends removal decisions (debug) and neutralized attack patterns
// (warn) to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sanitizer) {
		s.logger = logging.FromSlog(l).WithComponent("htmlsanitizer")
	}
}

// WithTransformer appends t to the transformers run on kept elements.
func WithTransformer(t Transformer) Option {
	return func(s *Sanitizer) {
		s.transformers = append(s.transformers, t)
	}
}

// Sanitizer holds a policy and applies it to streamed elements.
//
// A Sanitizer is configured through its setters and then used for any number
// of sequential passes. It performs no locking: setters must not run while a
// pass is in progress, and one Sanitizer must not run two passes at once.
type Sanitizer struct {
	flags          [tags.Count]Flag
	elements       [tags.Count]elementPolicy
	allowedAttrs   map[string]bool
	allowedClasses map[string]bool
	allowComments  bool
	allowDoctype   bool

	config       *config.Config
	logger       logging.Logger
	transformers []Transformer
}

// New builds a Sanitizer from cfg. A nil cfg selects config.Default().
func New(cfg *config.Config, opts ...Option) (*Sanitizer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("htmlsanitizer: %w", err)
	}

	s := &Sanitizer{
		allowedAttrs:   make(map[string]bool),
		allowedClasses: make(map[string]bool),
		config:         cfg,
		logger:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.apply(cfg)
	return s, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg *config.Config, opts ...Option) *Sanitizer {
	s, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Sanitizer) apply(cfg *config.Config) {
	if cfg.RemoveAllContents {
		s.SetAllFlags(FlagRemoveContents, true)
	}
	for _, el := range cfg.Elements {
		s.SetFlag(el, FlagAllow, true)
	}
	for _, el := range cfg.RemoveContents {
		s.SetFlag(el, FlagRemoveContents, true)
	}
	for _, el := range cfg.WhitespaceElements {
		s.SetFlag(el, FlagWrapWhitespace, true)
	}
	for el, attrs := range cfg.Attributes {
		for _, attr := range attrs {
			s.SetAllowedAttribute(el, attr, true)
		}
	}
	for el, classes := range cfg.Classes {
		for _, class := range classes {
			s.SetAllowedClass(el, class, true)
		}
	}
	for el, attrs := range cfg.RequiredAttributes {
		for _, attr := range attrs {
			s.SetRequiredAttribute(el, attr, true)
		}
	}
	for el, byAttr := range cfg.Protocols {
		for attr, toks := range byAttr {
			protos := make([]Protocol, len(toks))
			for i, tok := range toks {
				protos[i] = ParseProtocol(tok)
			}
			s.SetAllowedProtocols(el, attr, protos...)
		}
	}
	s.SetAllowComments(cfg.AllowComments)
	s.SetAllowDoctype(cfg.AllowDoctype)
}

// Config returns the configuration the Sanitizer was built from. Later setter
// calls are not reflected in it.
func (s *Sanitizer) Config() *config.Config {
	return s.config
}

// SetFlag sets or clears f for the named tag.
func (s *Sanitizer) SetFlag(tag string, f Flag, enabled bool) {
	i := tags.Lookup(tag).Index
	if enabled {
		s.flags[i] |= f
	} else {
		s.flags[i] &^= f
	}
}

// SetAllFlags sets or clears f for every tag, leaving other bits untouched.
func (s *Sanitizer) SetAllFlags(f Flag, enabled bool) {
	for i := range s.flags {
		if enabled {
			s.flags[i] |= f
		} else {
			s.flags[i] &^= f
		}
	}
}

// Flags returns the flag bits of the named tag.
func (s *Sanitizer) Flags(tag string) Flag {
	return s.flags[tags.Lookup(tag).Index]
}

// SetAllowComments controls whether comments are kept.
func (s *Sanitizer) SetAllowComments(allow bool) bool {
	s.allowComments = allow
	return allow
}

// SetAllowDoctype controls whether doctype declarations are kept.
func (s *Sanitizer) SetAllowDoctype(allow bool) bool {
	s.allowDoctype = allow
	return allow
}

// SetAllowedAttribute adds or removes attr from the allow-list of tag, or
// from the global allow-list when tag is config.All.
func (s *Sanitizer) SetAllowedAttribute(tag, attr string, allow bool) bool {
	if tag == config.All {
		setAllowed(&s.allowedAttrs, attr, allow)
	} else {
		setAllowed(&s.policy(tag).allowedAttrs, attr, allow)
	}
	return allow
}

// SetAllowedClass adds or removes class from the class allow-list of tag, or
// from the global class allow-list when tag is config.All.
func (s *Sanitizer) SetAllowedClass(tag, class string, allow bool) bool {
	if tag == config.All {
		setAllowed(&s.allowedClasses, class, allow)
	} else {
		setAllowed(&s.policy(tag).allowedClasses, class, allow)
	}
	return allow
}

// SetRequiredAttribute adds or removes attr from the attributes of which at
// least one must survive on tag. config.AnyRequired disables the check.
func (s *Sanitizer) SetRequiredAttribute(tag, attr string, required bool) bool {
	setAllowed(&s.policy(tag).requiredAttrs, attr, required)
	return required
}

// SetAllowedProtocols appends protocols to the list attr is checked against on
// tag. Calls accumulate. Attributes without a list are not protocol-checked.
func (s *Sanitizer) SetAllowedProtocols(tag, attr string, protocols ...Protocol) {
	p := s.policy(tag)
	if p.protocols == nil {
		p.protocols = make(map[string][]string)
	}
	list := p.protocols[attr]
	for _, proto := range protocols {
		list = append(list, proto.tokens()...)
	}
	p.protocols[attr] = list
}

func (s *Sanitizer) policy(tag string) *elementPolicy {
	return &s.elements[tags.Lookup(tag).Index]
}

func setAllowed(set *map[string]bool, name string, allow bool) {
	if allow {
		if *set == nil {
			*set = make(map[string]bool)
		}
		(*set)[name] = true
		return
	}
	delete(*set, name)
}

func (s *Sanitizer) debug(msg string, fields ...interface{}) {
	s.logger.Debug(context.Background(), msg, fields...)
}
