// Package config holds the policy data a Sanitizer is built from. A Config
// is plain data: it can be written by hand, decoded from YAML, loaded through
// viper with environment overrides, or taken from one of the presets.
//
// The sanitizer keeps the Config it was built from and hands it back verbatim
// from Sanitizer.Config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/njchilds90/htmlsanitizer/v2/tags"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// All is the element key that targets every element in Attributes and
	// Classes.
	All = "all"

	// RelativeProtocol is the protocol token that admits fragment-relative
	// ("#x") and path-relative ("/x", "x") URLs.
	RelativeProtocol = ":relative"

	// AnyRequired in RequiredAttributes means no attribute is required.
	AnyRequired = "*"
)

// Config is a sanitization policy.
type Config struct {
	// Elements lists the elements that are kept.
	Elements []string `yaml:"elements,omitempty" mapstructure:"elements"`

	// Attributes maps an element name, or All, to the attributes it may carry.
	Attributes map[string][]string `yaml:"attributes,omitempty" mapstructure:"attributes"`

	// Classes maps an element name, or All, to the class names that survive
	// in class attributes. With no classes configured at all, class values
	// are not filtered.
	Classes map[string][]string `yaml:"classes,omitempty" mapstructure:"classes"`

	// Protocols maps element -> attribute -> allowed protocol tokens. A token
	// is a scheme name or RelativeProtocol.
	Protocols map[string]map[string][]string `yaml:"protocols,omitempty" mapstructure:"protocols"`

	// RequiredAttributes maps an element to attributes of which at least one
	// must survive sanitization, otherwise the element is unwrapped.
	RequiredAttributes map[string][]string `yaml:"required_attributes,omitempty" mapstructure:"required_attributes"`

	// RemoveContents lists disallowed elements whose content is dropped with
	// them instead of being unwrapped.
	RemoveContents []string `yaml:"remove_contents,omitempty" mapstructure:"remove_contents"`

	// RemoveAllContents drops the content of every disallowed element.
	RemoveAllContents bool `yaml:"remove_all_contents,omitempty" mapstructure:"remove_all_contents"`

	// WhitespaceElements lists disallowed elements that are replaced by
	// surrounding spaces when unwrapped, so "a<p>b</p>c" does not become "abc".
	WhitespaceElements []string `yaml:"whitespace_elements,omitempty" mapstructure:"whitespace_elements"`

	AllowComments bool `yaml:"allow_comments" mapstructure:"allow_comments"`
	AllowDoctype  bool `yaml:"allow_doctype" mapstructure:"allow_doctype"`
}

// ValidationError describes an invalid policy entry.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*$`)

// Validate checks that every element name is known and every protocol token
// is well formed. All problems are returned joined.
func (c *Config) Validate() error {
	var errs []error
	element := func(field, name string, allowAll bool) {
		switch {
		case name == "":
			errs = append(errs, &ValidationError{field, name, "empty element name"})
		case name == All && allowAll:
		case !tags.Known(name):
			errs = append(errs, &ValidationError{field, name, "unknown element"})
		}
	}
	names := func(field string, list []string) {
		for _, n := range list {
			if strings.TrimSpace(n) == "" {
				errs = append(errs, &ValidationError{field, n, "empty name"})
			}
		}
	}

	for _, el := range c.Elements {
		element("elements", el, false)
	}
	for _, el := range c.RemoveContents {
		element("remove_contents", el, false)
	}
	for _, el := range c.WhitespaceElements {
		element("whitespace_elements", el, false)
	}
	for _, el := range sortedKeys(c.Attributes) {
		element("attributes", el, true)
		names("attributes."+el, c.Attributes[el])
	}
	for _, el := range sortedKeys(c.Classes) {
		element("classes", el, true)
		names("classes."+el, c.Classes[el])
	}
	for _, el := range sortedKeys(c.RequiredAttributes) {
		element("required_attributes", el, false)
		names("required_attributes."+el, c.RequiredAttributes[el])
	}
	for _, el := range sortedKeys(c.Protocols) {
		element("protocols", el, false)
		for _, attr := range sortedKeys(c.Protocols[el]) {
			field := "protocols." + el + "." + attr
			if strings.TrimSpace(attr) == "" {
				errs = append(errs, &ValidationError{field, attr, "empty attribute name"})
			}
			for _, tok := range c.Protocols[el][attr] {
				if tok != RelativeProtocol && !schemeRe.MatchString(tok) {
					errs = append(errs, &ValidationError{field, tok, "invalid protocol"})
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Elements = slices.Clone(c.Elements)
	out.RemoveContents = slices.Clone(c.RemoveContents)
	out.WhitespaceElements = slices.Clone(c.WhitespaceElements)
	out.Attributes = cloneLists(c.Attributes)
	out.Classes = cloneLists(c.Classes)
	out.RequiredAttributes = cloneLists(c.RequiredAttributes)
	if c.Protocols != nil {
		out.Protocols = make(map[string]map[string][]string, len(c.Protocols))
		for el, m := range c.Protocols {
			out.Protocols[el] = cloneLists(m)
		}
	}
	return &out
}

// Parse decodes a YAML policy. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return &cfg, nil
}

// Marshal encodes c as YAML.
func Marshal(c *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	return buf.Bytes(), nil
}

// Load builds a policy from v. The "preset" key selects the base policy
// (default: "default"); a "policy" section replaces it entirely; the
// "allow_comments" and "allow_doctype" keys override either.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := Preset(v.GetString("preset"))
	if err != nil {
		return nil, err
	}

	if v.IsSet("policy") {
		cfg = &Config{}
		if err := v.UnmarshalKey("policy", cfg); err != nil {
			return nil, fmt.Errorf("decode policy: %w", err)
		}
	}
	if v.IsSet("allow_comments") {
		cfg.AllowComments = v.GetBool("allow_comments")
	}
	if v.IsSet("allow_doctype") {
		cfg.AllowDoctype = v.GetBool("allow_doctype")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return cfg, nil
}

func cloneLists(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Strings(keys)
	return keys
}
