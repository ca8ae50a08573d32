package config

import "fmt"

// Preset names accepted by Preset.
const (
	PresetDefault    = "default"
	PresetRestricted = "restricted"
	PresetBasic      = "basic"
	PresetRelaxed    = "relaxed"
)

// Presets lists the preset names in increasing order of permissiveness.
var Presets = []string{PresetDefault, PresetRestricted, PresetBasic, PresetRelaxed}

// Preset returns a fresh copy of the named preset. The empty name selects
// the default preset.
func Preset(name string) (*Config, error) {
	switch name {
	case "", PresetDefault:
		return Default(), nil
	case PresetRestricted:
		return Restricted(), nil
	case PresetBasic:
		return Basic(), nil
	case PresetRelaxed:
		return Relaxed(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q", name)
	}
}

// Default allows no elements at all: every tag is unwrapped, and the content
// of script-like elements is dropped.
func Default() *Config {
	return &Config{
		RemoveContents: []string{
			"iframe", "math", "noembed", "noframes", "noscript",
			"plaintext", "script", "style", "svg", "xmp",
		},
		WhitespaceElements: []string{
			"address", "article", "aside", "blockquote", "br", "dd", "div",
			"dl", "dt", "footer", "h1", "h2", "h3", "h4", "h5", "h6",
			"header", "hgroup", "hr", "li", "nav", "ol", "p", "pre",
			"section", "ul",
		},
	}
}

// Restricted allows only basic inline formatting with no attributes.
func Restricted() *Config {
	c := Default()
	c.Elements = []string{"b", "em", "i", "strong", "u"}
	return c
}

// Basic allows common text formatting, lists and links.
func Basic() *Config {
	c := Restricted()
	c.Elements = append(c.Elements,
		"a", "abbr", "blockquote", "br", "cite", "code", "dd", "dfn", "dl",
		"dt", "kbd", "li", "mark", "ol", "p", "pre", "q", "s", "samp",
		"small", "strike", "sub", "sup", "time", "ul", "var",
	)
	c.Attributes = map[string][]string{
		"a":          {"href"},
		"abbr":       {"title"},
		"blockquote": {"cite"},
		"dfn":        {"title"},
		"q":          {"cite"},
		"time":       {"datetime", "title"},
	}
	c.Protocols = map[string]map[string][]string{
		"a":          {"href": {"ftp", "http", "https", "mailto", RelativeProtocol}},
		"blockquote": {"cite": {"http", "https", RelativeProtocol}},
		"q":          {"cite": {"http", "https", RelativeProtocol}},
	}
	return c
}

// Relaxed allows most structural and formatting markup, including images and
// tables. Style elements and attributes stay disallowed because their
// content is not sanitized.
func Relaxed() *Config {
	c := Basic()
	c.Elements = append(c.Elements,
		"address", "article", "aside", "bdi", "bdo", "body", "caption", "col",
		"colgroup", "data", "del", "div", "figcaption", "figure", "footer",
		"h1", "h2", "h3", "h4", "h5", "h6", "head", "header", "hgroup", "hr",
		"html", "img", "ins", "main", "nav", "rp", "rt", "ruby", "section",
		"span", "summary", "table", "tbody", "td", "tfoot", "th", "thead",
		"title", "tr", "wbr",
	)
	c.AllowComments = true
	c.AllowDoctype = true
	c.Attributes = map[string][]string{
		All:          {"class", "dir", "hidden", "id", "lang", "tabindex", "title", "translate"},
		"a":          {"href", "hreflang", "name", "rel"},
		"abbr":       {"title"},
		"blockquote": {"cite"},
		"col":        {"span", "width"},
		"colgroup":   {"span", "width"},
		"data":       {"value"},
		"del":        {"cite", "datetime"},
		"dfn":        {"title"},
		"img":        {"align", "alt", "border", "height", "src", "srcset", "width"},
		"ins":        {"cite", "datetime"},
		"li":         {"value"},
		"ol":         {"reversed", "start", "type"},
		"q":          {"cite"},
		"table":      {"align", "bgcolor", "border", "cellpadding", "cellspacing", "frame", "rules", "sortable", "summary", "width"},
		"td":         {"abbr", "align", "axis", "colspan", "headers", "rowspan", "valign", "width"},
		"th":         {"abbr", "align", "axis", "colspan", "headers", "rowspan", "scope", "sorted", "valign", "width"},
		"time":       {"datetime", "title"},
		"ul":         {"type"},
	}
	c.Protocols["del"] = map[string][]string{"cite": {"http", "https", RelativeProtocol}}
	c.Protocols["ins"] = map[string][]string{"cite": {"http", "https", RelativeProtocol}}
	c.Protocols["img"] = map[string][]string{"src": {"http", "https", RelativeProtocol}}
	return c
}
