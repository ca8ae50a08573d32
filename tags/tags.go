// Package tags is the static registry of HTML element names known to the
// sanitizer. Every tag has a stable index that the sanitizer uses to address
// its per-tag flag table; names outside the registry resolve to Unknown so
// that lookups never fail.
package tags

import "strings"

// Tag is a known HTML element name plus its structural metadata.
type Tag struct {
	Name  string
	Index int

	// SelfClosing reports a void element that never has content or an end tag.
	SelfClosing bool

	// HasTextContent reports an element whose content the tokenizer reads as
	// text rather than markup (script, style, textarea, ...).
	HasTextContent bool
}

// IsIframe reports whether t is the iframe element.
func (t Tag) IsIframe() bool { return t.Name == "iframe" }

// IsMeta reports whether t is the meta element.
func (t Tag) IsMeta() bool { return t.Name == "meta" }

// IsRawText reports whether the content of t is emitted by the tokenizer
// without entity decoding. textarea and title carry text content but are
// decoded (RCDATA), so they must be re-escaped on output.
func (t Tag) IsRawText() bool {
	return t.HasTextContent && t.Name != "textarea" && t.Name != "title"
}

// String returns the tag name.
func (t Tag) String() string { return t.Name }

const (
	void = 1 << iota
	text
)

type entry struct {
	name string
	kind int
}

// registry is ordered alphabetically; the unknown fallback is always last.
var registry = [...]entry{
	{"a", 0},
	{"abbr", 0},
	{"acronym", 0},
	{"address", 0},
	{"applet", 0},
	{"area", void},
	{"article", 0},
	{"aside", 0},
	{"audio", 0},
	{"b", 0},
	{"base", void},
	{"basefont", void},
	{"bdi", 0},
	{"bdo", 0},
	{"bgsound", void},
	{"big", 0},
	{"blink", 0},
	{"blockquote", 0},
	{"body", 0},
	{"br", void},
	{"button", 0},
	{"canvas", 0},
	{"caption", 0},
	{"center", 0},
	{"cite", 0},
	{"code", 0},
	{"col", void},
	{"colgroup", 0},
	{"data", 0},
	{"datalist", 0},
	{"dd", 0},
	{"del", 0},
	{"details", 0},
	{"dfn", 0},
	{"dialog", 0},
	{"dir", 0},
	{"div", 0},
	{"dl", 0},
	{"dt", 0},
	{"em", 0},
	{"embed", void},
	{"fieldset", 0},
	{"figcaption", 0},
	{"figure", 0},
	{"font", 0},
	{"footer", 0},
	{"form", 0},
	{"frame", void},
	{"frameset", 0},
	{"h1", 0},
	{"h2", 0},
	{"h3", 0},
	{"h4", 0},
	{"h5", 0},
	{"h6", 0},
	{"head", 0},
	{"header", 0},
	{"hgroup", 0},
	{"hr", void},
	{"html", 0},
	{"i", 0},
	{"iframe", text},
	{"image", void},
	{"img", void},
	{"input", void},
	{"ins", 0},
	{"isindex", void},
	{"kbd", 0},
	{"keygen", void},
	{"label", 0},
	{"legend", 0},
	{"li", 0},
	{"link", void},
	{"listing", 0},
	{"main", 0},
	{"map", 0},
	{"mark", 0},
	{"marquee", 0},
	{"math", 0},
	{"menu", 0},
	{"menuitem", 0},
	{"meta", void},
	{"meter", 0},
	{"nav", 0},
	{"nobr", 0},
	{"noembed", text},
	{"noframes", text},
	{"noscript", text},
	{"object", 0},
	{"ol", 0},
	{"optgroup", 0},
	{"option", 0},
	{"output", 0},
	{"p", 0},
	{"param", void},
	{"picture", 0},
	{"plaintext", text},
	{"pre", 0},
	{"progress", 0},
	{"q", 0},
	{"rb", 0},
	{"rp", 0},
	{"rt", 0},
	{"rtc", 0},
	{"ruby", 0},
	{"s", 0},
	{"samp", 0},
	{"script", text},
	{"search", 0},
	{"section", 0},
	{"select", 0},
	{"slot", 0},
	{"small", 0},
	{"source", void},
	{"span", 0},
	{"strike", 0},
	{"strong", 0},
	{"style", text},
	{"sub", 0},
	{"summary", 0},
	{"sup", 0},
	{"svg", 0},
	{"table", 0},
	{"tbody", 0},
	{"td", 0},
	{"template", 0},
	{"textarea", text},
	{"tfoot", 0},
	{"th", 0},
	{"thead", 0},
	{"time", 0},
	{"title", text},
	{"tr", 0},
	{"track", void},
	{"tt", 0},
	{"u", 0},
	{"ul", 0},
	{"var", 0},
	{"video", 0},
	{"wbr", void},
	{"xmp", text},
	{"unknown", 0},
}

// Count is the number of tags in the registry, including Unknown.
const Count = len(registry)

var (
	table  [Count]Tag
	byName = make(map[string]int, Count)

	// Unknown is the fallback for names outside the registry.
	Unknown Tag
)

func init() {
	for i, e := range registry {
		table[i] = Tag{
			Name:           e.name,
			Index:          i,
			SelfClosing:    e.kind&void != 0,
			HasTextContent: e.kind&text != 0,
		}
		byName[e.name] = i
	}
	Unknown = table[Count-1]
}

// Lookup returns the tag registered under name, ignoring case. Names that are
// not registered resolve to Unknown.
func Lookup(name string) Tag {
	if i, ok := byName[name]; ok {
		return table[i]
	}
	if i, ok := byName[strings.ToLower(name)]; ok {
		return table[i]
	}
	return Unknown
}

// ByIndex returns the tag at index i. Out of range indices resolve to Unknown.
func ByIndex(i int) Tag {
	if i < 0 || i >= Count {
		return Unknown
	}
	return table[i]
}

// All returns every registered tag in index order, Unknown last.
func All() []Tag {
	out := make([]Tag, Count)
	copy(out, table[:])
	return out
}

// Known reports whether name is registered, ignoring case.
func Known(name string) bool {
	_, ok := byName[strings.ToLower(name)]
	return ok
}
