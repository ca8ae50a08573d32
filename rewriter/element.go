package rewriter

import (
	"errors"
	"strings"

	"github.com/njchilds90/htmlsanitizer/v2/tags"
	"golang.org/x/net/html"
)

var (
	// ErrInvalidAttributeName is returned by SetAttribute for names that
	// cannot be written back as markup.
	ErrInvalidAttributeName = errors.New("rewriter: invalid attribute name")

	// ErrInvalidAttributeValue is returned by SetAttribute for values that
	// would terminate the quoted attribute.
	ErrInvalidAttributeValue = errors.New("rewriter: invalid attribute value")

	// ErrNoEndTag is returned by OnEndTag for void elements.
	ErrNoEndTag = errors.New("rewriter: element has no end tag")
)

// Attribute is a single name/value pair of a start tag. Value is HTML-encoded,
// exactly as it is written to the output.
type Attribute struct {
	Name  string
	Value string
}

// EndTagHandler is called when the end tag matching an element is reached.
type EndTagHandler func(*EndTag) error

// Element is a mutable start tag handed to Handlers.Element. Mutations are
// applied when the handler returns.
type Element struct {
	name   string
	tag    tags.Tag
	attrs  []Attribute
	closed bool // written as <name/>

	removed     bool
	keepContent bool
	inner       *string
	before      []string
	after       []string
	endHandlers []EndTagHandler
}

func newElement(tok html.Token) *Element {
	tag := tags.Lookup(tok.Data)
	el := &Element{
		name:   tok.Data,
		tag:    tag,
		closed: tok.Type == html.SelfClosingTagToken && tag.SelfClosing,
		attrs:  make([]Attribute, 0, len(tok.Attr)),
	}
	for _, a := range tok.Attr {
		// The first occurrence of a duplicated attribute wins, as in browsers.
		if el.index(a.Key) >= 0 {
			continue
		}
		el.attrs = append(el.attrs, Attribute{Name: a.Key, Value: html.EscapeString(a.Val)})
	}
	return el
}

// TagName returns the lower-cased element name.
func (e *Element) TagName() string { return e.name }

// SelfClosing reports whether the element is void and has no content or end tag.
func (e *Element) SelfClosing() bool { return e.tag.SelfClosing }

// Attributes returns a snapshot of the element's attributes in source order.
func (e *Element) Attributes() []Attribute {
	out := make([]Attribute, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// AttributeNames returns the attribute names in source order.
func (e *Element) AttributeNames() []string {
	out := make([]string, len(e.attrs))
	for i, a := range e.attrs {
		out[i] = a.Name
	}
	return out
}

// GetAttribute returns the encoded value of the named attribute.
func (e *Element) GetAttribute(name string) (string, bool) {
	if i := e.index(name); i >= 0 {
		return e.attrs[i].Value, true
	}
	return "", false
}

// HasAttribute reports whether the named attribute is present.
func (e *Element) HasAttribute(name string) bool {
	return e.index(name) >= 0
}

// SetAttribute sets or appends an attribute. value must already be encoded;
// it is written verbatim between double quotes.
func (e *Element) SetAttribute(name, value string) error {
	if !validAttributeName(name) {
		return ErrInvalidAttributeName
	}
	if strings.ContainsRune(value, '"') {
		return ErrInvalidAttributeValue
	}
	if i := e.index(name); i >= 0 {
		e.attrs[i].Value = value
		return nil
	}
	e.attrs = append(e.attrs, Attribute{Name: name, Value: value})
	return nil
}

// RemoveAttribute removes the named attribute if present.
func (e *Element) RemoveAttribute(name string) {
	if i := e.index(name); i >= 0 {
		e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
	}
}

// Remove drops the start tag and everything up to the matching end tag. The
// end tag itself is a separate event; use OnEndTag to drop it.
func (e *Element) Remove() {
	e.removed = true
	e.keepContent = false
}

// RemoveAndKeepContent drops only the start tag. The end tag is a separate
// event; use OnEndTag to drop it.
func (e *Element) RemoveAndKeepContent() {
	e.removed = true
	e.keepContent = true
}

// Removed reports whether Remove or RemoveAndKeepContent was called.
func (e *Element) Removed() bool { return e.removed }

// SetInnerContent replaces the element's content with text, which is escaped
// on output. It has no effect on void or removed elements.
func (e *Element) SetInnerContent(text string) {
	e.inner = &text
}

// Before inserts text, escaped, in front of the start tag.
func (e *Element) Before(text string) {
	e.before = append(e.before, text)
}

// After inserts text, escaped, after the element: after the end tag, or
// directly after the start tag of a void element.
func (e *Element) After(text string) {
	e.after = append(e.after, text)
}

// OnEndTag registers h to be called for the element's end tag, including end
// tags that are implied by an enclosing close or the end of input.
func (e *Element) OnEndTag(h EndTagHandler) error {
	if e.tag.SelfClosing {
		return ErrNoEndTag
	}
	e.endHandlers = append(e.endHandlers, h)
	return nil
}

func (e *Element) index(name string) int {
	for i, a := range e.attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (e *Element) render() string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(e.name)
	for _, a := range e.attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(a.Value)
		sb.WriteByte('"')
	}
	if e.closed {
		sb.WriteByte('/')
	}
	sb.WriteByte('>')
	return sb.String()
}

func validAttributeName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, " \t\n\f\r\"'<>/=")
}

// EndTag is the end tag of an element that registered an OnEndTag handler.
type EndTag struct {
	name    string
	removed bool
}

// Name returns the lower-cased element name.
func (t *EndTag) Name() string { return t.name }

// Remove drops the end tag from the output.
func (t *EndTag) Remove() { t.removed = true }

// Removed reports whether Remove was called.
func (t *EndTag) Removed() bool { return t.removed }

// Comment is an HTML comment handed to Handlers.Comment.
type Comment struct {
	text    string
	removed bool
}

// Text returns the comment body.
func (c *Comment) Text() string { return c.text }

// Remove drops the comment from the output.
func (c *Comment) Remove() { c.removed = true }

// Removed reports whether Remove was called.
func (c *Comment) Removed() bool { return c.removed }

// Doctype is a doctype declaration handed to Handlers.Doctype.
type Doctype struct {
	name    string
	removed bool
}

// Name returns the declaration body, e.g. "html".
func (d *Doctype) Name() string { return d.name }

// Remove drops the declaration from the output.
func (d *Doctype) Remove() { d.removed = true }

// Removed reports whether Remove was called.
func (d *Doctype) Removed() bool { return d.removed }
