// Package rewriter is a streaming HTML rewriter built on the
// golang.org/x/net/html tokenizer. It hands every start tag, comment and
// doctype to a callback that may mutate or remove it, and writes the
// resulting markup without building a document tree.
//
// Start and end tags are separate events: removing an element drops its start
// tag (and, with Remove, its content), while the end tag is only dropped by a
// handler registered with Element.OnEndTag. Unmatched end tags are dropped and
// elements left open are closed at the end of input, so the output is always
// balanced.
package rewriter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/njchilds90/htmlsanitizer/v2/tags"
	"golang.org/x/net/html"
)

// Handlers receives parse events in document order. Nil handlers leave the
// corresponding nodes untouched. A non-nil error aborts the rewrite.
type Handlers struct {
	Element func(*Element) error
	Comment func(*Comment) error
	Doctype func(*Doctype) error
}

// Rewrite reads markup from r, applies h, and writes the result to w.
func Rewrite(r io.Reader, w io.Writer, h Handlers) error {
	sw, ok := w.(io.StringWriter)
	if !ok {
		sw = &stringWriter{w}
	}
	rw := &rewriter{
		z:      html.NewTokenizer(r),
		w:      sw,
		h:      h,
		skipAt: -1,
	}
	return rw.run()
}

// RewriteString is a convenience wrapper around Rewrite.
func RewriteString(s string, h Handlers) (string, error) {
	var sb strings.Builder
	if err := Rewrite(strings.NewReader(s), &sb, h); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type stringWriter struct {
	io.Writer
}

func (s *stringWriter) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// frame is an open element. Frames opened inside dropped content have no
// element.
type frame struct {
	name    string
	rawText bool
	el      *Element
}

type rewriter struct {
	z     *html.Tokenizer
	w     io.StringWriter
	h     Handlers
	stack []frame

	// skipAt is the stack index of the element whose content is being
	// dropped, or -1.
	skipAt int
	err    error
}

func (r *rewriter) run() error {
	for {
		tt := r.z.Next()
		if tt == html.ErrorToken {
			if err := r.z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("rewriter: %w", err)
			}
			if err := r.closeAll(); err != nil {
				return err
			}
			return r.err
		}

		tok := r.z.Token()
		var err error
		switch tt {
		case html.TextToken:
			r.text(tok)
		case html.StartTagToken, html.SelfClosingTagToken:
			err = r.startTag(tok)
		case html.EndTagToken:
			err = r.endTag(tok)
		case html.CommentToken:
			err = r.comment(tok)
		case html.DoctypeToken:
			err = r.doctype(tok)
		}
		if err != nil {
			return err
		}
		if r.err != nil {
			return r.err
		}
	}
}

func (r *rewriter) write(s string) {
	if r.err != nil || s == "" {
		return
	}
	if _, err := r.w.WriteString(s); err != nil {
		r.err = fmt.Errorf("rewriter: %w", err)
	}
}

func (r *rewriter) skipping() bool { return r.skipAt >= 0 }

func (r *rewriter) text(tok html.Token) {
	if r.skipping() {
		return
	}
	if n := len(r.stack); n > 0 && r.stack[n-1].rawText {
		r.write(tok.Data)
		return
	}
	r.write(html.EscapeString(tok.Data))
}

func (r *rewriter) startTag(tok html.Token) error {
	tag := tags.Lookup(tok.Data)
	if r.skipping() {
		if !tag.SelfClosing {
			r.stack = append(r.stack, frame{name: tok.Data})
		}
		return nil
	}

	el := newElement(tok)
	if r.h.Element != nil {
		if err := r.h.Element(el); err != nil {
			return err
		}
	}

	for _, s := range el.before {
		r.write(html.EscapeString(s))
	}
	if !el.removed {
		r.write(el.render())
	}
	if tag.SelfClosing {
		r.flushAfter(el)
		return nil
	}

	r.stack = append(r.stack, frame{
		name:    tok.Data,
		rawText: tag.IsRawText() && !el.removed,
		el:      el,
	})
	switch {
	case el.removed && !el.keepContent:
		r.skipAt = len(r.stack) - 1
	case !el.removed && el.inner != nil:
		r.write(html.EscapeString(*el.inner))
		r.skipAt = len(r.stack) - 1
	}
	return nil
}

func (r *rewriter) endTag(tok html.Token) error {
	i := len(r.stack) - 1
	for ; i >= 0; i-- {
		if r.stack[i].name == tok.Data {
			break
		}
	}
	if i < 0 {
		return nil
	}
	return r.closeTo(i)
}

// closeTo closes every frame from the top of the stack down to and including
// index i. Frames above i are closed as if their end tags were present.
func (r *rewriter) closeTo(i int) error {
	for j := len(r.stack) - 1; j >= i; j-- {
		f := r.stack[j]
		r.stack = r.stack[:j]
		if r.skipAt >= j {
			r.skipAt = -1
		}
		if err := r.closeFrame(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *rewriter) closeFrame(f frame) error {
	if f.el == nil {
		return nil
	}
	end := &EndTag{name: f.name}
	for _, h := range f.el.endHandlers {
		if err := h(end); err != nil {
			return err
		}
	}
	if !end.removed {
		r.write("</" + f.name + ">")
	}
	r.flushAfter(f.el)
	return nil
}

func (r *rewriter) closeAll() error {
	if len(r.stack) == 0 {
		return nil
	}
	return r.closeTo(0)
}

func (r *rewriter) flushAfter(el *Element) {
	for _, s := range el.after {
		r.write(html.EscapeString(s))
	}
}

func (r *rewriter) comment(tok html.Token) error {
	if r.skipping() {
		return nil
	}
	c := &Comment{text: tok.Data}
	if r.h.Comment != nil {
		if err := r.h.Comment(c); err != nil {
			return err
		}
	}
	if !c.removed {
		r.write(tok.String())
	}
	return nil
}

func (r *rewriter) doctype(tok html.Token) error {
	if r.skipping() {
		return nil
	}
	d := &Doctype{name: tok.Data}
	if r.h.Doctype != nil {
		if err := r.h.Doctype(d); err != nil {
			return err
		}
	}
	if !d.removed {
		r.write(tok.String())
	}
	return nil
}
