package htmlsanitizer

import (
	"fmt"

	"github.com/njchilds90/htmlsanitizer/v2/rewriter"
	"github.com/njchilds90/htmlsanitizer/v2/tags"
)

// Element is the handle a streaming engine passes for each start tag.
// Attribute values are HTML-encoded on both read and write.
// *rewriter.Element implements it.
type Element interface {
	TagName() string
	AttributeNames() []string
	GetAttribute(name string) (string, bool)
	SetAttribute(name, value string) error
	RemoveAttribute(name string)

	Remove()
	RemoveAndKeepContent()
	Removed() bool
	SetInnerContent(text string)
	Before(text string)
	After(text string)
	OnEndTag(h rewriter.EndTagHandler) error
}

// Comment is the handle passed for each comment.
type Comment interface {
	Remove()
}

// Doctype is the handle passed for each doctype declaration.
type Doctype interface {
	Remove()
}

var (
	_ Element = (*rewriter.Element)(nil)
	_ Comment = (*rewriter.Comment)(nil)
	_ Doctype = (*rewriter.Doctype)(nil)
)

// SanitizeElement applies the policy to one start tag: it removes or unwraps
// disallowed elements, blanks kept iframes, strips attributes that fail the
// allow-lists, and runs the transformers on what is left.
func (s *Sanitizer) SanitizeElement(el Element) error {
	tag := tags.Lookup(el.TagName())

	removed, err := s.tryRemoveElement(el, tag)
	if err != nil || removed {
		return err
	}

	removed, err = s.sanitizeAttributes(el, tag)
	if err != nil || removed {
		return err
	}

	for _, t := range s.transformers {
		if err := t(el); err != nil {
			return err
		}
	}
	return nil
}

// SanitizeComment drops c unless comments are allowed.
func (s *Sanitizer) SanitizeComment(c Comment) {
	if !s.allowComments {
		c.Remove()
	}
}

// SanitizeDoctype drops d unless doctype declarations are allowed.
func (s *Sanitizer) SanitizeDoctype(d Doctype) {
	if !s.allowDoctype {
		d.Remove()
	}
}

// tryRemoveElement removes el when its tag is not allowed and reports whether
// it did. Kept iframes lose their content.
func (s *Sanitizer) tryRemoveElement(el Element, tag tags.Tag) (bool, error) {
	flags := s.flags[tag.Index]

	if flags&FlagAllow == 0 {
		flags = removalFlags(tag, flags)
		s.debug("element removed", "tag", tag.Name, "flags", flags.String())
		return true, s.removeElement(el, tag, flags)
	}

	if tag.IsIframe() {
		if flags != 0 {
			el.SetInnerContent(" ")
		} else {
			el.SetInnerContent("")
		}
	}
	return false, nil
}

// removalFlags returns the flags used to remove an element of tag. Unwrapping
// script or style would turn their source into visible text.
func removalFlags(tag tags.Tag, flags Flag) Flag {
	if tag.HasTextContent {
		return FlagRemoveContents
	}
	return flags
}

func (s *Sanitizer) removeElement(el Element, tag tags.Tag, flags Flag) error {
	flags = removalFlags(tag, flags)
	if flags&FlagRemoveContents != 0 {
		el.Remove()
	} else {
		if flags&FlagWrapWhitespace != 0 {
			if tag.SelfClosing {
				el.After(" ")
			} else {
				el.Before(" ")
				el.After(" ")
			}
		}
		el.RemoveAndKeepContent()
	}
	return suppressEndTag(el, tag)
}

// suppressEndTag carries a start tag removal over to the matching end tag,
// which the stream delivers as a separate event.
func suppressEndTag(el Element, tag tags.Tag) error {
	if !el.Removed() || tag.SelfClosing {
		return nil
	}
	err := el.OnEndTag(func(end *rewriter.EndTag) error {
		end.Remove()
		return nil
	})
	if err != nil {
		return fmt.Errorf("htmlsanitizer: <%s>: %w", tag.Name, err)
	}
	return nil
}
