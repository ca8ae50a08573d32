package htmlsanitizer

import (
	"bytes"
	"io"
	"strings"

	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/njchilds90/htmlsanitizer/v2/rewriter"
	"golang.org/x/net/html"
)

// Handlers returns rewriter callbacks that apply s.
func (s *Sanitizer) Handlers() rewriter.Handlers {
	return rewriter.Handlers{
		Element: func(el *rewriter.Element) error {
			return s.SanitizeElement(el)
		},
		Comment: func(c *rewriter.Comment) error {
			s.SanitizeComment(c)
			return nil
		},
		Doctype: func(d *rewriter.Doctype) error {
			s.SanitizeDoctype(d)
			return nil
		},
	}
}

// SanitizeReader reads HTML from r and writes the sanitized result to w.
func (s *Sanitizer) SanitizeReader(r io.Reader, w io.Writer) error {
	return rewriter.Rewrite(r, w, s.Handlers())
}

// SanitizeString sanitizes an HTML string.
func (s *Sanitizer) SanitizeString(htmlStr string) (string, error) {
	var sb strings.Builder
	if err := s.SanitizeReader(strings.NewReader(htmlStr), &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// SanitizeBytes sanitizes an HTML byte slice.
func (s *Sanitizer) SanitizeBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.SanitizeReader(bytes.NewReader(b), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sanitize applies cfg to htmlStr. If cfg is nil, config.Default is used.
func Sanitize(htmlStr string, cfg *config.Config) (string, error) {
	s, err := New(cfg)
	if err != nil {
		return "", err
	}
	return s.SanitizeString(htmlStr)
}

// SanitizeReader applies cfg to the HTML read from r and writes the result
// to w. If cfg is nil, config.Default is used.
func SanitizeReader(r io.Reader, w io.Writer, cfg *config.Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	return s.SanitizeReader(r, w)
}

// StripTags removes all markup and returns plain text with entity references
// decoded. The content of script-like elements is dropped.
func StripTags(htmlStr string) (string, error) {
	s, err := New(&config.Config{RemoveContents: config.Default().RemoveContents})
	if err != nil {
		return "", err
	}
	out, err := s.SanitizeString(htmlStr)
	if err != nil {
		return "", err
	}
	return html.UnescapeString(out), nil
}
