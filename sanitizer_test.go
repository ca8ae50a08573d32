package htmlsanitizer_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/njchilds90/htmlsanitizer/v2"
	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/njchilds90/htmlsanitizer/v2/rewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sanitize(t *testing.T, s *htmlsanitizer.Sanitizer, input string) string {
	t.Helper()
	got, err := s.SanitizeString(input)
	require.NoError(t, err)
	return got
}

func TestSanitize_ScriptStripped(t *testing.T) {
	input := `<p>Hello</p><script>alert('xss')</script>`
	got, err := htmlsanitizer.Sanitize(input, config.Basic())
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>Hello</p>" {
		t.Errorf("got %q", got)
	}
}

func TestSanitize_JavascriptHrefBlocked(t *testing.T) {
	for _, input := range []string{
		`<a href="javascript:alert(1)">click</a>`,
		`<a href="JavaScript:alert(1)">click</a>`,
		`<a href="&#106;avascript:alert(1)">click</a>`,
		`<a href="  javascript:alert(1)">click</a>`,
		`<a href="data:text/html,x">click</a>`,
	} {
		got, err := htmlsanitizer.Sanitize(input, config.Basic())
		if err != nil {
			t.Fatal(err)
		}
		if got != "<a>click</a>" {
			t.Errorf("Sanitize(%q) = %q", input, got)
		}
	}
}

func TestSanitize_AllowedURLs(t *testing.T) {
	s := htmlsanitizer.MustNew(config.Basic())
	tests := []struct {
		input, want string
	}{
		{`<a href="/about">About</a>`, `<a href="/about">About</a>`},
		{`<a href="#top">Top</a>`, `<a href="#top">Top</a>`},
		{`<a href="page.html">Page</a>`, `<a href="page.html">Page</a>`},
		{`<a href="mailto:me@example.com">Mail</a>`, `<a href="mailto:me@example.com">Mail</a>`},
		{
			`<a href="HTTPS://Example.com/a?b=1&amp;c=2">x</a>`,
			`<a href="HTTPS://Example.com/a?b=1&amp;c=2">x</a>`,
		},
		{
			`<a href="https://example.com/a b'c">x</a>`,
			`<a href="https://example.com/a%20b&#x27;c">x</a>`,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(t, s, tt.input), tt.input)
	}
}

func TestSanitize_DefaultUnwrapsEverything(t *testing.T) {
	got, err := htmlsanitizer.Sanitize(`<p>Hello <b>world</b></p><script>x()</script><!-- c -->`, nil)
	require.NoError(t, err)
	assert.Equal(t, " Hello world ", got)
}

func TestSanitize_UnknownElements(t *testing.T) {
	s := htmlsanitizer.MustNew(config.Basic())
	assert.Equal(t, "<b>x</b>", sanitize(t, s, "<my-widget><b>x</b></my-widget>"))
}

func TestDisallowedElementUnwrap(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{})
	assert.Equal(t, "acd", sanitize(t, s, "a<b>c</b>d"))

	s.SetFlag("b", htmlsanitizer.FlagWrapWhitespace, true)
	assert.Equal(t, "a c d", sanitize(t, s, "a<b>c</b>d"))
	assert.Equal(t, "hi", strings.TrimSpace(sanitize(t, s, "<b>hi</b>")))

	s.SetFlag("br", htmlsanitizer.FlagWrapWhitespace, true)
	assert.Equal(t, "a b", sanitize(t, s, "a<br>b"))
}

func TestDisallowedElementRemoveContents(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{})
	s.SetFlag("div", htmlsanitizer.FlagRemoveContents, true)
	assert.Equal(t, "ab", sanitize(t, s, "a<div>gone <i>too</i></div>b"))
}

func TestTextContentElementsNeverUnwrap(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{})
	s.SetFlag("script", htmlsanitizer.FlagWrapWhitespace, true)
	s.SetFlag("textarea", htmlsanitizer.FlagWrapWhitespace, true)

	for _, input := range []string{
		"<script>alert(1)</script>",
		"<SCRIPT>alert(1)</SCRIPT>",
		"<script/>alert(1)</script>",
		"<style>body{}</style>",
		"<textarea><b>x</b></textarea>",
		"<title>t</title>",
		"<xmp><img src=x></xmp>",
		"<noscript><img src=x onerror=y></noscript>",
	} {
		assert.Equal(t, "", sanitize(t, s, input), input)
	}
}

func TestAllowedElementKeepsEndTag(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{Elements: []string{"div"}})
	assert.Equal(t, "<div>xy</div>", sanitize(t, s, "<div>x<span>y</div>"))
}

func TestIframeContentsBlanked(t *testing.T) {
	cfg := &config.Config{
		Elements:   []string{"iframe"},
		Attributes: map[string][]string{"iframe": {"src"}},
		Protocols:  map[string]map[string][]string{"iframe": {"src": {"https"}}},
	}
	s := htmlsanitizer.MustNew(cfg)
	assert.Equal(t,
		`<iframe src="https://example.com"> </iframe>`,
		sanitize(t, s, `<iframe src="https://example.com"><script>alert(1)</script><b>x</b></iframe>`))
	assert.Equal(t,
		`<iframe> </iframe>`,
		sanitize(t, s, `<iframe src="javascript:alert(1)" onload="x()">body</iframe>`))
}

func TestAttributeAllowListUnion(t *testing.T) {
	cfg := &config.Config{
		Elements:   []string{"p", "span"},
		Attributes: map[string][]string{config.All: {"id"}, "p": {"title"}},
	}
	s := htmlsanitizer.MustNew(cfg)
	assert.Equal(t, `<p id="x" title="t">a</p>`, sanitize(t, s, `<p id="x" title="t" onclick="evil()">a</p>`))
	assert.Equal(t, `<span id="x">a</span>`, sanitize(t, s, `<span id="x" title="t">a</span>`))
}

func TestEmptyAttributesDropped(t *testing.T) {
	cfg := &config.Config{
		Elements:   []string{"p"},
		Attributes: map[string][]string{"p": {"title", "hidden"}},
	}
	s := htmlsanitizer.MustNew(cfg)
	assert.Equal(t, "<p>x</p>", sanitize(t, s, `<p title="" hidden>x</p>`))
}

func TestBlankAttributesDropped(t *testing.T) {
	cfg := &config.Config{
		Elements:   []string{"p", "span"},
		Attributes: map[string][]string{"p": {"title"}, "span": {"class"}},
	}
	s := htmlsanitizer.MustNew(cfg)
	tests := []struct {
		input, want string
	}{
		{`<p title="   ">x</p>`, `<p>x</p>`},
		{`<p title="&#32;">x</p>`, `<p>x</p>`},
		{`<p title="&#9;&#32;">x</p>`, `<p>x</p>`},
		{`<span class=" ">x</span>`, `<span>x</span>`},
		{`<p title="&#32;t">x</p>`, `<p title="t">x</p>`},
	}
	for _, tt := range tests {
		once := sanitize(t, s, tt.input)
		assert.Equal(t, tt.want, once, tt.input)
		assert.Equal(t, once, sanitize(t, s, once), tt.input)
	}
}

func TestAttributeValuesReencoded(t *testing.T) {
	cfg := &config.Config{
		Elements:   []string{"p"},
		Attributes: map[string][]string{"p": {"title"}},
	}
	s := htmlsanitizer.MustNew(cfg)
	assert.Equal(t,
		`<p title="&lt;script&gt; &#34;q&#34; &amp; &#39;s&#39;">x</p>`,
		sanitize(t, s, `<p title="  &lt;script&gt; &quot;q&quot; &amp; 's'">x</p>`))
}

func TestClassFiltering(t *testing.T) {
	cfg := &config.Config{
		Elements:   []string{"span"},
		Attributes: map[string][]string{"span": {"class"}},
	}
	s := htmlsanitizer.MustNew(cfg)
	assert.Equal(t, `<span class="a c  b">x</span>`, sanitize(t, s, `<span class="a c  b">x</span>`))

	s.SetAllowedClass(config.All, "a", true)
	s.SetAllowedClass("span", "b", true)
	assert.Equal(t, `<span class="a b">x</span>`, sanitize(t, s, `<span class="a c  b">x</span>`))
	assert.Equal(t, `<span>x</span>`, sanitize(t, s, `<span class="c d">x</span>`))
}

func TestRequiredAttributes(t *testing.T) {
	cfg := &config.Config{
		Elements:           []string{"a"},
		Attributes:         map[string][]string{"a": {"href", "title"}},
		Protocols:          map[string]map[string][]string{"a": {"href": {"https"}}},
		RequiredAttributes: map[string][]string{"a": {"href"}},
	}
	s := htmlsanitizer.MustNew(cfg)
	assert.Equal(t, `<a href="https://x">t</a>`, sanitize(t, s, `<a href="https://x">t</a>`))
	assert.Equal(t, "t", sanitize(t, s, `<a href="javascript:x" title="y">t</a>`))
	assert.Equal(t, "t", sanitize(t, s, `<a>t</a>`))

	s.SetRequiredAttribute("a", config.AnyRequired, true)
	assert.Equal(t, `<a title="y">t</a>`, sanitize(t, s, `<a href="javascript:x" title="y">t</a>`))
}

func TestRemovedTextContentElementsKeepNoSource(t *testing.T) {
	cfg := &config.Config{
		Elements:           []string{"script", "style", "iframe"},
		Attributes:         map[string][]string{"script": {"nonce"}},
		RequiredAttributes: map[string][]string{"script": {"nonce"}, "style": {"nonce"}, "iframe": {"src"}},
	}
	s := htmlsanitizer.MustNew(cfg)
	s.SetAllFlags(htmlsanitizer.FlagWrapWhitespace, true)

	assert.Equal(t, `<script nonce="n">ok()</script>`, sanitize(t, s, `<script nonce="n">ok()</script>`))
	for _, input := range []string{
		"<script>alert(1)</script>after",
		`<script nonce="">alert(1)</script>after`,
		"<style>body{}</style>after",
		"<iframe>alert(1)</iframe>after",
		`<script nonce="n" <!--="x">alert(1)</script>after`,
	} {
		assert.Equal(t, "after", sanitize(t, s, input), input)
	}
}

func TestCommentInjectionRemovesElement(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{
		Elements:   []string{"p"},
		Attributes: map[string][]string{"p": {"title"}},
	})
	for _, input := range []string{
		`<p <!--="x">text</p>after`,
		`<p title="t" <!-- onclick="x">text</p>after`,
	} {
		got := sanitize(t, s, input)
		assert.Equal(t, "textafter", got, input)
	}

	s.SetFlag("p", htmlsanitizer.FlagRemoveContents, true)
	assert.Equal(t, "after", sanitize(t, s, `<p <!--="x">text</p>after`))
}

func TestMetaCharsetPinned(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{
		Elements:   []string{"meta"},
		Attributes: map[string][]string{"meta": {"charset"}},
	})
	assert.Equal(t, `<meta charset="utf-8">`, sanitize(t, s, `<meta charset="iso-8859-1">`))
	assert.Equal(t, `<meta charset="utf-8">`, sanitize(t, s, `<meta charset="no-such-charset">`))
	assert.Equal(t, `<meta charset="UTF-8">`, sanitize(t, s, `<meta charset="UTF-8">`))
}

func TestCommentsAndDoctype(t *testing.T) {
	s := htmlsanitizer.MustNew(nil)
	input := "<!DOCTYPE html>a<!-- note -->b"
	assert.Equal(t, "ab", sanitize(t, s, input))

	assert.True(t, s.SetAllowComments(true))
	assert.Equal(t, "a<!-- note -->b", sanitize(t, s, input))

	assert.True(t, s.SetAllowDoctype(true))
	assert.Equal(t, input, sanitize(t, s, input))
}

func TestCommentsInsideRemovedContentDropped(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{AllowComments: true})
	assert.Equal(t, "", sanitize(t, s, "<script><!-- x --></script>"))
}

func TestSetAllowedAttributeToggles(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{Elements: []string{"p"}})
	input := `<p title="t" id="i">x</p>`

	s.SetAllowedAttribute("p", "title", true)
	s.SetAllowedAttribute(config.All, "id", true)
	assert.Equal(t, input, sanitize(t, s, input))

	// Disabling removes the entry in both scopes.
	assert.False(t, s.SetAllowedAttribute("p", "title", false))
	assert.Equal(t, `<p id="i">x</p>`, sanitize(t, s, input))
	s.SetAllowedAttribute(config.All, "id", false)
	assert.Equal(t, `<p>x</p>`, sanitize(t, s, input))
}

func TestSetAllowedClassToggles(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{
		Elements:   []string{"p"},
		Attributes: map[string][]string{"p": {"class"}},
	})
	s.SetAllowedClass("p", "a", true)
	s.SetAllowedClass("p", "b", true)
	assert.Equal(t, `<p class="a b">x</p>`, sanitize(t, s, `<p class="a b">x</p>`))

	s.SetAllowedClass("p", "b", false)
	assert.Equal(t, `<p class="a">x</p>`, sanitize(t, s, `<p class="a b">x</p>`))
}

func TestFlags(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{})
	s.SetFlag("b", htmlsanitizer.FlagAllow, true)
	s.SetFlag("B", htmlsanitizer.FlagWrapWhitespace, true)
	assert.Equal(t, htmlsanitizer.FlagAllow|htmlsanitizer.FlagWrapWhitespace, s.Flags("b"))

	s.SetAllFlags(htmlsanitizer.FlagRemoveContents, true)
	assert.Equal(t, htmlsanitizer.FlagAllow|htmlsanitizer.FlagWrapWhitespace|htmlsanitizer.FlagRemoveContents, s.Flags("b"))
	assert.Equal(t, htmlsanitizer.FlagRemoveContents, s.Flags("i"))

	// Disabling clears only the named bit.
	s.SetAllFlags(htmlsanitizer.FlagWrapWhitespace, false)
	assert.Equal(t, htmlsanitizer.FlagAllow|htmlsanitizer.FlagRemoveContents, s.Flags("b"))

	s.SetFlag("b", htmlsanitizer.FlagAllow, false)
	assert.Equal(t, htmlsanitizer.FlagRemoveContents, s.Flags("b"))

	assert.Equal(t, "allow|wrap_whitespace", (htmlsanitizer.FlagAllow | htmlsanitizer.FlagWrapWhitespace).String())
	assert.Equal(t, "none", htmlsanitizer.Flag(0).String())
}

func TestProtocolsAccumulate(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{
		Elements:   []string{"a"},
		Attributes: map[string][]string{"a": {"href"}},
	})
	s.SetAllowedProtocols("a", "href", htmlsanitizer.Scheme("https"))
	assert.Equal(t, "<a>x</a>", sanitize(t, s, `<a href="/p">x</a>`))

	s.SetAllowedProtocols("a", "href", htmlsanitizer.Relative)
	assert.Equal(t, `<a href="/p">x</a>`, sanitize(t, s, `<a href="/p">x</a>`))
	assert.Equal(t, `<a href="https://e.com">x</a>`, sanitize(t, s, `<a href="https://e.com">x</a>`))
	assert.Equal(t, "<a>x</a>", sanitize(t, s, `<a href="http://e.com">x</a>`))
}

func TestTransformer(t *testing.T) {
	s := htmlsanitizer.MustNew(config.Basic(), htmlsanitizer.WithTransformer(func(el htmlsanitizer.Element) error {
		if el.TagName() == "a" {
			return el.SetAttribute("rel", "nofollow")
		}
		return nil
	}))
	assert.Equal(t,
		`<a href="https://example.com" rel="nofollow">link</a><a rel="nofollow">x</a>`,
		sanitize(t, s, `<a href="https://example.com" onclick="x">link</a><a>x</a>`))

	// Transformers never see removed elements.
	assert.Equal(t, "x", strings.TrimSpace(sanitize(t, s, `<div>x</div>`)))
}

func TestTransformerError(t *testing.T) {
	boom := errors.New("boom")
	s := htmlsanitizer.MustNew(config.Basic(), htmlsanitizer.WithTransformer(func(htmlsanitizer.Element) error {
		return boom
	}))
	_, err := s.SanitizeString("<b>x</b>")
	assert.ErrorIs(t, err, boom)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := htmlsanitizer.MustNew(config.Basic(), htmlsanitizer.WithLogger(logger))

	sanitize(t, s, `<script>x</script><p <!--="y">z</p>`)
	out := buf.String()
	assert.Contains(t, out, "element removed")
	assert.Contains(t, out, "tag=script")
	assert.Contains(t, out, "event=comment_injection")
	assert.Contains(t, out, "component=htmlsanitizer")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := htmlsanitizer.New(&config.Config{Elements: []string{"nope"}})
	require.Error(t, err)
	assert.Panics(t, func() {
		htmlsanitizer.MustNew(&config.Config{Elements: []string{"nope"}})
	})
}

func TestConfigReturnedVerbatim(t *testing.T) {
	cfg := config.Relaxed()
	s := htmlsanitizer.MustNew(cfg)
	assert.Same(t, cfg, s.Config())

	assert.Equal(t, config.Default(), htmlsanitizer.MustNew(nil).Config())
}

func TestSequentialDocumentsShareConfig(t *testing.T) {
	s := htmlsanitizer.MustNew(config.Restricted())
	first := sanitize(t, s, "<b>x</b><div>y</div>")
	second := sanitize(t, s, "<i>z</i>")
	assert.Equal(t, "<b>x</b> y ", first)
	assert.Equal(t, "<i>z</i>", second)
}

func TestSanitizeBytesAndReader(t *testing.T) {
	s := htmlsanitizer.MustNew(config.Restricted())
	got, err := s.SanitizeBytes([]byte("<u>x</u><script>y</script>"))
	require.NoError(t, err)
	assert.Equal(t, "<u>x</u>", string(got))

	var buf bytes.Buffer
	require.NoError(t, htmlsanitizer.SanitizeReader(strings.NewReader("<em>x</em><span>y</span>"), &buf, config.Restricted()))
	assert.Equal(t, "<em>x</em>y", buf.String())

	err = htmlsanitizer.SanitizeReader(strings.NewReader("x"), &buf, &config.Config{Elements: []string{"nope"}})
	assert.Error(t, err)
}

func TestStripTags(t *testing.T) {
	got, err := htmlsanitizer.StripTags(`<p>Hello <b>world</b> &amp; more</p><script>bad()</script>`)
	require.NoError(t, err)
	assert.Equal(t, "Hello world & more", got)
}

func TestRelaxedDocument(t *testing.T) {
	input := `<!DOCTYPE html><html><head><title>T &amp; c</title><script>x</script></head>` +
		`<body><h1 class="big" style="color:red" onclick="x()">Head</h1>` +
		`<img src="https://e.com/i.png" alt="pic" onerror="x()"><img src="javascript:x">` +
		`<table border="1"><tr><td colspan="2">c</td></tr></table>` +
		`<form action="/x"><input name="q"></form><!-- note --></body></html>`
	want := `<!DOCTYPE html><html><head><title>T &amp; c</title></head>` +
		`<body><h1 class="big">Head</h1>` +
		`<img src="https://e.com/i.png" alt="pic"><img>` +
		`<table border="1"><tr><td colspan="2">c</td></tr></table>` +
		`<!-- note --></body></html>`

	got := sanitize(t, htmlsanitizer.MustNew(config.Relaxed()), input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// failingElement rejects every attribute write.
type failingElement struct {
	attrs   map[string]string
	removed bool
}

func (e *failingElement) TagName() string { return "p" }
func (e *failingElement) AttributeNames() []string {
	names := make([]string, 0, len(e.attrs))
	for n := range e.attrs {
		names = append(names, n)
	}
	return names
}
func (e *failingElement) GetAttribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}
func (e *failingElement) SetAttribute(string, string) error     { return rewriter.ErrInvalidAttributeValue }
func (e *failingElement) RemoveAttribute(name string)            { delete(e.attrs, name) }
func (e *failingElement) Remove()                                { e.removed = true }
func (e *failingElement) RemoveAndKeepContent()                  { e.removed = true }
func (e *failingElement) Removed() bool                          { return e.removed }
func (e *failingElement) SetInnerContent(string)                 {}
func (e *failingElement) Before(string)                          {}
func (e *failingElement) After(string)                           {}
func (e *failingElement) OnEndTag(rewriter.EndTagHandler) error { return nil }

func TestAttributeAssignmentError(t *testing.T) {
	s := htmlsanitizer.MustNew(&config.Config{
		Elements:   []string{"p"},
		Attributes: map[string][]string{"p": {"title"}},
	})
	err := s.SanitizeElement(&failingElement{attrs: map[string]string{"title": "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, htmlsanitizer.ErrAttributeAssignment)
	assert.ErrorIs(t, err, rewriter.ErrInvalidAttributeValue)

	var attrErr *htmlsanitizer.AttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, "p", attrErr.Tag)
	assert.Equal(t, "title", attrErr.Name)
}

func TestSanitizeToHTML(t *testing.T) {
	s := htmlsanitizer.MustNew(config.Basic())
	got, err := s.SanitizeToHTML(`<p onclick="x()">hi</p><script>x()</script>`)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", got.String())

	failing := htmlsanitizer.MustNew(config.Basic(), htmlsanitizer.WithTransformer(func(htmlsanitizer.Element) error {
		return errors.New("stop")
	}))
	got, err = failing.SanitizeToHTML("<p>hi</p>")
	assert.Error(t, err)
	assert.Empty(t, got.String())
}
