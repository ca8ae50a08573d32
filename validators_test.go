package htmlsanitizer_test

import (
	"testing"

	"github.com/njchilds90/htmlsanitizer/v2"
	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/stretchr/testify/assert"
)

func TestHasAllowedProtocol(t *testing.T) {
	relative := []string{htmlsanitizer.FragmentRelative, htmlsanitizer.PathRelative}
	tests := []struct {
		name    string
		allowed []string
		value   string
		want    bool
	}{
		{"empty value", relative, "", false},
		{"fragment", relative, "#top", true},
		{"bare fragment", []string{"#"}, "#", true},
		{"fragment not allowed", []string{"/"}, "#top", false},
		{"absolute path", relative, "/a/b", true},
		{"network path", relative, "//example.com/x", true},
		{"path not allowed", []string{"#", "https"}, "/a", false},
		{"no delimiter", relative, "page.html?x=1", true},
		{"no delimiter without relative", []string{"https"}, "page.html", false},
		{"empty scheme", []string{"", "http"}, ":x", false},
		{"lone colon", relative, ":", false},
		{"scheme", []string{"https"}, "https://example.com", true},
		{"scheme case folded", []string{"https"}, "HTTPS://example.com", true},
		{"token case folded", []string{"MAILTO"}, "mailto:me@example.com", true},
		{"scheme not allowed", []string{"http", "/", "#"}, "javascript:alert(1)", false},
		{"scheme stops at slash", []string{"/"}, "a/b:c", true},
		{"no list", nil, "https://example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, htmlsanitizer.HasAllowedProtocol(tt.allowed, tt.value))
		})
	}
}

func TestFilterClasses(t *testing.T) {
	global := map[string]bool{"a": true}
	local := map[string]bool{"b": true}
	tests := []struct {
		name          string
		value         string
		global, local map[string]bool
		want          string
		ok            bool
	}{
		{"no filters", " x  y ", nil, nil, " x  y ", true},
		{"global only", "a c", global, nil, "a", true},
		{"local only", "c b", nil, local, "b", true},
		{"union", "\ta  c\nb ", global, local, "a b", true},
		{"none survive", "c d", global, local, "", false},
		{"empty value", "", global, local, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := htmlsanitizer.FilterClasses(tt.value, tt.global, tt.local)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProtocol(t *testing.T) {
	assert.Equal(t, htmlsanitizer.Relative, htmlsanitizer.ParseProtocol(config.RelativeProtocol))
	assert.Equal(t, htmlsanitizer.Scheme("https"), htmlsanitizer.ParseProtocol("https"))
	assert.Equal(t, config.RelativeProtocol, htmlsanitizer.Relative.String())
	assert.Equal(t, "ftp", htmlsanitizer.Scheme("ftp").String())
}
