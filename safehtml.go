package htmlsanitizer

import (
	"github.com/google/safehtml"
	"github.com/google/safehtml/uncheckedconversions"
)

// SanitizeToHTML sanitizes htmlStr and returns the result as a safehtml.HTML
// value for templates and writers that only accept safe types.
//
// The conversion is only sound for policies that keep script, style and
// event-handler attributes disallowed, which every preset does.
func (s *Sanitizer) SanitizeToHTML(htmlStr string) (safehtml.HTML, error) {
	out, err := s.SanitizeString(htmlStr)
	if err != nil {
		return safehtml.HTML{}, err
	}
	return uncheckedconversions.HTMLFromStringKnownToSatisfyTypeContract(out), nil
}
