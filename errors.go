package htmlsanitizer

import (
	"errors"
	"fmt"
)

// ErrAttributeAssignment is matched by every error raised while writing a
// sanitized attribute value back to an element.
var ErrAttributeAssignment = errors.New("attribute assignment error")

// AttributeError reports a failed attribute write.
type AttributeError struct {
	Tag  string
	Name string
	Err  error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s: <%s %s>: %v", ErrAttributeAssignment, e.Tag, e.Name, e.Err)
}

// Unwrap exposes both ErrAttributeAssignment and the underlying cause.
func (e *AttributeError) Unwrap() []error {
	return []error{ErrAttributeAssignment, e.Err}
}
