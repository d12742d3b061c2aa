package feed

import "fmt"

type ParseErrorKind string

const (
	ParseMalformed ParseErrorKind = "malformed"
	ParseEmpty     ParseErrorKind = "empty"
)

// ParseError reports that a payload was not a usable syndication document.
// Empty means the document parsed but contained no entries.
type ParseError struct {
	Kind ParseErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Kind == ParseEmpty {
		return "feed contains no entries"
	}
	return fmt.Sprintf("failed to parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
