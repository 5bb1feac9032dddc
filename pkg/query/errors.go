package query

import "fmt"

// ParseError represents an error in a filter expression.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("position %d: %s", e.Pos, e.Message)
}
