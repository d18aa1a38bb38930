package translator

import "fmt"

// ValidationError reports a command document with missing or wrong-shaped
// fields. It is returned to the caller and never folded into an envelope.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid command: " + e.Reason
}

// UnsupportedCommandError reports a command whose "type" is not one of the
// recognized kinds.
type UnsupportedCommandError struct {
	Type string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("unsupported command type: %s", e.Type)
}

// ParseError reports command text that is not valid JSON, even after the
// lenient quote-normalization fallback.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse command: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
