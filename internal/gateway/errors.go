package gateway

import "errors"

// UnrecognizedError marks a gateway response that arrived but could not be
// interpreted. Absence of a clear answer is not evidence of failure, so
// callers must leave any local record untouched when they see this.
type UnrecognizedError struct {
	Raw []byte
}

func (e *UnrecognizedError) Error() string {
	return "unrecognized gateway response: " + truncate(e.Raw, 200)
}

// IsUnrecognized reports whether err (or anything it wraps) is an
// UnrecognizedError.
func IsUnrecognized(err error) bool {
	var ue *UnrecognizedError
	return errors.As(err, &ue)
}
