package ecfr

import (
	"errors"
	"fmt"
)

// ErrMalformedCatalog marks a catalog payload that could not be
// decoded. Callers degrade the fetch stage to an empty result instead
// of failing the run.
var ErrMalformedCatalog = errors.New("malformed catalog payload")

// StatusError is returned for non-2xx responses from the remote API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsServerError reports whether err is a 5xx StatusError.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

// IsClientError reports whether err is a 4xx StatusError. Client
// errors are terminal and never retried.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
}
