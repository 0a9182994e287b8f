package transport

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrEmptyBody         = errors.New("empty response body")
	ErrNotMarkup         = errors.New("response is not markup")
	ErrTooLarge          = errors.New("response body too large")
)

// StatusError is returned for responses outside 2xx and 3xx
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}
