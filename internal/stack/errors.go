package stack

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned by New for unusable options or deps
	ErrConfiguration = errors.New("invalid stack configuration")

	// ErrUnsupportedURL is returned when a url cannot be resolved to
	// content. Callers fall through to default link behaviour.
	ErrUnsupportedURL = errors.New("unsupported url")
)

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
