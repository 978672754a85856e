package host

import (
	"errors"
	"fmt"
)

// NotFoundError reports a shard path or pathway ID that does not exist.
type NotFoundError struct {
	Kind string // "shard" or "pathway"
	ID   string // Path or pathway ID as given
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
