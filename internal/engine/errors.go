package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidUID rejects an update whose uid is missing or empty.
var ErrInvalidUID = errors.New("missing or invalid uid")

// StorageError wraps a store failure during an update. The update was not
// applied.
type StorageError struct {
	Op  string
	UID string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s profile %q: %v", e.Op, e.UID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
