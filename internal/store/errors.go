package store

import (
	"errors"
	"fmt"
)

// StorageError is returned when a store read or write fails.
type StorageError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// AsStorageError attempts to unwrap an error into a StorageError.
func AsStorageError(err error) (*StorageError, bool) {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr, true
	}
	return nil, false
}
