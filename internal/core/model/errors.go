package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotInitialized = errors.New("tracker not initialized")
	ErrDisposed       = errors.New("tracker disposed")
)

// ConfigurationError is returned when a component is used before its
// required collaborators are wired.
type ConfigurationError struct {
	Component string
	Reason    string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: configuration error: %s: %v", e.Component, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: configuration error: %s", e.Component, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// InvalidInputError describes a malformed commit record that was skipped.
type InvalidInputError struct {
	Index  int
	ID     string
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("commit %d (%s): invalid %s: %s", e.Index, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("commit %d: invalid %s: %s", e.Index, e.Field, e.Reason)
}

// IsStorageError reports whether err wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
