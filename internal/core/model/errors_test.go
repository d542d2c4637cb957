package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("disk full")
	storage := fmt.Errorf("record: %w", &StorageError{Op: "set", Key: "daily/2024-03-01", Err: cause})

	assert.True(t, IsStorageError(storage))
	assert.False(t, IsConfigurationError(storage))
	assert.ErrorIs(t, storage, cause)
	assert.Contains(t, storage.Error(), `"daily/2024-03-01"`)

	cfg := &ConfigurationError{Component: "tracker", Reason: "used after Dispose", Err: ErrDisposed}
	assert.True(t, IsConfigurationError(cfg))
	assert.ErrorIs(t, cfg, ErrDisposed)
	assert.NotErrorIs(t, cfg, ErrNotInitialized)
}

func TestInvalidInputErrorMessage(t *testing.T) {
	withID := &InvalidInputError{Index: 3, ID: "abc123", Field: "timestamp", Reason: "missing"}
	assert.Equal(t, "commit 3 (abc123): invalid timestamp: missing", withID.Error())

	withoutID := &InvalidInputError{Index: 0, Field: "author", Reason: "empty"}
	assert.Equal(t, "commit 0: invalid author: empty", withoutID.Error())
}
