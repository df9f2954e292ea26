package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantNotFound  bool
		wantDuplicate bool
	}{
		{"nil", nil, false, false},
		{"generic", errors.New("boom"), false, false},
		{"not found", ErrNotFound, true, false},
		{"task not found", ErrTaskNotFound, true, false},
		{"wrapped task not found", fmt.Errorf("get: %w", ErrTaskNotFound), true, false},
		{"duplicate", ErrDuplicate, false, true},
		{"slot conflict", ErrSlotConflict, false, true},
		{"store error around slot conflict", NewStoreError("task", "create", "insert", ErrSlotConflict), false, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.wantNotFound, IsNotFoundError(tc.err))
			assert.Equal(t, tc.wantDuplicate, IsDuplicateError(tc.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := NewStoreError("task", "create", "failed to insert task", cause)

	assert.Equal(t, "create operation on task failed: failed to insert task: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("task", "delete", "no rows", nil)
	assert.Equal(t, "delete operation on task failed: no rows", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
