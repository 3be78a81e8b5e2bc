package pool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "invalid argument",
			err:   newError(KindInvalidArgument, "mb must be > 0"),
			check: IsInvalidArgument,
		},
		{
			name:  "limit exceeded",
			err:   newError(KindLimitExceeded, "grow of %d MB exceeds per-call limit of %d MB", 5000, 4096),
			check: IsLimitExceeded,
		},
		{
			name:  "allocation failure",
			err:   &Error{Kind: KindAllocationFailure, Message: "memory reservation failed"},
			check: IsAllocationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrorKindChecks_OtherErrors(t *testing.T) {
	plain := errors.New("something else")
	assert.False(t, IsInvalidArgument(plain))
	assert.False(t, IsLimitExceeded(plain))
	assert.False(t, IsAllocationFailure(plain))

	wrongKind := newError(KindInvalidArgument, "mb must be > 0")
	assert.False(t, IsLimitExceeded(wrongKind))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("mmap: cannot allocate memory")
	err := &Error{Kind: KindAllocationFailure, Message: "memory reservation failed", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "memory reservation failed")
	assert.Contains(t, err.Error(), "cannot allocate memory")

	wrapped := fmt.Errorf("grow: %w", err)
	var poolErr *Error
	assert.ErrorAs(t, wrapped, &poolErr)
	assert.Equal(t, KindAllocationFailure, poolErr.Kind)
}
