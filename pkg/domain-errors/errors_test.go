package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, CodeConflict, "already present")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Contains(t, err.Error(), "already present")
	assert.Contains(t, err.Error(), "boom")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHasCode(t *testing.T) {
	inner := New(CodeNotFound, "missing")
	outer := Wrap(inner, CodeInternal, "lookup failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound), "inner codes stay visible")
	assert.False(t, HasCode(outer, CodeForbidden))
	assert.False(t, HasCode(nil, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("context: %w", New(CodeValidation, "bad input"))
	assert.True(t, HasCode(err, CodeValidation))
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
