package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liberrors "github.com/libragen/libragen/internal/errors"
)

func TestIsMatchesByKind(t *testing.T) {
	err := liberrors.New(liberrors.KindNotFound, "library foo not found")
	assert.True(t, liberrors.Is(err, liberrors.KindNotFound))
	assert.False(t, liberrors.Is(err, liberrors.KindAlreadyInstalled))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := liberrors.Wrap(liberrors.KindIOError, "failed to write artifact", cause)
	require.Error(t, err)
	assert.Same(t, cause, stderrors.Unwrap(err))
	assert.True(t, liberrors.Is(err, liberrors.KindIOError))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, liberrors.Wrap(liberrors.KindIOError, "unused", nil))
}

func TestAsExtractsStructuredError(t *testing.T) {
	wrapped := stderrors.Join(liberrors.New(liberrors.KindEmptyIndex, "no chunks produced"))
	got, ok := liberrors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, liberrors.KindEmptyIndex, got.Kind)
}

func TestIsThroughChain(t *testing.T) {
	inner := liberrors.New(liberrors.KindDownloadError, "404")
	outer := liberrors.Wrap(liberrors.KindDownloadError, "fetch failed", inner)
	assert.True(t, stderrors.Is(outer, liberrors.Sentinel(liberrors.KindDownloadError)))
}
