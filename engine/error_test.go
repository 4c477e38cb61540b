package engine

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	err := NotFound("volume %s not found", "test")
	require.True(t, IsNotFound(err))
	require.False(t, IsInvalidData(err))
	require.Equal(t, "volume test not found", err.Error())

	wrapped := fmt.Errorf("stat: %w", InvalidData("bad path"))
	require.True(t, IsInvalidData(wrapped))
	require.Equal(t, "bad path", Message(wrapped))

	require.Equal(t, KindInternal, KindOf(io.EOF))
	require.False(t, IsNotFound(nil))
}

func TestErrorInternal(t *testing.T) {
	err := Internal(io.ErrUnexpectedEOF, "reading blob")
	require.Equal(t, KindInternal, KindOf(err))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, "reading blob: unexpected EOF", err.Error())
}

func TestConflictMode(t *testing.T) {
	require.True(t, ConflictSkip.IsValid())
	require.True(t, ConflictReplace.IsValid())
	require.True(t, ConflictRename.IsValid())
	require.False(t, ConflictMode("merge").IsValid())
	require.False(t, ConflictMode("").IsValid())
}
