package log

import (
	"testing"

	"github.com/slickfs/gateway/log"

	"github.com/stretchr/testify/require"
)

func TestWrapper(t *testing.T) {
	buffer := log.NewBufferWriter(log.Ldebug, 10)
	w := NewWrapper(log.New("HTTP").WithOutput(buffer))

	n, err := w.Write([]byte(`{"level":"WARN","message":"first\nsecond"}`))
	require.NoError(t, err)
	require.Equal(t, 42, n)

	_, err = w.Write([]byte("plain text\n"))
	require.NoError(t, err)

	events := buffer.Events()
	require.Equal(t, 3, len(events))

	require.Equal(t, "first", events[0].Message)
	require.Equal(t, log.Lwarn, events[0].Level)
	require.Equal(t, "second", events[1].Message)
	require.Equal(t, "plain text", events[2].Message)
	require.Equal(t, log.Linfo, events[2].Level)
}
