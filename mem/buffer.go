package mem

import (
	"bytes"
	"io"
)

type Buffer struct {
	data bytes.Buffer
}

// Len returns the length of the buffer.
func (b *Buffer) Len() int {
	return b.data.Len()
}

// Cap returns the capacity of the buffer.
func (b *Buffer) Cap() int {
	return b.data.Cap()
}

// Bytes returns the buffer, but keeps ownership.
func (b *Buffer) Bytes() []byte {
	return b.data.Bytes()
}

// WriteTo writes the bytes to the writer and empties the buffer.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	return b.data.WriteTo(w)
}

// Reset empties the buffer and keeps its capacity.
func (b *Buffer) Reset() {
	b.data.Reset()
}

// Write appends to the buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.data.Write(p)
}

// String returns the data in the buffer as a string.
func (b *Buffer) String() string {
	return b.data.String()
}
