package tplparse

import (
	"fmt"

	"fortio.org/safecast"

	"templint/internal/source"
)

// Cursor is a byte position inside a template file.
type Cursor struct {
	File *source.File
	Off  uint32
}

// NewCursor creates a cursor at the start of the file.
func NewCursor(f *source.File) Cursor {
	// Content length must fit the span type up front.
	if _, err := safecast.Conv[uint32](len(f.Content)); err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{File: f, Off: 0}
}

func (c *Cursor) limit() uint32 {
	return uint32(len(c.File.Content))
}

// EOF reports whether the end of the file was reached.
func (c *Cursor) EOF() bool {
	return c.Off >= c.limit()
}

// Peek reads the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt reads the byte n positions ahead, or 0 past EOF.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.limit() {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// Bump advances by one byte and returns the byte read.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// Match consumes s when the input starts with it at the current offset.
func (c *Cursor) Match(s string) bool {
	if !c.Has(s) {
		return false
	}
	c.Off += uint32(len(s))
	return true
}

// Has reports whether the input starts with s at the current offset.
func (c *Cursor) Has(s string) bool {
	end := c.Off + uint32(len(s))
	if end > c.limit() {
		return false
	}
	return string(c.File.Content[c.Off:end]) == s
}

// SkipWhitespace consumes spaces, tabs and newlines.
func (c *Cursor) SkipWhitespace() {
	for !c.EOF() {
		switch c.Peek() {
		case ' ', '\t', '\n', '\r':
			c.Off++
		default:
			return
		}
	}
}

// Slice returns the text between two offsets.
func (c *Cursor) Slice(start, end uint32) string {
	return string(c.File.Content[start:end])
}

// SpanFrom builds a span from start to the current offset.
func (c *Cursor) SpanFrom(start uint32) source.Span {
	return source.Span{File: c.File.ID, Start: start, End: c.Off}
}
