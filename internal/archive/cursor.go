package archive

import "encoding/binary"

// errShortBuffer is returned when a read would run past the end of the buffer.
// It deliberately does not wrap ErrCorruptEntry; callers decide how a short
// read maps onto the public error taxonomy.
type errShortBuffer struct{}

func (errShortBuffer) Error() string { return "read past end of buffer" }

// cursor is a bounds-checked reader over an in-memory byte buffer.
// All multi-byte reads are little-endian, matching the ZIP format.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// seek moves the cursor to an absolute position within the buffer.
func (c *cursor) seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return errShortBuffer{}
	}
	c.pos = pos
	return nil
}

// skip advances the cursor by n bytes.
func (c *cursor) skip(n int) error {
	if n < 0 || c.pos+n > len(c.buf) {
		return errShortBuffer{}
	}
	c.pos += n
	return nil
}

// bytes reads exactly n bytes. The returned slice aliases the underlying
// buffer and must not be modified.
func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, errShortBuffer{}
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// uint16 reads a little-endian 16-bit integer.
func (c *cursor) uint16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// uint32 reads a little-endian 32-bit integer.
func (c *cursor) uint32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
