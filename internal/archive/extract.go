package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Extract reads the entry's payload and writes the uncompressed bytes to w.
//
// The entry's local file header is validated before anything is read; a
// signature mismatch or truncated header yields ErrCorruptEntry. Stored
// entries are copied verbatim, deflate entries are decoded as a raw deflate
// stream (ZIP stores deflate without a zlib wrapper) and must yield exactly
// the declared uncompressed size. Any other method is
// ErrUnsupportedCompression.
func (a *Archive) Extract(e Entry, w io.Writer) error {
	payload, err := a.readPayload(e)
	if err != nil {
		return err
	}

	switch e.Method {
	case MethodStored:
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write entry %q: %w", e.Path, err)
		}
		return nil
	case MethodDeflate:
		return inflate(e, payload, w)
	default:
		return fmt.Errorf("%w: method %d in entry %q", ErrUnsupportedCompression, e.Method, e.Path)
	}
}

// ExtractBytes is a convenience wrapper around Extract returning the payload
// in memory.
func (a *Archive) ExtractBytes(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(e.UncompressedSize))
	if err := a.Extract(e, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readPayload validates the entry's local header and reads the raw
// (still compressed) payload bytes.
func (a *Archive) readPayload(e Entry) ([]byte, error) {
	// Local header: 4-byte signature plus a 26-byte fixed block, followed by
	// the name and extra fields, then the payload itself.
	header := make([]byte, 4+localHeaderSize)
	if _, err := a.f.ReadAt(header, int64(e.LocalHeaderOffset)); err != nil {
		return nil, fmt.Errorf("%w: reading local header of %q: %v", ErrCorruptEntry, e.Path, err)
	}

	cur := newCursor(header)
	sig, err := cur.uint32()
	if err != nil || sig != sigLocalHeader {
		return nil, fmt.Errorf("%w: bad local header signature in %q", ErrCorruptEntry, e.Path)
	}

	// Name and extra lengths sit at offsets 22 and 24 of the fixed block.
	if err := cur.seek(4 + 22); err != nil {
		return nil, fmt.Errorf("%w: truncated local header in %q", ErrCorruptEntry, e.Path)
	}
	nameLen, _ := cur.uint16()
	extraLen, _ := cur.uint16()

	dataOffset := int64(e.LocalHeaderOffset) + int64(4+localHeaderSize) + int64(nameLen) + int64(extraLen)
	payload := make([]byte, e.CompressedSize)
	if _, err := a.f.ReadAt(payload, dataOffset); err != nil {
		return nil, fmt.Errorf("%w: truncated payload in %q: %v", ErrCorruptEntry, e.Path, err)
	}
	return payload, nil
}

// inflate decodes a raw deflate payload, requiring exactly the declared
// uncompressed size.
func inflate(e Entry, payload []byte, w io.Writer) error {
	// A zero declared size short-circuits; the decompressor never runs.
	if e.UncompressedSize == 0 {
		return nil
	}

	fr := flate.NewReader(bytes.NewReader(payload))
	defer fr.Close()

	out := make([]byte, e.UncompressedSize)
	if _, err := io.ReadFull(fr, out); err != nil {
		return fmt.Errorf("%w: entry %q yielded fewer than %d bytes: %v", ErrDecompress, e.Path, e.UncompressedSize, err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write entry %q: %w", e.Path, err)
	}
	return nil
}
