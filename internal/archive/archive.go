// Package archive reads ZIP container files (EPUB and friends) without
// depending on archive/zip, so that index parsing, entry lookup, and payload
// extraction stay fully under our control. Only stored and deflate entries
// are supported; writing, multi-disk archives, and encryption are not.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ZIP structure signatures, little-endian on the wire.
const (
	sigEOCD          uint32 = 0x06054B50 // end of central directory
	sigCentralHeader uint32 = 0x02014B50 // central directory file header
	sigLocalHeader   uint32 = 0x04034B50 // local file header
)

const (
	// eocdMinSize is the size of an EOCD record with an empty comment.
	eocdMinSize = 22
	// maxCommentSize is the largest possible archive comment (u16 length).
	maxCommentSize = 65535
	// centralHeaderSize is the fixed part of a central directory file header
	// after its 4-byte signature.
	centralHeaderSize = 42
	// localHeaderSize is the fixed part of a local file header after its
	// 4-byte signature.
	localHeaderSize = 26
)

// Compression methods supported for extraction.
const (
	MethodStored  uint16 = 0
	MethodDeflate uint16 = 8
)

// Sentinel errors for the failure modes callers are expected to distinguish.
var (
	// ErrNotArchive means no end-of-central-directory signature was found;
	// the file is not a ZIP container.
	ErrNotArchive = errors.New("no end of central directory signature found")
	// ErrCorruptEntry means an entry's local header failed validation or was
	// truncated.
	ErrCorruptEntry = errors.New("corrupt archive entry")
	// ErrUnsupportedCompression means the entry uses a compression method
	// other than stored or deflate.
	ErrUnsupportedCompression = errors.New("unsupported compression method")
	// ErrDecompress means the deflate stream produced fewer bytes than the
	// central directory declared.
	ErrDecompress = errors.New("decompression failed")
)

// Entry describes a single file inside the archive, as recorded in the
// central directory. Entries are immutable once parsed and preserve central
// directory order.
type Entry struct {
	// Path is the forward-slash separated name, decoded as UTF-8 with
	// replacement of invalid sequences.
	Path string
	// Method is the compression method (MethodStored or MethodDeflate for
	// anything we can extract).
	Method uint16
	// CompressedSize is the payload size as stored in the archive.
	CompressedSize uint32
	// UncompressedSize is the declared size after decompression.
	UncompressedSize uint32
	// LocalHeaderOffset is the absolute file offset of the entry's local
	// file header.
	LocalHeaderOffset uint32
}

// IsDir reports whether the entry is a directory placeholder.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Path, "/")
}

// Archive is an open ZIP container. It owns the underlying file handle until
// Close is called.
//
// Concurrency: Extract performs positional reads against a single file
// handle; concurrent Extract calls on the same Archive must be serialized by
// the caller, or each worker should open its own Archive.
type Archive struct {
	f       *os.File
	size    int64
	entries []Entry
}

// Open opens a ZIP container and parses its full index. The file handle is
// released on every failure path; on success it is held until Close.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	a := &Archive{f: f, size: info.Size()}
	if err := a.parseIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the underlying file handle.
func (a *Archive) Close() error {
	return a.f.Close()
}

// Entries returns all entries in central directory order. The returned slice
// must not be modified.
func (a *Archive) Entries() []Entry {
	return a.entries
}

// Lookup finds an entry by exact path. When the archive contains duplicate
// paths the first entry in central directory order wins.
func (a *Archive) Lookup(path string) (Entry, bool) {
	for _, e := range a.entries {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}

// parseIndex locates the EOCD record, follows it to the central directory,
// and builds the ordered entry list.
func (a *Archive) parseIndex() error {
	// The EOCD lives in the trailing window of the file: its 22 fixed bytes
	// plus at most a 65535-byte comment.
	windowSize := a.size
	if max := int64(eocdMinSize + maxCommentSize); windowSize > max {
		windowSize = max
	}
	window := make([]byte, windowSize)
	windowStart := a.size - windowSize
	if _, err := a.f.ReadAt(window, windowStart); err != nil && err != io.EOF {
		return fmt.Errorf("read archive tail: %w", err)
	}

	eocdPos := findEOCD(window)
	if eocdPos < 0 {
		return ErrNotArchive
	}

	cur := newCursor(window)
	// Central directory start offset sits 16 bytes past the signature.
	if err := cur.seek(eocdPos + 16); err != nil {
		return ErrNotArchive
	}
	cdOffset, err := cur.uint32()
	if err != nil {
		return ErrNotArchive
	}

	return a.parseCentralDirectory(int64(cdOffset))
}

// findEOCD scans the window backward for the EOCD signature and returns the
// offset of the match nearest the end, or -1. Scanning backward guards
// against coincidental signature bytes inside the archive comment.
func findEOCD(window []byte) int {
	for i := len(window) - eocdMinSize; i >= 0; i-- {
		if window[i] == 0x50 && window[i+1] == 0x4B && window[i+2] == 0x05 && window[i+3] == 0x06 {
			return i
		}
	}
	return -1
}

// parseCentralDirectory reads central directory file headers starting at
// offset until a non-header signature marks the end of the index.
func (a *Archive) parseCentralDirectory(offset int64) error {
	if offset < 0 || offset > a.size {
		return fmt.Errorf("%w: central directory offset %d out of range", ErrNotArchive, offset)
	}

	// The central directory runs from its start offset to the EOCD near the
	// file end, so reading the remainder of the file covers it entirely.
	buf := make([]byte, a.size-offset)
	if _, err := a.f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return fmt.Errorf("read central directory: %w", err)
	}

	cur := newCursor(buf)
	var entries []Entry
	for cur.remaining() >= 4 {
		sig, err := cur.uint32()
		if err != nil {
			break
		}
		if sig != sigCentralHeader {
			// Any other signature (EOCD, digital signature, garbage) marks
			// the end of the central directory, not an error.
			break
		}

		entry, err := parseCentralHeader(cur)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	a.entries = entries
	return nil
}

// parseCentralHeader decodes one central directory file header. The cursor
// is positioned just past the 4-byte signature.
func parseCentralHeader(cur *cursor) (Entry, error) {
	record, err := cur.bytes(centralHeaderSize)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: truncated central directory header", ErrNotArchive)
	}

	rec := newCursor(record)
	var entry Entry
	if err := rec.skip(6); err != nil {
		return Entry{}, fmt.Errorf("%w: truncated central directory header", ErrNotArchive)
	}
	entry.Method, _ = rec.uint16() // @6
	if err := rec.seek(16); err != nil {
		return Entry{}, fmt.Errorf("%w: truncated central directory header", ErrNotArchive)
	}
	entry.CompressedSize, _ = rec.uint32()   // @16
	entry.UncompressedSize, _ = rec.uint32() // @20
	nameLen, _ := rec.uint16()               // @24
	extraLen, _ := rec.uint16()              // @26
	commentLen, _ := rec.uint16()            // @28
	if err := rec.seek(38); err != nil {
		return Entry{}, fmt.Errorf("%w: truncated central directory header", ErrNotArchive)
	}
	entry.LocalHeaderOffset, _ = rec.uint32() // @38

	name, err := cur.bytes(int(nameLen))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: truncated entry name", ErrNotArchive)
	}
	entry.Path = strings.ToValidUTF8(string(name), "�")

	if err := cur.skip(int(extraLen) + int(commentLen)); err != nil {
		return Entry{}, fmt.Errorf("%w: truncated entry extra/comment", ErrNotArchive)
	}
	return entry, nil
}
