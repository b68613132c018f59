// Package textenc decodes raw ebook bytes into text by trying a fixed
// priority list of encodings.
package textenc

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUndecodable is returned when no candidate encoding decodes the input.
// ISO-8859-1 accepts any byte sequence, so hitting this in practice points
// at a bug rather than at unusual input.
var ErrUndecodable = errors.New("text not decodable by any supported encoding")

// Result is a successful decode: the text plus the name of the first
// encoding in priority order that accepted the bytes.
type Result struct {
	Text     string
	Encoding string
}

// Encoding names reported in Result.Encoding.
const (
	EncodingUTF8       = "utf-8"
	EncodingUTF16      = "utf-16"
	EncodingUnicodeBOM = "unicode-bom"
	EncodingASCII      = "us-ascii"
	EncodingLatin1     = "iso-8859-1"
	EncodingShiftJIS   = "shift_jis"
)

type candidate struct {
	name   string
	decode func(data []byte) (string, bool)
}

// candidates is the fixed priority order. Order is load-bearing: the first
// encoding that decodes without loss wins.
var candidates = []candidate{
	{EncodingUTF8, decodeUTF8},
	{EncodingUTF16, decodeUTF16},
	{EncodingUnicodeBOM, decodeBOM},
	{EncodingASCII, decodeASCII},
	{EncodingLatin1, decodeLatin1},
	{EncodingShiftJIS, decodeShiftJIS},
}

// Decode tries each candidate encoding in priority order and returns the
// first successful decoding.
func Decode(data []byte) (Result, error) {
	for _, c := range candidates {
		if text, ok := c.decode(data); ok {
			return Result{Text: text, Encoding: c.name}, nil
		}
	}
	return Result{}, ErrUndecodable
}

func decodeUTF8(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

func decodeUTF16(data []byte) (string, bool) {
	if len(data)%2 != 0 {
		return "", false
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	return decodeStrict(enc, data)
}

// decodeBOM decodes input that carries an explicit byte order mark, letting
// the BOM pick between UTF-8 and either UTF-16 flavor.
func decodeBOM(data []byte) (string, bool) {
	if !hasBOM(data) {
		return "", false
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeASCII(data []byte) (string, bool) {
	for _, b := range data {
		if b >= 0x80 {
			return "", false
		}
	}
	return string(data), true
}

func decodeLatin1(data []byte) (string, bool) {
	// Every byte is a defined ISO-8859-1 code point; this cannot fail.
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeShiftJIS(data []byte) (string, bool) {
	return decodeStrict(japanese.ShiftJIS, data)
}

// decodeStrict decodes with enc and treats any replacement rune introduced
// by the decoder as a failed decode, since x/text decoders substitute
// U+FFFD instead of erroring on invalid input.
func decodeStrict(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	text := string(out)
	if strings.ContainsRune(text, utf8.RuneError) && !bytes.Contains(data, []byte("�")) {
		return "", false
	}
	return text, true
}

func hasBOM(data []byte) bool {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return true // UTF-8 BOM
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return true // UTF-16 BE BOM
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return true // UTF-16 LE BOM
	default:
		return false
	}
}
