package textenc

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ASCII(t *testing.T) {
	// Pure 7-bit ASCII is valid UTF-8, so the first candidate wins.
	res, err := Decode([]byte("Chapter 1\nIt was a dark and stormy night.\n"))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, res.Encoding)
	assert.Equal(t, "Chapter 1\nIt was a dark and stormy night.\n", res.Text)
}

func TestDecode_UTF8Multibyte(t *testing.T) {
	res, err := Decode([]byte("第一章 起风了\n她说：你好。\n"))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, res.Encoding)
	assert.Contains(t, res.Text, "起风了")
}

func TestDecode_UTF16WithBOM(t *testing.T) {
	text := "第一章\nhello\n"
	units := utf16.Encode([]rune(text))
	// Little-endian with BOM.
	buf := []byte{0xFF, 0xFE}
	for _, u := range units {
		buf = append(buf, byte(u), byte(u>>8))
	}

	res, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF16, res.Encoding)
	assert.Equal(t, text, res.Text)
}

func TestDecode_UTF16BigEndianWithBOM(t *testing.T) {
	text := "卷一\n"
	units := utf16.Encode([]rune(text))
	buf := []byte{0xFE, 0xFF}
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}

	res, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF16, res.Encoding)
	assert.Equal(t, text, res.Text)
}

func TestDecode_Latin1Fallback(t *testing.T) {
	// "résumé" in ISO-8859-1: invalid UTF-8, odd length rules out UTF-16,
	// no BOM, not ASCII.
	data := []byte{'r', 0xE9, 's', 'u', 'm', 0xE9, '\n'}

	res, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, EncodingLatin1, res.Encoding)
	assert.Equal(t, "résumé\n", res.Text)
}

func TestDecode_Empty(t *testing.T) {
	res, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, res.Encoding)
	assert.Empty(t, res.Text)
}

func TestDecode_PriorityOrderIsFixed(t *testing.T) {
	want := []string{
		EncodingUTF8,
		EncodingUTF16,
		EncodingUnicodeBOM,
		EncodingASCII,
		EncodingLatin1,
		EncodingShiftJIS,
	}
	require.Len(t, candidates, len(want))
	for i, c := range candidates {
		assert.Equal(t, want[i], c.name)
	}
}
