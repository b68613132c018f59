package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_LittleEndianReads(t *testing.T) {
	cur := newCursor([]byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12})

	v16, err := cur.uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v16)

	v32, err := cur.uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v32)

	assert.Equal(t, 0, cur.remaining())
}

func TestCursor_BoundsChecks(t *testing.T) {
	cur := newCursor([]byte{0x01, 0x02, 0x03})

	// A u32 does not fit in 3 bytes.
	_, err := cur.uint32()
	assert.Error(t, err)

	// The failed read must not advance the cursor.
	v16, err := cur.uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v16)

	assert.Error(t, cur.skip(2))
	assert.Error(t, cur.seek(4))
	assert.Error(t, cur.seek(-1))

	require.NoError(t, cur.seek(0))
	b, err := cur.bytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, b)

	_, err = cur.bytes(1)
	assert.Error(t, err)
}
