package binreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedWidth(t *testing.T) {
	b := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	v, err := b.ReadByte()
	assert.NoError(t, err)
	assert.Equal(t, byte(0x01), v)

	b2 := New([]byte{0x00, 0x0a})
	short, err := b2.ReadShort()
	assert.NoError(t, err)
	assert.Equal(t, uint16(10), short)

	b3 := New([]byte{0xff, 0xff, 0xff, 0xff})
	i, err := b3.ReadInt()
	assert.NoError(t, err)
	assert.Equal(t, int32(-1), i)

	b4 := New([]byte{0, 0, 0, 0, 0, 0, 0, 42})
	l, err := b4.ReadLong()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), l)
}

func TestReadPastEndFails(t *testing.T) {
	b := New([]byte{0x01})
	_, err := b.ReadShort()
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestUnsignedVarint(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  uint32
	}{
		{"single byte", []byte{0x05}, 5},
		{"two bytes", []byte{0x80 | 0x7f, 0x01}, 0x7f | (1 << 7)},
		{"zero", []byte{0x00}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := New(tc.bytes)
			got, err := b.ReadUnsignedVarint()
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSignedVarint(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  int32
	}{
		{"positive single byte", []byte{0x05}, 5},
		{"negative single byte", []byte{0x45}, -5}, // 0x40 sign bit | 5
		{"negative multi byte", []byte{0x80 | 0x01, 0x41}, -(0x01 | (1 << 7))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := New(tc.bytes)
			got, err := b.ReadSignedVarint()
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUTF8String(t *testing.T) {
	// length-prefixed "hi": varint(2) followed by 'h','i'
	b := New([]byte{0x02, 'h', 'i'})
	s, err := b.ReadUTF8String()
	assert.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestSkipAndSeek(t *testing.T) {
	b := New([]byte{1, 2, 3, 4})
	assert.NoError(t, b.Skip(2))
	assert.Equal(t, 2, b.Position())
	assert.NoError(t, b.Seek(0))
	v, err := b.ReadByte()
	assert.NoError(t, err)
	assert.Equal(t, byte(1), v)

	assert.Error(t, b.Seek(-1))
	assert.Error(t, b.Skip(100))
}
