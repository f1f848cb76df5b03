// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package varint

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode0BitExamples(t *testing.T) {
	assert.Equal(t, []byte{0x00}, Encode(0, 0, 0))
	assert.Equal(t, []byte{0x7F}, Encode(0, 0, 127))
	assert.Equal(t, []byte{0x80, 0x01}, Encode(0, 0, 128))
	assert.Equal(t, []byte{0xAC, 0x02}, Encode(0, 0, 300))
}

func TestEncode1BitExamples(t *testing.T) {
	assert.Equal(t, []byte{0x40}, Encode(1, 1, 0))
	assert.Equal(t, []byte{0x7F}, Encode(1, 1, 63))
	assert.Equal(t, []byte{0x80, 0x01}, Encode(1, 0, 64))
}

func TestRoundTripSweep(t *testing.T) {
	values := []uint64{0, 1, 2, 63, 64, 65, 127, 128, 300,
		1 << 20, 1<<21 - 1, 1 << 32, math.MaxUint32, math.MaxUint64, math.MaxUint64 - 1}
	for n := uint(0); n <= MaxPrefixBits; n++ {
		maxPrefix := uint64(1) << n
		for prefix := uint64(0); prefix < maxPrefix; prefix++ {
			for _, v := range values {
				buf := Encode(n, prefix, v)
				gotPrefix, gotValue, consumed, err := Decode(n, buf)
				require.NoError(t, err)
				assert.Equal(t, len(buf), consumed)
				assert.Equal(t, prefix, gotPrefix)
				assert.Equal(t, v, gotValue)
			}
		}
	}
}

func TestMinimalEncodingMonotone(t *testing.T) {
	prevLen := 0
	for shift := uint(0); shift < 64; shift++ {
		v := uint64(1) << shift
		l := Len(v)
		assert.GreaterOrEqual(t, l, prevLen)
		prevLen = l
	}
	assert.Equal(t, 1, Len(0))
}

func TestTruncatedStreamIsError(t *testing.T) {
	// Continuation bit set with nothing following.
	_, _, _, err := Decode(0, []byte{0x80})
	assert.Equal(t, ErrTruncated, err)

	_, _, _, err = Decode(0, nil)
	assert.Equal(t, ErrTruncated, err)
}

func TestOverflow(t *testing.T) {
	// 10 continuation bytes describing a value requiring a shift >= 64.
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	_, _, _, err := Decode(0, buf)
	assert.Equal(t, ErrOverflow, err)
}

func TestReadWriteByteStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, 1, 1, 63))
	require.NoError(t, WriteUvarint(&buf, 300))

	br := bytes.NewReader(buf.Bytes())
	prefix, value, err := Read(br, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), prefix)
	assert.Equal(t, uint64(63), value)

	v, err := ReadUvarint(br)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), v)
}

func TestBufferStringRoundTrip(t *testing.T) {
	b := &Buffer{}
	b.PutString("chr20")
	b.PutUvarint(100)
	b.PutPrefixed(1, 1, 2)

	rb := NewBuffer(b.Bytes)
	s, err := rb.TakeString()
	require.NoError(t, err)
	assert.Equal(t, "chr20", s)

	pos, err := rb.TakeUvarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pos)

	prefix, value, err := rb.TakePrefixed(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), prefix)
	assert.Equal(t, uint64(2), value)
}
