// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package varint

import "fmt"

// Buffer is a growable byte buffer with cursor-based reading and
// append-based writing of prefixed varints, length-prefixed strings, and raw
// bytes. It mirrors the bufferwrapper idiom used by the encoding/pam field
// codecs, generalized to the N-bit prefixed varint family.
//
// A Buffer is either being written to (via the Put* methods, growing Bytes)
// or read from (via the Take* methods, advancing the read cursor); mixing
// the two on the same instance is legal but callers are responsible for the
// sequencing.
type Buffer struct {
	Bytes []byte
	pos   int
}

// NewBuffer wraps an existing byte slice for reading.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{Bytes: b}
}

// Reset clears the buffer for reuse as a write buffer.
func (b *Buffer) Reset() {
	b.Bytes = b.Bytes[:0]
	b.pos = 0
}

// Len returns the number of unread bytes remaining.
func (b *Buffer) Len() int { return len(b.Bytes) - b.pos }

// PutUvarint appends a plain varint.
func (b *Buffer) PutUvarint(v uint64) {
	b.Bytes = EncodeUvarint(b.Bytes, v)
}

// PutPrefixed appends an n-bit prefixed varint.
func (b *Buffer) PutPrefixed(n uint, prefix, value uint64) {
	b.Bytes = Append(b.Bytes, n, prefix, value)
}

// PutString appends a length-prefixed string: varint length followed by raw
// bytes.
func (b *Buffer) PutString(s string) {
	b.PutUvarint(uint64(len(s)))
	b.Bytes = append(b.Bytes, s...)
}

// PutByte appends a single raw byte.
func (b *Buffer) PutByte(v byte) {
	b.Bytes = append(b.Bytes, v)
}

// TakeUvarint reads a plain varint at the cursor.
func (b *Buffer) TakeUvarint() (uint64, error) {
	v, n, err := DecodeUvarint(b.Bytes[b.pos:])
	if err != nil {
		return 0, err
	}
	b.pos += n
	return v, nil
}

// TakePrefixed reads an n-bit prefixed varint at the cursor.
func (b *Buffer) TakePrefixed(n uint) (prefix uint64, value uint64, err error) {
	prefix, value, consumed, err := Decode(n, b.Bytes[b.pos:])
	if err != nil {
		return 0, 0, err
	}
	b.pos += consumed
	return prefix, value, nil
}

// TakeString reads a length-prefixed string at the cursor.
func (b *Buffer) TakeString() (string, error) {
	n, err := b.TakeUvarint()
	if err != nil {
		return "", err
	}
	if uint64(b.Len()) < n {
		return "", fmt.Errorf("varint: buffer too short for string of length %d", n)
	}
	s := string(b.Bytes[b.pos : b.pos+int(n)])
	b.pos += int(n)
	return s, nil
}

// TakeByte reads a single raw byte at the cursor.
func (b *Buffer) TakeByte() (byte, error) {
	if b.Len() < 1 {
		return 0, ErrTruncated
	}
	v := b.Bytes[b.pos]
	b.pos++
	return v, nil
}

// TakeBytes reads n raw bytes at the cursor.
func (b *Buffer) TakeBytes(n int) ([]byte, error) {
	if b.Len() < n {
		return nil, ErrTruncated
	}
	v := b.Bytes[b.pos : b.pos+n]
	b.pos += n
	return v, nil
}
