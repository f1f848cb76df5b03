// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package varint

import "io"

// TakeReader is the decode-side surface shared by Buffer (in-memory) and
// StreamReader (streaming over an io.Reader): whatever consumes encoded
// markers or headers is written against this interface so it works
// against either a fully-buffered record or a live file stream.
type TakeReader interface {
	TakeUvarint() (uint64, error)
	TakeString() (string, error)
	TakePrefixed(n uint) (prefix, value uint64, err error)
	TakeBytes(n int) ([]byte, error)
}

// byteReader adapts an io.Reader to io.ByteReader one byte at a time,
// since most Readers handed to StreamReader (a bgzf.Reader, in
// particular) don't implement ReadByte themselves.
type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return 0, err
	}
	return b.buf[0], nil
}

// StreamReader is a TakeReader over a live io.Reader, for decoding a sav
// file's header and markers directly off a decompressing bgzf.Reader
// without first materializing the whole stream in memory.
type StreamReader struct {
	r  io.Reader
	br io.ByteReader
}

// NewStreamReader wraps r for streaming varint decoding.
func NewStreamReader(r io.Reader) *StreamReader {
	sr := &StreamReader{r: r}
	if br, ok := r.(io.ByteReader); ok {
		sr.br = br
	} else {
		sr.br = &byteReader{r: r}
	}
	return sr
}

// TakeUvarint reads a plain varint from the stream.
func (s *StreamReader) TakeUvarint() (uint64, error) {
	return ReadUvarint(s.br)
}

// TakePrefixed reads an n-bit prefixed varint from the stream.
func (s *StreamReader) TakePrefixed(n uint) (uint64, uint64, error) {
	return Read(s.br, n)
}

// TakeString reads a length-prefixed string from the stream.
func (s *StreamReader) TakeString() (string, error) {
	n, err := s.TakeUvarint()
	if err != nil {
		return "", err
	}
	buf, err := s.TakeBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// TakeBytes reads n raw bytes from the stream.
func (s *StreamReader) TakeBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
