// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bgzf

import (
	"compress/gzip"
	"fmt"
	"io"
)

// Offset is a bgzf virtual file offset: the file offset of the
// compressed block containing a byte, plus that byte's position within
// the block's decompressed payload. It packs into a uint64 as
// coffset<<16 | within, the same convention bam.gindex uses for its on-disk
// chunk boundaries.
type Offset struct {
	File  int64
	Block uint16
}

// Pack returns the uint64 virtual-offset encoding of off.
func (off Offset) Pack() uint64 {
	return uint64(off.File)<<16 | uint64(off.Block)
}

// Unpack splits a packed virtual offset into its file and block parts.
func Unpack(voffset uint64) Offset {
	return Offset{File: int64(voffset >> 16), Block: uint16(voffset & 0xffff)}
}

type byteCountingReader struct {
	r io.Reader
	n int64
}

func (c *byteCountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ReadByte makes byteCountingReader an io.ByteReader, so compress/gzip
// consumes exactly one member's bytes instead of wrapping it in a
// read-ahead bufio.Reader that would swallow the following blocks.
func (c *byteCountingReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return 0, err
	}
	c.n++
	return b[0], nil
}

// Reader decompresses a .bgzf stream one block at a time, tracking the
// virtual offset of the next byte it will return. It only requires
// io.Reader for sequential use; Seek additionally requires the
// underlying stream to be an io.ReadSeeker, as constructed by NewReaderAt.
//
// Unlike Writer, which shares the grailbio libdeflate-backed factory used
// elsewhere in this repository, Reader decompresses with the standard
// library's gzip reader: each bgzf block is by construction a single,
// complete gzip member, so no bgzf-specific trickery is needed to pull one
// off the wire, and doing so keeps Reader free of a cgo dependency for the
// read path.
type Reader struct {
	cr    *byteCountingReader
	rs    io.ReadSeeker
	block []byte
	pos   int
	start int64 // file offset of the block currently held in r.block
	err   error
}

// NewReader returns a Reader over a sequential .bgzf stream. Seek will
// fail on the result; use NewReaderAt for seekable input.
func NewReader(r io.Reader) *Reader {
	return &Reader{cr: &byteCountingReader{r: r}}
}

// NewReaderAt returns a Reader over a seekable .bgzf stream, enabling Seek.
func NewReaderAt(rs io.ReadSeeker) *Reader {
	return &Reader{cr: &byteCountingReader{r: rs}, rs: rs}
}

// VOffset returns the virtual offset of the next byte Read will return.
func (r *Reader) VOffset() uint64 {
	return Offset{File: r.start, Block: uint16(r.pos)}.Pack()
}

// Read implements io.Reader, pulling and decompressing further .bgzf
// blocks as needed.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.pos >= len(r.block) {
		if err := r.nextBlock(); err != nil {
			r.err = err
			return 0, err
		}
		if len(r.block) == 0 {
			r.err = io.EOF
			return 0, io.EOF
		}
	}
	n := copy(p, r.block[r.pos:])
	r.pos += n
	return n, nil
}

// nextBlock decompresses the next gzip member from the underlying
// stream into r.block, recording its starting file offset.
func (r *Reader) nextBlock() error {
	r.start = r.cr.n
	gz, err := gzip.NewReader(r.cr)
	if err == io.EOF {
		r.block = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("bgzf: reading block at offset %d: %w", r.start, err)
	}
	gz.Multistream(false)
	block, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("bgzf: decompressing block at offset %d: %w", r.start, err)
	}
	r.block = block
	r.pos = 0
	return nil
}

// Seek positions the reader at a virtual offset produced by a prior
// VOffset call (typically recorded in an index). It requires the Reader
// to have been constructed with NewReaderAt.
func (r *Reader) Seek(voffset uint64) error {
	if r.rs == nil {
		return fmt.Errorf("bgzf: Seek requires a seekable underlying stream")
	}
	off := Unpack(voffset)
	if _, err := r.rs.Seek(off.File, io.SeekStart); err != nil {
		return fmt.Errorf("bgzf: seeking to block offset %d: %w", off.File, err)
	}
	r.cr.n = off.File
	r.err = nil
	if err := r.nextBlock(); err != nil {
		return err
	}
	if int(off.Block) > len(r.block) {
		return fmt.Errorf("bgzf: within-block offset %d exceeds decompressed block size %d", off.Block, len(r.block))
	}
	r.pos = int(off.Block)
	return nil
}
