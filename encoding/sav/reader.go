// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sav

import (
	"errors"
	"fmt"
	"io"

	"v.io/x/lib/vlog"

	"github.com/matuskosut/savvy/encoding/bgzf"
	"github.com/matuskosut/savvy/varint"
)

// readerState is the reader's sticky good/fail/bad triad: Reading until a
// clean EOF or a format/IO error is observed, after which all further
// Read calls return false without advancing the stream.
type readerState int

const (
	stateReading readerState = iota
	stateEOF
	stateFailed
)

// Reader streams markers out of a sav file in file order. Construct with
// NewReader, then call Read in a loop until it returns false; check Err
// to distinguish a clean EOF from a format or I/O failure.
type Reader struct {
	Header *Header
	format Format
	bgzf   *bgzf.Reader
	stream *varint.StreamReader
	state  readerState
	err    error
}

// NewReader opens a sav stream, parsing and memoizing its header. format
// is stored on the Reader but not consulted by Read, which always returns
// whole markers; callers shape genotypes with Genotypes and a Format of
// their own.
func NewReader(r io.Reader, format Format) (*Reader, error) {
	return NewReaderFromBGZF(bgzf.NewReader(r), format)
}

// NewReaderFromBGZF builds a Reader over an already-constructed
// bgzf.Reader, parsing the header at its current position. savindex uses
// this with a seekable bgzf.Reader (built via bgzf.NewReaderAt) so that
// later index-driven seeks can reuse the same underlying reader via
// ResetStream instead of reopening the file.
func NewReaderFromBGZF(bz *bgzf.Reader, format Format) (*Reader, error) {
	stream := varint.NewStreamReader(bz)
	h, err := readHeader(stream)
	if err != nil {
		return nil, fmt.Errorf("sav: opening reader: %w", err)
	}
	return &Reader{Header: h, format: format, bgzf: bz, stream: stream}, nil
}

// ResetStream rebinds the reader to bz -- already seeked to the start of a
// new record boundary -- clearing any EOF/Failed state, without
// re-parsing the header. It is how an indexed region reset discards a
// buffered record and resumes decoding from a new virtual offset.
func (r *Reader) ResetStream(bz *bgzf.Reader) {
	r.bgzf = bz
	r.stream = varint.NewStreamReader(bz)
	r.state = stateReading
	r.err = nil
}

// Samples returns the file's sample list, in file order.
func (r *Reader) Samples() []string { return r.Header.Samples }

// Fields returns the ordered metadata field name table.
func (r *Reader) Fields() []string { return r.Header.Fields }

// Err returns the error that put the reader into the Failed state, or nil
// if the reader is still Reading or has reached a clean EOF.
func (r *Reader) Err() error {
	if r.state == stateFailed {
		return r.err
	}
	return nil
}

// Read pulls the next marker. It returns false once the stream reaches a
// clean end-of-file or a format/I/O error is encountered; once false,
// every subsequent call also returns false without consuming more input.
func (r *Reader) Read() (*Marker, bool) {
	if r.state != stateReading {
		return nil, false
	}
	m, err := DecodeMarker(r.stream, r.Header.Chromosome, r.Header.HaplotypeCount(), r.Header.Fields)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Only a clean end-of-stream on the very first varint of a
			// record (the position) is a legitimate EOF; DecodeMarker
			// wraps every other failure, including a stream that ends
			// mid-record, as a non-io.EOF error so it falls through to
			// Failed below.
			r.state = stateEOF
			return nil, false
		}
		r.state = stateFailed
		r.err = err
		vlog.Errorf("sav: reader for %s failed: %v", r.Header.Chromosome, err)
		return nil, false
	}
	return m, true
}

// VOffset returns the virtual offset of the next record the reader will
// return, for use by an index builder walking the file linearly.
func (r *Reader) VOffset() uint64 { return r.bgzf.VOffset() }
