// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sav

import (
	"compress/flate"
	"fmt"
	"io"

	"github.com/grailbio/base/errorreporter"
	"v.io/x/lib/vlog"

	"github.com/matuskosut/savvy/encoding/bgzf"
	"github.com/matuskosut/savvy/varint"
)

// Writer serializes a sequence of markers under a single chromosome,
// ploidy, and sample list to a bgzf-compressed sav stream. Construct with
// NewWriter, Append markers in position order, then Close.
//
// Writer follows the pam writer's sticky-error idiom: err.Set records the
// first error and Close returns it, but a malformed Append only drops
// that one record -- it does not stop later, well-formed Append calls
// from still being written.
type Writer struct {
	header *Header
	bgzf   *bgzf.Writer
	buf    varint.Buffer
	err    errorreporter.T
	closed bool
}

// NewWriter constructs a Writer, immediately emitting the file header
// (magic+version, chromosome, ploidy, sample names, metadata field names)
// through a fresh bgzf block stream.
func NewWriter(w io.Writer, chromosome string, ploidy uint64, samples, fields []string) (*Writer, error) {
	bw, err := bgzf.NewWriter(w, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("sav: creating bgzf writer: %w", err)
	}
	sw := &Writer{
		header: &Header{Chromosome: chromosome, Ploidy: ploidy, Samples: samples, Fields: fields},
		bgzf:   bw,
	}
	writeHeader(&sw.buf, sw.header)
	if _, err := sw.bgzf.Write(sw.buf.Bytes); err != nil {
		return nil, fmt.Errorf("sav: writing header: %w", err)
	}
	sw.buf.Reset()
	vlog.VI(1).Infof("sav: opened writer for %s, ploidy %d, %d samples", chromosome, ploidy, len(samples))
	return sw, nil
}

// Append validates marker.HaplotypeCount against sample_count*ploidy and,
// if it matches, serializes and appends the marker. A mismatch sets the
// writer's sticky failure flag and the record is dropped; subsequent
// valid Append calls still succeed, per the contract-violation-on-write
// error category.
func (w *Writer) Append(m *Marker) {
	want := w.header.HaplotypeCount()
	if m.HaplotypeCount != want {
		w.err.Set(fmt.Errorf("sav: marker at %s:%d has haplotype count %d, want %d",
			m.Chromosome, m.Position, m.HaplotypeCount, want))
		return
	}
	w.buf.Reset()
	EncodeMarker(&w.buf, m, w.header.Fields)
	if _, err := w.bgzf.Write(w.buf.Bytes); err != nil {
		w.err.Set(fmt.Errorf("sav: writing marker at %s:%d: %w", m.Chromosome, m.Position, err))
	}
}

// VOffset returns the virtual offset of the next byte this Writer will
// emit, suitable for recording as a block boundary by an index builder.
func (w *Writer) VOffset() uint64 { return w.bgzf.VOffset() }

// Err returns the first error encountered by this Writer, if any.
func (w *Writer) Err() error { return w.err.Err() }

// Close flushes and terminates the underlying bgzf stream. It is an error
// to Append after Close.
func (w *Writer) Close() error {
	if w.closed {
		return w.err.Err()
	}
	w.closed = true
	w.err.Set(w.bgzf.Close())
	if err := w.err.Err(); err != nil {
		vlog.Errorf("sav: closing writer for %s: %v", w.header.Chromosome, err)
	}
	return w.err.Err()
}
