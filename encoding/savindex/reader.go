// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package savindex

import (
	"fmt"
	"os"

	"github.com/matuskosut/savvy/encoding/bgzf"
	"github.com/matuskosut/savvy/encoding/sav"
)

// IndexedReader supports region-bounded, random-access reads over a sav
// file using a companion index produced by CreateIndex. Construct with
// Open and an initial region, then Read in a loop; call ResetRegion to
// jump to a different region without reopening the file.
type IndexedReader struct {
	f     *os.File
	bz    *bgzf.Reader
	sav   *sav.Reader
	idx   *Index
	chrom string
	begin uint64
	end   uint64
	empty bool
}

// Open opens path and its companion path+".savi" index, and positions the
// reader at the given initial region.
func Open(path string, format sav.Format, chrom string, begin, end uint64) (*IndexedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("savindex: opening %s: %w", path, err)
	}
	idxFile, err := os.Open(path + ".savi")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("savindex: opening index for %s: %w", path, err)
	}
	defer idxFile.Close()
	idx, err := ReadIndex(idxFile)
	if err != nil {
		f.Close()
		return nil, err
	}

	bz := bgzf.NewReaderAt(f)
	sr, err := sav.NewReaderFromBGZF(bz, format)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("savindex: reading header of %s: %w", path, err)
	}

	ir := &IndexedReader{f: f, bz: bz, sav: sr, idx: idx}
	if err := ir.ResetRegion(chrom, begin, end); err != nil {
		f.Close()
		return nil, err
	}
	return ir, nil
}

// ResetRegion seeks the reader to the start of a new region, discarding
// any previously buffered record, per the indexed reader's read semantics
// after reset. An unresolvable region (chromosome not present in the
// index) leaves the reader positioned to return no further records --
// an empty result, not an error.
func (ir *IndexedReader) ResetRegion(chrom string, begin, end uint64) error {
	ir.chrom, ir.begin, ir.end = chrom, begin, end
	voffset, ok := ir.idx.Query(chrom, begin)
	if !ok {
		ir.empty = true
		return nil
	}
	ir.empty = false
	if err := ir.bz.Seek(voffset); err != nil {
		return fmt.Errorf("savindex: seeking to region %s:%d-%d: %w", chrom, begin, end, err)
	}
	ir.sav.ResetStream(ir.bz)
	return nil
}

// Read returns the next record within the current region, in position
// order, filtering out markers that fall outside [begin, end] or belong
// to a different chromosome than the sav file's single header
// chromosome. It returns false once the region is exhausted.
func (ir *IndexedReader) Read() (*sav.Marker, bool) {
	if ir.empty {
		return nil, false
	}
	for {
		m, ok := ir.sav.Read()
		if !ok {
			return nil, false
		}
		if m.Chromosome != ir.chrom {
			return nil, false
		}
		if m.Position < ir.begin {
			continue
		}
		if m.Position > ir.end {
			return nil, false
		}
		return m, true
	}
}

// Err returns the underlying sav.Reader's sticky error, if any.
func (ir *IndexedReader) Err() error { return ir.sav.Err() }

// Close releases the underlying file handle.
func (ir *IndexedReader) Close() error { return ir.f.Close() }
