// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package savindex implements a companion index for sav files, giving
// indexed random-access readers a way to seek directly to the bgzf block
// containing a given genomic position instead of scanning the file from
// the start.
//
// The on-disk format is adapted from the teacher's .gbai format
// (encoding/bam.GIndex): a gzip-wrapped, sorted sequence of (position,
// bgzf virtual offset) entries, sampled at a configurable byte interval
// rather than one entry per record. Unlike .bai's two-level bin+interval
// scheme, a sav file covers exactly one chromosome (per the file header),
// so one flat sorted index suffices; lookups use a left-leaning
// red-black tree (github.com/biogo/store/llrb, the same structure
// encoding/bampair uses for its shard lookup) to find the greatest
// indexed position at or before the query's start coordinate.
package savindex

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"

	"github.com/matuskosut/savvy/encoding/sav"
	"github.com/matuskosut/savvy/varint"
)

// DefaultByteInterval is the default spacing, in compressed bytes,
// between consecutive index entries -- the same default WriteGIndex uses
// for .gbai shards.
const DefaultByteInterval = 65536

var indexMagic = [8]byte{'s', 'a', 'v', 'i', 0x00, 0x01, 0x00, 0x00}

// entry is one (position, bgzf virtual offset) sample, and doubles as the
// llrb.Comparable key used for Floor lookups.
type entry struct {
	position uint64
	voffset  uint64
}

func (e entry) Compare(c llrb.Comparable) int {
	o := c.(entry)
	switch {
	case e.position < o.position:
		return -1
	case e.position > o.position:
		return 1
	default:
		return 0
	}
}

// Index maps genomic positions on a single chromosome to bgzf virtual
// offsets into the sav file that produced it.
type Index struct {
	Chromosome string
	entries    []entry
	tree       llrb.Tree
}

func newIndex(chromosome string) *Index {
	return &Index{Chromosome: chromosome}
}

func (idx *Index) add(position, voffset uint64) {
	e := entry{position: position, voffset: voffset}
	idx.entries = append(idx.entries, e)
	idx.tree.Insert(e)
}

// Query resolves a region query to the bgzf virtual offset an
// IndexedReader should seek to before scanning forward and filtering by
// position; ok is false when chrom does not match this index's single
// chromosome, which per the region-not-found error category is an empty
// result, not an error.
func (idx *Index) Query(chrom string, begin uint64) (voffset uint64, ok bool) {
	if chrom != idx.Chromosome || len(idx.entries) == 0 {
		return 0, false
	}
	c := idx.tree.Floor(entry{position: begin})
	if c == nil {
		// begin precedes every sampled position; start from the first
		// record in the file and let the caller's linear filter do the
		// rest.
		return idx.entries[0].voffset, true
	}
	return c.(entry).voffset, true
}

// CreateIndex scans the already-written sav file at path and writes a
// companion index to path+".savi". It is the static writer-side index
// operation named by the container's indexed-random-access contract.
func CreateIndex(path string) error {
	return CreateIndexWithInterval(path, DefaultByteInterval)
}

// CreateIndexWithInterval is CreateIndex with an explicit sampling
// interval, exposed for tests that want a denser index than
// DefaultByteInterval would produce over a small fixture file.
func CreateIndexWithInterval(path string, byteInterval int) error {
	ctx := vcontext.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("savindex: opening %s: %w", path, err)
	}
	defer f.Close(ctx)

	r, err := sav.NewReader(f.Reader(ctx), sav.Allele)
	if err != nil {
		return fmt.Errorf("savindex: reading header of %s: %w", path, err)
	}

	idx := newIndex(r.Header.Chromosome)
	lastIndexedFile := int64(-1)
	for {
		voffset := r.VOffset()
		m, ok := r.Read()
		if !ok {
			break
		}
		fileOffset := int64(voffset >> 16)
		if len(idx.entries) == 0 || fileOffset-lastIndexedFile >= int64(byteInterval) {
			idx.add(m.Position, voffset)
			lastIndexedFile = fileOffset
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("savindex: scanning %s: %w", path, err)
	}

	out, err := file.Create(ctx, path+".savi")
	if err != nil {
		return fmt.Errorf("savindex: creating index for %s: %w", path, err)
	}
	defer out.Close(ctx)
	return writeIndex(out.Writer(ctx), idx)
}

func writeIndex(w io.Writer, idx *Index) error {
	var buf varint.Buffer
	buf.Bytes = append(buf.Bytes, indexMagic[:]...)
	buf.PutString(idx.Chromosome)
	buf.PutUvarint(uint64(len(idx.entries)))
	for _, e := range idx.entries {
		buf.PutUvarint(e.position)
		buf.PutUvarint(e.voffset)
	}
	gz := gzip.NewWriter(w)
	if _, err := gz.Write(buf.Bytes); err != nil {
		return err
	}
	return gz.Close()
}

// ReadIndex parses an index file previously produced by CreateIndex.
func ReadIndex(r io.Reader) (*Index, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("savindex: %w", err)
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("savindex: %w", err)
	}
	buf := varint.NewBuffer(raw)
	got, err := buf.TakeBytes(8)
	if err != nil {
		return nil, fmt.Errorf("savindex: reading magic: %w", err)
	}
	var gotArr [8]byte
	copy(gotArr[:], got)
	if gotArr != indexMagic {
		return nil, fmt.Errorf("savindex: bad magic %x", got)
	}
	chrom, err := buf.TakeString()
	if err != nil {
		return nil, fmt.Errorf("savindex: reading chromosome: %w", err)
	}
	count, err := buf.TakeUvarint()
	if err != nil {
		return nil, fmt.Errorf("savindex: reading entry count: %w", err)
	}
	idx := newIndex(chrom)
	for i := uint64(0); i < count; i++ {
		pos, err := buf.TakeUvarint()
		if err != nil {
			return nil, fmt.Errorf("savindex: reading entry %d position: %w", i, err)
		}
		voffset, err := buf.TakeUvarint()
		if err != nil {
			return nil, fmt.Errorf("savindex: reading entry %d voffset: %w", i, err)
		}
		idx.add(pos, voffset)
	}
	return idx, nil
}
