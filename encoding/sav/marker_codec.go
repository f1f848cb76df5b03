// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sav

import (
	"errors"
	"fmt"
	"io"

	"github.com/matuskosut/savvy/allele"
	"github.com/matuskosut/savvy/varint"
)

// statusPrefixBits is the width of the prefix field packed into the
// non_ref delta varint: one bit is enough to distinguish has_alt from
// is_missing, per spec's rationale that "for SAV markers N = 1 suffices".
const statusPrefixBits = 1

// EncodeMarker appends the wire encoding of m to buf. fields is the
// file-level ordered metadata field name table (from the sav header); a
// value is written for every declared field, empty if m has no such
// property.
func EncodeMarker(buf *varint.Buffer, m *Marker, fields []string) {
	buf.PutUvarint(m.Position)
	buf.PutString(m.Ref)
	buf.PutString(m.Alt)
	for _, f := range fields {
		v, _ := m.Property(f)
		buf.PutString(v)
	}
	entries := m.NonRef.Entries()
	buf.PutUvarint(uint64(len(entries)))
	var prevOffset int64 = -1
	for _, e := range entries {
		delta := int64(e.Offset) - prevOffset - 1
		prevOffset = int64(e.Offset)
		buf.PutPrefixed(statusPrefixBits, uint64(allele.ToSparseBit(e.Status)), uint64(delta))
	}
}

// DecodeMarker reads one marker from buf. chromosome and haplotypeCount are
// supplied by the caller (the file header, for sav), since neither is
// stored per-record. fields is the same ordered metadata field table
// EncodeMarker was called with. The running offset is bounds-checked
// against haplotypeCount as it is reconstructed, per the marker
// deserialization contract. Only an end of stream before the position
// surfaces as io.EOF; an end of stream anywhere later in the record is
// reported as io.ErrUnexpectedEOF.
func DecodeMarker(buf varint.TakeReader, chromosome string, haplotypeCount uint64, fields []string) (_ *Marker, err error) {
	position, err := buf.TakeUvarint()
	if err != nil {
		return nil, fmt.Errorf("sav: decode marker position: %w", err)
	}
	defer func() {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("sav: marker at %s:%d is truncated (%v): %w", chromosome, position, err, io.ErrUnexpectedEOF)
		}
	}()
	ref, err := buf.TakeString()
	if err != nil {
		return nil, fmt.Errorf("sav: decode marker ref: %w", err)
	}
	alt, err := buf.TakeString()
	if err != nil {
		return nil, fmt.Errorf("sav: decode marker alt: %w", err)
	}
	var properties []KV
	for _, f := range fields {
		v, err := buf.TakeString()
		if err != nil {
			return nil, fmt.Errorf("sav: decode marker property %q: %w", f, err)
		}
		if v != "" {
			properties = append(properties, KV{Key: f, Value: v})
		}
	}
	nonRefSize, err := buf.TakeUvarint()
	if err != nil {
		return nil, fmt.Errorf("sav: decode marker non_ref_size: %w", err)
	}
	if nonRefSize > haplotypeCount {
		return nil, fmt.Errorf("sav: non_ref_size %d exceeds haplotype count %d", nonRefSize, haplotypeCount)
	}
	entries := make([]allele.Entry, nonRefSize)
	var prevOffset int64 = -1
	for i := uint64(0); i < nonRefSize; i++ {
		prefix, delta, err := buf.TakePrefixed(statusPrefixBits)
		if err != nil {
			return nil, fmt.Errorf("sav: decode marker non_ref[%d]: %w", i, err)
		}
		offset := prevOffset + int64(delta) + 1
		if offset <= prevOffset {
			return nil, fmt.Errorf("sav: decode marker non_ref[%d]: offset did not increase", i)
		}
		if uint64(offset) >= haplotypeCount {
			return nil, fmt.Errorf("sav: decode marker non_ref[%d]: offset %d >= haplotype count %d", i, offset, haplotypeCount)
		}
		entries[i] = allele.Entry{Offset: uint64(offset), Status: allele.FromSparseBit(allele.SparseBit(prefix))}
		prevOffset = offset
	}
	return NewMarkerFromSparse(chromosome, position, ref, alt, haplotypeCount, entries, properties)
}
