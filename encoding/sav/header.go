// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sav

import (
	"fmt"

	"github.com/matuskosut/savvy/varint"
)

// magic is the current 8-byte container magic+version.
var magic = [8]byte{'s', 'a', 'v', 0x00, 0x01, 0x00, 0x00, 0x00}

// legacyMagic is the older 8-byte "cvcf" magic+version, still accepted by
// readers.
var legacyMagic = [8]byte{'c', 'v', 'c', 'f', 0x00, 0x01, 0x00, 0x00}

// Header is the fixed preamble of a sav file: chromosome, ploidy, sample
// list, and the ordered metadata-field-name table every marker's
// properties are indexed against.
type Header struct {
	Chromosome string
	Ploidy     uint64
	Samples    []string
	Fields     []string
}

// HaplotypeCount is sample_count * ploidy, the expected length of every
// marker's dense allele vector in this file.
func (h *Header) HaplotypeCount() uint64 {
	return uint64(len(h.Samples)) * h.Ploidy
}

// writeHeader appends the wire encoding of h to buf, preceded by the
// current magic+version.
func writeHeader(buf *varint.Buffer, h *Header) {
	buf.Bytes = append(buf.Bytes, magic[:]...)
	buf.PutString(h.Chromosome)
	buf.PutUvarint(h.Ploidy)
	buf.PutUvarint(uint64(len(h.Samples)))
	for _, s := range h.Samples {
		buf.PutString(s)
	}
	buf.PutUvarint(uint64(len(h.Fields)))
	for _, f := range h.Fields {
		buf.PutString(f)
	}
}

// readHeader parses a Header from buf, including the leading
// magic+version, accepting either the current or legacy magic bytes.
func readHeader(buf varint.TakeReader) (*Header, error) {
	got, err := buf.TakeBytes(8)
	if err != nil {
		return nil, fmt.Errorf("sav: reading magic: %w", err)
	}
	var gotArr [8]byte
	copy(gotArr[:], got)
	if gotArr != magic && gotArr != legacyMagic {
		return nil, fmt.Errorf("sav: bad magic %x", got)
	}
	h := &Header{}
	if h.Chromosome, err = buf.TakeString(); err != nil {
		return nil, fmt.Errorf("sav: reading chromosome: %w", err)
	}
	if h.Ploidy, err = buf.TakeUvarint(); err != nil {
		return nil, fmt.Errorf("sav: reading ploidy: %w", err)
	}
	sampleCount, err := buf.TakeUvarint()
	if err != nil {
		return nil, fmt.Errorf("sav: reading sample count: %w", err)
	}
	h.Samples = make([]string, sampleCount)
	for i := range h.Samples {
		if h.Samples[i], err = buf.TakeString(); err != nil {
			return nil, fmt.Errorf("sav: reading sample %d: %w", i, err)
		}
	}
	fieldCount, err := buf.TakeUvarint()
	if err != nil {
		return nil, fmt.Errorf("sav: reading metadata field count: %w", err)
	}
	h.Fields = make([]string, fieldCount)
	for i := range h.Fields {
		if h.Fields[i], err = buf.TakeString(); err != nil {
			return nil, fmt.Errorf("sav: reading metadata field %d: %w", i, err)
		}
	}
	return h, nil
}
