// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package sav implements the reader and writer for the sav container
// format: a fixed header (magic, chromosome, ploidy, samples, metadata
// field names) followed by a sequence of variant markers, each holding one
// genomic site's sparse, non-reference haplotype entries.
package sav

import (
	"fmt"

	"github.com/matuskosut/savvy/allele"
)

// KV is one metadata property (id, qual, filter, or an INFO field) carried
// as an ordered key/value pair rather than a map, so that property
// iteration is deterministic in file order -- this determinism is what
// lets the file-checksum equivalence property (spec testable property 5)
// hash a SAV stream and a VCF-derived stream and expect equal results.
type KV struct {
	Key   string
	Value string
}

// Marker holds one genomic site: its coordinates, ref/alt alleles, and the
// sparse set of haplotypes that deviate from the reference, plus whatever
// string-valued metadata properties (id, qual, filter, INFO fields) the
// caller attached. Markers are immutable after construction.
type Marker struct {
	Chromosome     string
	Position       uint64
	Ref            string
	Alt            string
	HaplotypeCount uint64
	NonRef         *allele.CompressedVector
	Properties     []KV
}

// NewMarkerFromSparse validates a pre-built, strictly increasing sequence of
// sparse entries and wraps it as a Marker. It rejects non-monotone offsets,
// has_ref entries, out-of-range offsets, and a sparse length exceeding
// haplotypeCount.
func NewMarkerFromSparse(chromosome string, position uint64, ref, alt string, haplotypeCount uint64, entries []allele.Entry, properties []KV) (*Marker, error) {
	if ref == "" || alt == "" {
		return nil, fmt.Errorf("sav: marker at %s:%d: ref and alt must be non-empty", chromosome, position)
	}
	cv, err := allele.FromEntries(haplotypeCount, entries)
	if err != nil {
		return nil, fmt.Errorf("sav: marker at %s:%d: %w", chromosome, position, err)
	}
	return &Marker{
		Chromosome:     chromosome,
		Position:       position,
		Ref:            ref,
		Alt:            alt,
		HaplotypeCount: haplotypeCount,
		NonRef:         cv,
		Properties:     properties,
	}, nil
}

// NewMarkerFromDense builds a Marker from a complete dense allele-status
// slice, emitting a sparse entry for every non-has_ref haplotype.
func NewMarkerFromDense(chromosome string, position uint64, ref, alt string, dense []allele.Status, properties []KV) (*Marker, error) {
	if ref == "" || alt == "" {
		return nil, fmt.Errorf("sav: marker at %s:%d: ref and alt must be non-empty", chromosome, position)
	}
	return &Marker{
		Chromosome:     chromosome,
		Position:       position,
		Ref:            ref,
		Alt:            alt,
		HaplotypeCount: uint64(len(dense)),
		NonRef:         allele.FromDense(dense),
		Properties:     properties,
	}, nil
}

// Dense yields exactly HaplotypeCount allele statuses in offset order.
func (m *Marker) Dense() []allele.Status { return m.NonRef.Dense() }

// AlleleFrequency is count(has_alt) / (HaplotypeCount - count(is_missing)).
// The second return value is false when the denominator is zero.
func (m *Marker) AlleleFrequency() (float64, bool) { return m.NonRef.AlleleFrequency() }

// Property returns the value of the named metadata property, if present.
func (m *Marker) Property(key string) (string, bool) {
	for _, kv := range m.Properties {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Equal reports whether two markers describe the same site, alleles,
// non-ref entries and properties (used by round-trip tests).
func (m *Marker) Equal(o *Marker) bool {
	if m.Chromosome != o.Chromosome || m.Position != o.Position ||
		m.Ref != o.Ref || m.Alt != o.Alt || m.HaplotypeCount != o.HaplotypeCount {
		return false
	}
	a, b := m.NonRef.Entries(), o.NonRef.Entries()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	if len(m.Properties) != len(o.Properties) {
		return false
	}
	for i := range m.Properties {
		if m.Properties[i] != o.Properties[i] {
			return false
		}
	}
	return true
}

// Builder accumulates per-haplotype allele statuses one at a time and
// produces a Marker on Build, mirroring the incremental
// accumulate-then-finalize idiom of the field write buffers that back the
// container writer: it never materializes a full dense slice, only the
// sparse entries.
type Builder struct {
	marker         *Marker
	haplotypeCount uint64
	nextOffset     uint64
	entries        []allele.Entry
}

// NewBuilder starts a Builder for a marker at the given site. Add must be
// called exactly haplotypeCount times, in haplotype-offset order, before
// Build.
func NewBuilder(chromosome string, position uint64, ref, alt string, haplotypeCount uint64) *Builder {
	return &Builder{
		marker: &Marker{
			Chromosome:     chromosome,
			Position:       position,
			Ref:            ref,
			Alt:            alt,
			HaplotypeCount: haplotypeCount,
		},
		haplotypeCount: haplotypeCount,
	}
}

// SetProperty attaches a metadata property to the marker under construction.
func (b *Builder) SetProperty(key, value string) {
	b.marker.Properties = append(b.marker.Properties, KV{Key: key, Value: value})
}

// Add records the next haplotype's status.
func (b *Builder) Add(status allele.Status) error {
	if b.nextOffset >= b.haplotypeCount {
		return fmt.Errorf("sav: Builder.Add called more than haplotype count %d times", b.haplotypeCount)
	}
	if status != allele.HasRef {
		b.entries = append(b.entries, allele.Entry{Offset: b.nextOffset, Status: status})
	}
	b.nextOffset++
	return nil
}

// Build finalizes the marker. It fails if Add was called fewer than
// haplotypeCount times.
func (b *Builder) Build() (*Marker, error) {
	if b.nextOffset != b.haplotypeCount {
		return nil, fmt.Errorf("sav: Builder.Build called after only %d of %d haplotypes were added", b.nextOffset, b.haplotypeCount)
	}
	if b.marker.Ref == "" || b.marker.Alt == "" {
		return nil, fmt.Errorf("sav: marker at %s:%d: ref and alt must be non-empty", b.marker.Chromosome, b.marker.Position)
	}
	cv, err := allele.FromEntries(b.haplotypeCount, b.entries)
	if err != nil {
		return nil, err
	}
	b.marker.NonRef = cv
	return b.marker, nil
}
