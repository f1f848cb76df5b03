// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package allele defines the per-haplotype allele status tag and the sparse
// compressed vector representation used to hold a marker's non-reference
// entries.
package allele

import "fmt"

// Status is the tagged value a single haplotype carries at one marker.
// Alternative alleles beyond the first are not represented at this layer:
// one marker describes one alt allele, and multi-allelic sites are expected
// to have been split upstream.
type Status uint8

const (
	// HasRef is the implicit, never-stored default: the haplotype carries
	// the reference allele.
	HasRef Status = iota
	// HasAlt means the haplotype carries the marker's alt allele.
	HasAlt
	// IsMissing means the haplotype's call is missing/unknown.
	IsMissing
)

func (s Status) String() string {
	switch s {
	case HasRef:
		return "has_ref"
	case HasAlt:
		return "has_alt"
	case IsMissing:
		return "is_missing"
	default:
		return fmt.Sprintf("allele.Status(%d)", uint8(s))
	}
}

// SparseBit is the 1-bit wire encoding of Status used by the marker codec's
// prefixed varint (has_ref is never stored, so only two values need a bit).
type SparseBit uint64

const (
	// SparseBitAlt is the wire value for HasAlt.
	SparseBitAlt SparseBit = 0
	// SparseBitMissing is the wire value for IsMissing.
	SparseBitMissing SparseBit = 1
)

// ToSparseBit converts a non-reference Status to its 1-bit wire value. It
// panics if given HasRef, which is never stored on the wire.
func ToSparseBit(s Status) SparseBit {
	switch s {
	case HasAlt:
		return SparseBitAlt
	case IsMissing:
		return SparseBitMissing
	default:
		panic(fmt.Sprintf("allele: HasRef entries are never stored, got %v", s))
	}
}

// FromSparseBit is the inverse of ToSparseBit.
func FromSparseBit(b SparseBit) Status {
	if b == SparseBitMissing {
		return IsMissing
	}
	return HasAlt
}
