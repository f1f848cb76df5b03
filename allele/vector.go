// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package allele

import (
	"fmt"
	"sort"
)

// Entry is one non-reference haplotype observation: the haplotype offset
// and its status, which must be HasAlt or IsMissing (HasRef is never
// stored).
type Entry struct {
	Offset uint64
	Status Status
}

// CompressedVector is a sparse mapping from a haplotype offset in
// [0, Size) to an allele Status, backed by two parallel slices holding only
// the non-reference entries in ascending offset order. Absent offsets read
// as HasRef, the type's implicit zero value. It is the in-memory
// counterpart of the wire-level non_ref sequence described by the marker
// codec.
//
// CompressedVector is grounded on savvy::compressed_vector<T>: values and
// offsets are parallel, size is logical capacity, and iteration only ever
// visits non-zero (here: non-reference) entries.
type CompressedVector struct {
	values  []Status
	offsets []uint64
	size    uint64
}

// NewCompressedVector builds a CompressedVector of the given logical size
// with no non-reference entries.
func NewCompressedVector(size uint64) *CompressedVector {
	return &CompressedVector{size: size}
}

// FromEntries validates and wraps a pre-built, strictly increasing sequence
// of sparse entries as a CompressedVector of the given logical size. It
// rejects non-monotone offsets, HasRef entries, out-of-range offsets, and a
// sparse length exceeding size.
func FromEntries(size uint64, entries []Entry) (*CompressedVector, error) {
	if uint64(len(entries)) > size {
		return nil, fmt.Errorf("allele: %d non-ref entries exceeds haplotype count %d", len(entries), size)
	}
	values := make([]Status, len(entries))
	offsets := make([]uint64, len(entries))
	var prev uint64
	for i, e := range entries {
		if e.Status == HasRef {
			return nil, fmt.Errorf("allele: entry %d has HasRef status, which is never stored", i)
		}
		if e.Offset >= size {
			return nil, fmt.Errorf("allele: entry %d offset %d is not < haplotype count %d", i, e.Offset, size)
		}
		if i > 0 && e.Offset <= prev {
			return nil, fmt.Errorf("allele: entry %d offset %d is not strictly increasing after %d", i, e.Offset, prev)
		}
		prev = e.Offset
		values[i] = e.Status
		offsets[i] = e.Offset
	}
	return &CompressedVector{values: values, offsets: offsets, size: size}, nil
}

// FromDense builds a CompressedVector from a complete, dense slice of
// per-haplotype statuses, emitting a sparse entry for every non-HasRef
// value.
func FromDense(dense []Status) *CompressedVector {
	v := &CompressedVector{size: uint64(len(dense))}
	for off, s := range dense {
		if s != HasRef {
			v.values = append(v.values, s)
			v.offsets = append(v.offsets, uint64(off))
		}
	}
	return v
}

// Size is the logical length of the vector (the haplotype count).
func (v *CompressedVector) Size() uint64 { return v.size }

// NonZeroSize is the number of stored (non-reference) entries.
func (v *CompressedVector) NonZeroSize() int { return len(v.values) }

// At returns the status at a given offset, HasRef if absent.
func (v *CompressedVector) At(offset uint64) Status {
	i := sort.Search(len(v.offsets), func(i int) bool { return v.offsets[i] >= offset })
	if i < len(v.offsets) && v.offsets[i] == offset {
		return v.values[i]
	}
	return HasRef
}

// Entries returns the sparse entries verbatim, in ascending offset order.
func (v *CompressedVector) Entries() []Entry {
	out := make([]Entry, len(v.values))
	for i := range v.values {
		out[i] = Entry{Offset: v.offsets[i], Status: v.values[i]}
	}
	return out
}

// Dense yields exactly Size() statuses in offset order by walking the
// sparse entries in parallel with a dense counter, the strategy described
// for the marker's dense-iteration operation.
func (v *CompressedVector) Dense() []Status {
	out := make([]Status, v.size)
	si := 0
	for off := uint64(0); off < v.size; off++ {
		if si < len(v.offsets) && v.offsets[si] == off {
			out[off] = v.values[si]
			si++
		} else {
			out[off] = HasRef
		}
	}
	return out
}

// Dot computes Σ values[i] * dense[offsets[i]] over this vector's sparse
// entries against a dense vector of length Size, treating HasRef (an
// absent offset) as contributing zero and HasAlt as a weight of one;
// IsMissing entries contribute zero, since a missing call carries no
// dosage to multiply through. This is a non-core convenience carried
// from savvy::compressed_vector::dot, generalized from dot-against-
// another-compressed-vector to dot-against-a-dense-vector.
func (v *CompressedVector) Dot(dense []float64) float64 {
	var sum float64
	for i, off := range v.offsets {
		if v.values[i] != HasAlt {
			continue
		}
		sum += dense[off]
	}
	return sum
}

// Clone returns a deep copy. Markers are value-typed and cheaply cloneable
// because the sparse representation is bounded by non-ref count, not
// haplotype count.
func (v *CompressedVector) Clone() *CompressedVector {
	out := &CompressedVector{size: v.size}
	out.values = append(out.values, v.values...)
	out.offsets = append(out.offsets, v.offsets...)
	return out
}

// AlleleFrequency computes count(HasAlt) / (Size - count(IsMissing)). It
// returns false if the denominator is zero.
func (v *CompressedVector) AlleleFrequency() (float64, bool) {
	var alt, missing uint64
	for _, s := range v.values {
		switch s {
		case HasAlt:
			alt++
		case IsMissing:
			missing++
		}
	}
	denom := v.size - missing
	if denom == 0 {
		return 0, false
	}
	return float64(alt) / float64(denom), true
}
