// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuskosut/savvy/allele"
	"github.com/matuskosut/savvy/varint"
)

func TestMarkerRoundTrip(t *testing.T) {
	fields := []string{"id", "qual"}
	m, err := NewMarkerFromSparse("chr20", 100, "A", "G", 6,
		[]allele.Entry{{Offset: 1, Status: allele.HasAlt}, {Offset: 4, Status: allele.IsMissing}},
		[]KV{{Key: "id", Value: "rs123"}, {Key: "qual", Value: "40"}})
	require.NoError(t, err)

	buf := &varint.Buffer{}
	EncodeMarker(buf, m, fields)

	rbuf := varint.NewBuffer(buf.Bytes)
	got, err := DecodeMarker(rbuf, "chr20", 6, fields)
	require.NoError(t, err)
	assert.True(t, t1Equal(m, got))
}

func t1Equal(a, b *Marker) bool { return a.Equal(b) }

func TestMarkerRoundTripNoProperties(t *testing.T) {
	m, err := NewMarkerFromDense("chr1", 55, "C", "T",
		[]allele.Status{allele.HasRef, allele.HasRef, allele.HasAlt, allele.HasRef}, nil)
	require.NoError(t, err)

	buf := &varint.Buffer{}
	EncodeMarker(buf, m, nil)
	rbuf := varint.NewBuffer(buf.Bytes)
	got, err := DecodeMarker(rbuf, "chr1", 4, nil)
	require.NoError(t, err)
	assert.True(t, m.Equal(got))
}

func TestMarkerDeltaEncodingIsMinimal(t *testing.T) {
	// Deltas for offsets 1 and 4 (with offsets[-1]=-1) are 1 and 2.
	m, err := NewMarkerFromSparse("chr20", 100, "A", "G", 6,
		[]allele.Entry{{Offset: 1, Status: allele.HasAlt}, {Offset: 4, Status: allele.IsMissing}}, nil)
	require.NoError(t, err)
	buf := &varint.Buffer{}
	EncodeMarker(buf, m, nil)

	rbuf := varint.NewBuffer(buf.Bytes)
	_, _ = rbuf.TakeUvarint() // position
	_, _ = rbuf.TakeString()  // ref
	_, _ = rbuf.TakeString()  // alt
	nonRefSize, err := rbuf.TakeUvarint()
	require.NoError(t, err)
	require.EqualValues(t, 2, nonRefSize)

	prefix, delta, err := rbuf.TakePrefixed(1)
	require.NoError(t, err)
	assert.EqualValues(t, allele.SparseBitAlt, prefix)
	assert.EqualValues(t, 1, delta)

	prefix, delta, err = rbuf.TakePrefixed(1)
	require.NoError(t, err)
	assert.EqualValues(t, allele.SparseBitMissing, prefix)
	assert.EqualValues(t, 2, delta)
}

func TestMarkerBuilder(t *testing.T) {
	b := NewBuilder("chr20", 200, "C", "T", 4)
	b.SetProperty("id", "rs9")
	require.NoError(t, b.Add(allele.IsMissing))
	require.NoError(t, b.Add(allele.HasRef))
	require.NoError(t, b.Add(allele.HasRef))
	require.NoError(t, b.Add(allele.HasAlt))
	m, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []allele.Entry{{0, allele.IsMissing}, {3, allele.HasAlt}}, m.NonRef.Entries())
	v, ok := m.Property("id")
	require.True(t, ok)
	assert.Equal(t, "rs9", v)
}

func TestMarkerBuilderRejectsShortInput(t *testing.T) {
	b := NewBuilder("chr20", 200, "C", "T", 4)
	require.NoError(t, b.Add(allele.HasRef))
	_, err := b.Build()
	require.Error(t, err)
}

func TestDecodeMarkerRejectsOffsetBeyondHaplotypeCount(t *testing.T) {
	buf := &varint.Buffer{}
	buf.PutUvarint(5)    // position
	buf.PutString("A")   // ref
	buf.PutString("G")   // alt
	buf.PutUvarint(1)    // non_ref_size
	buf.PutPrefixed(1, 0, 10) // delta 10 -> offset 10, way beyond haplotype count 3

	rbuf := varint.NewBuffer(buf.Bytes)
	_, err := DecodeMarker(rbuf, "chr1", 3, nil)
	require.Error(t, err)
}
