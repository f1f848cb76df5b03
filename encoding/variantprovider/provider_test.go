// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variantprovider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuskosut/savvy/allele"
	"github.com/matuskosut/savvy/encoding/sav"
)

func writeSavFixture(t *testing.T, path string) {
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w, err := sav.NewWriter(f, "chr1", 2, []string{"s1", "s2"}, []string{"id"})
	require.NoError(t, err)
	m, err := sav.NewMarkerFromDense("chr1", 10, "A", "G",
		[]allele.Status{allele.HasAlt, allele.HasRef, allele.HasRef, allele.HasRef},
		[]sav.KV{{Key: "id", Value: "rs1"}})
	require.NoError(t, err)
	w.Append(m)
	require.NoError(t, w.Err())
	require.NoError(t, w.Close())
}

func TestNewReaderDispatchesSav(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.sav")
	writeSavFixture(t, path)

	r, err := NewReader(path, sav.Allele)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"s1", "s2"}, r.Samples())
	rec, ok := r.Read()
	require.True(t, ok)
	assert.EqualValues(t, 10, rec.Position)
	assert.Equal(t, "id", rec.Properties[0].Key)
}

func TestNewReaderUnknownExtensionIsEmpty(t *testing.T) {
	r, err := NewReader("/no/such/file.xyz", sav.Allele)
	require.NoError(t, err)
	assert.Empty(t, r.Samples())
	_, ok := r.Read()
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}

func TestSavReaderSubsetSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.sav")
	writeSavFixture(t, path)

	r, err := NewReader(path, sav.Genotype)
	require.NoError(t, err)
	defer r.Close()

	kept := r.SubsetSamples(map[string]bool{"s2": true})
	assert.Equal(t, []string{"s2"}, kept)

	rec, ok := r.Read()
	require.True(t, ok)
	gts, ok := rec.Genotypes.([]int)
	require.True(t, ok)
	assert.Equal(t, []int{0}, gts)
}
