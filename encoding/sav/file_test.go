// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sav

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuskosut/savvy/allele"
)

// TestWriterReaderFileRoundTrip exercises the writer/reader pair against a
// real file on disk, the way pam_e2e_test.go drives pamwriter/pamreader
// through a temp-dir fixture instead of an in-memory buffer.
func TestWriterReaderFileRoundTrip(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "fixture.sav")

	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := NewWriter(f, "chr20", 2, []string{"s1", "s2"}, []string{"id"})
	require.NoError(t, err)
	m, err := NewMarkerFromDense("chr20", 42, "A", "G",
		[]allele.Status{allele.HasRef, allele.HasAlt, allele.HasAlt, allele.HasAlt},
		[]KV{{Key: "id", Value: "rs7"}})
	require.NoError(t, err)
	w.Append(m)
	require.NoError(t, w.Err())
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	rf, err := os.Open(path)
	require.NoError(t, err)
	defer rf.Close()
	r, err := NewReader(rf, Allele)
	require.NoError(t, err)
	got, ok := r.Read()
	require.True(t, ok)
	assert.True(t, m.Equal(got))
}

func TestWriterReaderRoundTrip(t *testing.T) {
	samples := []string{"s1", "s2", "s3"}
	fields := []string{"id"}
	var buf bytes.Buffer

	w, err := NewWriter(&buf, "chr20", 2, samples, fields)
	require.NoError(t, err)

	m1, err := NewMarkerFromDense("chr20", 100, "A", "G",
		[]allele.Status{allele.HasRef, allele.HasAlt, allele.HasRef, allele.HasRef, allele.IsMissing, allele.HasRef},
		[]KV{{Key: "id", Value: "rs1"}})
	require.NoError(t, err)
	m2, err := NewMarkerFromDense("chr20", 150, "C", "T",
		[]allele.Status{allele.HasRef, allele.HasRef, allele.HasRef, allele.HasRef, allele.HasRef, allele.HasRef}, nil)
	require.NoError(t, err)

	w.Append(m1)
	w.Append(m2)
	require.NoError(t, w.Err())
	require.NoError(t, w.Close())

	r, err := NewReader(&buf, Allele)
	require.NoError(t, err)
	assert.Equal(t, samples, r.Samples())
	assert.Equal(t, fields, r.Fields())

	got1, ok := r.Read()
	require.True(t, ok)
	assert.True(t, m1.Equal(got1))

	got2, ok := r.Read()
	require.True(t, ok)
	assert.True(t, m2.Equal(got2))

	_, ok = r.Read()
	assert.False(t, ok)
	assert.NoError(t, r.Err())
}

func TestWriterRejectsHaplotypeCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "chr20", 2, []string{"s1"}, nil)
	require.NoError(t, err)

	bad, err := NewMarkerFromDense("chr20", 10, "A", "G", []allele.Status{allele.HasAlt, allele.HasAlt, allele.HasAlt}, nil)
	require.NoError(t, err)
	w.Append(bad)
	assert.Error(t, w.Err())
}

// TestWriterKeepsAcceptingValidRecordsAfterRejection guards against
// Append's guard clause degrading into a permanent halt-on-first-error:
// a malformed record must only drop itself, not every record appended
// after it.
func TestWriterKeepsAcceptingValidRecordsAfterRejection(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "chr20", 2, []string{"s1"}, nil)
	require.NoError(t, err)

	bad, err := NewMarkerFromDense("chr20", 10, "A", "G", []allele.Status{allele.HasAlt, allele.HasAlt, allele.HasAlt}, nil)
	require.NoError(t, err)
	w.Append(bad)
	require.Error(t, w.Err())

	good, err := NewMarkerFromDense("chr20", 20, "C", "T", []allele.Status{allele.HasRef, allele.HasAlt}, nil)
	require.NoError(t, err)
	w.Append(good)
	// Close still flushes the stream but reports the sticky first error.
	require.Error(t, w.Close())

	r, err := NewReader(&buf, Allele)
	require.NoError(t, err)
	got, ok := r.Read()
	require.True(t, ok, "valid record appended after a rejected one must still be written")
	assert.True(t, good.Equal(got))

	_, ok = r.Read()
	assert.False(t, ok)
}

func TestReaderFailsOnBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not a sav file at all")), Allele)
	assert.Error(t, err)
}

// TestReaderFailsOnTruncatedFile cuts the last 4 bytes off the file, which
// lie in the bgzf terminator block; the reader must report that corrupt
// final block as a failure, not as a clean end of file.
func TestReaderFailsOnTruncatedFile(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "chr1", 1, []string{"s1"}, nil)
	require.NoError(t, err)
	m, err := NewMarkerFromDense("chr1", 5, "A", "G", []allele.Status{allele.HasAlt}, nil)
	require.NoError(t, err)
	w.Append(m)
	require.NoError(t, w.Close())

	truncated := buf.Bytes()[:len(buf.Bytes())-4]
	r, err := NewReader(bytes.NewReader(truncated), Allele)
	require.NoError(t, err)
	for {
		if _, ok := r.Read(); !ok {
			break
		}
	}
	assert.Error(t, r.Err())
}
