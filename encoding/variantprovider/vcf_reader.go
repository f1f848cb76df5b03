// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variantprovider

import (
	"github.com/matuskosut/savvy/encoding/sav"
	"github.com/matuskosut/savvy/encoding/vcfadapter"
)

// vcfReader wraps encoding/vcfadapter.Reader to satisfy the Reader
// interface; vcfadapter already returns records pre-subsetted and
// pre-shaped by format, so this is mostly a field-for-field pass-through.
type vcfReader struct {
	inner *vcfadapter.Reader
}

func newVCFReader(path string, format sav.Format, ploidy uint64) (Reader, error) {
	inner, err := vcfadapter.Open(path, format, ploidy)
	if err != nil {
		return nil, err
	}
	return &vcfReader{inner: inner}, nil
}

func (r *vcfReader) Samples() []string    { return r.inner.Samples() }
func (r *vcfReader) Headers() []sav.KV    { return r.inner.Headers() }
func (r *vcfReader) InfoFields() []string { return r.inner.InfoFields() }

func (r *vcfReader) SubsetSamples(keep map[string]bool) []string {
	return r.inner.SubsetSamples(keep)
}

func (r *vcfReader) Read() (*Record, bool) {
	rec, ok := r.inner.Read()
	if !ok {
		return nil, false
	}
	return &Record{
		Chromosome: rec.Chromosome,
		Position:   rec.Position,
		Ref:        rec.Ref,
		Alt:        rec.Alt,
		Properties: rec.Properties,
		Genotypes:  rec.Genotypes,
	}, true
}

func (r *vcfReader) Err() error   { return r.inner.Err() }
func (r *vcfReader) Close() error { return r.inner.Close() }
