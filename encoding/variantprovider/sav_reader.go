// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variantprovider

import (
	"context"
	"fmt"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"

	"github.com/matuskosut/savvy/encoding/sav"
)

// savReader wraps encoding/sav.Reader to satisfy the Reader interface.
type savReader struct {
	ctx    context.Context
	f      file.File
	inner  *sav.Reader
	format sav.Format
	keep   []int // sample indices to keep; nil means all
	keepBy map[string]bool
}

func newSavReader(path string, format sav.Format) (Reader, error) {
	ctx := vcontext.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("variantprovider: opening %s: %w", path, err)
	}
	inner, err := sav.NewReader(f.Reader(ctx), format)
	if err != nil {
		f.Close(ctx)
		return nil, fmt.Errorf("variantprovider: reading header of %s: %w", path, err)
	}
	return &savReader{ctx: ctx, f: f, inner: inner, format: format}, nil
}

func (r *savReader) Samples() []string {
	all := r.inner.Samples()
	if r.keepBy == nil {
		return all
	}
	out := make([]string, 0, len(all))
	for _, s := range all {
		if r.keepBy[s] {
			out = append(out, s)
		}
	}
	return out
}

func (r *savReader) Headers() []sav.KV { return nil }

func (r *savReader) InfoFields() []string { return r.inner.Fields() }

func (r *savReader) SubsetSamples(keep map[string]bool) []string {
	r.keepBy = keep
	all := r.inner.Samples()
	r.keep = make([]int, 0, len(all))
	for i, s := range all {
		if keep == nil || keep[s] {
			r.keep = append(r.keep, i)
		}
	}
	return r.Samples()
}

func (r *savReader) Read() (*Record, bool) {
	m, ok := r.inner.Read()
	if !ok {
		return nil, false
	}
	ploidy := r.inner.Header.Ploidy
	dense := m.Dense()
	genotypes := sav.Genotypes(r.format, ploidy, dense)

	idx := r.keep
	if idx != nil {
		switch g := genotypes.(type) {
		case []int:
			genotypes = selectInts(g, idx)
		case []float64:
			genotypes = selectFloats(g, idx)
		default:
			genotypes = selectAllele(dense, ploidy, idx)
		}
	}
	return &Record{
		Chromosome: m.Chromosome,
		Position:   m.Position,
		Ref:        m.Ref,
		Alt:        m.Alt,
		Properties: m.Properties,
		Genotypes:  genotypes,
	}, true
}

func (r *savReader) Err() error   { return r.inner.Err() }
func (r *savReader) Close() error { return r.f.Close(r.ctx) }
