// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package vcfadapter adapts github.com/brentp/vcfgo, a streaming VCF/BCF
// parser built on top of biogo/hts/bgzf, to the external VCF/BCF library
// contract: open by path, pull records one at a time, enumerate the
// header, list samples, and reset to a new region.
package vcfadapter

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/brentp/vcfgo"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/pkg/errors"

	"github.com/matuskosut/savvy/allele"
	"github.com/matuskosut/savvy/encoding/sav"
)

// Record is one VCF/BCF site translated into the shape the rest of this
// repository shares with the native sav path.
type Record struct {
	Chromosome string
	Position   uint64
	Ref        string
	Alt        string
	Properties []sav.KV
	Genotypes  interface{} // shaped per the reader's Format, as sav.Genotypes
}

// Reader streams records out of a VCF or BCF file via vcfgo, converting
// each record's genotype field into the allele/float vector shape
// matching the reader's format flag; unrecognized genotypes become
// NaN/is_missing, per the adapter contract.
type Reader struct {
	path   string
	ctx    context.Context
	f      file.File
	inner  *vcfgo.Reader
	format sav.Format
	ploidy uint64
	keep   map[string]bool // nil means every sample is kept
	err    error

	pending   *vcfgo.Variant // one variant read ahead by ResetRegion
	hasRegion bool
	chrom     string
	begin     uint64
	end       uint64
}

// Open parses path's header via vcfgo and prepares streaming reads. path
// may name a local file or any scheme grailbio/base/file's registered
// implementations support (e.g. s3://), matching every file-facing
// constructor in the teacher's encoding/pam and encoding/converter.
// ploidy is needed up front because VCF encodes one GT field per sample,
// not one entry per haplotype, and Genotype/Dosage aggregation needs to
// know how many haplotypes a sample's dosage is drawn from.
func Open(path string, format sav.Format, ploidy uint64) (*Reader, error) {
	ctx := vcontext.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vcfadapter: opening %s: %w", path, err)
	}
	inner, err := vcfgo.NewReader(f.Reader(ctx), false)
	if err != nil {
		f.Close(ctx)
		return nil, errors.Wrapf(err, "vcfadapter: parsing header of %s", path)
	}
	return &Reader{path: path, ctx: ctx, f: f, inner: inner, format: format, ploidy: ploidy}, nil
}

// ResetRegion re-homes the reader at the start of a new region. vcfgo
// itself streams only forward and exposes no seek primitive (that's what
// a tabix/CSI index would normally back for a real random-access query),
// so this reopens the file and linearly discards records before the
// region; the reset contract -- "the next read returns the first record
// in the new region, discarding any buffered record" -- holds regardless
// of how the position was reached. The native binary-index random-access
// path lives in encoding/savindex, for sav's own format.
func (r *Reader) ResetRegion(chrom string, begin, end uint64) error {
	if err := r.f.Close(r.ctx); err != nil {
		return fmt.Errorf("vcfadapter: closing %s before region reset: %w", r.path, err)
	}
	f, err := file.Open(r.ctx, r.path)
	if err != nil {
		return fmt.Errorf("vcfadapter: reopening %s for region reset: %w", r.path, err)
	}
	inner, err := vcfgo.NewReader(f.Reader(r.ctx), false)
	if err != nil {
		f.Close(r.ctx)
		return errors.Wrapf(err, "vcfadapter: re-parsing header of %s", r.path)
	}
	r.f, r.inner, r.err, r.pending = f, inner, nil, nil
	r.hasRegion, r.chrom, r.begin, r.end = true, chrom, begin, end

	for {
		v := r.inner.Read()
		if v == nil {
			r.err = errors.Wrapf(r.inner.Error(), "vcfadapter: scanning %s to region %s:%d", r.path, chrom, begin)
			return nil
		}
		if v.Chromosome == chrom && v.Pos >= begin {
			r.pending = v
			return nil
		}
	}
}

// Samples returns the file's sample list, in header order, restricted to
// whatever SubsetSamples last selected.
func (r *Reader) Samples() []string {
	return r.filterSamples(r.inner.Header.SampleNames)
}

// Headers returns the file's non-INFO, non-sample header lines (source,
// reference, and similar free-form metadata) as ordered key/value pairs.
func (r *Reader) Headers() []sav.KV {
	var out []sav.KV
	for k, v := range r.inner.Header.Extras {
		out = append(out, sav.KV{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// InfoFields returns the declared INFO field names, sorted for
// determinism (vcfgo keys them in a map, which has no stable order).
func (r *Reader) InfoFields() []string {
	out := make([]string, 0, len(r.inner.Header.Infos))
	for name := range r.inner.Header.Infos {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Chromosomes returns every contig named in the file's header.
func (r *Reader) Chromosomes() []string {
	out := make([]string, 0, len(r.inner.Header.Contigs))
	for _, c := range r.inner.Header.Contigs {
		out = append(out, c.Id)
	}
	return out
}

// SubsetSamples restricts Samples and every subsequent Read's Genotypes
// to the named subset, returning the kept samples in file order.
func (r *Reader) SubsetSamples(keep map[string]bool) []string {
	r.keep = keep
	return r.Samples()
}

func (r *Reader) filterSamples(all []string) []string {
	if r.keep == nil {
		return all
	}
	out := make([]string, 0, len(all))
	for _, s := range all {
		if r.keep[s] {
			out = append(out, s)
		}
	}
	return out
}

// Read pulls the next record, translating its genotype calls into the
// shape selected by the reader's format flag. It returns false at a
// clean end of file or once a prior call has set a parse error, checkable
// via Err.
func (r *Reader) Read() (*Record, bool) {
	if r.err != nil {
		return nil, false
	}
	var v *vcfgo.Variant
	if r.pending != nil {
		v, r.pending = r.pending, nil
	} else {
		v = r.inner.Read()
	}
	if v == nil {
		r.err = errors.Wrapf(r.inner.Error(), "vcfadapter: reading %s", r.path)
		return nil, false
	}
	if r.hasRegion && (v.Chromosome != r.chrom || v.Pos > r.end) {
		return nil, false
	}
	alt := ""
	if len(v.Alt) > 0 {
		alt = v.Alt[0]
	}
	rec := &Record{
		Chromosome: v.Chromosome,
		Position:   v.Pos,
		Ref:        v.Ref,
		Alt:        alt,
		Properties: r.properties(v),
		Genotypes:  r.genotypes(v),
	}
	return rec, true
}

// Err returns the error that ended iteration, or nil for a clean EOF.
func (r *Reader) Err() error { return r.err }

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close(r.ctx) }

func (r *Reader) properties(v *vcfgo.Variant) []sav.KV {
	props := []sav.KV{
		{Key: "id", Value: v.Id_},
		{Key: "qual", Value: fmt.Sprintf("%v", v.Quality)},
		{Key: "filter", Value: v.Filter},
	}
	for _, name := range r.InfoFields() {
		if val, err := v.Info().Get(name); err == nil {
			props = append(props, sav.KV{Key: name, Value: fmt.Sprintf("%v", val)})
		}
	}
	return props
}

func (r *Reader) genotypes(v *vcfgo.Variant) interface{} {
	kept := r.filterSampleIndices()
	switch r.format {
	case sav.Allele:
		out := make([]allele.Status, 0, len(kept)*int(r.ploidy))
		for _, idx := range kept {
			out = append(out, haplotypeStatuses(v, idx, r.ploidy)...)
		}
		return out
	case sav.Genotype:
		out := make([]int, 0, len(kept))
		for _, idx := range kept {
			out = append(out, genotypeSum(haplotypeStatuses(v, idx, r.ploidy)))
		}
		return out
	case sav.Dosage:
		out := make([]float64, 0, len(kept))
		for _, idx := range kept {
			out = append(out, dosageOf(haplotypeStatuses(v, idx, r.ploidy)))
		}
		return out
	default:
		return nil
	}
}

func (r *Reader) filterSampleIndices() []int {
	all := r.inner.Header.SampleNames
	out := make([]int, 0, len(all))
	for i, s := range all {
		if r.keep == nil || r.keep[s] {
			out = append(out, i)
		}
	}
	return out
}

func haplotypeStatuses(v *vcfgo.Variant, sampleIdx int, ploidy uint64) []allele.Status {
	out := make([]allele.Status, ploidy)
	if sampleIdx >= len(v.Samples) || v.Samples[sampleIdx] == nil {
		for i := range out {
			out[i] = allele.IsMissing
		}
		return out
	}
	gt := v.Samples[sampleIdx].GT
	for i := range out {
		if i >= len(gt) || gt[i] < 0 {
			out[i] = allele.IsMissing
		} else if gt[i] == 0 {
			out[i] = allele.HasRef
		} else {
			out[i] = allele.HasAlt
		}
	}
	return out
}

func genotypeSum(hap []allele.Status) int {
	sum := 0
	for _, s := range hap {
		switch s {
		case allele.HasAlt:
			sum++
		case allele.IsMissing:
			return -1
		}
	}
	return sum
}

func dosageOf(hap []allele.Status) float64 {
	var alt int
	for _, s := range hap {
		switch s {
		case allele.HasAlt:
			alt++
		case allele.IsMissing:
			return math.NaN()
		}
	}
	return float64(alt) / float64(len(hap))
}
