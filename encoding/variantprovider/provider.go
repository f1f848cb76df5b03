// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package variantprovider implements the polymorphic façade over the sav
// and VCF/BCF backends: a single constructor dispatches by file
// extension, the way bamprovider.NewProvider picks between its BAM and
// PAM backends, and callers see one uniform Reader surface regardless of
// which backend is behind it.
package variantprovider

import (
	"strings"

	"github.com/matuskosut/savvy/allele"
	"github.com/matuskosut/savvy/encoding/sav"
)

// FileType identifies which backend a path resolves to.
type FileType int

const (
	// Unknown is returned for a path with neither a recognized sav nor
	// VCF/BCF extension.
	Unknown FileType = iota
	// Sav files are read by encoding/sav.
	Sav
	// VCF files (.vcf, .vcf.gz, .bcf) are read by encoding/vcfadapter.
	VCF
)

// GuessFileType classifies path by its extension.
func GuessFileType(path string) FileType {
	switch {
	case strings.HasSuffix(path, ".sav"):
		return Sav
	case strings.HasSuffix(path, ".vcf"), strings.HasSuffix(path, ".vcf.gz"), strings.HasSuffix(path, ".bcf"):
		return VCF
	default:
		return Unknown
	}
}

// Record is one genomic site, shaped the same way regardless of backend.
type Record struct {
	Chromosome string
	Position   uint64
	Ref        string
	Alt        string
	Properties []sav.KV
	Genotypes  interface{}
}

// Reader is the uniform surface every backend satisfies: sample and
// header enumeration, metadata field names, sample subsetting, and
// streaming reads.
type Reader interface {
	Samples() []string
	Headers() []sav.KV
	InfoFields() []string
	SubsetSamples(keep map[string]bool) []string
	Read() (*Record, bool)
	Err() error
	Close() error
}

// Opts configures NewReader. Ploidy is consulted only for the VCF/BCF
// backend, which (unlike sav) doesn't carry its ploidy in the file
// itself.
type Opts struct {
	Ploidy uint64
}

func mergeOpts(optList []Opts) Opts {
	opts := Opts{Ploidy: 2}
	for _, o := range optList {
		if o.Ploidy != 0 {
			opts.Ploidy = o.Ploidy
		}
	}
	return opts
}

// NewReader opens path and returns the backend matching its extension.
// format selects the per-haplotype shape every Read returns. When path
// matches neither backend, NewReader returns an emptyReader: Samples,
// Headers, and InfoFields are all empty, and Read always returns false,
// per the façade's defined behavior for bad paths or unsupported
// extensions.
func NewReader(path string, format sav.Format, optList ...Opts) (Reader, error) {
	opts := mergeOpts(optList)
	switch GuessFileType(path) {
	case Sav:
		return newSavReader(path, format)
	case VCF:
		return newVCFReader(path, format, opts.Ploidy)
	default:
		return &emptyReader{}, nil
	}
}

type emptyReader struct{}

func (*emptyReader) Samples() []string                           { return nil }
func (*emptyReader) Headers() []sav.KV                           { return nil }
func (*emptyReader) InfoFields() []string                        { return nil }
func (*emptyReader) SubsetSamples(keep map[string]bool) []string { return nil }
func (*emptyReader) Read() (*Record, bool)                       { return nil, false }
func (*emptyReader) Err() error                                  { return nil }
func (*emptyReader) Close() error                                { return nil }

// selectAllele filters a dense per-haplotype status slice down to the
// haplotypes belonging to the sample indices in idx.
func selectAllele(dense []allele.Status, ploidy uint64, idx []int) []allele.Status {
	out := make([]allele.Status, 0, len(idx)*int(ploidy))
	for _, i := range idx {
		start := i * int(ploidy)
		out = append(out, dense[start:start+int(ploidy)]...)
	}
	return out
}

func selectInts(vals []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = vals[j]
	}
	return out
}

func selectFloats(vals []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = vals[j]
	}
	return out
}
