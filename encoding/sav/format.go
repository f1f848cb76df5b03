// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sav

import (
	"math"

	"github.com/matuskosut/savvy/allele"
)

// Format selects the per-haplotype shape a Reader returns for each
// marker's genotypes. It is carried at the reader-construction level, not
// per-record, mirroring the field-type selection made once at
// pam.Reader/Writer construction.
type Format int

const (
	// Allele returns one entry per haplotype: sample_count*ploidy
	// allele.Status values, in haplotype order.
	Allele Format = iota
	// Genotype returns one integer per sample: the sum of alt alleles
	// across that sample's ploidy haplotypes, or -1 if any of them is
	// missing.
	Genotype
	// Dosage returns one float per sample: the fraction of that sample's
	// haplotypes carrying the alt allele, or NaN if any is missing.
	Dosage
)

// String names a Format the way it would appear in a --format flag.
func (f Format) String() string {
	switch f {
	case Allele:
		return "allele"
	case Genotype:
		return "genotype"
	case Dosage:
		return "dosage"
	default:
		return "unknown"
	}
}

// Genotypes renders a marker's per-haplotype alleles into the shape
// selected by f. For Allele it is the dense per-haplotype status vector;
// for Genotype and Dosage it aggregates allele_count contiguous
// haplotypes per sample, where allele_count = ploidy.
func Genotypes(f Format, ploidy uint64, dense []allele.Status) interface{} {
	switch f {
	case Allele:
		return dense
	case Genotype:
		out := make([]int, 0, uint64(len(dense))/ploidy)
		for i := 0; i < len(dense); i += int(ploidy) {
			out = append(out, genotypeSum(dense[i:i+int(ploidy)]))
		}
		return out
	case Dosage:
		out := make([]float64, 0, uint64(len(dense))/ploidy)
		for i := 0; i < len(dense); i += int(ploidy) {
			out = append(out, dosage(dense[i:i+int(ploidy)]))
		}
		return out
	default:
		return nil
	}
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

func dosage(hap []allele.Status) float64 {
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
