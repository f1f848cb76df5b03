// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package savhash computes a deterministic stream checksum over the
// ordered sequence of (position, ref, alt, properties, genotype-vector)
// tuples a reader produces, so that a sav-derived stream and a
// VCF-derived stream of the same data hash equal -- the file checksum
// equivalence property. It is grounded on cmd/bio-pamtool's checksum
// command, which folds a hash.Hash64 over each record's fields in file
// order; seahash is the same 64-bit hash that command uses.
package savhash

import (
	"encoding/binary"
	"fmt"
	"hash"
	"sort"

	"blainsmith.com/go/seahash"
)

// Stream accumulates a running seahash checksum over a sequence of
// records. Reset and reuse via New for a fresh stream.
type Stream struct {
	h hash.Hash64
}

// New returns an empty Stream.
func New() *Stream {
	return &Stream{h: seahash.New()}
}

// Add folds one record's fields into the running hash, in a fixed field
// order (position, ref, alt, sorted properties, genotype vector) so that
// two readers presenting the same logical record in a different
// incidental property order still hash equal.
func (s *Stream) Add(position uint64, ref, alt string, properties map[string]string, genotypes interface{}) {
	var posBuf [8]byte
	binary.LittleEndian.PutUint64(posBuf[:], position)
	s.h.Write(posBuf[:])
	s.h.Write([]byte(ref))
	s.h.Write([]byte(alt))

	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.h.Write([]byte(k))
		s.h.Write([]byte(properties[k]))
	}

	s.h.Write([]byte(fmt.Sprintf("%v", genotypes)))
}

// Sum64 returns the checksum of every record added so far.
func (s *Stream) Sum64() uint64 {
	return s.h.Sum64()
}
