// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fieldcompress implements the field-compress stage of bit-level
// stream compaction.
//
// Every selected plane is cut into fields of F bits. Within a field, the
// bits whose selector bit is set are packed to the low end of the field in
// their original order and the bits above them are cleared. The number of
// survivors of each field is popcount of the selector field, which is what
// the stream-compress stage needs to stitch fields together.
//
// For example, with F=4:
//
//	plane    = 0b1101_0110
//	selector = 0b1011_0011
//	result   = 0b0101_0010
package fieldcompress

import (
	"math/bits"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/stream"
)

// ValidFieldWidth reports whether F can be used as an extraction field
// width: a power of two from 1 to 64. Such a width divides every block.
func ValidFieldWidth(f int) bool {
	return stream.ValidFieldWidth(f)
}

// CompressWord packs, within every fieldWidth-bit field of v, the bits
// selected by sel to the low end of the field.
func CompressWord(v, sel uint64, fieldWidth int) uint64 {
	switch fieldWidth {
	case 1:
		return v & sel
	case hwy.WordBits:
		return hwy.ExtractBits(v, sel)
	}
	var out uint64
	fm := hwy.FirstN(fieldWidth)
	for shift := 0; shift < hwy.WordBits; shift += fieldWidth {
		m := sel & (fm << uint(shift))
		if m == 0 {
			continue
		}
		out |= hwy.ExtractBits(v, m) << uint(shift)
	}
	return out
}

// FieldCounts stores the number of set bits of every fieldWidth-bit field of
// sel into dst, lowest field first. dst must hold 64/fieldWidth entries.
func FieldCounts(sel uint64, fieldWidth int, dst []uint8) {
	fm := hwy.FirstN(fieldWidth)
	for f := range hwy.WordBits / fieldWidth {
		dst[f] = uint8(bits.OnesCount64(sel >> uint(f*fieldWidth) & fm))
	}
}

// Kernel compacts groups of planes under a common selector.
type Kernel struct {
	// Selector is the mask driving the stage. Only its first stream is
	// read, and bits past its length count as unselected.
	Selector stream.Selection

	// Groups lists the planes to compact. Output stream k receives the
	// k-th plane in group order.
	Groups []stream.Selection

	FieldWidth int
}

// NumOutputs returns the number of output planes the kernel writes.
func (k *Kernel) NumOutputs() int {
	n := 0
	for _, g := range k.Groups {
		n += g.NumStreams()
	}
	return n
}

// SelectorWord returns word w of the selector with bits past the selector
// length cleared.
func (k *Kernel) SelectorWord(w int) uint64 {
	sel := k.Selector.Words(0)[w]
	nbits := k.Selector.Set.Len()
	return sel & hwy.FirstN(nbits-w*hwy.WordBits)
}

// Run compacts words [fromWord, toWord) of every plane into out. Distinct
// word ranges touch distinct output words, so ranges may run concurrently.
func (k *Kernel) Run(out *stream.StreamSet, fromWord, toWord int) {
	for w := fromWord; w < toWord; w++ {
		sel := k.SelectorWord(w)
		o := 0
		for _, g := range k.Groups {
			for i := range g.Streams {
				var v uint64
				if sel != 0 {
					v = CompressWord(g.Words(i)[w], sel, k.FieldWidth)
				}
				out.Words(o)[w] = v
				o++
			}
		}
	}
}
