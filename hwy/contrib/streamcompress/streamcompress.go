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

// Package streamcompress implements the stream-compress stage of bit-level
// stream compaction: it stitches the field-compressed words produced by
// package fieldcompress into dense output planes.
//
// Each field of a compressed word holds its survivors in its low bits. The
// stage appends those survivors, field after field and word after word, at a
// running bit offset that is carried across blocks in a Cursor.
package streamcompress

import (
	"math/bits"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/fieldcompress"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/stream"
)

// Cursor is the output bit offset shared by every plane of one compaction.
type Cursor struct {
	pos int
}

// Pos returns the number of bits written so far.
func (c Cursor) Pos() int { return c.pos }

// Append appends the survivors of words [fromWord, toWord) of every
// compressed plane to the matching plane of dst, starting at cur, and
// returns the advanced cursor. sel is the selector the planes were
// compressed with; its bits past the logical length must be zero.
//
// Bits of the last written word above the new cursor are zero. Words past
// it are not touched.
func Append(dst, compressed [][]uint64, sel []uint64, fieldWidth, fromWord, toWord int, cur Cursor) Cursor {
	var counts [hwy.WordBits]uint8
	fields := counts[:hwy.WordBits/fieldWidth]
	pos := cur.pos
	for w := fromWord; w < toWord; w++ {
		s := sel[w]
		if s == 0 {
			continue
		}
		if fieldWidth == hwy.WordBits || s == ^uint64(0) {
			// One run covers the whole word.
			n := bits.OnesCount64(s)
			for p := range compressed {
				appendBits(dst[p], pos, compressed[p][w], n)
			}
			pos += n
			continue
		}
		fieldcompress.FieldCounts(s, fieldWidth, fields)
		for f, c := range fields {
			if c == 0 {
				continue
			}
			n, shift := int(c), f*fieldWidth
			for p := range compressed {
				appendBits(dst[p], pos, compressed[p][w]>>uint(shift), n)
			}
			pos += n
		}
	}
	return Cursor{pos: pos}
}

// appendBits writes the low n bits of v at bit pos of out, clearing the
// bits above them in the same word.
func appendBits(out []uint64, pos int, v uint64, n int) {
	v &= hwy.FirstN(n)
	q, shift := pos/hwy.WordBits, uint(pos%hwy.WordBits)
	out[q] = out[q]&hwy.FirstN(int(shift)) | v<<shift
	if int(shift)+n > hwy.WordBits {
		out[q+1] = v >> (hwy.WordBits - shift)
	}
}

// Kernel runs the stage over a whole stream, one block at a time in block
// order.
type Kernel struct {
	// Mask is the selector used by the field-compress stage. Only its
	// first stream is read.
	Mask stream.Selection

	// Compressed holds the field-compressed planes.
	Compressed *stream.StreamSet

	// Output receives one dense plane per compressed plane. Its length is
	// set to the number of survivors.
	Output *stream.StreamSet

	FieldWidth int
	BlockWidth int
}

// Run appends every block starting from an empty cursor and returns the
// number of survivors.
func (k *Kernel) Run() int {
	n := k.Mask.Set.Len()
	sel := k.Mask.Words(0)
	planes := make([][]uint64, k.Compressed.NumStreams())
	dst := make([][]uint64, len(planes))
	for p := range planes {
		planes[p] = k.Compressed.Words(p)
		dst[p] = k.Output.Words(p)
	}

	full := n / hwy.WordBits
	blockWords := max(k.BlockWidth/hwy.WordBits, 1)
	var cur Cursor
	for from := 0; from < full; from += blockWords {
		cur = Append(dst, planes, sel, k.FieldWidth, from, min(from+blockWords, full), cur)
	}
	if rem := n % hwy.WordBits; rem != 0 {
		tail := []uint64{sel[full] & hwy.FirstN(rem)}
		tailPlanes := make([][]uint64, len(planes))
		for p := range planes {
			tailPlanes[p] = planes[p][full:]
		}
		cur = Append(dst, tailPlanes, tail, k.FieldWidth, 0, 1, cur)
	}
	k.Output.SetLen(cur.Pos())
	return cur.Pos()
}
