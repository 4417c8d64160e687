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

package stream

import (
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/ajroetker/go-streamcompact/hwy"
)

// MaskFromBytes returns a mask with one position per byte of b; a position
// is selected when its byte is nonzero.
func MaskFromBytes(b []byte) *StreamSet {
	m := New(1, len(b), 1)
	words := m.streams[0]
	for i := range words {
		lo := i * hwy.ByteLanes
		hi := min(lo+hwy.ByteLanes, len(b))
		words[i] = hwy.MaskFromBytes(b[lo:hi])
	}
	return m
}

// MaskFromBools returns a mask selecting the positions where keep is true.
func MaskFromBools(keep []bool) *StreamSet {
	m := New(1, len(keep), 1)
	words := m.streams[0]
	for i, k := range keep {
		if k {
			words[i/hwy.WordBits] |= 1 << uint(i%hwy.WordBits)
		}
	}
	return m
}

// MaskFromBitmap returns a mask of length n selecting the positions held in
// bm. Positions at or past n are ignored.
func MaskFromBitmap(bm *roaring.Bitmap, n int) *StreamSet {
	m := New(1, n, 1)
	words := m.streams[0]
	it := bm.Iterator()
	for it.HasNext() {
		pos := int(it.Next())
		if pos >= n {
			break
		}
		words[pos/hwy.WordBits] |= 1 << uint(pos%hwy.WordBits)
	}
	return m
}

// Bitmap returns the positions of the set bits among the first Len
// elements of the width-1 stream st.
func (s *StreamSet) Bitmap(st int) *roaring.Bitmap {
	bm := roaring.New()
	n := s.length * s.width
	batch := make([]uint32, 0, hwy.WordBits)
	for i, w := range s.streams[st] {
		base := i * hwy.WordBits
		if base >= n {
			break
		}
		w &= hwy.FirstN(n - base)
		for ; w != 0; w &= w - 1 {
			batch = append(batch, uint32(base+bits.TrailingZeros64(w)))
		}
		bm.AddMany(batch)
		batch = batch[:0]
	}
	return bm
}
