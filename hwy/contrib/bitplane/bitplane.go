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

// Package bitplane converts between element streams and bit-planes.
//
// A stream of n elements of width W transposes into W planes of n bits:
// bit i of plane p is bit p of element i. Work is done in chunks of 64
// elements, one word per plane, so chunk ranges can be converted
// independently and in parallel.
package bitplane

import (
	"github.com/ajroetker/go-streamcompact/hwy"
)

// ChunkElems is the number of elements covered by one plane word.
const ChunkElems = hwy.WordBits

// NumChunks returns the number of chunks covering n elements.
func NumChunks(n int) int {
	return hwy.NumBlocks(n, ChunkElems)
}

// fieldLows returns a word with bit 0 of every width-bit field set.
func fieldLows(width int) uint64 {
	var m uint64
	for i := 0; i < hwy.WordBits; i += width {
		m |= 1 << uint(i)
	}
	return m
}

// Transpose splits the first n elements of the width-bit stream src into
// width planes. Every plane needs NumChunks(n) words.
func Transpose(planes [][]uint64, src []uint64, width, n int) {
	TransposeChunks(planes, src, width, n, 0, NumChunks(n))
}

// TransposeChunks transposes the chunks [from, to). Plane bits past n are
// written as zero.
func TransposeChunks(planes [][]uint64, src []uint64, width, n, from, to int) {
	per := hwy.WordBits / width
	lows := fieldLows(width)
	for c := from; c < to; c++ {
		base := c * width
		words := min(width, len(src)-base)
		valid := hwy.FirstN(n - c*ChunkElems)
		switch width {
		case 1:
			planes[0][c] = src[c] & valid
		case 8:
			for p := 0; p < 8; p++ {
				var acc uint64
				for j := 0; j < words; j++ {
					acc |= hwy.GatherByteBits(src[base+j]>>uint(p)) << uint(j*8)
				}
				planes[p][c] = acc & valid
			}
		default:
			for p := 0; p < width; p++ {
				var acc uint64
				sel := lows << uint(p)
				for j := 0; j < words; j++ {
					acc |= hwy.ExtractBits(src[base+j], sel) << uint(j*per)
				}
				planes[p][c] = acc & valid
			}
		}
	}
}

// Untranspose is the inverse of Transpose: it rebuilds n elements of width
// bits from width planes into dst. Only the words holding the n elements
// are written, and bits of the last one past n*width are zero.
func Untranspose(dst []uint64, planes [][]uint64, width, n int) {
	UntransposeChunks(dst, planes, width, n, 0, NumChunks(n))
}

// UntransposeChunks rebuilds the elements of chunks [from, to).
func UntransposeChunks(dst []uint64, planes [][]uint64, width, n, from, to int) {
	per := hwy.WordBits / width
	lows := fieldLows(width)
	limit := hwy.WordsFor(n * width)
	for c := from; c < to; c++ {
		base := c * width
		words := min(width, limit-base)
		valid := hwy.FirstN(n - c*ChunkElems)
		switch width {
		case 1:
			dst[c] = planes[0][c] & valid
		case 8:
			for j := 0; j < words; j++ {
				var acc uint64
				for p := 0; p < 8; p++ {
					acc |= hwy.SpreadByteBits((planes[p][c]&valid)>>uint(j*8)) << uint(p)
				}
				dst[base+j] = acc
			}
		default:
			for j := 0; j < words; j++ {
				var acc uint64
				for p := 0; p < width; p++ {
					bits := (planes[p][c] & valid) >> uint(j*per)
					acc |= hwy.DepositBits(bits, lows<<uint(p))
				}
				dst[base+j] = acc
			}
		}
	}
}
