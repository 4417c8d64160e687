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
	"encoding/binary"
	"fmt"

	"github.com/ajroetker/go-streamcompact/hwy"
)

// MaxFieldWidth is the widest supported element.
const MaxFieldWidth = hwy.WordBits

// ValidFieldWidth reports whether w is a supported element width: a power
// of two between 1 and 64.
func ValidFieldWidth(w int) bool {
	return w >= 1 && w <= MaxFieldWidth && w&(w-1) == 0
}

// WordsFor returns the number of words that hold n elements of width w.
func WordsFor(n, w int) int {
	return hwy.WordsFor(n * w)
}

// StreamSet is a set of parallel streams with a common length and field
// width.
type StreamSet struct {
	width    int
	length   int
	capacity int
	streams  [][]uint64
}

// New allocates numStreams zeroed streams of length elements of width bits.
// The capacity of the set equals length. It panics if width is not a valid
// field width or a count is negative.
func New(numStreams, length, width int) *StreamSet {
	checkShape(numStreams, length, width)
	streams := make([][]uint64, numStreams)
	words := WordsFor(length, width)
	for i := range streams {
		streams[i] = make([]uint64, words)
	}
	return &StreamSet{width: width, length: length, capacity: length, streams: streams}
}

// Wrap builds a StreamSet over caller-owned word buffers. The capacity is
// the number of elements the shortest buffer can hold.
func Wrap(streams [][]uint64, length, width int) *StreamSet {
	checkShape(len(streams), length, width)
	capacity := -1
	for _, s := range streams {
		if c := len(s) * hwy.WordBits / width; capacity < 0 || c < capacity {
			capacity = c
		}
	}
	if capacity < 0 {
		capacity = length
	}
	if length > capacity {
		panic(fmt.Sprintf("stream: length %d exceeds buffer capacity %d", length, capacity))
	}
	return &StreamSet{width: width, length: length, capacity: capacity, streams: streams}
}

func checkShape(numStreams, length, width int) {
	if !ValidFieldWidth(width) {
		panic(fmt.Sprintf("stream: invalid field width %d", width))
	}
	if numStreams < 0 || length < 0 {
		panic(fmt.Sprintf("stream: invalid shape %d x %d", numStreams, length))
	}
}

// FromBytes returns a single 8-bit stream holding a copy of b.
func FromBytes(b []byte) *StreamSet {
	s := New(1, len(b), 8)
	words := s.streams[0]
	full := len(b) / 8
	for i := 0; i < full; i++ {
		words[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	if rem := len(b) - full*8; rem > 0 {
		var tail [8]byte
		copy(tail[:], b[full*8:])
		words[full] = binary.LittleEndian.Uint64(tail[:])
	}
	return s
}

// FromValues returns a single stream of the given width holding vals. Bits
// of a value above width are dropped.
func FromValues(width int, vals ...uint64) *StreamSet {
	s := New(1, len(vals), width)
	for i, v := range vals {
		s.Set(0, i, v)
	}
	return s
}

// NumStreams returns the number of streams in the set.
func (s *StreamSet) NumStreams() int { return len(s.streams) }

// FieldWidth returns the number of bits per element.
func (s *StreamSet) FieldWidth() int { return s.width }

// Len returns the logical number of elements in every stream.
func (s *StreamSet) Len() int { return s.length }

// Cap returns the number of elements every stream can hold.
func (s *StreamSet) Cap() int { return s.capacity }

// SetLen sets the logical length. It panics if n is outside [0, Cap()].
func (s *StreamSet) SetLen(n int) {
	if n < 0 || n > s.capacity {
		panic(fmt.Sprintf("stream: length %d out of range [0, %d]", n, s.capacity))
	}
	s.length = n
}

// Words returns the backing words of stream i, including capacity past the
// logical length.
func (s *StreamSet) Words(i int) []uint64 { return s.streams[i] }

// Get returns element i of stream st.
func (s *StreamSet) Get(st, i int) uint64 {
	off := i * s.width
	w := s.streams[st][off/hwy.WordBits]
	return (w >> uint(off%hwy.WordBits)) & hwy.FirstN(s.width)
}

// Set stores the low FieldWidth bits of v as element i of stream st.
func (s *StreamSet) Set(st, i int, v uint64) {
	off := i * s.width
	shift := uint(off % hwy.WordBits)
	m := hwy.FirstN(s.width) << shift
	words := s.streams[st]
	words[off/hwy.WordBits] = words[off/hwy.WordBits]&^m | (v<<shift)&m
}

// PopCount returns the number of set bits in the first Len elements of
// stream st. For a mask this is the number of selected positions.
func (s *StreamSet) PopCount(st int) int {
	return hwy.PopCountBits(s.streams[st], s.length*s.width)
}

// Bytes returns the first Len elements of stream st as little-endian bytes,
// ceil(Len*FieldWidth/8) of them. For an 8-bit stream this is one byte per
// element.
func (s *StreamSet) Bytes(st int) []byte {
	nbytes := (s.length*s.width + 7) / 8
	out := make([]byte, nbytes)
	var buf [8]byte
	for i, w := range s.streams[st] {
		if i*8 >= nbytes {
			break
		}
		binary.LittleEndian.PutUint64(buf[:], w)
		copy(out[i*8:], buf[:])
	}
	if rem := (s.length * s.width) % 8; rem != 0 {
		out[nbytes-1] &= byte(hwy.FirstN(rem))
	}
	return out
}

// Reset zeroes every word of every stream and sets the length to Cap.
func (s *StreamSet) Reset() {
	for _, words := range s.streams {
		clear(words)
	}
	s.length = s.capacity
}

// String implements fmt.Stringer.
func (s *StreamSet) String() string {
	return fmt.Sprintf("StreamSet{streams=%d, width=%d, len=%d, cap=%d}",
		len(s.streams), s.width, s.length, s.capacity)
}
