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
	"sync"
)

// Allocator creates the intermediate stream sets of a compaction pipeline
// and takes them back once the pipeline has finished with them.
type Allocator interface {
	// NewStreamSet returns numStreams zeroed streams of length elements of
	// width bits.
	NewStreamSet(numStreams, length, width int) *StreamSet

	// Release hands a set obtained from NewStreamSet back to the
	// allocator. The set must not be used afterwards.
	Release(s *StreamSet)
}

// HeapAllocator allocates every stream set from the Go heap and leaves
// released sets to the garbage collector.
type HeapAllocator struct{}

// NewStreamSet implements Allocator.
func (HeapAllocator) NewStreamSet(numStreams, length, width int) *StreamSet {
	return New(numStreams, length, width)
}

// Release implements Allocator.
func (HeapAllocator) Release(*StreamSet) {}

// PoolAllocator recycles stream word buffers through size-classed
// sync.Pools. Buffers are grouped by the next power of two of their word
// count, so a released buffer serves any later request of the same class.
type PoolAllocator struct {
	classes [64]sync.Pool
}

// NewPoolAllocator returns an empty PoolAllocator.
func NewPoolAllocator() *PoolAllocator {
	return &PoolAllocator{}
}

// NewStreamSet implements Allocator.
func (p *PoolAllocator) NewStreamSet(numStreams, length, width int) *StreamSet {
	checkShape(numStreams, length, width)
	words := WordsFor(length, width)
	streams := make([][]uint64, numStreams)
	for i := range streams {
		streams[i] = p.get(words)
	}
	return &StreamSet{width: width, length: length, capacity: length, streams: streams}
}

// Release implements Allocator.
func (p *PoolAllocator) Release(s *StreamSet) {
	if s == nil {
		return
	}
	for i, words := range s.streams {
		p.put(words)
		s.streams[i] = nil
	}
}

func sizeClass(words int) int {
	if words <= 1 {
		return 0
	}
	return bits.Len(uint(words - 1))
}

func (p *PoolAllocator) get(words int) []uint64 {
	if words == 0 {
		return nil
	}
	class := sizeClass(words)
	if v := p.classes[class].Get(); v != nil {
		buf := (*v.(*[]uint64))[:words]
		clear(buf)
		return buf
	}
	return make([]uint64, words, 1<<class)
}

func (p *PoolAllocator) put(buf []uint64) {
	c := cap(buf)
	if c == 0 || c&(c-1) != 0 {
		// Not one of ours.
		return
	}
	buf = buf[:c]
	p.classes[sizeClass(c)].Put(&buf)
}
