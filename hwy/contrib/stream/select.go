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

// Selection names an ordered subset of the streams of a StreamSet. Kernels
// take selections so that one stage can read, for example, stream 0 of a
// mask set or a contiguous range of bit-planes.
type Selection struct {
	Set     *StreamSet
	Streams []int
}

// Select returns the selection of the given streams of set. With no stream
// indices, every stream is selected.
func Select(set *StreamSet, streams ...int) Selection {
	if len(streams) == 0 {
		streams = Range(0, set.NumStreams())
	}
	return Selection{Set: set, Streams: streams}
}

// Range returns the indices lo, lo+1, ..., hi-1.
func Range(lo, hi int) []int {
	if hi <= lo {
		return nil
	}
	r := make([]int, hi-lo)
	for i := range r {
		r[i] = lo + i
	}
	return r
}

// NumStreams returns the number of selected streams.
func (s Selection) NumStreams() int { return len(s.Streams) }

// Words returns the backing words of the i-th selected stream.
func (s Selection) Words(i int) []uint64 { return s.Set.Words(s.Streams[i]) }

// Valid reports whether every selected index names a stream of the set.
func (s Selection) Valid() bool {
	if s.Set == nil {
		return false
	}
	for _, st := range s.Streams {
		if st < 0 || st >= s.Set.NumStreams() {
			return false
		}
	}
	return true
}
