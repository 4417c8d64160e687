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

// Package stream defines the stream sets the compaction kernels read and
// write.
//
// A StreamSet is a group of parallel streams that share a logical length
// and a field width W (1, 2, 4, 8, 16, 32 or 64 bits per element). Each
// stream is a dense little-endian bit buffer of 64-bit words: element i
// occupies bits [i*W, (i+1)*W), and bit j lives in word j/64 at position
// j%64. Since W divides 64, an element never straddles two words.
//
// A mask is a StreamSet of width 1 whose stream 0 selects elements: bit 1
// keeps the element at that position, bit 0 discards it.
//
// # Example Usage
//
//	input := stream.FromBytes([]byte("ABCDEFGH"))
//	mask := stream.MaskFromBytes([]byte{1, 0, 1, 1, 0, 0, 1, 0})
//	output := stream.New(1, mask.PopCount(0), 8)
//
// Bits of a stream past its logical length are ignored by every kernel that
// reads the stream; kernels that write a stream zero-fill the last word they
// touch.
package stream
