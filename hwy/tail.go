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

package hwy

// ProcessWithTail is a helper for walking a stream in fixed-size blocks that
// handles both full blocks and the final partial block.
//
// It calls:
//   - fullFn(offset) for each full block of lanes elements
//   - tailFn(offset, count) once for the tail if size is not a multiple of lanes
//
// Example:
//
//	hwy.ProcessWithTail(len(src), hwy.ByteLanes,
//	    func(offset int) {
//	        // Process the full block at src[offset:offset+hwy.ByteLanes]
//	    },
//	    func(offset, count int) {
//	        // Process the remaining count elements at src[offset:]
//	    },
//	)
func ProcessWithTail(size, lanes int, fullFn func(offset int), tailFn func(offset, count int)) {
	if lanes <= 0 {
		return
	}

	// Process full blocks
	fullBlocks := size / lanes
	for i := range fullBlocks {
		fullFn(i * lanes)
	}

	// Process tail if any
	if remaining := size - fullBlocks*lanes; remaining > 0 && tailFn != nil {
		tailFn(fullBlocks*lanes, remaining)
	}
}

// NumBlocks returns how many blocks of blockSize cover size elements,
// counting a final partial block.
func NumBlocks(size, blockSize int) int {
	if size <= 0 || blockSize <= 0 {
		return 0
	}
	return (size + blockSize - 1) / blockSize
}
