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

import "testing"

func TestProcessWithTail(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		lanes     int
		wantFull  []int
		wantTail  [2]int
		wantTails int
	}{
		{name: "empty", size: 0, lanes: 64},
		{name: "exact", size: 128, lanes: 64, wantFull: []int{0, 64}},
		{name: "tail only", size: 10, lanes: 64, wantTail: [2]int{0, 10}, wantTails: 1},
		{name: "full and tail", size: 130, lanes: 64, wantFull: []int{0, 64}, wantTail: [2]int{128, 2}, wantTails: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var full []int
			var tail [2]int
			tails := 0
			ProcessWithTail(tt.size, tt.lanes,
				func(offset int) { full = append(full, offset) },
				func(offset, count int) {
					tail = [2]int{offset, count}
					tails++
				},
			)
			if len(full) != len(tt.wantFull) {
				t.Fatalf("full blocks: got %v, want %v", full, tt.wantFull)
			}
			for i := range full {
				if full[i] != tt.wantFull[i] {
					t.Errorf("full block %d: got %d, want %d", i, full[i], tt.wantFull[i])
				}
			}
			if tails != tt.wantTails || tail != tt.wantTail {
				t.Errorf("tail: got %v x%d, want %v x%d", tail, tails, tt.wantTail, tt.wantTails)
			}
		})
	}
}

func TestNumBlocks(t *testing.T) {
	if got := NumBlocks(0, 512); got != 0 {
		t.Errorf("NumBlocks(0): got %d", got)
	}
	if got := NumBlocks(512, 512); got != 1 {
		t.Errorf("NumBlocks(512): got %d", got)
	}
	if got := NumBlocks(513, 512); got != 2 {
		t.Errorf("NumBlocks(513): got %d", got)
	}
}
