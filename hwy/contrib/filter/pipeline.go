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

package filter

import (
	"github.com/pkg/errors"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/bitplane"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/fieldcompress"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/stream"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/streamcompress"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/workerpool"
)

// Stage is one step of a compaction pipeline. Stages exchange data through
// stream sets created with Pipeline.NewStreamSet.
type Stage interface {
	Name() string
	Run(p *Pipeline) error
}

// Pipeline runs stages in order and owns the intermediates they share.
type Pipeline struct {
	pool       *workerpool.Pool
	alloc      stream.Allocator
	blockWidth int
	stages     []Stage
	owned      []*stream.StreamSet
}

// NewPipeline returns an empty pipeline. Block-parallel stages run on pool
// and intermediates come from alloc.
func NewPipeline(pool *workerpool.Pool, alloc stream.Allocator, blockWidth int) *Pipeline {
	return &Pipeline{pool: pool, alloc: alloc, blockWidth: blockWidth}
}

// NewStreamSet allocates an intermediate that lives until Release.
func (p *Pipeline) NewStreamSet(numStreams, length, width int) *stream.StreamSet {
	s := p.alloc.NewStreamSet(numStreams, length, width)
	p.owned = append(p.owned, s)
	return s
}

// Add appends stages to the pipeline.
func (p *Pipeline) Add(stages ...Stage) {
	p.stages = append(p.stages, stages...)
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run runs every stage in order and stops at the first error.
func (p *Pipeline) Run() error {
	for _, s := range p.stages {
		if err := s.Run(p); err != nil {
			return errors.Wrapf(err, "stage %s", s.Name())
		}
	}
	return nil
}

// Release returns every intermediate to the allocator.
func (p *Pipeline) Release() {
	for _, s := range p.owned {
		p.alloc.Release(s)
	}
	p.owned = nil
}

// blockWords returns the number of words per stream in one block. Block
// widths under one word count as one word.
func (p *Pipeline) blockWords() int {
	return max(p.blockWidth/hwy.WordBits, 1)
}

// forWords runs fn over [0, words) one block of words at a time, spreading
// blocks over the pool.
func (p *Pipeline) forWords(words int, fn func(from, to int)) {
	bw := p.blockWords()
	p.pool.ForBlocks(hwy.NumBlocks(words, bw), 1, func(first, last int) {
		fn(first*bw, min(last*bw, words))
	})
}

// TransposeStage splits streams of Src into bit-planes: plane q of the k-th
// selected stream becomes stream k*W+q of Planes.
type TransposeStage struct {
	Src    stream.Selection
	Planes *stream.StreamSet
}

func (s *TransposeStage) Name() string { return "transpose" }

func (s *TransposeStage) Run(p *Pipeline) error {
	w := s.Src.Set.FieldWidth()
	n := s.Src.Set.Len()
	p.forWords(bitplane.NumChunks(n), func(from, to int) {
		for k := range s.Src.Streams {
			planes := planeWords(s.Planes, k*w, w)
			bitplane.TransposeChunks(planes, s.Src.Words(k), w, n, from, to)
		}
	})
	return nil
}

// FieldCompressStage runs a field-compress kernel over every block.
type FieldCompressStage struct {
	Kernel *fieldcompress.Kernel
	Out    *stream.StreamSet
}

func (s *FieldCompressStage) Name() string { return "field_compress" }

func (s *FieldCompressStage) Run(p *Pipeline) error {
	words := stream.WordsFor(s.Kernel.Selector.Set.Len(), 1)
	p.forWords(words, func(from, to int) {
		s.Kernel.Run(s.Out, from, to)
	})
	return nil
}

// StreamCompressStage stitches compressed planes in block order. Total holds
// the number of survivors after Run.
type StreamCompressStage struct {
	Kernel *streamcompress.Kernel
	Total  int
}

func (s *StreamCompressStage) Name() string { return "stream_compress" }

func (s *StreamCompressStage) Run(*Pipeline) error {
	s.Total = s.Kernel.Run()
	return nil
}

// UntransposeStage rebuilds W-bit elements from dense planes: stream k of
// Dst comes from planes [k*W, (k+1)*W). The element count is the length of
// Planes.
type UntransposeStage struct {
	Planes *stream.StreamSet
	Dst    *stream.StreamSet
}

func (s *UntransposeStage) Name() string { return "untranspose" }

func (s *UntransposeStage) Run(p *Pipeline) error {
	w := s.Dst.FieldWidth()
	n := s.Planes.Len()
	if n > s.Dst.Cap() {
		return errors.Wrapf(ErrCapacity, "%d elements, output holds %d", n, s.Dst.Cap())
	}
	p.forWords(bitplane.NumChunks(n), func(from, to int) {
		for k := 0; k < s.Dst.NumStreams(); k++ {
			bitplane.UntransposeChunks(s.Dst.Words(k), planeWords(s.Planes, k*w, w), w, n, from, to)
		}
	})
	s.Dst.SetLen(n)
	return nil
}

func planeWords(set *stream.StreamSet, first, n int) [][]uint64 {
	planes := make([][]uint64, n)
	for q := range planes {
		planes[q] = set.Words(first + q)
	}
	return planes
}
