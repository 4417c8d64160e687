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

// Package filter compacts streams under a mask: the elements whose mask bit
// is set are packed, in order, into a dense output and the rest are
// dropped.
//
// Two strategies are provided. Byte streams can be compacted directly, 64
// bytes at a time, with a ByteCompactor (see FilterBytes). Streams of any
// element width go through the bit-level pipeline of FilterByMask:
//
//	transpose -> field compress -> stream compress -> untranspose
//
// The transposition and field compression of different blocks are
// independent and run on a worker pool. Stream compression threads a
// running bit offset through the blocks and runs in block order.
//
// Example:
//
//	in := stream.FromBytes([]byte("ABCDEFGH"))
//	mask := stream.MaskFromBools([]bool{true, false, true, true, false, false, true, false})
//	out := stream.New(1, in.Len(), 8)
//	if err := filter.FilterByMask(mask, in, out, 0, 64, true); err != nil {
//	    return err
//	}
//	fmt.Printf("%s\n", out.Bytes(0)) // ACDG
package filter

import (
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/fieldcompress"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/stream"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/streamcompress"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/workerpool"
)

// Engine runs compactions. It is safe for concurrent use by calls writing
// to different outputs.
type Engine struct {
	cfg       Config
	pool      *workerpool.Pool
	logger    log.Logger
	metrics   *metrics
	alloc     stream.Allocator
	compactor ByteCompactor
}

// New validates cfg and returns an engine. The engine owns a worker pool
// released by Close.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var compactor ByteCompactor
	switch cfg.Compactor {
	case CompactorHardware:
		c, err := NewHardwareCompactor()
		if err != nil {
			return nil, err
		}
		compactor = c
	case CompactorBitwise:
		compactor = NewBitwiseCompactor()
	default:
		compactor = DefaultCompactor()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	alloc := cfg.Allocator
	if alloc == nil {
		alloc = stream.NewPoolAllocator()
	}

	e := &Engine{
		cfg:       cfg,
		pool:      workerpool.New(cfg.Workers),
		logger:    log.With(logger, "component", "filter"),
		metrics:   newMetrics(cfg.Registerer),
		alloc:     alloc,
		compactor: compactor,
	}
	level.Info(e.logger).Log(
		"msg", "engine ready",
		"compactor", compactor.Name(),
		"dispatch", hwy.CurrentName(),
		"workers", e.pool.NumWorkers(),
		"block_width", cfg.BlockWidth,
	)
	return e, nil
}

// Close stops the worker pool. Calls made after Close run on the calling
// goroutine.
func (e *Engine) Close() {
	e.pool.Close()
}

// Compactor returns the byte compactor used by FilterBytes.
func (e *Engine) Compactor() ByteCompactor {
	return e.compactor
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
})

// FilterByMask runs FilterByMask on a default engine created on first use.
func FilterByMask(mask, inputs, outputs *stream.StreamSet, streamOffset, extractionFieldWidth int, byteDeletion bool) error {
	return defaultEngine().FilterByMask(mask, inputs, outputs, streamOffset, extractionFieldWidth, byteDeletion)
}

// FilterByMask compacts outputs.NumStreams() streams of inputs, starting at
// stream streamOffset, under stream 0 of mask. Output stream k receives the
// elements of input stream streamOffset+k at the positions where the mask
// is set, in order, and its length becomes the number of such positions.
//
// With byteDeletion the inputs are element streams of any width, which are
// transposed to bit-planes, compacted and transposed back. Otherwise the
// inputs are bit streams and are compacted directly. In both modes
// streamOffset counts input streams, not bit-planes: with byteDeletion and
// W-bit elements, offset 1 skips the W planes of input stream 0.
//
// extractionFieldWidth is the field size F of the field-compress stage. It
// must be a power of two from 1 to 64; it does not change the result.
//
// All arguments are checked before anything is written. On error outputs
// are left unchanged.
func (e *Engine) FilterByMask(mask, inputs, outputs *stream.StreamSet, streamOffset, extractionFieldWidth int, byteDeletion bool) error {
	start := time.Now()
	mode := modeBits
	if byteDeletion {
		mode = modeBytes
	}

	src, err := e.validate(mask, inputs, outputs, streamOffset, extractionFieldWidth, byteDeletion)
	if err != nil {
		e.metrics.failed(err)
		level.Debug(e.logger).Log("msg", "rejected call", "mode", mode, "err", err)
		return err
	}

	p := NewPipeline(e.pool, e.alloc, e.cfg.BlockWidth)
	defer p.Release()
	var compact *StreamCompressStage
	if byteDeletion {
		compact = e.bytePipeline(p, mask, src, outputs, extractionFieldWidth)
	} else {
		compact = e.bitPipeline(p, mask, src, outputs, extractionFieldWidth)
	}
	if err := p.Run(); err != nil {
		e.metrics.failed(err)
		return err
	}

	elapsed := time.Since(start)
	e.metrics.observe(mode, inputs.Len(), compact.Total, elapsed.Seconds())
	level.Debug(e.logger).Log(
		"msg", "filtered",
		"mode", mode,
		"streams", outputs.NumStreams(),
		"elements", inputs.Len(),
		"survivors", compact.Total,
		"duration", elapsed,
	)
	return nil
}

// validate checks every argument and returns the input streams feeding
// outputs.
func (e *Engine) validate(mask, inputs, outputs *stream.StreamSet, offset, fieldWidth int, byteDeletion bool) (stream.Selection, error) {
	if mask == nil || inputs == nil || outputs == nil {
		return stream.Selection{}, errors.Wrap(ErrStreamRange, "nil stream set")
	}
	if !fieldcompress.ValidFieldWidth(fieldWidth) {
		return stream.Selection{}, errors.Wrapf(ErrFieldWidth, "extraction field width %d", fieldWidth)
	}
	if mask.FieldWidth() != 1 {
		return stream.Selection{}, errors.Wrapf(ErrFieldWidth, "mask field width %d, want 1", mask.FieldWidth())
	}
	if mask.NumStreams() == 0 {
		return stream.Selection{}, errors.Wrap(ErrStreamRange, "mask has no streams")
	}
	if byteDeletion {
		if outputs.FieldWidth() != inputs.FieldWidth() {
			return stream.Selection{}, errors.Wrapf(ErrFieldWidth, "output field width %d, input field width %d",
				outputs.FieldWidth(), inputs.FieldWidth())
		}
	} else if inputs.FieldWidth() != 1 || outputs.FieldWidth() != 1 {
		return stream.Selection{}, errors.Wrapf(ErrFieldWidth, "bit streams need field width 1, got input %d output %d",
			inputs.FieldWidth(), outputs.FieldWidth())
	}
	src := stream.Select(inputs, stream.Range(offset, offset+outputs.NumStreams())...)
	if offset < 0 || offset > inputs.NumStreams() || !src.Valid() {
		return stream.Selection{}, errors.Wrapf(ErrStreamRange, "streams [%d, %d) of %d",
			offset, offset+outputs.NumStreams(), inputs.NumStreams())
	}
	if mask.Len() != inputs.Len() {
		return stream.Selection{}, errors.Wrapf(ErrLengthMismatch, "mask length %d, input length %d", mask.Len(), inputs.Len())
	}
	total := mask.PopCount(0)
	if total > outputs.Cap() {
		return stream.Selection{}, errors.Wrapf(ErrCapacity, "%d elements selected, output holds %d", total, outputs.Cap())
	}
	return src, nil
}

// bytePipeline queues the stages compacting the element streams of src into
// outputs and returns the stream-compress stage.
func (e *Engine) bytePipeline(p *Pipeline, mask *stream.StreamSet, src stream.Selection, outputs *stream.StreamSet, fieldWidth int) *StreamCompressStage {
	n := src.Set.Len()
	w := src.Set.FieldWidth()

	planes := p.NewStreamSet(src.NumStreams()*w, n, 1)
	groups := make([]stream.Selection, src.NumStreams())
	for k := range groups {
		groups[k] = stream.Select(planes, stream.Range(k*w, (k+1)*w)...)
	}
	kernel := &fieldcompress.Kernel{
		Selector:   stream.Select(mask, 0),
		Groups:     groups,
		FieldWidth: fieldWidth,
	}
	compressed := p.NewStreamSet(kernel.NumOutputs(), n, 1)
	dense := p.NewStreamSet(kernel.NumOutputs(), n, 1)

	compact := &StreamCompressStage{
		Kernel: &streamcompress.Kernel{
			Mask:       stream.Select(mask, 0),
			Compressed: compressed,
			Output:     dense,
			FieldWidth: fieldWidth,
			BlockWidth: e.cfg.BlockWidth,
		},
	}
	p.Add(
		&TransposeStage{Src: src, Planes: planes},
		&FieldCompressStage{Kernel: kernel, Out: compressed},
		compact,
		&UntransposeStage{Planes: dense, Dst: outputs},
	)
	return compact
}

// bitPipeline queues the stages compacting the bit streams of src into
// outputs and returns the stream-compress stage.
func (e *Engine) bitPipeline(p *Pipeline, mask *stream.StreamSet, src stream.Selection, outputs *stream.StreamSet, fieldWidth int) *StreamCompressStage {
	kernel := &fieldcompress.Kernel{
		Selector:   stream.Select(mask, 0),
		Groups:     []stream.Selection{src},
		FieldWidth: fieldWidth,
	}
	compressed := p.NewStreamSet(kernel.NumOutputs(), src.Set.Len(), 1)
	compact := &StreamCompressStage{
		Kernel: &streamcompress.Kernel{
			Mask:       stream.Select(mask, 0),
			Compressed: compressed,
			Output:     outputs,
			FieldWidth: fieldWidth,
			BlockWidth: e.cfg.BlockWidth,
		},
	}
	p.Add(
		&FieldCompressStage{Kernel: kernel, Out: compressed},
		compact,
	)
	return compact
}

// FilterBytes copies the bytes of src whose mask byte is nonzero to the
// front of dst with the engine's compactor and returns how many were
// copied. dst must hold every selected byte.
func (e *Engine) FilterBytes(dst, src, mask []byte) (int, error) {
	start := time.Now()
	n, err := CompactBytes(e.compactor, dst, src, mask)
	if err != nil {
		e.metrics.failed(err)
		return 0, err
	}
	elapsed := time.Since(start)
	e.metrics.observe(modeDirect, len(src), n, elapsed.Seconds())
	level.Debug(e.logger).Log(
		"msg", "filtered bytes",
		"compactor", e.compactor.Name(),
		"elements", len(src),
		"survivors", n,
		"duration", elapsed,
	)
	return n, nil
}
