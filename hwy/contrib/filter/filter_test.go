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
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-streamcompact/hwy"
	"github.com/ajroetker/go-streamcompact/hwy/contrib/stream"
)

var fieldWidths = []int{1, 2, 4, 8, 16, 32, 64}

func newEngine(t testing.TB, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 4
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func randomBytesAndMask(rng *rand.Rand, n int) ([]byte, []byte) {
	src := make([]byte, n)
	mask := make([]byte, n)
	rng.Read(src)
	for i := range mask {
		mask[i] = byte(rng.Intn(2))
	}
	return src, mask
}

func reference(src, mask []byte) []byte {
	return lo.Filter(src, func(_ byte, i int) bool { return mask[i] != 0 })
}

func TestConcreteScenario(t *testing.T) {
	keep := []bool{true, false, true, true, false, false, true, false}
	for _, f := range fieldWidths {
		t.Run(fmt.Sprintf("F%d", f), func(t *testing.T) {
			in := stream.FromBytes([]byte("ABCDEFGH"))
			mask := stream.MaskFromBools(keep)
			out := stream.New(1, in.Len(), 8)
			require.NoError(t, FilterByMask(mask, in, out, 0, f, true))
			require.Equal(t, 4, out.Len())
			require.Equal(t, []byte("ACDG"), out.Bytes(0))
		})
	}

	dst := make([]byte, 8)
	n, err := FilterBytes(dst, []byte("ABCDEFGH"), []byte{1, 0, 1, 1, 0, 0, 1, 0})
	require.NoError(t, err)
	require.Equal(t, []byte("ACDG"), dst[:n])
}

func TestMillionByteScenario(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src, maskBytes := randomBytesAndMask(rng, 1_000_000)
	want := reference(src, maskBytes)

	e := newEngine(t, nil)
	in := stream.FromBytes(src)
	mask := stream.MaskFromBytes(maskBytes)
	out := stream.New(1, len(src), 8)
	require.NoError(t, e.FilterByMask(mask, in, out, 0, 64, true))
	require.Equal(t, len(want), out.Len())
	require.True(t, bytes.Equal(want, out.Bytes(0)), "pipeline output differs from reference")

	compactors := []ByteCompactor{NewBitwiseCompactor()}
	if hw, err := NewHardwareCompactor(); err == nil {
		compactors = append(compactors, hw)
	}
	for _, c := range compactors {
		dst := make([]byte, len(want))
		n, err := CompactBytes(c, dst, src, maskBytes)
		require.NoError(t, err, c.Name())
		require.Equal(t, len(want), n, c.Name())
		require.True(t, bytes.Equal(want, dst), "%s output differs from reference", c.Name())
	}
}

func TestByteDeletionWidths(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	e := newEngine(t, nil)
	for _, w := range []int{1, 2, 4, 8, 16, 32, 64} {
		for _, n := range []int{0, 1, 63, 64, 65, 700, 2049} {
			name := fmt.Sprintf("W%d/n%d", w, n)
			in := stream.New(3, n, w)
			mask := stream.New(1, n, 1)
			for i := 0; i < n; i++ {
				for s := 0; s < 3; s++ {
					in.Set(s, i, rng.Uint64())
				}
				mask.Set(0, i, uint64(rng.Intn(2)))
			}

			out := stream.New(2, n, w)
			require.NoError(t, e.FilterByMask(mask, in, out, 1, 8, true), name)
			require.Equal(t, mask.PopCount(0), out.Len(), name)
			for k := 0; k < 2; k++ {
				j := 0
				for i := 0; i < n; i++ {
					if mask.Get(0, i) == 1 {
						require.Equal(t, in.Get(k+1, i), out.Get(k, j), "%s stream %d element %d", name, k, i)
						j++
					}
				}
			}
		}
	}
}

func TestBitMode(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 5000
	in := stream.New(4, n, 1)
	mask := stream.New(1, n, 1)
	for i := 0; i < n; i++ {
		for s := 0; s < 4; s++ {
			in.Set(s, i, uint64(rng.Intn(2)))
		}
		if rng.Intn(3) == 0 {
			mask.Set(0, i, 1)
		}
	}
	for _, f := range fieldWidths {
		out := stream.New(3, n, 1)
		require.NoError(t, FilterByMask(mask, in, out, 1, f, false))
		require.Equal(t, mask.PopCount(0), out.Len())
		j := 0
		for i := 0; i < n; i++ {
			if mask.Get(0, i) == 1 {
				for k := 0; k < 3; k++ {
					require.Equal(t, in.Get(k+1, i), out.Get(k, j), "F=%d element %d", f, i)
				}
				j++
			}
		}
	}
}

func TestFullAndEmptyMask(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	src := make([]byte, 1000)
	rng.Read(src)
	in := stream.FromBytes(src)

	full := stream.New(1, len(src), 1)
	for i := range src {
		full.Set(0, i, 1)
	}
	out := stream.New(1, len(src), 8)
	require.NoError(t, FilterByMask(full, in, out, 0, 16, true))
	require.Equal(t, src, out.Bytes(0))

	empty := stream.New(1, len(src), 1)
	require.NoError(t, FilterByMask(empty, in, out, 0, 16, true))
	require.Zero(t, out.Len())
	require.Empty(t, out.Bytes(0))

	dst := make([]byte, len(src))
	n, err := FilterBytes(dst, src, make([]byte, len(src)))
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = FilterBytes(dst, src, bytes.Repeat([]byte{0xff}, len(src)))
	require.NoError(t, err)
	require.Equal(t, src, dst[:n])
}

func TestBlockWidthDoesNotChangeOutput(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	src, maskBytes := randomBytesAndMask(rng, 40_000)
	in := stream.FromBytes(src)
	mask := stream.MaskFromBytes(maskBytes)

	var ref []uint64
	for _, b := range []int{512, 1024, 64, 4096} {
		e := newEngine(t, func(c *Config) { c.BlockWidth = b })
		out := stream.New(1, len(src), 8)
		require.NoError(t, e.FilterByMask(mask, in, out, 0, 32, true))
		if ref == nil {
			ref = out.Words(0)
			continue
		}
		require.Equal(t, ref, out.Words(0), "block width %d", b)
	}
}

func TestPadBitsZeroFilled(t *testing.T) {
	in := stream.FromBytes([]byte("ABCDEFGHIJ"))
	mask := stream.MaskFromBools([]bool{true, false, true, false, true, false, false, false, false, false})
	out := stream.Wrap([][]uint64{{^uint64(0), ^uint64(0)}}, 0, 8)
	require.NoError(t, FilterByMask(mask, in, out, 0, 8, true))
	require.Equal(t, 3, out.Len())
	require.Equal(t, uint64('A')|uint64('C')<<8|uint64('E')<<16, out.Words(0)[0])
	require.Equal(t, ^uint64(0), out.Words(0)[1])
}

func TestInputsUnmodified(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog")
	in := stream.FromBytes(src)
	mask := stream.MaskFromBytes(bytes.Map(func(r rune) rune {
		if r == ' ' {
			return 0
		}
		return 1
	}, src))
	maskWords := append([]uint64(nil), mask.Words(0)...)
	inWords := append([]uint64(nil), in.Words(0)...)

	out := stream.New(1, len(src), 8)
	require.NoError(t, FilterByMask(mask, in, out, 0, 4, true))
	require.Equal(t, []byte("thequickbrownfoxjumpsoverthelazydog"), out.Bytes(0))
	require.Equal(t, maskWords, mask.Words(0))
	require.Equal(t, inWords, in.Words(0))
}

func TestErrors(t *testing.T) {
	in := stream.New(2, 100, 8)
	mask := stream.New(1, 100, 1)
	for i := 0; i < 100; i += 2 {
		mask.Set(0, i, 1)
	}

	tests := []struct {
		name         string
		mask, in     *stream.StreamSet
		out          *stream.StreamSet
		offset, f    int
		byteDeletion bool
		want         error
		reason       string
	}{
		{"field width", mask, in, stream.New(1, 100, 8), 0, 3, true, ErrFieldWidth, "field_width"},
		{"field width zero", mask, in, stream.New(1, 100, 8), 0, 0, true, ErrFieldWidth, "field_width"},
		{"field width too large", mask, in, stream.New(1, 100, 8), 0, 128, true, ErrFieldWidth, "field_width"},
		{"output width", mask, in, stream.New(1, 100, 16), 0, 8, true, ErrFieldWidth, "field_width"},
		{"bit mode width", mask, in, stream.New(1, 100, 8), 0, 8, false, ErrFieldWidth, "field_width"},
		{"mask width", stream.New(1, 100, 2), in, stream.New(1, 100, 8), 0, 8, true, ErrFieldWidth, "field_width"},
		{"offset", mask, in, stream.New(1, 100, 8), 2, 8, true, ErrStreamRange, "stream_range"},
		{"negative offset", mask, in, stream.New(1, 100, 8), -1, 8, true, ErrStreamRange, "stream_range"},
		{"too many outputs", mask, in, stream.New(3, 100, 8), 0, 8, true, ErrStreamRange, "stream_range"},
		{"offset past inputs", mask, in, stream.New(0, 100, 8), 3, 8, true, ErrStreamRange, "stream_range"},
		{"empty mask set", stream.New(0, 100, 1), in, stream.New(1, 100, 8), 0, 8, true, ErrStreamRange, "stream_range"},
		{"nil", nil, in, stream.New(1, 100, 8), 0, 8, true, ErrStreamRange, "stream_range"},
		{"length", stream.New(1, 99, 1), in, stream.New(1, 100, 8), 0, 8, true, ErrLengthMismatch, "length_mismatch"},
		{"capacity", mask, in, stream.New(1, 49, 8), 0, 8, true, ErrCapacity, "capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			e := newEngine(t, func(c *Config) { c.Registerer = reg })
			var before int
			if tt.out != nil {
				before = tt.out.Len()
			}
			err := e.FilterByMask(tt.mask, tt.in, tt.out, tt.offset, tt.f, tt.byteDeletion)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
			require.Equal(t, before, tt.out.Len())
			require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.errors.WithLabelValues(tt.reason)))
			require.Equal(t, 0, testutil.CollectAndCount(e.metrics.calls))
		})
	}
}

func TestFilterBytesErrors(t *testing.T) {
	_, err := FilterBytes(make([]byte, 4), []byte("abcd"), []byte{1, 1})
	require.True(t, errors.Is(err, ErrLengthMismatch), "got %v", err)

	dst := []byte("zz")
	_, err = FilterBytes(dst, []byte("abcd"), []byte{1, 1, 1, 0})
	require.True(t, errors.Is(err, ErrCapacity), "got %v", err)
	require.Equal(t, []byte("zz"), dst)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEngine(t, func(c *Config) { c.Registerer = reg })

	in := stream.FromBytes([]byte("ABCDEFGH"))
	mask := stream.MaskFromBools([]bool{true, false, true, true, false, false, true, false})
	require.NoError(t, e.FilterByMask(mask, in, stream.New(1, 8, 8), 0, 8, true))
	_, err := e.FilterBytes(make([]byte, 8), []byte("ABCDEFGH"), []byte{1, 1, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.calls.WithLabelValues(modeBytes)))
	require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.calls.WithLabelValues(modeDirect)))
	require.Equal(t, 16.0, testutil.ToFloat64(e.metrics.elements.WithLabelValues("in")))
	require.Equal(t, 6.0, testutil.ToFloat64(e.metrics.elements.WithLabelValues("out")))

	count, err := testutil.GatherAndCount(reg, "streamcompact_filter_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"default", func(*Config) {}, nil},
		{"block 64", func(c *Config) { c.BlockWidth = 64 }, nil},
		{"block max", func(c *Config) { c.BlockWidth = MaxBlockWidth }, nil},
		{"block zero", func(c *Config) { c.BlockWidth = 0 }, ErrFieldWidth},
		{"block unaligned", func(c *Config) { c.BlockWidth = 100 }, ErrFieldWidth},
		{"block too large", func(c *Config) { c.BlockWidth = 2 * MaxBlockWidth }, ErrFieldWidth},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.want == nil {
			require.NoError(t, err, tt.name)
		} else {
			require.True(t, errors.Is(err, tt.want), "%s: got %v", tt.name, err)
		}
	}

	cfg := DefaultConfig()
	cfg.Compactor = "simd"
	require.Error(t, cfg.Validate())
	cfg = DefaultConfig()
	cfg.Workers = -1
	require.Error(t, cfg.Validate())
}

func TestCompactorSelection(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.Compactor = CompactorBitwise })
	require.Equal(t, CompactorBitwise, e.Compactor().Name())

	hw, err := New(Config{BlockWidth: DefaultBlockWidth, Compactor: CompactorHardware})
	if hwy.HasByteCompress() {
		require.NoError(t, err)
		defer hw.Close()
		require.Equal(t, CompactorHardware, DefaultCompactor().Name())
	} else {
		require.True(t, errors.Is(err, ErrNoHardwareCompress), "got %v", err)
		require.Equal(t, CompactorBitwise, DefaultCompactor().Name())
	}
}

func TestCompactBlock(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	compactors := []ByteCompactor{NewBitwiseCompactor()}
	if hw, err := NewHardwareCompactor(); err == nil {
		compactors = append(compactors, hw)
	}
	for _, c := range compactors {
		for i := 0; i < 200; i++ {
			var src, dst, want [hwy.ByteLanes]byte
			rng.Read(src[:])
			mask := rng.Uint64()
			switch i {
			case 0:
				mask = 0
			case 1:
				mask = ^uint64(0)
			}
			n := hwy.BaseCompressBytes64(&want, &src, mask)
			require.Equal(t, n, c.CompactBlock(&dst, &src, mask), c.Name())
			require.Equal(t, want[:n], dst[:n], "%s mask %#x", c.Name(), mask)
		}
	}
}

func TestPipelineStages(t *testing.T) {
	e := newEngine(t, nil)
	alloc := &countingAllocator{}
	p := NewPipeline(e.pool, alloc, e.cfg.BlockWidth)
	in := stream.FromBytes([]byte("ABCDEFGH"))
	mask := stream.MaskFromBools([]bool{true, false, true, true, false, false, true, false})
	out := stream.New(1, 8, 8)
	compact := e.bytePipeline(p, mask, stream.Select(in, 0), out, 8)
	require.Equal(t, []string{"transpose", "field_compress", "stream_compress", "untranspose"}, p.Stages())
	require.Equal(t, 3, alloc.live)

	require.NoError(t, p.Run())
	require.Equal(t, 4, compact.Total)
	require.Equal(t, []byte("ACDG"), out.Bytes(0))
	p.Release()
	require.Zero(t, alloc.live)
}

func TestPipelineNarrowBlockWidth(t *testing.T) {
	e := newEngine(t, nil)
	src := make([]byte, 300)
	keep := make([]byte, len(src))
	for i := range src {
		src[i] = byte(i)
		keep[i] = byte(i % 3 & 1)
	}
	want := reference(src, keep)

	for _, bw := range []int{0, 1, 32, 63, 64, 100} {
		p := NewPipeline(e.pool, stream.HeapAllocator{}, bw)
		in := stream.FromBytes(src)
		out := stream.New(1, len(src), 8)
		compact := e.bytePipeline(p, stream.MaskFromBytes(keep), stream.Select(in, 0), out, 8)
		require.NoError(t, p.Run(), "block width %d", bw)
		require.Equal(t, len(want), compact.Total, "block width %d", bw)
		require.Equal(t, want, out.Bytes(0), "block width %d", bw)
		p.Release()
	}
}

func TestBitPipelineSizesIntermediates(t *testing.T) {
	e := newEngine(t, nil)
	alloc := &countingAllocator{}
	p := NewPipeline(e.pool, alloc, e.cfg.BlockWidth)
	in := stream.New(5, 10, 1)
	out := stream.New(3, 10, 1)
	mask := stream.MaskFromBools([]bool{true, true, false, false, false, false, false, false, false, true})
	for i := 0; i < 10; i++ {
		in.Set(2, i, 1)
	}
	compact := e.bitPipeline(p, mask, stream.Select(in, stream.Range(1, 4)...), out, 4)
	require.Equal(t, 3, compact.Kernel.Compressed.NumStreams())
	require.NoError(t, p.Run())
	require.Equal(t, 3, compact.Total)
	require.Equal(t, uint64(0b111), out.Words(1)[0])
	require.Zero(t, out.Words(0)[0])
	p.Release()
}

type countingAllocator struct {
	stream.HeapAllocator
	live int
}

func (a *countingAllocator) NewStreamSet(numStreams, length, width int) *stream.StreamSet {
	a.live++
	return a.HeapAllocator.NewStreamSet(numStreams, length, width)
}

func (a *countingAllocator) Release(*stream.StreamSet) { a.live-- }

func TestEngineLogs(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(t, func(c *Config) { c.Logger = log.NewLogfmtLogger(&buf) })
	require.Contains(t, buf.String(), "msg=\"engine ready\"")
	require.Contains(t, buf.String(), "compactor="+e.Compactor().Name())

	in := stream.FromBytes([]byte("AB"))
	require.NoError(t, e.FilterByMask(stream.MaskFromBools([]bool{false, true}), in, stream.New(1, 2, 8), 0, 8, true))
	require.Contains(t, buf.String(), "survivors=1")
}

func BenchmarkFilterByMask(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	src, maskBytes := randomBytesAndMask(rng, 1<<20)
	in := stream.FromBytes(src)
	mask := stream.MaskFromBytes(maskBytes)
	out := stream.New(1, len(src), 8)
	e := newEngine(b, nil)
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.FilterByMask(mask, in, out, 0, 64, true); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFilterBytes(b *testing.B) {
	rng := rand.New(rand.NewSource(8))
	src, mask := randomBytesAndMask(rng, 1<<20)
	dst := make([]byte, len(src))
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		if _, err := FilterBytes(dst, src, mask); err != nil {
			b.Fatal(err)
		}
	}
}
