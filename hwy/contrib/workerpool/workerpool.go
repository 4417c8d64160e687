// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent worker pool for the block-parallel
// stages of stream compaction. Transposition and field compression have no
// state crossing block boundaries, so the blocks of one call can be spread
// over the workers; stream compression stays on the calling goroutine.
//
// A Pool is created once per engine and reused by every call:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	pool.ForBlocks(numBlocks, 4, func(first, last int) {
//	    for b := first; b < last; b++ {
//	        compressBlock(b)
//	    }
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned at creation and run
// until Close.
type Pool struct {
	numWorkers int
	tasks      chan task

	// mu is held for reading while a call queues and waits on tasks, and
	// for writing by Close.
	mu     sync.RWMutex
	closed bool
}

type task struct {
	run  func()
	done *sync.WaitGroup
}

// New creates a pool of numWorkers workers. If numWorkers <= 0, GOMAXPROCS
// workers are used.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		tasks:      make(chan task, numWorkers*2),
	}
	for range numWorkers {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	for t := range p.tasks {
		t.run()
		t.done.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers. It waits for calls in flight to finish, and
// calling it more than once is safe. A closed pool runs work on the calling
// goroutine.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// ForBlocks calls fn on batches of up to batch consecutive block indices in
// [0, numBlocks). Workers claim batches from a shared atomic counter, so
// uneven blocks such as a short final block do not stall a worker. It
// returns when every block is done.
func (p *Pool) ForBlocks(numBlocks, batch int, fn func(first, last int)) {
	if numBlocks <= 0 {
		return
	}
	batch = max(batch, 1)
	numBatches := (numBlocks + batch - 1) / batch
	workers := min(p.numWorkers, numBatches)
	if workers == 1 {
		fn(0, numBlocks)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		fn(0, numBlocks)
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	claim := func() {
		for {
			first := int(next.Add(1)-1) * batch
			if first >= numBlocks {
				return
			}
			fn(first, min(first+batch, numBlocks))
		}
	}
	for range workers {
		p.tasks <- task{run: claim, done: &wg}
	}
	wg.Wait()
}
