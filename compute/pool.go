// Package compute runs grid kernels across a persistent pool of workers.
//
// A kernel is invoked on bands of interior rows. Every row of the band lies in
// [1, n]; the ghost rows 0 and n+1 are never handed out. A dispatch returns
// only after every band has finished, so consecutive dispatches are ordered.
package compute

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// parallelThreshold is the minimum row count to fan out to workers.
// Below this, the dispatch runs on the calling goroutine.
const parallelThreshold = 32

var (
	// ErrDeviceClosed is returned by Dispatch after Close.
	ErrDeviceClosed = errors.New("compute: device closed")
	// ErrKernelPanic wraps a panic raised inside a kernel.
	ErrKernelPanic = errors.New("compute: kernel panic")
)

// Kernel processes interior rows lo through hi-1.
type Kernel func(lo, hi int)

// Device executes kernels over the interior rows of an n-row grid.
type Device interface {
	Dispatch(n int, k Kernel) error
}

// WorkGroups returns the number of tiles needed to cover n+border cells
// along one axis with tiles of tileDim cells.
func WorkGroups(n, border, tileDim int) int {
	if tileDim < 1 {
		tileDim = 1
	}
	return (n + border + tileDim - 1) / tileDim
}

// Serial runs every kernel inline on the calling goroutine.
type Serial struct{}

// Dispatch runs k over all interior rows.
func (Serial) Dispatch(n int, k Kernel) error {
	return runBand(k, 1, n+1)
}

// band is a contiguous range of rows for one worker.
type band struct {
	lo, hi int
	k      Kernel
}

// Pool is a persistent worker pool. Workers are started lazily on the first
// parallel dispatch and live until Close.
type Pool struct {
	numWorkers int
	tileDim    int

	mu       sync.Mutex // serializes dispatches
	workChan chan band
	doneChan chan error
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	closed   bool
}

// NewPool creates a pool. workers <= 0 uses GOMAXPROCS; tileDim is the band
// height in rows.
func NewPool(workers, tileDim int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if tileDim < 1 {
		tileDim = 1
	}
	return &Pool{numWorkers: workers, tileDim: tileDim}
}

// Workers reports the pool size.
func (p *Pool) Workers() int { return p.numWorkers }

// startWorkers launches persistent worker goroutines.
func (p *Pool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan band, p.numWorkers)
	p.doneChan = make(chan error, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs in a goroutine, processing bands until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case b := <-p.workChan:
			p.doneChan <- runBand(b.k, b.lo, b.hi)
		}
	}
}

// Dispatch runs k over interior rows 1..n and waits for completion.
// The first kernel failure is returned after all bands have finished.
func (p *Pool) Dispatch(n int, k Kernel) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrDeviceClosed
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		return runBand(k, 1, n+1)
	}
	if !p.running {
		p.startWorkers()
	}

	tiles := WorkGroups(n, 0, p.tileDim)
	perWorker := (tiles + p.numWorkers - 1) / p.numWorkers
	rowsPerBand := perWorker * p.tileDim

	// Feed bands from a separate goroutine so a full work channel cannot
	// block against workers waiting to report completion.
	bands := 0
	for lo := 1; lo <= n; lo += rowsPerBand {
		bands++
	}
	go func() {
		for lo := 1; lo <= n; lo += rowsPerBand {
			p.workChan <- band{lo: lo, hi: min(lo+rowsPerBand, n+1), k: k}
		}
	}()

	var first error
	for i := 0; i < bands; i++ {
		if err := <-p.doneChan; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close stops all workers. Dispatch fails with ErrDeviceClosed afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}

// runBand invokes k and converts a panic into an error.
func runBand(k Kernel, lo, hi int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: rows [%d,%d): %v", ErrKernelPanic, lo, hi, r)
		}
	}()
	if lo < hi {
		k(lo, hi)
	}
	return nil
}
