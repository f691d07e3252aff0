package software

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum texel count to fan a blit out to workers.
// Below this, a single goroutine is faster than the dispatch overhead.
const parallelThreshold = 64 * 64

// rowChunk is a range of destination rows for a worker to shade.
type rowChunk struct {
	start, end int
	fn         func(start, end int)
}

// pool is a persistent set of workers that shade row ranges of one blit.
// run blocks until every chunk has completed, so passes stay ordered.
type pool struct {
	numWorkers int

	workChan chan rowChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{numWorkers: workers}
}

func (p *pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *pool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run shades rows [0, rows) with fn, splitting across workers when the blit
// covers at least parallelThreshold texels.
func (p *pool) run(rows, texels int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	if texels < parallelThreshold || p.numWorkers < 2 {
		fn(0, rows)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (rows + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, rows)
		if start >= end {
			continue
		}
		p.workChan <- rowChunk{start: start, end: end, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
