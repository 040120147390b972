// Package memory recycles OpenCV Mats between ticks. Working dimensions stay
// fixed for the lifetime of a pipeline instance, so the same shapes are
// requested every frame.
package memory

import (
	"sync"

	"gocv.io/x/gocv"
)

type PoolKey struct {
	Rows    int
	Cols    int
	MatType gocv.MatType
}

type Stats struct {
	Hits   int64
	Misses int64
	Pooled int
}

// Pool keeps up to maxPerKey idle Mats per shape
type Pool struct {
	mats      map[PoolKey][]gocv.Mat
	maxPerKey int
	stats     Stats
	mu        sync.Mutex
}

func NewPool(maxPerKey int) *Pool {
	if maxPerKey <= 0 {
		maxPerKey = 8
	}
	return &Pool{
		mats:      make(map[PoolKey][]gocv.Mat),
		maxPerKey: maxPerKey,
	}
}

// Get returns an idle Mat of the given shape or allocates one
func (p *Pool) Get(rows, cols int, matType gocv.MatType) gocv.Mat {
	key := PoolKey{Rows: rows, Cols: cols, MatType: matType}

	p.mu.Lock()
	defer p.mu.Unlock()

	if idle := p.mats[key]; len(idle) > 0 {
		mat := idle[len(idle)-1]
		p.mats[key] = idle[:len(idle)-1]
		p.stats.Hits++
		return mat
	}

	p.stats.Misses++
	return gocv.NewMatWithSize(rows, cols, matType)
}

// Put hands a Mat back; it is closed when the pool for its shape is full
func (p *Pool) Put(mat gocv.Mat) {
	if mat.Empty() {
		mat.Close()
		return
	}
	key := PoolKey{Rows: mat.Rows(), Cols: mat.Cols(), MatType: mat.Type()}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.mats[key]) >= p.maxPerKey {
		mat.Close()
		return
	}
	p.mats[key] = append(p.mats[key], mat)
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	for _, idle := range p.mats {
		s.Pooled += len(idle)
	}
	return s
}

// Cleanup closes every idle Mat and returns how many were released
func (p *Pool) Cleanup() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for key, idle := range p.mats {
		for _, mat := range idle {
			mat.Close()
			count++
		}
		delete(p.mats, key)
	}
	return count
}

// Shutdown releases the pool's Mats
func (p *Pool) Shutdown() {
	p.Cleanup()
}
