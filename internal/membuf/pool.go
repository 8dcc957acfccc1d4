// Package membuf implements the Buffer Pool / Memory Manager: allocation,
// pooling, and pressure-driven release of the backing storage used by
// tiles and intermediate images (spec.md §4.5).
//
// The Pool is a single-owner component: all pool mutations happen through
// its exported methods while the Pool's own mutex serializes access, so
// workers acquire and release buffers through the pool's owning task
// rather than reaching into its free lists directly.
package membuf

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/hwprobe"
)

// Class is one of the five buffer usage classes (spec.md §4.5).
type Class uint8

const (
	ClassInput Class = iota
	ClassOutput
	ClassUniform
	ClassStaging
	ClassCompute
)

func (c Class) String() string {
	switch c {
	case ClassInput:
		return "input"
	case ClassOutput:
		return "output"
	case ClassUniform:
		return "uniform"
	case ClassStaging:
		return "staging"
	case ClassCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// ScaleBucket tags a buffer sized for one of the fractional working sets,
// in addition to its exact-size free list (spec.md §4.5).
type ScaleBucket uint8

const (
	BucketGeneric ScaleBucket = iota
	Bucket11x
	Bucket15x
	Bucket20x
)

// DefaultMaxPoolSize is the per-class pool capacity before release forces
// destruction instead of reuse (spec.md §4.5).
const DefaultMaxPoolSize = 50

// DefaultMaxIdleTime is how long a pooled buffer may sit idle before the
// 0.60-0.75 pressure band reclaims it.
const DefaultMaxIdleTime = 45 * time.Second

// Pressure thresholds (spec.md §4.5, §8 boundary behaviors).
const (
	pressureIdleRelease    = 0.60
	pressureHalfRelease    = 0.75
	pressureAggressiveFree = 0.90
)

// Buffer is backing storage acquired from a Pool. The byte slice is
// exclusively owned by whoever last Acquired it until it is Released.
type Buffer struct {
	Class  Class
	Bucket ScaleBucket
	Size   int64
	Data   []byte

	releasedAt time.Time
}

// Accounting holds the Pool's counters (spec.md §3 MemoryAccounting).
// Invariant: InUse + Pooled == Allocated; Peak == max(Peak, Allocated)
// after every allocation.
type Accounting struct {
	Allocated   int64
	InUse       int64
	Pooled      int64
	Peak        int64
	Allocations int64
	Deallocations int64
}

var errOutOfBudget = errors.New("membuf: allocated + size exceeds safe limit after cleanup")

// Pool is the Buffer Pool / Memory Manager. Construct with NewPool; call
// Close to stop its background collector.
type Pool struct {
	mu sync.Mutex

	safeLimit int64
	acct      Accounting
	freeLists map[bucketKey]*lruList
	maxPool   int
	maxIdle   time.Duration

	logger *slog.Logger

	stopCollector chan struct{}
	collectorDone chan struct{}
}

type bucketKey struct {
	class Class
	size  int64
}

// NewPool builds a Pool sized from a hwprobe.Report: safe_limit =
// 0.70 * estimated_total (spec.md §4.5 "Safe limit detection").
func NewPool(probe hwprobe.Report) *Pool {
	safeLimit := int64(float64(probe.EstimatedTotalMemory) * 0.70)
	p := &Pool{
		safeLimit:     safeLimit,
		freeLists:     make(map[bucketKey]*lruList),
		maxPool:       DefaultMaxPoolSize,
		maxIdle:       DefaultMaxIdleTime,
		logger:        slog.Default(),
		stopCollector: make(chan struct{}),
		collectorDone: make(chan struct{}),
	}
	go p.runCollector(10 * time.Second)
	return p
}

// SetLogger configures the Pool's logger.
func (p *Pool) SetLogger(l *slog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = l
}

// Acquire returns a Buffer of at least size bytes for the given class,
// reusing a pooled buffer of the exact size or up to 2x size when one
// exists, and otherwise allocating exactly size bytes (spec.md §4.5
// "Allocation contract").
func (p *Pool) Acquire(class Class, size int64, bucket ScaleBucket) (*Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.acct.Allocated+size > p.safeLimit {
		p.cleanupLocked()
		if p.acct.Allocated+size > p.safeLimit {
			return nil, errOutOfBudget
		}
	}

	if buf := p.takePooledLocked(class, size); buf != nil {
		buf.Bucket = bucket
		p.acct.Pooled -= buf.Size
		p.acct.InUse += buf.Size
		return buf, nil
	}

	buf := &Buffer{Class: class, Bucket: bucket, Size: size, Data: make([]byte, size)}
	p.acct.Allocated += size
	p.acct.InUse += size
	p.acct.Allocations++
	if p.acct.Allocated > p.acct.Peak {
		p.acct.Peak = p.acct.Allocated
	}
	return buf, nil
}

// takePooledLocked finds a free-listed buffer of exactly size, or failing
// that the smallest available buffer up to 2x size, removing it from its
// free list. Caller must hold p.mu.
func (p *Pool) takePooledLocked(class Class, size int64) *Buffer {
	if list, ok := p.freeLists[bucketKey{class, size}]; ok && list.Len() > 0 {
		buf, _ := list.RemoveAny()
		return buf
	}

	var bestKey bucketKey
	found := false
	for key, list := range p.freeLists {
		if key.class != class || key.size < size || key.size > size*2 {
			continue
		}
		if list.Len() == 0 {
			continue
		}
		if !found || key.size < bestKey.size {
			bestKey = key
			found = true
		}
	}
	if !found {
		return nil
	}
	buf, _ := p.freeLists[bestKey].RemoveOldest()
	return buf
}

// Release returns buf to its class's free list, or destroys its backing
// allocation if the pool is full or current pressure exceeds 80%
// (spec.md §4.5 "Release contract").
func (p *Pool) Release(buf *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.acct.InUse -= buf.Size
	key := bucketKey{buf.Class, buf.Size}
	list := p.freeLists[key]
	if list == nil {
		list = &lruList{}
		p.freeLists[key] = list
	}

	classLen := 0
	for k, l := range p.freeLists {
		if k.class == buf.Class {
			classLen += l.Len()
		}
	}
	if classLen >= p.maxPool || p.pressureLocked() > 0.80 {
		p.destroyLocked(buf)
		return
	}
	buf.releasedAt = time.Now()
	list.PushFront(buf)
	p.acct.Pooled += buf.Size
}

func (p *Pool) destroyLocked(buf *Buffer) {
	p.acct.Allocated -= buf.Size
	p.acct.Deallocations++
}

func (p *Pool) pressureLocked() float64 {
	if p.safeLimit == 0 {
		return 0
	}
	return float64(p.acct.Allocated) / float64(p.safeLimit)
}

// cleanupLocked applies the pressure rules (spec.md §4.5) immediately,
// used both by the background collector and inline before a failing
// Acquire.
func (p *Pool) cleanupLocked() {
	pressure := p.pressureLocked()
	switch {
	case pressure < pressureIdleRelease:
		return
	case pressure < pressureHalfRelease:
		p.releaseIdleOlderThanLocked(p.maxIdle)
	case pressure < pressureAggressiveFree:
		p.releaseFractionLocked(0.5)
	default:
		p.releaseFractionLocked(1.0)
	}
}

func (p *Pool) releaseIdleOlderThanLocked(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)
	for _, list := range p.freeLists {
		// Stop at the first (oldest) buffer not idle long enough, leaving
		// it at the tail.
		for list.tail != nil && !list.tail.buf.releasedAt.After(cutoff) {
			buf, _ := list.RemoveOldest()
			p.acct.Pooled -= buf.Size
			p.destroyLocked(buf)
		}
	}
}

func (p *Pool) releaseFractionLocked(fraction float64) {
	for _, list := range p.freeLists {
		target := int(float64(list.Len()) * fraction)
		for i := 0; i < target; i++ {
			buf, ok := list.RemoveOldest()
			if !ok {
				break
			}
			p.acct.Pooled -= buf.Size
			p.destroyLocked(buf)
		}
	}
}

// Accounting returns a snapshot of the current counters.
func (p *Pool) Accounting() Accounting {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acct
}

// Pressure returns allocated / safe_limit.
func (p *Pool) Pressure() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pressureLocked()
}

// runCollector applies the pressure rules on a timer until Close is called
// (spec.md §4.5 "A background collector runs every 5-15s").
func (p *Pool) runCollector(interval time.Duration) {
	defer close(p.collectorDone)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-p.stopCollector:
			return
		case <-t.C:
			p.mu.Lock()
			pressure := p.pressureLocked()
			p.cleanupLocked()
			p.mu.Unlock()
			if pressure > pressureAggressiveFree {
				p.logger.Warn("membuf: aggressive cleanup", "pressure", pressure)
			}
		}
	}
}

// Close stops the background collector and destroys every pooled buffer,
// returning the pool to in_use-only accounting. Safe to call once.
func (p *Pool) Close() {
	close(p.stopCollector)
	<-p.collectorDone

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, list := range p.freeLists {
		for {
			buf, ok := list.RemoveOldest()
			if !ok {
				break
			}
			p.acct.Pooled -= buf.Size
			p.destroyLocked(buf)
		}
	}
}
