// Copyright 2020-2021 Dolthub, Inc.
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

package dataflow

import "sync"

// workerState distinguishes a parked, alive worker (FREE, waiting on
// its own semaphore) from one whose goroutine has returned (EXITED,
// waiting to be reaped by the next scheduler entry). There is no
// separate IDLE representation here: an idle *slot* is simply unused
// pool capacity, tracked as the gap between spawned and max.
type workerState int

const (
	wsFree workerState = iota
	wsExited
)

// Pool is the process-wide worker pool backing every region run.
type Pool struct {
	mu sync.Mutex

	genericTarget int // steady-state generic worker count (Config.DataflowMaxFree)
	max           int // absolute spawn ceiling (Config.NumThreads)
	spawned       int
	exitCredits   int // number of free workers that should self-exit instead of parking

	free    []*Worker
	exited  []*Worker
	nextID  int
}

// NewPool sizes a pool from the runtime configuration.
func NewPool(genericTarget, max int) *Pool {
	if max < genericTarget {
		max = genericTarget
	}
	return &Pool{genericTarget: genericTarget, max: max}
}

// joinExited drains every EXITED worker so its goroutine is known to
// have returned before a new region starts.
func (p *Pool) joinExited() {
	p.mu.Lock()
	toJoin := p.exited
	p.exited = nil
	p.mu.Unlock()
	for _, w := range toJoin {
		<-w.done
	}
}

// reserve obtains a worker dedicated to owner: a parked FREE worker is
// preferred (woken via its semaphore); otherwise a new one is spawned
// if the pool has capacity. Returns (nil, false) when the caller must
// execute the region serially instead.
func (p *Pool) reserve(owner *regionRun, s *Scheduler) (w *Worker, spawnedNew bool) {
	p.mu.Lock()
	if len(p.free) > 0 {
		w = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.mu.Unlock()
		w.affinity = owner
		w.sema <- struct{}{}
		return w, false
	}
	if p.spawned >= p.max {
		p.mu.Unlock()
		return nil, false
	}
	p.spawned++
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	w = &Worker{id: id, sema: make(chan struct{}, 1), affinity: owner, pool: p, done: make(chan struct{})}
	w.sema <- struct{}{}
	go w.runLoop(s)
	return w, true
}

// parkOrExit is called by a worker that found no more work and has no
// session affinity. It parks as FREE unless an exit credit is
// outstanding, in which case it exits to compensate for a prior
// affinity-driven spawn.
func (p *Pool) parkOrExit(w *Worker) (shouldExit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exitCredits > 0 {
		p.exitCredits--
		p.spawned--
		w.state = wsExited
		p.exited = append(p.exited, w)
		return true
	}
	w.affinity = nil
	w.state = wsFree
	p.free = append(p.free, w)
	return false
}

// onRegionExit compensates for a worker spawned specifically for this
// region: one generic worker is credited to exit, keeping the pool at
// its steady-state size once it next parks.
func (p *Pool) onRegionExit(spawnedNew bool) {
	if !spawnedNew {
		return
	}
	p.mu.Lock()
	p.exitCredits++
	p.mu.Unlock()
}

// signalAll wakes every FREE worker (used on shutdown so each observes
// the exiting flag and returns).
func (p *Pool) signalAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.free {
		select {
		case w.sema <- struct{}{}:
		default:
		}
	}
}
