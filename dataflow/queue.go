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

// shortQueueScan is the length below which the todo queue is scanned
// for the lowest-pc eligible entry (preserving plan order); at or above
// it, the first match is taken instead to bound scan cost.
const shortQueueScan = 1024

// task is one instruction made eligible for execution, tagged with the
// region run that owns it so a worker can prefer its own affinity.
type task struct {
	owner    *regionRun
	pc       int // absolute pc
	argClaim int64
}

// todoQueue is the process-wide shared pool of ready instructions.
type todoQueue struct {
	mu    sync.Mutex
	items []*task
}

func newTodoQueue() *todoQueue { return &todoQueue{} }

// push appends one or more newly eligible tasks.
func (q *todoQueue) push(items ...*task) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()
}

// pushFront requeues a task at the head, used when admission is denied
// and the caller wants to retry soon without losing its place.
func (q *todoQueue) pushFront(t *task) {
	q.mu.Lock()
	q.items = append([]*task{t}, q.items...)
	q.mu.Unlock()
}

// pop removes and returns one task, preferring affinity's own work; for
// short queues it scans for the lowest pc, for long queues it takes the
// first match.
func (q *todoQueue) pop(affinity *regionRun) (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if affinity != nil {
		for i, t := range q.items {
			if t.owner == affinity {
				return q.removeAt(i), true
			}
		}
	}
	if len(q.items) == 0 {
		return nil, false
	}
	if len(q.items) < shortQueueScan {
		best := 0
		for i := 1; i < len(q.items); i++ {
			if q.items[i].pc < q.items[best].pc {
				best = i
			}
		}
		return q.removeAt(best), true
	}
	return q.removeAt(0), true
}

func (q *todoQueue) removeAt(i int) *task {
	t := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return t
}

func (q *todoQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// doneQueue is a region-local LIFO of completed pcs, draining the
// scheduler's wakeup of newly-eligible successors.
type doneQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []int
}

func newDoneQueue() *doneQueue {
	dq := &doneQueue{}
	dq.cond = sync.NewCond(&dq.mu)
	return dq
}

// push appends a completed pc (LIFO: most recent completion drains first).
func (dq *doneQueue) push(pc int) {
	dq.mu.Lock()
	dq.items = append(dq.items, pc)
	dq.cond.Signal()
	dq.mu.Unlock()
}

// pop blocks until at least one completion is available, then returns
// the most recently pushed pc.
func (dq *doneQueue) pop() int {
	dq.mu.Lock()
	defer dq.mu.Unlock()
	for len(dq.items) == 0 {
		dq.cond.Wait()
	}
	n := len(dq.items) - 1
	pc := dq.items[n]
	dq.items = dq.items[:n]
	return pc
}
