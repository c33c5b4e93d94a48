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

import "time"

// admissionRetryDelay is how long a worker sleeps before requeuing a
// task the memory-admission gate refused.
const admissionRetryDelay = 2 * time.Millisecond

// affinityIdleRetryDelay is how long an affinitized worker sleeps
// between dequeue attempts when its region has no eligible task yet.
const affinityIdleRetryDelay = time.Millisecond

// Worker is one goroutine in the shared pool. It either belongs to no
// region (generic, parked FREE between tasks) or is reserved for one
// regionRun's exclusive progress guarantee.
type Worker struct {
	id       int
	sema     chan struct{} // size 1; sent to wake a parked worker
	affinity *regionRun
	pool     *Pool
	done     chan struct{} // closed once runLoop returns
	state    workerState
}

// runLoop is the generic worker body: park on sema until reserved, then
// drain tasks until none remain and no affinity keeps it alive.
func (w *Worker) runLoop(s *Scheduler) {
	defer close(w.done)
	for {
		<-w.sema
		if s.RT.Exiting.IsSet() {
			return
		}
		w.drain(s)
		if w.pool.parkOrExit(w) {
			return
		}
	}
}

// drain repeatedly dequeues and executes tasks for this worker until
// the shared queue offers nothing more for it.
func (w *Worker) drain(s *Scheduler) {
	for {
		if s.RT.Exiting.IsSet() {
			return
		}
		t, ok := s.todo.pop(w.affinity)
		if !ok {
			if w.affinity == nil {
				return
			}
			if w.affinity.done() {
				return
			}
			time.Sleep(affinityIdleRetryDelay)
			continue
		}
		w.execute(s, t)
	}
}

// execute runs one task to completion, including any hot-potato chain
// of successors it directly unlocks.
func (w *Worker) execute(s *Scheduler, t *task) {
	for {
		run := t.owner

		if run.errSlot.Get() == nil && !s.RT.Exiting.IsSet() {
			if !w.admit(s, &t) {
				return
			}
			run = t.owner

			taskStart := time.Now()
			s.RT.Fairness.Enter()
			err := s.IP.Reenter(run.sess, run.graph.Blk, t.pc, t.pc+1, run.frame)
			s.RT.Fairness.Leave()
			s.RT.Admission.Release(t.argClaim, 0)

			run.graph.nodes[t.pc-run.graph.Start].state = stateWrapup
			if err != nil {
				run.errSlot.Set(err)
			}
			if s.RT.Fairness.Yield(taskStart) {
				time.Sleep(affinityIdleRetryDelay)
			}
		} else {
			run.graph.nodes[t.pc-run.graph.Start].state = stateSkipped
		}

		rel := t.pc - run.graph.Start
		ready := run.graph.wake(rel, run.frame)
		run.finish(t.pc)

		next := run.pickHotPotato(ready)
		if next == nil {
			return
		}
		t = next
	}
}

// admit blocks the current task on the memory-admission gate, requeuing
// it at the front of the shared queue between attempts and picking up
// whatever else is available in the meantime. Returns false if the
// worker should give up entirely (no task left to make progress on).
func (w *Worker) admit(s *Scheduler, t **task) bool {
	for !s.RT.Admission.Claim((*t).argClaim, 0) {
		cur := *t
		cur.owner.graph.nodes[cur.pc-cur.owner.graph.Start].state = stateRetry
		s.todo.pushFront(cur)
		time.Sleep(admissionRetryDelay)
		nt, ok := s.todo.pop(w.affinity)
		if !ok {
			return false
		}
		*t = nt
	}
	return true
}
