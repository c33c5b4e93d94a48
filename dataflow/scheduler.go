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

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/MonetDB/MonetDB-sub015/interp"
	"github.com/MonetDB/MonetDB-sub015/ir"
	"github.com/MonetDB/MonetDB-sub015/runtime"
	"github.com/MonetDB/MonetDB-sub015/session"
)

// Scheduler is the process-wide entry point for running a guarded
// sub-range of a block in parallel. It satisfies interp.Dataflow.
type Scheduler struct {
	RT   *runtime.Runtime
	IP   *interp.Interpreter
	Pool *Pool
	todo *todoQueue
}

// New builds a Scheduler sized from rt's configuration. ip is used to
// execute individual instructions via Reenter; it is normally the same
// Interpreter whose Dataflow field is set to this Scheduler.
func New(rt *runtime.Runtime, ip *interp.Interpreter) *Scheduler {
	return &Scheduler{
		RT:   rt,
		IP:   ip,
		Pool: NewPool(rt.Config.DataflowMaxFree, rt.Config.NumThreads),
		todo: newTodoQueue(),
	}
}

// regionRun is the live state of one RunRegion call.
type regionRun struct {
	sched   *Scheduler
	sess    *session.Session
	graph   *Graph
	frame   *ir.Frame
	doneQ   *doneQueue
	errSlot runtime.ErrorSlot

	remaining int32
}

func (r *regionRun) finish(pc int) {
	r.doneQ.push(pc)
}

func (r *regionRun) done() bool {
	return atomic.LoadInt32(&r.remaining) <= 0
}

// pickHotPotato selects, among a set of instructions that just became
// eligible, the one with the largest accumulated argument claim, to be
// executed directly by the completing worker. The rest are pushed onto
// the shared todo queue.
func (r *regionRun) pickHotPotato(relReady []int) *task {
	if len(relReady) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(relReady); i++ {
		if r.graph.nodes[relReady[i]].argClaim > r.graph.nodes[relReady[best]].argClaim {
			best = i
		}
	}

	var rest []*task
	var chosen *task
	for i, rel := range relReady {
		r.graph.nodes[rel].state = stateRunning
		t := &task{owner: r, pc: r.graph.Start + rel, argClaim: r.graph.nodes[rel].argClaim}
		if i == best {
			chosen = t
		} else {
			rest = append(rest, t)
		}
	}
	r.sched.todo.push(rest...)
	return chosen
}

// RunRegion implements interp.Dataflow: execute blk's [region.Start,
// region.Stop) instructions across the shared worker pool, respecting
// data dependencies, and return the first error any instruction raised.
func (s *Scheduler) RunRegion(sess *session.Session, blk *ir.Block, region ir.Region, frame *ir.Frame) error {
	if region.Stop <= region.Start {
		return ErrEmptyRegion.New()
	}
	if s.IP == nil {
		return ErrNoInterpreter.New()
	}

	s.Pool.joinExited()

	graph := BuildGraph(blk, region.Start, region.Stop, frame, s.RT.Config.MemoryThreshold)
	run := &regionRun{sched: s, sess: sess, frame: frame, graph: graph, doneQ: newDoneQueue()}
	run.remaining = int32(graph.len())

	w, spawnedNew := s.Pool.reserve(run, s)
	if w == nil {
		return s.runSerially(sess, blk, region, frame)
	}

	initial := graph.ready()
	tasks := make([]*task, len(initial))
	for i, rel := range initial {
		graph.nodes[rel].state = stateRunning
		tasks[i] = &task{owner: run, pc: region.Start + rel, argClaim: graph.nodes[rel].argClaim}
	}
	s.todo.push(tasks...)

	for atomic.LoadInt32(&run.remaining) > 0 {
		run.doneQ.pop()
		atomic.AddInt32(&run.remaining, -1)
	}

	s.Pool.onRegionExit(spawnedNew)

	if err := run.errSlot.Get(); err != nil {
		return ErrRegionAborted.New(err.Error())
	}
	return nil
}

// runSerially executes the region on the calling goroutine when no
// worker could be reserved, preserving correctness at the cost of
// parallelism.
func (s *Scheduler) runSerially(sess *session.Session, blk *ir.Block, region ir.Region, frame *ir.Frame) error {
	return s.IP.Reenter(sess, blk, region.Start, region.Stop, frame)
}

// Shutdown signals every FREE worker and the process-wide exiting flag
// they poll, then waits for the generic pool to drain.
func (s *Scheduler) Shutdown() {
	s.RT.Exiting.Set()
	s.Pool.signalAll()

	var g errgroup.Group
	s.Pool.mu.Lock()
	workers := append([]*Worker(nil), s.Pool.free...)
	s.Pool.mu.Unlock()
	for _, w := range workers {
		w := w
		g.Go(func() error {
			<-w.done
			return nil
		})
	}
	g.Wait()
}
