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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MonetDB/MonetDB-sub015/interp"
	"github.com/MonetDB/MonetDB-sub015/ir"
	"github.com/MonetDB/MonetDB-sub015/runtime"
	"github.com/MonetDB/MonetDB-sub015/session"
)

func newTestScheduler(t *testing.T, threshold int64) (*Scheduler, *session.Session) {
	cfg := runtime.DefaultConfig()
	cfg.MemoryThreshold = threshold
	cfg.DataflowMaxFree = 2
	cfg.NumThreads = 4
	rt := runtime.New(cfg, nil)
	ip := interp.New(rt, nil, nil)
	sched := New(rt, ip)
	ip.Dataflow = sched
	return sched, &session.Session{State: session.Running}
}

// TestPickHotPotatoChoosesLargestClaim verifies that among several
// instructions that become eligible at once, the one with the largest
// accumulated argument claim is selected to run directly, and the rest
// are pushed onto the shared queue instead of being dropped.
func TestPickHotPotatoChoosesLargestClaim(t *testing.T) {
	require := require.New(t)

	sched, sess := newTestScheduler(t, 1<<30)
	vars := []*ir.Variable{{Name: "a", Typ: ir.TypeInt}}
	blk := ir.NewBlock("b", vars)
	blk.Append(&ir.Instruction{Token: ir.OpNoop})
	blk.Append(&ir.Instruction{Token: ir.OpNoop})
	blk.Append(&ir.Instruction{Token: ir.OpNoop})

	g := BuildGraph(blk, 0, 3, nil, 0)
	g.nodes[0].argClaim = 10
	g.nodes[1].argClaim = 99
	g.nodes[2].argClaim = 50

	run := &regionRun{sched: sched, sess: sess, graph: g, doneQ: newDoneQueue()}
	chosen := run.pickHotPotato([]int{0, 1, 2})
	require.NotNil(chosen)
	require.Equal(1, chosen.pc-g.Start)

	require.Equal(2, sched.todo.len())
}

// TestAdmissionRefusalRetriesUntilReleased exercises the worker's
// admission retry loop end-to-end: a task is refused while another
// claim is outstanding, requeued, and admitted once that claim is
// released, without the scheduler ever losing track of the task.
func TestAdmissionRefusalRetriesUntilReleased(t *testing.T) {
	require := require.New(t)

	sched, sess := newTestScheduler(t, 100)
	vars := []*ir.Variable{{Name: "a", Typ: ir.TypeInt}}
	blk := ir.NewBlock("b", vars)
	blk.Append(&ir.Instruction{Token: ir.OpNoop})

	g := BuildGraph(blk, 0, 1, nil, 0)
	run := &regionRun{sched: sched, sess: sess, graph: g, doneQ: newDoneQueue()}

	require.True(sched.RT.Admission.Claim(90, 0))
	go func() {
		time.Sleep(5 * time.Millisecond)
		sched.RT.Admission.Release(90, 0)
	}()

	w := &Worker{sema: make(chan struct{}, 1)}
	tk := &task{owner: run, pc: 0, argClaim: 50}
	ok := w.admit(sched, &tk)
	require.True(ok)
	require.Same(run, tk.owner)
	sched.RT.Admission.Release(50, 0)

	_, claims := sched.RT.Admission.Outstanding()
	require.Equal(int64(0), claims)
}

// TestRunRegionExecutesChainAndReturnsResult verifies the full
// scheduler path: building a graph, reserving a worker, executing a
// small dependent chain of real instructions, and draining to
// completion with the correct final value.
func TestRunRegionExecutesChainAndReturnsResult(t *testing.T) {
	require := require.New(t)

	sched, sess := newTestScheduler(t, 1<<30)

	vars := []*ir.Variable{
		{Name: "a", Typ: ir.TypeInt},
		{Name: "b", Typ: ir.TypeInt},
		{Name: "c", Typ: ir.TypeInt},
	}
	blk := ir.NewBlock("chain", vars)
	blk.Append(&ir.Instruction{
		Token: ir.OpCallNativeCommand, Argv: []int{1, 0}, Retc: 1,
		Command: func(args []*ir.Value, retc int) error {
			args[0].Scalar = args[1].Scalar.(int) + 1
			return nil
		},
	})
	blk.Append(&ir.Instruction{
		Token: ir.OpCallNativeCommand, Argv: []int{2, 1}, Retc: 1,
		Command: func(args []*ir.Value, retc int) error {
			args[0].Scalar = args[1].Scalar.(int) * 2
			return nil
		},
	})
	blk.Append(&ir.Instruction{Token: ir.OpEnd})

	frame := ir.NewFrame(blk, 0)
	frame.Set(0, ir.Value{Typ: ir.TypeInt, Scalar: 10})

	err := sched.RunRegion(sess, blk, ir.Region{Start: 0, Stop: 2}, frame)
	require.NoError(err)
	require.Equal(22, frame.Get(2).Scalar)
}

// TestRunRegionRejectsEmptyRange confirms a region with stop - start
// == 0 raises ErrEmptyRegion instead of silently succeeding.
func TestRunRegionRejectsEmptyRange(t *testing.T) {
	require := require.New(t)

	sched, sess := newTestScheduler(t, 1<<30)

	blk := ir.NewBlock("empty", nil)
	blk.Append(&ir.Instruction{Token: ir.OpEnd})
	frame := ir.NewFrame(blk, 0)

	err := sched.RunRegion(sess, blk, ir.Region{Start: 1, Stop: 1}, frame)
	require.Error(err)
	require.True(ErrEmptyRegion.Is(err))
}
