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

import "github.com/MonetDB/MonetDB-sub015/ir"

// nodeState is a region instruction's scheduling state.
type nodeState int

const (
	statePending nodeState = iota
	stateRunning
	stateWrapup
	stateRetry
	stateSkipped
)

// edge is one entry of a wakeup list, stored as a singly linked list
// threaded through the Graph's edges slice rather than a per-node slice,
// so the whole adjacency structure is two flat arrays.
type edge struct {
	to   int // successor index, relative to Graph.Start
	next int // index into Graph.edges, -1 terminates the list
}

// node is the per-instruction scheduling state for one position in a region.
type node struct {
	state      nodeState
	blockCount int
	cost       int64
	argClaim   int64
}

// Graph is the dependency graph built over one guarded sub-range
// [Start, Stop) of a block: last-write dependency edges between
// producer and consumer instructions, plus "wait for producer" edges
// forced by each variable's scope end.
type Graph struct {
	Blk       *ir.Block
	Start     int
	Stop      int
	Threshold int64 // admission-claim cap passed to ColumnBuffer.MemoryClaim

	nodes    []node
	headEdge []int
	edges    []edge
}

const edgeGrowFactor = 2

// BuildGraph constructs the dependency graph for blk's [start, stop)
// range. frame supplies the current variable values so initially-ready
// instructions' memory claims can be computed immediately; threshold is
// the admission-claim cap passed through to each buffer's MemoryClaim.
func BuildGraph(blk *ir.Block, start, stop int, frame *ir.Frame, threshold int64) *Graph {
	n := stop - start
	g := &Graph{
		Blk:       blk,
		Start:     start,
		Stop:      stop,
		Threshold: threshold,
		nodes:     make([]node, n),
		headEdge:  make([]int, n),
	}
	for i := range g.headEdge {
		g.headEdge[i] = -1
		g.nodes[i].cost = -1
	}

	lastWrite := make(map[int]int, n*2)
	for pc := start; pc < stop; pc++ {
		in := blk.Instr[pc]
		for _, argIdx := range in.Args() {
			if isConstant(blk, argIdx) {
				continue
			}
			if k, ok := lastWrite[argIdx]; ok && k >= start && k < pc {
				g.addEdge(k-start, pc-start)
			}
		}
		for _, resIdx := range in.Results() {
			lastWrite[resIdx] = pc
		}
	}

	// Scope-end edges: an instruction that reads variable j must finish
	// before the instruction at j's ScopeEnd garbage-collects it.
	for pc := start; pc < stop; pc++ {
		in := blk.Instr[pc]
		for _, argIdx := range in.Argv {
			if argIdx >= len(blk.Vars) {
				continue
			}
			v := blk.Vars[argIdx]
			l := v.ScopeEnd
			if l <= pc || l < start || l >= stop {
				continue
			}
			g.addEdge(pc-start, l-start)
		}
	}

	for i := range g.nodes {
		if g.nodes[i].blockCount == 0 {
			g.nodes[i].argClaim = argClaimAt(blk, start+i, frame, threshold)
		}
	}
	return g
}

func isConstant(blk *ir.Block, idx int) bool {
	return idx < len(blk.Vars) && blk.Vars[idx].IsConstant
}

// argClaimAt sums the memory claim of an instruction's non-return
// arguments against the values currently held in frame.
func argClaimAt(blk *ir.Block, pc int, frame *ir.Frame, threshold int64) int64 {
	if frame == nil {
		return 0
	}
	in := blk.Instr[pc]
	var total int64
	for _, idx := range in.Args() {
		v := frame.Get(idx)
		if v.IsBAT() {
			total += v.Buffer.MemoryClaim(threshold)
		}
	}
	return total
}

// addEdge records a from->to dependency, growing the edges array at 2x
// capacity when full, and increments to's block-count.
func (g *Graph) addEdge(from, to int) {
	if len(g.edges) == cap(g.edges) {
		newCap := edgeGrowFactor*cap(g.edges) + 1
		grown := make([]edge, len(g.edges), newCap)
		copy(grown, g.edges)
		g.edges = grown
	}
	g.edges = append(g.edges, edge{to: to, next: g.headEdge[from]})
	g.headEdge[from] = len(g.edges) - 1
	g.nodes[to].blockCount++
}

// ready returns every node (relative index) whose block-count starts at
// zero, for initial enqueue.
func (g *Graph) ready() []int {
	var out []int
	for i := range g.nodes {
		if g.nodes[i].blockCount == 0 {
			out = append(out, i)
		}
	}
	return out
}

// wake decrements the block-count of every successor of the completed
// node at relative index `from`, returning those that just reached zero.
func (g *Graph) wake(from int, frame *ir.Frame) []int {
	var newlyReady []int
	for ei := g.headEdge[from]; ei != -1; ei = g.edges[ei].next {
		to := g.edges[ei].to
		g.nodes[to].blockCount--
		if g.nodes[to].blockCount == 0 && g.nodes[to].state == statePending {
			g.nodes[to].argClaim = argClaimAt(g.Blk, g.Start+to, frame, g.Threshold)
			newlyReady = append(newlyReady, to)
		}
	}
	return newlyReady
}

// len reports the number of instructions in the region.
func (g *Graph) len() int { return len(g.nodes) }
