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

package ir

import "time"

// Block is an IR program unit: a vector of instructions plus a variable
// table.
type Block struct {
	Name  string
	Instr []*Instruction
	Vars  []*Variable

	// IsFactory marks a block as a coroutine-shaped factory function.
	IsFactory bool

	StartTime time.Time
}

// NewBlock allocates an (empty) block with the given variable table.
func NewBlock(name string, vars []*Variable) *Block {
	return &Block{Name: name, Vars: vars}
}

// Append adds an instruction, assigning it the next pc.
func (b *Block) Append(in *Instruction) {
	in.PC = len(b.Instr)
	b.Instr = append(b.Instr, in)
}

// Len returns the number of instructions (the "stop" pc of the whole block).
func (b *Block) Len() int { return len(b.Instr) }

// Region marks a guarded sub-range of a block's instructions handed off
// to the dataflow scheduler. Lowering (an external concern) is expected
// to have already flagged the range boundaries; here we expose a simple
// explicit-range API instead of re-deriving markers from opcodes, since
// the lowering format for "guarded blocks" is implementation-defined
// upstream.
type Region struct {
	Start, Stop int // half-open [Start, Stop)
}
