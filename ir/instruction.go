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

import "sync/atomic"

// NativeCommand is the "positional, 0-16 arguments" calling convention:
// a nil return means success, a non-nil error is owned by the callee.
type NativeCommand func(args []*Value, retc int) error

// NativePattern is the "inspect/rewrite the block" calling convention.
// It receives the running Frame and Instruction and may mutate the
// Block it belongs to; only optimizer-style patterns do so.
type NativePattern func(frame *Frame, instr *Instruction) error

// Instruction is one IR opcode plus its operands.
type Instruction struct {
	PC int

	Token   Opcode
	Barrier Barrier

	ModName string
	FcnName string

	Command NativeCommand
	Pattern NativePattern
	Callee  *Block // resolved callee for OpCallIRFunction/OpCallFactory

	// Argv holds variable-table indices; the first Retc entries are
	// outputs, the remainder are inputs.
	Argv []int
	Retc int

	// Jump is the control-flow target pc for barrier/leave/redo/raise.
	Jump int

	// ExceptionVar names the variable a raise/catch pairs on (or the
	// literal "ANYexception").
	ExceptionVar string
	RaiseMessage string

	// Per-execution counters, accumulated across calls.
	Clock     atomic.Int64
	Ticks     atomic.Int64
	Calls     atomic.Int64
	TotTicks  atomic.Int64
	WBytes    atomic.Int64
	RBytes    atomic.Int64
}

// Args returns the input slots (Argv[Retc:]).
func (in *Instruction) Args() []int { return in.Argv[in.Retc:] }

// Results returns the output slots (Argv[:Retc]).
func (in *Instruction) Results() []int { return in.Argv[:in.Retc] }

// IsConstantArg reports whether argument slot i of Argv refers to a
// compile-time constant, consulting the owning Block's variable table.
func (in *Instruction) IsConstantArg(blk *Block, argvIdx int) bool {
	v := blk.Vars[in.Argv[argvIdx]]
	return v.IsConstant
}
