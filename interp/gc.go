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

package interp

import "github.com/MonetDB/MonetDB-sub015/ir"

// garbageSet computes, for the instruction about to run, which of its
// argument slots reach their ScopeEnd at this pc and are not marked
// Fixed or Disabled. Constant and cleanup-exempt variables never appear
// in the set.
func (ip *Interpreter) garbageSet(blk *ir.Block, in *ir.Instruction, frame *ir.Frame) []int {
	var garbage []int
	for _, idx := range in.Argv {
		if idx >= len(blk.Vars) {
			continue
		}
		v := blk.Vars[idx]
		if v.Fixed || v.Disabled || v.IsConstant {
			continue
		}
		if v.ScopeEnd == in.PC {
			garbage = append(garbage, idx)
		}
	}
	return garbage
}

// collectGarbage releases the column-buffer reference held by each slot
// in the garbage set and replaces it with a null value of the same type.
func (ip *Interpreter) collectGarbage(frame *ir.Frame, garbage []int) {
	for _, idx := range garbage {
		v := frame.Get(idx)
		if v.IsBAT() {
			frame.Set(idx, ir.Value{Typ: v.Typ, IsNull: true})
		}
	}
}

// gcFrame releases every remaining column-buffer reference on a frame
// that is about to be discarded at the end of a run. It does not look at
// KeepAlive; Run skips the call for a KeepAlive frame.
func (ip *Interpreter) gcFrame(frame *ir.Frame) {
	if frame == nil {
		return
	}
	for i, v := range frame.Stack {
		if v.IsBAT() {
			frame.Set(i, ir.Value{Typ: v.Typ, IsNull: true})
		}
	}
}
