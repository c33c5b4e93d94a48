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

import (
	"fmt"

	"github.com/MonetDB/MonetDB-sub015/ir"
	"github.com/MonetDB/MonetDB-sub015/session"
)

// stopLoop is returned as the "next pc" by opcodes that terminate the
// current RunRange invocation (end/return/yield).
func stopLoop(blk *ir.Block) int { return blk.Len() }

// step dispatches a single instruction and returns the next pc to
// execute. The opcode switch is total over ir.Opcode.
func (ip *Interpreter) step(sess *session.Session, blk *ir.Block, in *ir.Instruction, frame *ir.Frame, env *ir.Frame) (int, error) {
	in.Calls.Add(1)

	gcSet := ip.garbageSet(blk, in, frame)
	backup := frame.Backup(in.Results())

	next := in.PC + 1
	var err error

	switch in.Token {
	case ir.OpAssign:
		err = ip.execAssign(in, frame)

	case ir.OpCallNativeCommand:
		err = ip.execNativeCommand(in, frame)

	case ir.OpCallNativePattern:
		err = ip.execNativePattern(in, frame)

	case ir.OpCallFactory:
		if ip.Factory == nil {
			err = ErrMissingNative.New(in.ModName, in.FcnName)
		} else {
			err = ip.Factory.Call(sess, in, frame)
		}

	case ir.OpCallIRFunction:
		err = ip.execIRCall(sess, in, frame)

	case ir.OpNoop:
		// skip

	case ir.OpEnd:
		if blk.IsFactory && ip.Factory != nil {
			err = ip.Factory.Shutdown(blk)
		}
		if err == nil {
			next = stopLoop(blk)
		}

	case ir.OpBarrier:
		next = ip.execConditionalJump(in, frame, false)

	case ir.OpLeave, ir.OpRedo:
		next = ip.execConditionalJump(in, frame, true)

	case ir.OpCatch:
		// only entered via the exception path (handleError); a normal
		// fall-through simply skips it.

	case ir.OpExit:
		if in.ExceptionVar != "" {
			ip.malContextLock.Lock()
			ip.setExceptionVar(blk, frame, in.ExceptionVar, "")
			ip.malContextLock.Unlock()
		}

	case ir.OpRaise:
		err = ErrUserRaise.New(in.RaiseMessage)

	case ir.OpReturn, ir.OpYield:
		if in.Token == ir.OpYield && ip.Factory != nil {
			err = ip.Factory.Yield(sess, in, frame)
		}
		if err == nil {
			copyResults(in, frame, env)
			next = stopLoop(blk)
		}

	default:
		err = ErrUnknownOpcode.New(in.Token)
	}

	if err != nil {
		ip.restoreResults(in, frame, backup)
	}
	ip.collectGarbage(frame, gcSet)

	return next, err
}

func (ip *Interpreter) execAssign(in *ir.Instruction, frame *ir.Frame) error {
	results := in.Results()
	args := in.Args()
	if len(results) != len(args) {
		return fmt.Errorf("mal interpreter: assign argc mismatch (%d results, %d sources)", len(results), len(args))
	}
	for i, src := range args {
		v := frame.Get(src)
		if v.IsBAT() {
			v.Buffer = v.Buffer.Acquire()
		}
		frame.Set(results[i], v)
	}
	return nil
}

func (ip *Interpreter) execNativeCommand(in *ir.Instruction, frame *ir.Frame) error {
	if in.Command == nil {
		return ErrMissingNative.New(in.ModName, in.FcnName)
	}
	args := make([]*ir.Value, len(in.Argv))
	for i, idx := range in.Argv {
		v := frame.Get(idx)
		args[i] = &v
	}
	if err := in.Command(args, in.Retc); err != nil {
		return err
	}
	for i := 0; i < in.Retc; i++ {
		frame.Set(in.Argv[i], *args[i])
	}
	return nil
}

func (ip *Interpreter) execNativePattern(in *ir.Instruction, frame *ir.Frame) error {
	if in.Pattern == nil {
		return ErrMissingNative.New(in.ModName, in.FcnName)
	}
	return in.Pattern(frame, in)
}

// execIRCall allocates a nested stack frame, copies arguments, enforces
// the call-depth limit, recurses into RunRange, then releases external
// values on the nested frame.
func (ip *Interpreter) execIRCall(sess *session.Session, in *ir.Instruction, frame *ir.Frame) error {
	if in.Callee == nil {
		return ErrMissingNative.New(in.ModName, in.FcnName)
	}
	if frame.CallDepth+1 > maxCallDepth {
		return ErrStackDepth.New(maxCallDepth)
	}

	callee := ip.PrepareStack(in.Callee, 0)
	callee.Caller = frame
	callee.CallDepth = frame.CallDepth + 1
	alignFormals(in.Callee, callee, frame, in.Args())
	in.Callee.StartTime = frame.Block.StartTime

	err := ip.RunRange(sess, in.Callee, 0, in.Callee.Len(), callee, frame, in.PC)
	if err != nil {
		ip.gcFrame(callee)
		return err
	}

	copyResults(in, callee, frame)
	ip.gcFrame(callee)
	return nil
}

// copyResults copies a nested call's Retc leading results back into the
// caller frame's target slots named by the instruction.
func copyResults(in *ir.Instruction, from *ir.Frame, to *ir.Frame) {
	if to == nil {
		return
	}
	targets := in.Results()
	for i, t := range targets {
		if i >= len(from.Stack) {
			break
		}
		v := from.Get(i)
		if v.IsBAT() {
			v.Buffer = v.Buffer.Acquire()
		}
		to.Set(t, v)
	}
}

// execConditionalJump implements barrier/leave/redo: evaluate the
// destination variable and jump to in.Jump when its truthiness matches
// jumpOnTrue. A barrier jumps when the guard is FALSE or null
// (jumpOnTrue == false); leave and redo jump in the opposite direction,
// on TRUE or non-null (jumpOnTrue == true).
func (ip *Interpreter) execConditionalJump(in *ir.Instruction, frame *ir.Frame, jumpOnTrue bool) int {
	if len(in.Argv) == 0 {
		return in.PC + 1
	}
	v := frame.Get(in.Argv[0])
	if v.Truthy() == jumpOnTrue {
		return in.Jump
	}
	return in.PC + 1
}

// restoreResults undoes any partial writes a failed instruction made to
// its own result slots, returning them to the pre-execution snapshot
// so a matching catch observes consistent state.
func (ip *Interpreter) restoreResults(in *ir.Instruction, frame *ir.Frame, backup []ir.Value) {
	for i, slot := range in.Results() {
		frame.Set(slot, backup[i])
	}
}
