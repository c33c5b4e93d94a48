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
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/MonetDB/MonetDB-sub015/ir"
	"github.com/MonetDB/MonetDB-sub015/runtime"
	"github.com/MonetDB/MonetDB-sub015/session"
)

// maxCallDepth is the nested ir-function call-depth limit.
const maxCallDepth = 256

// livenessProbeInterval is how often, in interpreter iterations, the
// running loop probes the session's input stream for liveness.
const livenessProbeInterval = 1000

// Dataflow is the capability the interpreter needs from the scheduler
// to execute a guarded sub-range in parallel. It is satisfied by
// dataflow.Scheduler; kept as an interface here to avoid an import
// cycle (dataflow calls back into interp.Reenter for single
// instructions).
type Dataflow interface {
	RunRegion(sess *session.Session, blk *ir.Block, region ir.Region, frame *ir.Frame) error
}

// FactoryManager dispatches "call-factory" instructions. No factory is
// assumed to yield across dataflow workers, so a factory call always
// runs synchronously on the calling interpreter goroutine.
type FactoryManager interface {
	Call(sess *session.Session, in *ir.Instruction, frame *ir.Frame) error
	Yield(sess *session.Session, in *ir.Instruction, frame *ir.Frame) error
	Shutdown(blk *ir.Block) error
}

// Interpreter executes IR blocks
type Interpreter struct {
	RT *runtime.Runtime

	Dataflow Dataflow
	Factory  FactoryManager

	// CheckAlive probes the session's input stream for liveness without
	// blocking. The actual I/O liveness check is an external concern
	// (the wire protocol); tests and embedders supply their own.
	CheckAlive func(s *session.Session) bool

	// malContextLock guards exception-variable assignment and
	// symbol-namespace modification: these are treated as shared, fiber-like co-routine state.
	malContextLock sync.Mutex

	lastTimeoutPrint runtime.Counter
}

// New builds an Interpreter wired to rt and the given scheduler/factory
// collaborators.
func New(rt *runtime.Runtime, df Dataflow, fm FactoryManager) *Interpreter {
	return &Interpreter{
		RT:         rt,
		Dataflow:   df,
		Factory:    fm,
		CheckAlive: func(*session.Session) bool { return true },
	}
}

// PrepareStack allocates a frame sized for the block's variables (with
// slack for runtime-inserted variables).
func (ip *Interpreter) PrepareStack(blk *ir.Block, slack int) *ir.Frame {
	return ir.NewFrame(blk, slack)
}

// Run executes blk start-to-end within a fresh frame, aligning caller
// arguments if callerFrame is non-nil, and applies GC on exit unless
// the frame is KeepAlive.
func (ip *Interpreter) Run(sess *session.Session, blk *ir.Block, callerFrame *ir.Frame, callArgs []int) (*ir.Frame, error) {
	frame := ip.PrepareStack(blk, 0)
	if callerFrame != nil && len(callArgs) > 0 {
		alignFormals(blk, frame, callerFrame, callArgs)
	}
	blk.StartTime = time.Now()

	span := opentracing.GlobalTracer().StartSpan("mal.block." + blk.Name)
	defer span.Finish()

	err := ip.RunRange(sess, blk, 0, blk.Len(), frame, callerFrame, -1)

	if !frame.KeepAlive {
		ip.gcFrame(frame)
	}
	return frame, err
}

// alignFormals copies caller argument slots into the callee's leading
// formal-parameter slots, the typed calling convention used for
// ir-function calls.
func alignFormals(blk *ir.Block, callee, caller *ir.Frame, callArgs []int) {
	for i, src := range callArgs {
		if i >= len(callee.Stack) {
			break
		}
		callee.Set(i, caller.Get(src))
	}
}

// Reenter behaves like RunRange but preserves the caller's keep-alive
// policy; it's what the dataflow scheduler calls to execute a single
// instruction.
func (ip *Interpreter) Reenter(sess *session.Session, blk *ir.Block, startPC, stopPC int, frame *ir.Frame) error {
	return ip.RunRange(sess, blk, startPC, stopPC, frame, frame.Caller, -1)
}

// RunRange runs blk's instructions from startPC up to stopPC, dispatching
// each through step and handling any resulting error via the catch search.
func (ip *Interpreter) RunRange(sess *session.Session, blk *ir.Block, startPC, stopPC int, frame *ir.Frame, env *ir.Frame, pcicaller int) error {
	if stopPC > blk.Len() {
		stopPC = blk.Len()
	}

	pc := startPC
	iterations := 0
	for pc < stopPC {
		iterations++

		if sess != nil && sess.State == session.Finishing {
			return ErrPrematurelyStopped.New()
		}

		if iterations%livenessProbeInterval == 0 && sess != nil && ip.CheckAlive != nil {
			if !ip.CheckAlive(sess) {
				sess.State = session.Finishing
				return ErrPrematurelyStopped.New()
			}
		}

		if sess != nil && sess.QueryTimeout > 0 {
			if runtime.Deadline(blk.StartTime.UnixMicro(), sess.QueryTimeout.Microseconds()) {
				return ErrQueryTimeout.New(sess.QueryTimeout)
			}
			ip.maybePrintStillRunning(sess)
		}

		in := blk.Instr[pc]
		next, err := ip.step(sess, blk, in, frame, env)
		if err != nil {
			caught, resumePC, cerr := ip.handleError(blk, in, frame, err)
			if cerr != nil {
				return cerr
			}
			if caught {
				pc = resumePC
				continue
			}
			ip.debugDumpFrame(sess, blk, in, frame)
			if in.Token == ir.OpRaise {
				return ErrUnhandledException.New(err.Error())
			}
			return err
		}
		pc = next
	}
	return nil
}

func (ip *Interpreter) maybePrintStillRunning(sess *session.Session) {
	now := runtime.NowUsec()
	last := ip.lastTimeoutPrint.Load()
	bound := sess.QueryTimeout.Microseconds()
	if bound <= 0 {
		return
	}
	if now-last < bound {
		return
	}
	if ip.lastTimeoutPrint.CAS(last, now) {
		if sess.Log != nil {
			sess.Log.Info("query already running")
		}
	}
}

// handleError implements the forward-scan catch search: find the
// nearest `catch` whose argument matches the exception variable name,
// or the literal ANYexception.
func (ip *Interpreter) handleError(blk *ir.Block, from *ir.Instruction, frame *ir.Frame, cause error) (caught bool, resumePC int, err error) {
	for pc := from.PC + 1; pc < blk.Len(); pc++ {
		candidate := blk.Instr[pc]
		if candidate.Token != ir.OpCatch {
			continue
		}
		if candidate.ExceptionVar != "ANYexception" && candidate.ExceptionVar != from.ExceptionVar {
			continue
		}
		ip.malContextLock.Lock()
		ip.setExceptionVar(blk, frame, candidate.ExceptionVar, chainMessage(frame, candidate, cause))
		ip.malContextLock.Unlock()
		return true, pc + 1, nil
	}
	return false, 0, nil
}

// chainMessage concatenates prior message + newline + "!" + new message,
// error-chain rule.
func chainMessage(frame *ir.Frame, catchInstr *ir.Instruction, cause error) string {
	prior := ""
	for _, idx := range catchInstr.Argv {
		if idx < len(frame.Stack) {
			if s, ok := frame.Stack[idx].Scalar.(string); ok {
				prior = s
			}
		}
	}
	if prior == "" {
		return cause.Error()
	}
	return prior + "\n!" + cause.Error()
}

func (ip *Interpreter) setExceptionVar(blk *ir.Block, frame *ir.Frame, name string, msg string) {
	for i, v := range blk.Vars {
		if v.Name == name {
			frame.Set(i, ir.Value{Typ: ir.TypeStr, Scalar: msg})
			return
		}
	}
}

// debugDumpFrame logs the variable stack of an instruction that raised
// an uncaught error, at debug level only, since spew.Sdump walks every
// slot's scalar and is too costly to run on the common path.
func (ip *Interpreter) debugDumpFrame(sess *session.Session, blk *ir.Block, in *ir.Instruction, frame *ir.Frame) {
	if sess == nil || sess.Log == nil || sess.Log.Logger.GetLevel() < logrus.DebugLevel {
		return
	}
	sess.Log.WithFields(logrus.Fields{
		"pc":    in.PC,
		"block": blk.Name,
		"frame": spew.Sdump(frame.Stack),
	}).Debug("MAL interpreter: instruction raised uncaught error")
}

