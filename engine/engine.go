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

// Package engine is the process-wide facade an embedder constructs once:
// it wires the runtime singletons, the session table, the MAL
// interpreter, the dataflow scheduler and the privilege checker into a
// single object, and exposes the session-lifecycle, plan-optimization
// and block-execution entry points built on top of them.
package engine

import (
	"io"

	"github.com/pkg/errors"

	"github.com/MonetDB/MonetDB-sub015/auth"
	"github.com/MonetDB/MonetDB-sub015/dataflow"
	"github.com/MonetDB/MonetDB-sub015/interp"
	"github.com/MonetDB/MonetDB-sub015/ir"
	"github.com/MonetDB/MonetDB-sub015/relplan"
	"github.com/MonetDB/MonetDB-sub015/runtime"
	"github.com/MonetDB/MonetDB-sub015/session"
)

// Engine glues the process-wide singletons together. Construct with New
// or NewFromConfigFile; call Close when the process is shutting down.
type Engine struct {
	RT       *runtime.Runtime
	Sessions *session.Manager
	Interp   *interp.Interpreter
	Sched    *dataflow.Scheduler
	Checker  auth.Checker
}

// New builds an Engine from an already-loaded Config and a privilege
// Checker. A nil cfg installs runtime.DefaultConfig(); a nil checker
// installs auth.None (every permission granted, no accounting).
func New(cfg *runtime.Config, checker auth.Checker, stdin io.Reader, stdout io.Writer) *Engine {
	if cfg == nil {
		cfg = runtime.DefaultConfig()
	}
	if checker == nil {
		checker = new(auth.None)
	}

	rt := runtime.New(cfg, nil)
	sessions := session.Init(rt, stdin, stdout)

	ip := interp.New(rt, nil, nil)
	sched := dataflow.New(rt, ip)
	ip.Dataflow = sched

	return &Engine{
		RT:       rt,
		Sessions: sessions,
		Interp:   ip,
		Sched:    sched,
		Checker:  checker,
	}
}

// NewFromConfigFile loads a YAML configuration from path (see
// runtime.Load) before building the Engine.
func NewFromConfigFile(path string, checker auth.Checker, stdin io.Reader, stdout io.Writer) (*Engine, error) {
	cfg, err := runtime.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading engine configuration")
	}
	return New(cfg, checker, stdin, stdout), nil
}

// NewSession allocates a client slot for userID, wrapping
// session.Manager.NewClient's table-full error with call-site context.
func (e *Engine) NewSession(userID string, stdin io.Reader, stdout io.Writer) (*session.Session, error) {
	sess, err := e.Sessions.NewClient(userID, stdin, stdout)
	if err != nil {
		return nil, errors.Wrapf(err, "allocating session for user %q", userID)
	}
	return sess, nil
}

// Optimize runs the full relational-algebra rewrite pipeline over root,
// consulting the Engine's Checker for any merge-table privilege checks
// the pipeline needs to perform on userID's behalf.
func (e *Engine) Optimize(sess *session.Session, userID string, root *relplan.Node) (*relplan.Node, error) {
	out, err := relplan.Optimize(sess, e.Checker, userID, root)
	if err != nil {
		return nil, errors.Wrap(err, "optimizing plan")
	}
	return out, nil
}

// Run executes blk from its first instruction to its end on sess's
// behalf, sequentially on the calling goroutine. The interpreter does
// not hand any sub-range of blk to the dataflow scheduler; a region runs
// in parallel only when Sched.RunRegion is called for it directly.
func (e *Engine) Run(sess *session.Session, blk *ir.Block, frame *ir.Frame) error {
	if err := e.Interp.Reenter(sess, blk, 0, blk.Len(), frame); err != nil {
		return errors.Wrapf(err, "running block %q", blk.Name)
	}
	return nil
}

// Close signals every session to stop and waits for the dataflow worker
// pool to drain.
func (e *Engine) Close() error {
	e.Sessions.StopAll(nil)
	e.Sched.Shutdown()
	return nil
}
