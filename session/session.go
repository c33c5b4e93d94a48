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

package session

import (
	"bufio"
	"io"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/MonetDB/MonetDB-sub015/ir"
)

// State is a session's lifecycle stage.
type State int

const (
	Free State = iota
	Running
	Finishing
	Blocked
)

func (s State) String() string {
	switch s {
	case Free:
		return "FREE"
	case Running:
		return "RUNNING"
	case Finishing:
		return "FINISHING"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// Namespace is the set of modules/functions a session may call. A
// forked child's namespace aliases its parent's outer scope.
type Namespace struct {
	mu      sync.RWMutex
	Outer   *Namespace
	symbols map[string]any
}

// NewNamespace allocates a zeroed symbol namespace, optionally aliasing
// an outer (parent) scope.
func NewNamespace(outer *Namespace) *Namespace {
	return &Namespace{Outer: outer, symbols: make(map[string]any)}
}

// Define installs a symbol in this namespace's own scope.
func (n *Namespace) Define(name string, sym any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.symbols[name] = sym
}

// Lookup searches this namespace, then its outer chain.
func (n *Namespace) Lookup(name string) (any, bool) {
	n.mu.RLock()
	sym, ok := n.symbols[name]
	n.mu.RUnlock()
	if ok {
		return sym, true
	}
	if n.Outer != nil {
		return n.Outer.Lookup(name)
	}
	return nil, false
}

// PushedInput is one saved (input, prompt, cursor) triple for nested
// `include`-style script reading.
type PushedInput struct {
	Input  *bufio.Reader
	Prompt string
	Cursor int
}

// ReadResult is the three-way result of Manager.Read.
type ReadResult int

const (
	NoDataOnEOF ReadResult = iota
	OkMoreData
	EOFAndPopped
)

// Session represents one connected client's execution context.
type Session struct {
	mu sync.Mutex

	ID       int
	UserID   string
	QueryID  uuid.UUID

	Input    *bufio.Reader // nil when closed (forked children)
	Output   io.Writer
	Terminal bool // a terminal session flushes its prompt before reading

	inputStack []PushedInput
	Prompt     string

	Namespace *Namespace
	Frame     *ir.Frame

	State State

	Parent *Session

	Scenario string // inherited execution mode, copied on fork

	StartTime       time.Time
	LastCommandTime time.Time
	QueryTimeout    time.Duration
	SessionTimeout  time.Duration

	ErrBuf []string // per-session error buffer

	DebugSem chan struct{} // used for debug stepping

	Log *logrus.Entry
}

// IsAdministrator reports whether this is the slot-0 console session.
func (s *Session) IsAdministrator() bool { return s.ID == 0 }

// PushInput saves the current input/prompt and installs a new one.
func (s *Session) PushInput(newInput *bufio.Reader, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputStack = append(s.inputStack, PushedInput{Input: s.Input, Prompt: s.Prompt})
	s.Input = newInput
	s.Prompt = prompt
}

// PopInput restores the most recently pushed input, destroying the
// current one.
func (s *Session) PopInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputStack) == 0 {
		return ErrNoPushedInput.New()
	}
	n := len(s.inputStack) - 1
	saved := s.inputStack[n]
	s.inputStack = s.inputStack[:n]
	s.Input = saved.Input
	s.Prompt = saved.Prompt
	return nil
}

// HasPushedInput reports whether PopInput would succeed.
func (s *Session) HasPushedInput() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inputStack) > 0
}

// AppendError appends a message to the per-session error buffer.
func (s *Session) AppendError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrBuf = append(s.ErrBuf, msg)
}
