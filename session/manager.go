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
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/MonetDB/MonetDB-sub015/runtime"
)

// HelpFunc answers the "?" online-help prefix.
// The help content itself lives outside the core; the
// manager only needs somewhere to dispatch the query.
type HelpFunc func(topic string) string

// Manager is the fixed-capacity client table
type Manager struct {
	mu    sync.Mutex
	rt    *runtime.Runtime
	slots []*Session // slots[0] is always the console

	Help HelpFunc

	pending map[int]string // unconsumed input buffered per session id
}

// Init allocates 1+maxClients slots; slot 0 is always the console.
func Init(rt *runtime.Runtime, stdin io.Reader, stdout io.Writer) *Manager {
	max := rt.Config.MaxClients
	m := &Manager{
		rt:      rt,
		slots:   make([]*Session, max+1),
		pending: make(map[int]string),
	}
	console := &Session{
		ID:       0,
		UserID:   "console",
		Input:    bufio.NewReader(stdin),
		Output:   stdout,
		Terminal: true,
		Prompt:   rt.Config.MonetPrompt,
		State:    Running,
		Namespace: NewNamespace(nil),
		StartTime: time.Now(),
		Log:      rt.Log.WithField("session", 0),
	}
	m.slots[0] = console
	for i := 1; i <= max; i++ {
		m.slots[i] = &Session{ID: i, State: Free}
	}
	return m
}

// NewClient scans for a FREE slot, marks it RUNNING, and returns a
// pointer.
func (m *Manager) NewClient(userID string, stdin io.Reader, stdout io.Writer) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rt.ShutdownInProgress.IsSet() {
		return nil, ErrShuttingDown.New()
	}

	for i := 1; i < len(m.slots); i++ {
		if m.slots[i].State == Free {
			qid, _ := uuid.NewV4()
			s := &Session{
				ID:        i,
				UserID:    userID,
				QueryID:   qid,
				Input:     bufio.NewReader(stdin),
				Output:    stdout,
				Terminal:  stdin != nil,
				Prompt:    m.rt.Config.MonetPrompt,
				State:     Running,
				Namespace: NewNamespace(nil),
				StartTime: time.Now(),
				QueryTimeout: m.rt.Config.QueryTimeout,
				SessionTimeout: m.rt.Config.SessionTimeout,
				Log:       m.rt.Log.WithFields(logrus.Fields{"session": i, "user": userID}),
			}
			m.slots[i] = s
			return s, nil
		}
	}
	return nil, ErrTableFull.New(len(m.slots) - 1)
}

// Fork creates a child session sharing the parent's output stream with
// its input closed. If parent is itself a child, the new session
// attaches to the grandparent.
func (m *Manager) Fork(parent *Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	effectiveParent := parent
	if parent.Parent != nil {
		effectiveParent = parent.Parent
	}

	for i := 1; i < len(m.slots); i++ {
		if m.slots[i].State == Free {
			qid, _ := uuid.NewV4()
			child := &Session{
				ID:        i,
				UserID:    parent.UserID,
				QueryID:   qid,
				Input:     nil, // closed: a fork child cannot read from the terminal
				Output:    parent.Output,
				Terminal:  false,
				Prompt:    parent.Prompt,
				State:     Running,
				Namespace: NewNamespace(parent.Namespace),
				Parent:    effectiveParent,
				Scenario:  parent.Scenario,
				StartTime: time.Now(),
				QueryTimeout:   parent.QueryTimeout,
				SessionTimeout: parent.SessionTimeout,
				Log:       m.rt.Log.WithFields(logrus.Fields{"session": i, "fork_of": parent.ID}),
			}
			m.slots[i] = child
			return child, nil
		}
	}
	return nil, ErrTableFull.New(len(m.slots) - 1)
}

// Read implements whitespace/`;` skipping, prompt flush for terminal
// sessions, line/bulk reads, and `?`-prefixed help.
func (m *Manager) Read(s *Session) (ReadResult, string, error) {
	m.mu.Lock()
	pending := m.pending[s.ID]
	m.mu.Unlock()

	pending = strings.TrimLeft(pending, " \t\r\n;")
	if pending != "" {
		m.mu.Lock()
		m.pending[s.ID] = ""
		m.mu.Unlock()
		return m.dispatchLine(s, pending)
	}

	if s.Input == nil {
		if s.HasPushedInput() {
			if err := s.PopInput(); err != nil {
				return NoDataOnEOF, "", err
			}
			return EOFAndPopped, "", nil
		}
		return NoDataOnEOF, "", io.EOF
	}

	if s.Terminal {
		fmt.Fprint(s.Output, s.Prompt)
	}

	var (
		line string
		err  error
	)
	if s.Terminal {
		line, err = s.Input.ReadString('\n')
	} else {
		var b strings.Builder
		buf := make([]byte, 4096)
		for {
			n, rerr := s.Input.Read(buf)
			b.Write(buf[:n])
			if rerr != nil || s.Input.Buffered() == 0 {
				err = rerr
				break
			}
		}
		line = b.String()
	}

	if err != nil && err != io.EOF {
		return NoDataOnEOF, "", err
	}
	if line == "" && err == io.EOF {
		if s.HasPushedInput() {
			if perr := s.PopInput(); perr != nil {
				return NoDataOnEOF, "", perr
			}
			return EOFAndPopped, "", nil
		}
		return NoDataOnEOF, "", io.EOF
	}

	line = strings.TrimLeft(line, " \t\r\n;")
	return m.dispatchLine(s, line)
}

func (m *Manager) dispatchLine(s *Session, line string) (ReadResult, string, error) {
	if strings.HasPrefix(line, "?") {
		topic := strings.TrimSpace(strings.TrimPrefix(line, "?"))
		if m.Help != nil {
			fmt.Fprintln(s.Output, m.Help(topic))
		}
		return m.Read(s)
	}
	return OkMoreData, line, nil
}

// StopAll sets every other RUNNING session to FINISHING and every FREE
// session to BLOCKED, and raises the shutdown flag.
func (m *Manager) StopAll(except *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rt.ShutdownInProgress.Set()
	for _, s := range m.slots {
		if s == except {
			continue
		}
		switch s.State {
		case Running:
			s.State = Finishing
		case Free:
			s.State = Blocked
		}
	}
}

// CloseChecked enforces "a child cannot destroy its parent" before delegating to Close.
func (m *Manager) CloseChecked(caller, target *Session) (bool, error) {
	if caller != nil && caller.Parent == target {
		return false, ErrChildCannotDestroyParent.New()
	}
	return m.Close(target), nil
}

// Close tears down a session. If s is the administrator (console), the
// console is set to FINISHING and the caller is expected to trigger
// process exit; otherwise the slot is returned to FREE (or BLOCKED if
// shutdown is in progress). Destroying a parent softly terminates its
// children.
func (m *Manager) Close(s *Session) (triggerExit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.IsAdministrator() {
		s.State = Finishing
		return true
	}

	for _, child := range m.slots {
		if child.Parent == s && child.State == Running {
			child.State = Finishing
		}
	}

	if m.rt.ShutdownInProgress.IsSet() {
		s.State = Blocked
	} else {
		s.State = Free
	}
	delete(m.pending, s.ID)
	return false
}

// ActiveCount returns the number of RUNNING plus FINISHING sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.slots {
		if s.State == Running || s.State == Finishing {
			n++
		}
	}
	return n
}

// Session returns the slot for id, or nil if out of range.
func (m *Manager) Session(id int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.slots) {
		return nil
	}
	return m.slots[id]
}
