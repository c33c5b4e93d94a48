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

package runtime

import "sync/atomic"

// Flag is a process-wide boolean set with test-and-set/clear semantics,
// used for the "exiting" and "shutdown_in_progress" flags. Go's
// sync/atomic already gives sequentially-consistent operations
// everywhere the toolchain runs, so no mutex fallback is needed here.
type Flag struct {
	v atomic.Bool
}

// Set performs a test-and-set, returning the previous value.
func (f *Flag) Set() bool { return f.v.Swap(true) }

// Clear performs a test-and-clear, returning the previous value.
func (f *Flag) Clear() bool { return f.v.Swap(false) }

// IsSet reports the current value.
func (f *Flag) IsSet() bool { return f.v.Load() }

// Counter is a word-sized integer supporting load/store/fetch-add/fetch-sub,
// used for running-worker counts, exit counts, and per-instruction clocks.
type Counter struct {
	v atomic.Int64
}

func (c *Counter) Load() int64               { return c.v.Load() }
func (c *Counter) Store(n int64)             { c.v.Store(n) }
func (c *Counter) Add(delta int64) int64     { return c.v.Add(delta) }
func (c *Counter) Sub(delta int64) int64     { return c.v.Add(-delta) }
func (c *Counter) CAS(old, new int64) bool   { return c.v.CompareAndSwap(old, new) }

// ErrorSlot implements a compare-and-swap error latch: exactly one
// error is reported for a dataflow region, no matter how many workers
// fail concurrently. The first non-nil Set wins; later callers' errors
// are discarded (the caller is expected to free/drop them).
type ErrorSlot struct {
	v atomic.Pointer[error]
}

// Set installs err if no error has been installed yet. Returns true if
// this call won the race (its error is the one that will be observed).
func (s *ErrorSlot) Set(err error) bool {
	if err == nil {
		return false
	}
	return s.v.CompareAndSwap(nil, &err)
}

// Get returns the installed error, or nil if none has been set.
func (s *ErrorSlot) Get() error {
	p := s.v.Load()
	if p == nil {
		return nil
	}
	return *p
}
