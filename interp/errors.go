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

// Package interp is the stack-based IR interpreter:
// instruction dispatch, control flow, variable lifetimes, native calls
// and query-timeout enforcement.
package interp

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrPrematurelyStopped fires when the session goes FINISHING mid-block.
	ErrPrematurelyStopped = errors.NewKind("MAL interpreter: prematurely stopped client")

	// ErrQueryTimeout is synthesised when the configured querytimeout elapses.
	ErrQueryTimeout = errors.NewKind("MAL interpreter: query timeout exceeded after %s")

	// ErrStackDepth enforces the 256 call-depth limit
	ErrStackDepth = errors.NewKind("MAL interpreter: call stack depth exceeded (limit %d)")

	// ErrUnknownOpcode fires for a dispatch on an opcode the interpreter
	// does not recognize (should be unreachable given ir.Opcode is closed).
	ErrUnknownOpcode = errors.NewKind("MAL interpreter: unknown opcode %v")

	// ErrMissingNative fires when a call-native instruction has a nil
	// function pointer.
	ErrMissingNative = errors.NewKind("MAL interpreter: missing native function %s.%s")

	// ErrUserRaise wraps a user `raise` instruction's message.
	ErrUserRaise = errors.NewKind("%s")

	// ErrUnhandledException is returned when a raise has no matching catch
	// anywhere in the block and propagates past the end.
	ErrUnhandledException = errors.NewKind("MAL interpreter: unhandled exception: %s")
)
