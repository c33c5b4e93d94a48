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

// Package session implements the fixed-capacity client table described
// in: allocation, fork/exit lifecycle, and nested input
// buffering for a MAL client session.
package session

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrTableFull is returned by Manager.NewClient and Manager.Fork when
	// no client slot is FREE.
	ErrTableFull = errors.NewKind("MAL session: client table is full (max %d clients)")

	// ErrShuttingDown is returned when a new client connects during shutdown.
	ErrShuttingDown = errors.NewKind("MAL session: server is shutting down")

	// ErrInvalidSession is returned for an id with no matching slot.
	ErrInvalidSession = errors.NewKind("MAL session: no such session %d")

	// ErrChildCannotDestroyParent enforces the "a child cannot destroy its
	// parent" invariant
	ErrChildCannotDestroyParent = errors.NewKind("MAL session: a forked session cannot destroy its parent")

	// ErrPrematurelyStopped is the client-disconnect error
	ErrPrematurelyStopped = errors.NewKind("MAL session: prematurely stopped client")

	// ErrNoPushedInput is returned by PopInput when the stack is empty.
	ErrNoPushedInput = errors.NewKind("MAL session: no pushed input to restore")
)
