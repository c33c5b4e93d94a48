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

// Package dataflow schedules a guarded sub-range of an IR block across
// a shared worker pool: dependency-graph construction, memory-admission
// throttled execution, and a hot-potato heuristic that keeps a
// just-produced value's consumer on the same goroutine.
package dataflow

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrRegionAborted wraps the first instruction error raised inside a
	// region, as installed in the region's error slot.
	ErrRegionAborted = errors.NewKind("dataflow: region aborted: %s")

	// ErrNoInterpreter fires when a Scheduler is used before Reenter is wired.
	ErrNoInterpreter = errors.NewKind("dataflow: no interpreter attached to scheduler")

	// ErrEmptyRegion fires when a region's [Start, Stop) range contains
	// no instructions to run.
	ErrEmptyRegion = errors.NewKind("dataflow: empty dataflow block")
)
