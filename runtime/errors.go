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

// Package runtime holds the process-wide singletons the rest of the
// core is built around: configuration, the memory-admission pool, the
// fairness gate, the wall clock and the "exiting" flag, gathered into a
// single Runtime struct rather than package-level globals.
package runtime

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrMemoryExhausted describes an admission-pool refusal. No function
	// in this package returns it: AdmissionPool.Claim reports a refusal
	// by returning false.
	ErrMemoryExhausted = errors.NewKind("MAL resource: memory pool exhausted, requested %d bytes of %d available")

	// ErrInvalidConfig is returned when a configuration knob fails validation.
	ErrInvalidConfig = errors.NewKind("MAL resource: invalid configuration: %s")
)
