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

import "time"

// FairnessGate tracks a running-worker count and delays a worker when
// RSS exceeds a configured threshold and the current operation has run
// longer than a fairness unit, briefly yielding one thread so that at
// least one always keeps running.
type FairnessGate struct {
	running      Counter
	rssThreshold int64
	unit         time.Duration
	rss          func() int64
}

// NewFairnessGate builds a gate against a caller-supplied RSS sampler so
// tests can fake memory pressure without touching the OS.
func NewFairnessGate(rssThreshold int64, unit time.Duration, rss func() int64) *FairnessGate {
	if rss == nil {
		rss = func() int64 { return 0 }
	}
	return &FairnessGate{rssThreshold: rssThreshold, unit: unit, rss: rss}
}

// Enter increments the running count; pair with Leave.
func (g *FairnessGate) Enter() { g.running.Add(1) }

// Leave decrements the running count.
func (g *FairnessGate) Leave() { g.running.Sub(1) }

// Yield checks whether the calling worker should briefly step aside:
// RSS over threshold, this task has been running longer than the
// fairness unit, and more than one worker is currently running (so
// yielding still leaves at least one thread making progress).
func (g *FairnessGate) Yield(taskStart time.Time) bool {
	if g.rssThreshold <= 0 {
		return false
	}
	if g.rss() < g.rssThreshold {
		return false
	}
	if time.Since(taskStart) < g.unit {
		return false
	}
	return g.running.Load() > 1
}
