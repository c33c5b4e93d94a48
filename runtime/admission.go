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

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// AdmissionPool is the process-wide memory-admission gate. It bounds
// how many concurrently running dataflow instructions may claim
// "expensive" amounts of column-buffer memory at once.
type AdmissionPool struct {
	mu     sync.Mutex
	pool   int64
	claims int64

	gaugePool   prometheus.Gauge
	gaugeClaims prometheus.Gauge
}

// NewAdmissionPool creates a pool seeded from threshold bytes, matching
// Config.MemoryThreshold.
func NewAdmissionPool(threshold int64) *AdmissionPool {
	p := &AdmissionPool{pool: threshold}
	p.gaugePool = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mal",
		Subsystem: "admission",
		Name:      "pool_bytes",
		Help:      "Remaining bytes in the dataflow memory-admission pool.",
	})
	p.gaugeClaims = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mal",
		Subsystem: "admission",
		Name:      "active_claims",
		Help:      "Number of outstanding memory-admission claims.",
	})
	p.gaugePool.Set(float64(threshold))
	return p
}

// Collectors returns the pool's prometheus collectors, for registration
// by the embedding process (the actual registry/export endpoint is an
// external collaborator).
func (p *AdmissionPool) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.gaugePool, p.gaugeClaims}
}

// Claim implements the admission rule:
//
//	If both zero, admit immediately.
//	Otherwise, under the admission lock, if no claims are active or
//	pool >= arg+hot, deduct and admit.
//	Else refuse (the caller requeues).
func (p *AdmissionPool) Claim(argBytes, hotBytes int64) bool {
	if argBytes == 0 && hotBytes == 0 {
		return true
	}
	need := argBytes + hotBytes

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.claims == 0 || p.pool >= need {
		p.pool -= need
		p.claims++
		p.gaugePool.Set(float64(p.pool))
		p.gaugeClaims.Set(float64(p.claims))
		return true
	}
	return false
}

// Release returns bytes to the pool and decrements the claim count.
func (p *AdmissionPool) Release(argBytes, hotBytes int64) {
	if argBytes == 0 && hotBytes == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool += argBytes + hotBytes
	p.claims--
	if p.claims < 0 {
		p.claims = 0
	}
	p.gaugePool.Set(float64(p.pool))
	p.gaugeClaims.Set(float64(p.claims))
}

// Outstanding returns the current pool size and active claim count.
func (p *AdmissionPool) Outstanding() (pool int64, claims int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool, p.claims
}
