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
	"time"

	"github.com/sirupsen/logrus"
)

// Runtime gathers the process-wide singletons that should be
// encapsulated rather than kept as link-time globals: configuration,
// the admission pool, the fairness gate, and the shutdown flags.
// Session manager, interpreter and dataflow scheduler all take a
// *Runtime rather than reaching for package-level state.
type Runtime struct {
	Config *Config
	Log    *logrus.Entry

	Admission *AdmissionPool
	Fairness  *FairnessGate

	Exiting            Flag
	ShutdownInProgress Flag
}

// New builds a Runtime from a Config. A nil logger installs a
// logrus.StandardLogger entry.
func New(cfg *Config, log *logrus.Entry) *Runtime {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runtime{
		Config:    cfg,
		Log:       log,
		Admission: NewAdmissionPool(cfg.MemoryThreshold),
		Fairness:  NewFairnessGate(0, 100*time.Millisecond, nil),
	}
}
