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
	"os"
	"runtime"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// Config holds the server's tunable knobs. Zero value is not
// meaningful; use DefaultConfig and override from YAML with Load.
type Config struct {
	MaxClients      int           `yaml:"max_clients"`
	DataflowMaxFree int           `yaml:"dataflow_max_free"`
	MonetPrompt     string        `yaml:"monet_prompt"`
	MonetModPath    string        `yaml:"monet_mod_path"`
	EmbeddedPy      bool          `yaml:"embedded_py"`
	EmbeddedR       bool          `yaml:"embedded_r"`
	EmbeddedC       bool          `yaml:"embedded_c"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	SessionTimeout  time.Duration `yaml:"session_timeout"`

	// MemoryThreshold is the admission pool's initial size in bytes.
	MemoryThreshold int64 `yaml:"memory_threshold"`
	// NumThreads is the size of the generic dataflow worker pool.
	NumThreads int `yaml:"num_threads"`
}

// DefaultConfig returns the baseline configuration a standalone server
// boots with.
func DefaultConfig() *Config {
	n := runtime.NumCPU()
	maxFree := n
	if maxFree < 4 {
		maxFree = 4
	}
	return &Config{
		MaxClients:      64,
		DataflowMaxFree: maxFree,
		MonetPrompt:     "> ",
		MonetModPath:    os.Getenv("MONETDB_MOD_PATH"),
		QueryTimeout:    0,
		SessionTimeout:  0,
		MemoryThreshold: 1 << 30,
		NumThreads:      n,
	}
}

// Load reads a YAML configuration file and overlays it onto DefaultConfig.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, ErrInvalidConfig.New(err.Error())
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, ErrInvalidConfig.New(err.Error())
	}
	if cfg.MaxClients <= 0 {
		return nil, ErrInvalidConfig.New("max_clients must be positive")
	}
	return cfg, nil
}

// envOverrides names the environment variables that take precedence
// over whatever the YAML file set, and the Config field each feeds.
var envOverrides = map[string]func(cfg *Config, raw string) error{
	"MONETDB_MAX_CLIENTS": func(cfg *Config, raw string) error {
		v, err := cast.ToIntE(raw)
		if err != nil {
			return err
		}
		cfg.MaxClients = v
		return nil
	},
	"MONETDB_QUERY_TIMEOUT": func(cfg *Config, raw string) error {
		v, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		cfg.QueryTimeout = v
		return nil
	},
	"MONETDB_SESSION_TIMEOUT": func(cfg *Config, raw string) error {
		v, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		cfg.SessionTimeout = v
		return nil
	},
	"MONETDB_EMBEDDED_PY": func(cfg *Config, raw string) error {
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		cfg.EmbeddedPy = v
		return nil
	},
}

// applyEnvOverrides lets an operator tweak a handful of hot knobs without
// rewriting the YAML file, accepting loosely-typed values (e.g. "30s" or
// "30000000000" for a duration) via cast's forgiving coercions.
func applyEnvOverrides(cfg *Config) error {
	for name, apply := range envOverrides {
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}
		if err := apply(cfg, raw); err != nil {
			return err
		}
	}
	return nil
}
