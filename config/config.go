// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package config

import (
	"fmt"
	"runtime"
)

// Flags is the bitset accepted by Engine.Flags.
type Flags uint8

const (
	// Pinned pins each worker to a distinct core.
	Pinned Flags = 1 << iota
	// Exclusive raises real-time scheduling priority; requires Pinned
	// and the process holding the elevation capability.
	Exclusive
)

// Has reports whether f is set within the flag bitset.
func (fl Flags) Has(f Flags) bool { return fl&f != 0 }

// Engine is the top-level LPEL runtime configuration.
type Engine struct {
	NumWorkers  int    `env:"LPEL_ENGINE_NUM_WORKERS" toml:"num-workers"`
	ProcWorkers int    `env:"LPEL_ENGINE_PROC_WORKERS" toml:"proc-workers"`
	ProcOthers  int    `env:"LPEL_ENGINE_PROC_OTHERS" toml:"proc-others"`
	Flags       Flags  `env:"LPEL_ENGINE_FLAGS" toml:"flags"`
	Node        int    `env:"LPEL_ENGINE_NODE" toml:"node"`
	Monitor     Trace  `toml:"monitor"`
}

// TOML returns Engine's toml config, in the same documented,
// default-annotated block style as config/monitor.go.
func (e *Engine) TOML() string {
	return fmt.Sprintf(`
## Config for the LPEL engine
## number of worker threads to create
## Default: %d
## Env: LPEL_ENGINE_NUM_WORKERS
num-workers = %d
## number of workers eligible to be pinned to a distinct core
## Default: %d
## Env: LPEL_ENGINE_PROC_WORKERS
proc-workers = %d
## number of additional cores reserved for non-worker threads;
## folded back onto the worker set when 0
## Default: %d
## Env: LPEL_ENGINE_PROC_OTHERS
proc-others = %d
## bitset: 1=pinned, 2=exclusive (requires pinned)
## Default: %d
## Env: LPEL_ENGINE_FLAGS
flags = %d
## opaque node identifier, passed through to workers
## Default: %d
## Env: LPEL_ENGINE_NODE
node = %d
%s`,
		e.NumWorkers, e.NumWorkers,
		e.ProcWorkers, e.ProcWorkers,
		e.ProcOthers, e.ProcOthers,
		e.Flags, e.Flags,
		e.Node, e.Node,
		e.Monitor.TOML(),
	)
}

// NewDefaultEngine returns a default Engine config: one worker per
// available core, unpinned, monitoring disabled.
func NewDefaultEngine() *Engine {
	n := runtime.NumCPU()
	return &Engine{
		NumWorkers:  n,
		ProcWorkers: n,
		ProcOthers:  0,
		Flags:       0,
		Node:        0,
		Monitor:     *NewDefaultTrace(),
	}
}

// Validate applies the Init-time configuration checks.
// Validation never mutates state and rejects before any worker or
// thread is created.
func (e *Engine) Validate(availableCores int, canSetExclusive bool) error {
	if e.NumWorkers <= 0 {
		return fmt.Errorf("%w: num-workers must be > 0", ErrInvalidConfig)
	}
	if e.ProcWorkers <= 0 {
		return fmt.Errorf("%w: proc-workers must be > 0", ErrInvalidConfig)
	}
	if e.ProcOthers < 0 {
		return fmt.Errorf("%w: proc-others must be >= 0", ErrInvalidConfig)
	}
	if e.ProcWorkers+e.ProcOthers > availableCores {
		return fmt.Errorf("%w: proc-workers+proc-others (%d) exceeds available cores (%d)",
			ErrInvalidConfig, e.ProcWorkers+e.ProcOthers, availableCores)
	}
	if e.Flags.Has(Exclusive) {
		if !e.Flags.Has(Pinned) {
			return fmt.Errorf("%w: exclusive requires pinned", ErrInvalidConfig)
		}
		if !canSetExclusive {
			return ErrExclusiveDenied
		}
	}
	return nil
}

// ErrInvalidConfig and ErrExclusiveDenied are declared in errors.go.
