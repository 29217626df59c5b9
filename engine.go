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

package lpel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/lpel/config"
	"github.com/lindb/lpel/internal/affinity"
	"github.com/lindb/lpel/internal/api"
	"github.com/lindb/lpel/internal/clock"
	"github.com/lindb/lpel/internal/core"
	"github.com/lindb/lpel/internal/metric"
	"github.com/lindb/lpel/internal/monitor"
	"github.com/lindb/lpel/internal/worker"
)

var log = logger.GetLogger("LPEL", "Engine")

// Engine is the top-level runtime handle ("LPEL top"): lifecycle
// (Init/Spawn/Stop/Cleanup), affinity passthrough, and the Task* API
// surface.
type Engine struct {
	cfg      config.Engine
	affinity affinity.Capability
	clock    clock.Clock
	pool     *worker.Pool
	host     *metric.HostCollector
	hostStop context.CancelFunc

	nextTaskID atomic.Uint32
	mu         sync.Mutex
	tasks      map[uint32]*core.Task
}

// NewEngine constructs an Engine bound to the platform affinity
// capability and real wall clock; tests may substitute both via
// NewEngineWithDeps.
func NewEngine() *Engine {
	return NewEngineWithDeps(affinity.New(), clock.New())
}

// NewEngineWithDeps constructs an Engine against injected affinity and
// clock capabilities, for deterministic testing.
func NewEngineWithDeps(aff affinity.Capability, c clock.Clock) *Engine {
	return &Engine{
		affinity: aff,
		clock:    c,
		tasks:    make(map[uint32]*core.Task),
	}
}

// GetNumCores reports the number of cores the affinity capability can
// pin to.
func (e *Engine) GetNumCores() int { return e.affinity.NumCores() }

// CanSetExclusive reports whether the process holds the real-time
// scheduling elevation capability.
func (e *Engine) CanSetExclusive() bool { return e.affinity.CanSetExclusive() }

// Init validates cfg and builds the worker contexts; it spawns no
// threads. On any validation failure no state is mutated and a
// non-OK Status is returned.
func (e *Engine) Init(cfg config.Engine) Status {
	if err := cfg.Validate(e.affinity.NumCores(), e.affinity.CanSetExclusive()); err != nil {
		log.Warn("engine init rejected invalid config", logger.Error(err))
		if err == config.ErrExclusiveDenied {
			return ErrExcl
		}
		return ErrInval
	}
	e.cfg = cfg

	monCfg := monitor.Config{
		Enabled: cfg.Monitor.Enabled,
		Dir:     cfg.Monitor.Dir,
		Prefix:  cfg.Monitor.Prefix,
		Postfix: cfg.Monitor.Postfix,
	}

	pinCores := buildPinCores(cfg)
	e.pool = worker.Init(cfg.NumWorkers, pinCores, e.affinity, e.clock, monCfg)
	e.host = metric.NewHostCollector(10 * time.Second)
	return OK
}

// buildPinCores assigns workers[0..proc_workers) to cores
// [0..proc_workers) when Pinned is set, and returns nil otherwise.
// Workers beyond proc_workers (when num_workers>proc_workers) are
// left unpinned. The "others" core is chosen separately, by othersCore.
func buildPinCores(cfg config.Engine) []int {
	if !cfg.Flags.Has(config.Pinned) {
		return nil
	}
	n := cfg.ProcWorkers
	if n > cfg.NumWorkers {
		n = cfg.NumWorkers
	}
	cores := make([]int, n)
	for i := range cores {
		cores[i] = i
	}
	return cores
}

// Spawn starts every worker's dispatch loop thread and the host metric
// collector.
func (e *Engine) Spawn() Status {
	e.pool.Spawn()
	ctx, cancel := context.WithCancel(context.Background())
	e.hostStop = cancel
	go e.host.Run(ctx)
	return OK
}

// Stop asks every worker to terminate once it drains its outstanding
// tasks: termination is global and graceful, never abrupt.
func (e *Engine) Stop() Status {
	e.pool.Terminate()
	if e.hostStop != nil {
		e.hostStop()
	}
	return OK
}

// Cleanup joins every worker thread and tears down the worker pool.
func (e *Engine) Cleanup() Status {
	e.pool.Cleanup()
	return OK
}

// ThreadAssign pins the calling goroutine's OS thread to core (or
// to an "others" core when core==-1) and, when
// Exclusive is configured, raises its scheduling class.
func (e *Engine) ThreadAssign(coreID int) Status {
	target := coreID
	if target == -1 {
		target = e.othersCore()
	}
	if err := e.affinity.Pin(target); err != nil {
		return ErrAssign
	}
	if e.cfg.Flags.Has(config.Exclusive) {
		if err := e.affinity.SetExclusive(); err != nil {
			return ErrExcl
		}
	}
	return OK
}

func (e *Engine) othersCore() int {
	if e.cfg.ProcOthers == 0 {
		return 0
	}
	return e.cfg.ProcWorkers
}

// Pool exposes the worker pool for status-API wiring.
func (e *Engine) Pool() *worker.Pool { return e.pool }

// StatusAPI builds a status API handler bound to this engine's worker
// pool, live task set, and host collector.
func (e *Engine) StatusAPI() *api.StatusAPI {
	return api.NewStatusAPI(e.pool, e, e.host)
}

// TasksByWorker implements api.Source: it lists every task currently
// tracked by the engine that is owned by workerID. Ownership is read
// without synchronizing with the owning worker's dispatch loop, so the
// snapshot is best-effort (the status surface is observational,
// never authoritative for scheduling decisions).
func (e *Engine) TasksByWorker(workerID uint32) []api.TaskView {
	e.mu.Lock()
	defer e.mu.Unlock()
	var views []api.TaskView
	for _, t := range e.tasks {
		if t.Owner() == workerID {
			views = append(views, api.TaskView{ID: t.ID(), Owner: t.Owner(), State: t.StateLetter()})
		}
	}
	return views
}
