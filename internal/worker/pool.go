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

package worker

import (
	"fmt"
	"sync"

	"github.com/lindb/lpel/internal/affinity"
	"github.com/lindb/lpel/internal/clock"
	"github.com/lindb/lpel/internal/core"
	"github.com/lindb/lpel/internal/monitor"
)

// Pool owns the fixed set of engine workers: built by WorkerInit,
// started by WorkerSpawn, drained by WorkerTerminate, and torn down by
// WorkerCleanup, mirroring an elastic goroutine pool's NewPool/Stop
// split, adapted from an elastic pool to a fixed, pinned worker set.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// Init builds n worker contexts. pinCores, when non-nil, assigns
// workers[i] to core pinCores[i]; a nil or short slice leaves the
// corresponding workers unpinned (pinCore=-1).
func Init(n int, pinCores []int, affinityCap affinity.Capability, c clock.Clock, monCfg monitor.Config) *Pool {
	p := &Pool{workers: make([]*Worker, n)}
	for i := 0; i < n; i++ {
		pinCore := -1
		if i < len(pinCores) {
			pinCore = pinCores[i]
		}
		p.workers[i] = New(Config{
			ID:         uint32(i),
			Name:       fmt.Sprintf("worker-%d", i),
			PinCore:    pinCore,
			Affinity:   affinityCap,
			Clock:      c,
			MonitorCfg: monCfg,
		})
	}
	return p
}

// Workers returns the pool's workers, indexed by worker id.
func (p *Pool) Workers() []*Worker { return p.workers }

// Worker returns the worker with the given id, or nil if out of range.
func (p *Pool) Worker(id uint32) *Worker {
	if int(id) >= len(p.workers) {
		return nil
	}
	return p.workers[id]
}

// Spawn starts each worker's dispatch loop on its own goroutine.
func (p *Pool) Spawn() {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run()
		}(w)
	}
}

// Terminate posts a termination message to every worker's mailbox;
// each worker exits once its ready queue and live task set drain, per
// the dispatch loop and monitoring contract.
func (p *Pool) Terminate() {
	for _, w := range p.workers {
		w.RequestTerminate()
	}
}

// Cleanup joins every worker's dispatch-loop goroutine. Call after
// Terminate; blocks until all workers have exited.
func (p *Pool) Cleanup() {
	p.wg.Wait()
}

// Assign places t on worker wid's ready queue via its mailbox, the
// only legal cross-worker placement path.
func (p *Pool) Assign(t *core.Task, wid uint32) {
	w := p.Worker(wid)
	w.Assign(t)
}
