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

// Package worker implements the per-worker dispatch loop: one OS
// thread per worker, pinned to a core, draining a mailbox and running
// ready tasks to their next suspension point. Grounded on the
// dispatcher/worker split in internal/concurrent/pool.go, adapted from
// a goroutine-elastic pool to a fixed set of pinned dispatch loops.
package worker

import (
	"time"

	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/lpel/internal/affinity"
	"github.com/lindb/lpel/internal/clock"
	"github.com/lindb/lpel/internal/core"
	"github.com/lindb/lpel/internal/metric"
	"github.com/lindb/lpel/internal/monitor"
)

var log = logger.GetLogger("LPEL", "Worker")

// Worker owns one ready queue and one mailbox and runs the dispatch
// loop on its own OS thread. It implements core.Scheduler so that a
// Task can be handed back to its owner without core importing worker.
type Worker struct {
	id   uint32
	name string

	ready Queue
	mail  mailbox

	tasks map[uint32]*core.Task // live tasks owned by this worker

	terminating atomic.Bool
	done        chan struct{}

	affinity affinity.Capability
	pinCore  int // -1: not pinned to a specific core

	clock clock.Clock
	mon   *monitor.Context

	Stats *metric.WorkerStatistics
}

// Queue is a thin rename of core.Queue kept at package scope so
// callers outside internal/core can talk about "the ready queue"
// without reaching into core's internals beyond the Task type itself.
type Queue = core.Queue

// Config configures one worker's identity and monitor sink.
type Config struct {
	ID         uint32
	Name       string
	PinCore    int // -1 to leave the thread unpinned
	Exclusive  bool
	Affinity   affinity.Capability
	Clock      clock.Clock
	MonitorCfg monitor.Config
}

// New constructs a worker; it does not start its dispatch loop (see Spawn).
func New(cfg Config) *Worker {
	epoch := cfg.Clock.Now()
	w := &Worker{
		id:       cfg.ID,
		name:     cfg.Name,
		mail:     newMailbox(),
		tasks:    make(map[uint32]*core.Task),
		done:     make(chan struct{}),
		affinity: cfg.Affinity,
		pinCore:  cfg.PinCore,
		clock:    cfg.Clock,
		mon:      monitor.NewContext(cfg.Name, cfg.MonitorCfg, cfg.Clock, epoch),
		Stats:    metric.NewWorkerStatistics(cfg.ID),
	}
	return w
}

// ID returns the worker's identifier.
func (w *Worker) ID() uint32 { return w.id }

// MakeReady implements core.Scheduler: place t back on this worker's
// ready queue by way of the mailbox. Since any goroutine (another
// worker, or the stream's producer/consumer side) may call this
// concurrently, it always posts a message, whoever the caller is; only
// the owning dispatch loop ever touches w.ready directly.
func (w *Worker) MakeReady(t *core.Task) {
	w.mail <- message{kind: msgReady, task: t}
}

// Assign posts an "assign" message to this worker's mailbox, per
// the "assign(t, wid) is the only legal way to place a task
// owned by a different worker". Placing a worker's own task onto its
// own queue directly (from inside the dispatch loop) bypasses this.
func (w *Worker) Assign(t *core.Task) {
	t.SetOwner(w.id)
	t.SetScheduler(w)
	w.mail <- message{kind: msgAssign, task: t}
}

// RequestTerminate posts a termination message; the worker exits its
// dispatch loop once its ready queue and live task set both drain.
func (w *Worker) RequestTerminate() {
	w.mail <- message{kind: msgTerminate}
}

// Done is closed once the dispatch loop has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run pins the calling OS thread (if configured) and executes the
// dispatch loop until termination; meant to be launched with
// `go w.Run()` by WorkerSpawn, one goroutine per worker; runtime.
// LockOSThread inside affinity.Pin keeps this goroutine glued to its
// OS thread for the pin to remain meaningful.
func (w *Worker) Run() {
	defer close(w.done)

	if w.pinCore >= 0 {
		if err := w.affinity.Pin(w.pinCore); err != nil {
			log.Warn("pin worker thread failed, continuing unpinned",
				logger.Int("worker", int(w.id)), logger.Int("core", w.pinCore), logger.Error(err))
		}
	}

	for {
		w.drainMailbox()

		if w.ready.Len() == 0 {
			if w.terminating.Load() && len(w.tasks) == 0 {
				_ = w.mon.Close()
				return
			}
			if w.ready.Len() == 0 {
				w.blockOnMailbox()
				continue
			}
		}

		t := w.ready.Remove()
		if t == nil {
			continue
		}
		w.dispatch(t)
	}
}

// drainMailbox applies every currently-buffered message without
// blocking step 1.
func (w *Worker) drainMailbox() {
	for {
		select {
		case m := <-w.mail:
			w.apply(m)
		default:
			return
		}
	}
}

// blockOnMailbox is the only place a worker thread blocks in kernel
// space: waiting for the next assign, wakeup, or
// terminate message once the ready queue has run dry.
func (w *Worker) blockOnMailbox() {
	m := <-w.mail
	w.apply(m)
}

func (w *Worker) apply(m message) {
	switch m.kind {
	case msgAssign:
		w.tasks[m.task.ID()] = m.task
		m.task.SetOwner(w.id)
		m.task.SetScheduler(w)
		w.enqueueReady(m.task)
	case msgReady:
		w.enqueueReady(m.task)
	case msgTerminate:
		w.terminating.Store(true)
	}
}

func (w *Worker) enqueueReady(t *core.Task) {
	w.ready.Append(t)
	w.Stats.ReadyQueueDepth.Store(int64(w.ready.Len()))
}

// dispatch pops and runs one task to its next suspension point,
// updating per-worker statistics and reaping it if it reached Zombie.
func (w *Worker) dispatch(t *core.Task) {
	start := w.clock.Now()
	if t.Record != nil {
		w.mon.RecordDispatchStart(t.Record)
	}

	t.MarkRunning()
	t.Resume()

	w.Stats.DispatchCount.Add(1)
	w.Stats.UpdateDispatchDuration(w.clock.Now().Sub(start))
	w.Stats.ReadyQueueDepth.Store(int64(w.ready.Len()))

	switch t.State() {
	case core.Zombie:
		delete(w.tasks, t.ID())
		w.Stats.ZombieCollected.Add(1)
		if t.Record != nil {
			t.Record.Total += time.Since(start)
			w.mon.RecordDispatchStop(t, t.Record)
		}
	case core.Blocked:
		w.Stats.BlockedCount.Add(1)
		if t.Record != nil {
			t.Record.Total += time.Since(start)
			w.mon.RecordDispatchStop(t, t.Record)
		}
	default:
		// task yielded voluntarily without blocking: reschedule.
		if t.Record != nil {
			t.Record.Total += time.Since(start)
			w.mon.RecordDispatchStop(t, t.Record)
		}
		t.MarkReady()
		w.enqueueReady(t)
	}
}
