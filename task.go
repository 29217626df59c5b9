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
	"github.com/lindb/lpel/internal/core"
	"github.com/lindb/lpel/internal/monitor"
)

// Task is the public handle to a runtime task.
type Task struct {
	t *core.Task
	e *Engine
}

// TaskBody is a task's entry point, called with its own Task handle.
type TaskBody func(self *Task)

// MonitorFlag selects what TaskMonitor records for a task.
type MonitorFlag = monitor.Flag

const (
	// RecordTimes records dispatch/stop timestamps and durations.
	RecordTimes = monitor.RecordTimes
	// RecordStreams records per-stream dirty-list events.
	RecordStreams = monitor.RecordStreams
)

// TaskCreate allocates a task owned by workerID, not yet placed on any
// ready queue. stacksize<=0 selects an 8 KiB default.
func (e *Engine) TaskCreate(workerID uint32, body TaskBody, arg interface{}, stacksize int) *Task {
	id := e.nextTaskID.Add(1)
	pt := &Task{e: e}
	pt.t = core.NewTask(id, workerID, func(self *core.Task) {
		body(pt)
	}, arg, stacksize)

	e.mu.Lock()
	e.tasks[id] = pt.t
	e.mu.Unlock()
	return pt
}

// TaskDestroy releases bookkeeping for a task that has reached Zombie.
// Calling it on a task that is not yet Zombie is a programmer error
// and panics.
func (e *Engine) TaskDestroy(t *Task) {
	if t.t.State() != core.Zombie {
		panic("lpel: TaskDestroy called on a non-Zombie task")
	}
	e.mu.Lock()
	delete(e.tasks, t.t.ID())
	e.mu.Unlock()
}

// TaskMonitor enables monitoring for t with the given record flags.
func (e *Engine) TaskMonitor(t *Task, name string, flags MonitorFlag) {
	t.t.Monitor(name, flags, e.clock.Now())
}

// TaskRun places t on its owning worker's ready queue for the first
// time, registering it as one of that worker's live tasks.
func (e *Engine) TaskRun(t *Task) {
	e.pool.Assign(t.t, t.t.Owner())
}

// TaskGetUID returns t's unique 32-bit identifier.
func (e *Engine) TaskGetUID(t *Task) uint32 { return t.t.ID() }

// TaskExit terminates the calling task immediately, unwinding it to
// Zombie without returning through the rest of its body.
func TaskExit(self *Task) {
	self.t.Exit()
}

// TaskYield voluntarily suspends the calling task without changing its
// logical state, giving its worker a chance to run other ready tasks.
func TaskYield(self *Task) {
	self.t.Yield()
}

// UID exposes the task's id without requiring the owning Engine.
func (t *Task) UID() uint32 { return t.t.ID() }

// State exposes the task's current lifecycle state letter, for status
// reporting.
func (t *Task) State() byte { return t.t.StateLetter() }
