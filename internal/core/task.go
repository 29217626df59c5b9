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

// Package core implements the LPEL task control block, its intrusive
// ready queue, the stream/descriptor blocking protocol, and the
// channel-pair coroutine that stands in for a stack-switch primitive.
//
// Task and Stream are kept in one package deliberately: a Task's
// WakeupSD field points at a Descriptor, and a Stream's endpoint wait
// slot points back at a blocked Task, so the two are mutually
// referential by design. Splitting them into separate packages would
// force an import cycle; this mirrors the intrusive, tightly-coupled
// layout the underlying task/stream contract calls for.
package core

import (
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/lindb/lpel/internal/monitor"
)

// State and BlockReason mirror the task lifecycle.
type State int

const (
	// Created is the state of a task before it is first placed on a ready queue.
	Created State = iota
	// Ready means the task is linked into exactly one worker's ready queue.
	Ready
	// Running means the task currently owns its worker's thread of control.
	Running
	// Blocked means the task is parked in a stream endpoint's wait slot.
	Blocked
	// Zombie means the task body has returned and awaits reaping.
	Zombie
)

// Letter returns the monitor trace letter for a task state.
func (s State) Letter() byte {
	switch s {
	case Created:
		return 'C'
	case Ready:
		return 'R'
	case Running:
		return 'U'
	case Blocked:
		return 'B'
	case Zombie:
		return 'Z'
	default:
		return '?'
	}
}

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Blocked:
		return "Blocked"
	case Zombie:
		return "Zombie"
	default:
		return "Unknown"
	}
}

// BlockReason distinguishes why a Blocked task is parked.
type BlockReason int

const (
	NotBlocked BlockReason = iota
	BlockedOnInput
	BlockedOnOutput
	BlockedOnAny
)

// Letter returns the monitor trace sub-reason letter, or 0 when not blocked.
func (r BlockReason) Letter() byte {
	switch r {
	case BlockedOnInput:
		return 'I'
	case BlockedOnOutput:
		return 'O'
	case BlockedOnAny:
		return 'A'
	default:
		return 0
	}
}

// Body is a task's entry point. It must return for the task to reach
// Zombie; it must not return control any other way (no panics that
// escape the coroutine boundary - see coroutine.go).
type Body func(self *Task)

// Task is the LPEL task control block.
type Task struct {
	id    uint32
	owner atomic.Uint32

	state    atomic.Int32 // holds State
	blockRsn atomic.Int32 // holds BlockReason, meaningful only while Blocked

	// prev/next intrusively link this task into exactly one Queue.
	prev, next *Task
	inQueue    bool

	co   *coroutine
	body Body
	arg  interface{}

	// WakeupSD is set by the peer that delivers a wakeup and is
	// meaningful only between delivery and the task's next yield from
	// Ready; it is read and cleared by the task itself on resume.
	WakeupSD *Descriptor

	// waitToken is reset to 0 each time the task enters a blocking
	// wait and is won via compare-and-swap(0, 1) by exactly one peer,
	// resolving the any-in race; the same scheme covers the
	// single-endpoint case too (a no-op generalization there, since at
	// most one peer can ever hold the slot).
	waitToken atomic.Uint64
	// wakeups is a lifetime, monotonically increasing count of
	// successful wakeup deliveries, independent of waitToken's
	// per-wait reset; this is what external observers (tests, the
	// status API) read as the task's "poll-token" in the sense of
	// "poll-token increases by N" across several waits.
	wakeups atomic.Uint64

	Record *monitor.TaskRecord

	sched Scheduler
}

// Scheduler is implemented by internal/worker so that core can hand a
// newly-Ready task back to its owning worker without core importing
// worker (worker already imports core). A wakeup delivered from a
// different worker than the task's owner routes through the owner's
// mailbox; same-worker delivery may append directly. Which path is
// taken is entirely the Scheduler implementation's decision.
type Scheduler interface {
	// MakeReady is called exactly once per wakeup, after the task has
	// already transitioned to Ready, to place it back under its
	// owning worker's control.
	MakeReady(t *Task)
}

// SetScheduler wires the task to the worker pool; called by the worker
// each time the task is assigned to it.
func (t *Task) SetScheduler(s Scheduler) { t.sched = s }

// NewTask constructs a task control block bound to a worker and body.
// stacksize<=0 selects an 8 KiB default, kept only as an API-compatible
// hint: Go goroutine stacks are grown and guarded by the runtime, so
// the value is not otherwise interpreted (see DESIGN.md).
func NewTask(id uint32, ownerWorker uint32, body Body, arg interface{}, stacksize int) *Task {
	if stacksize <= 0 {
		stacksize = 8 * 1024
	}
	t := &Task{
		id:   id,
		body: body,
		arg:  arg,
	}
	t.owner.Store(ownerWorker)
	t.state.Store(int32(Created))
	t.co = newCoroutine(t, stacksize)
	return t
}

// ID returns the task's unique identifier.
func (t *Task) ID() uint32 { return t.id }

// Owner returns the id of the worker that currently owns this task.
func (t *Task) Owner() uint32 { return t.owner.Load() }

// SetOwner reassigns ownership; only legal while the task is Created or
// Ready and not linked into any queue (the migration invariant:
// only ready tasks may be handed between workers).
func (t *Task) SetOwner(w uint32) { t.owner.Store(w) }

// Arg returns the task body's argument.
func (t *Task) Arg() interface{} { return t.arg }

// State returns the task's current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// setState is called only by the owning worker, except for the single
// Blocked->Ready transition performed by deliverWakeup.
func (t *Task) setState(s State) { t.state.Store(int32(s)) }

// StateLetter implements monitor.TaskView.
func (t *Task) StateLetter() byte { return t.State().Letter() }

// MarkReady transitions Running->Ready; called only by the task's
// owning worker, after Resume returns from a voluntary Yield (as
// opposed to a Block) and the task is about to be re-appended to the
// ready queue.
func (t *Task) MarkReady() { t.setState(Ready) }

// MarkRunning transitions Ready->Running; called only by the task's
// owning worker, immediately before Resume hands control to the task.
func (t *Task) MarkRunning() { t.setState(Running) }

// BlockReason returns the sub-reason, meaningful only while Blocked.
func (t *Task) BlockReason() BlockReason { return BlockReason(t.blockRsn.Load()) }

// BlockLetter implements monitor.TaskView.
func (t *Task) BlockLetter() byte {
	if t.State() != Blocked {
		return 0
	}
	return t.BlockReason().Letter()
}

// Block transitions the task to Blocked with the given reason and
// resets the wait token for a fresh wakeup race. Called by the task
// itself, from within its body, just before yielding to its worker.
func (t *Task) Block(reason BlockReason) {
	t.blockRsn.Store(int32(reason))
	t.waitToken.Store(0)
	t.setState(Blocked)
}

// tryWin performs the CAS-style "increment from zero" wakeup race
// resolution: the first caller to observe
// waitToken==0 wins and may proceed to apply the wakeup; all others
// must leave the task alone.
func (t *Task) tryWin() bool {
	if !t.waitToken.CompareAndSwap(0, 1) {
		return false
	}
	t.wakeups.Add(1)
	return true
}

// PollToken returns the lifetime count of successful wakeup deliveries.
func (t *Task) PollToken() uint64 { return t.wakeups.Load() }

// Monitor enables monitoring for this task. name is truncated to the
// trace format's 31-byte limit by monitor.NewTaskRecord.
func (t *Task) Monitor(name string, flags monitor.Flag, createdAt time.Time) {
	t.Record = monitor.NewTaskRecord(name, flags, createdAt)
}

// monitorStreams reports whether stream-level dirty-list tracking is
// enabled for this task, gating Descriptor record allocation.
func (t *Task) monitorStreams() bool {
	return t.Record != nil && t.Record.Flags&monitor.RecordStreams != 0
}

// String renders a short debug identity.
func (t *Task) String() string {
	return fmt.Sprintf("task(id=%d,owner=%d,state=%s)", t.id, t.owner.Load(), t.State())
}
