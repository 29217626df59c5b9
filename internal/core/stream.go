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

package core

import (
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/lindb/lpel/internal/monitor"
)

// ErrInvalidCapacity is returned by NewStream for capacity<=0.
var ErrInvalidCapacity = errors.New("lpel: stream capacity must be positive")

// waitSlot is the single-peer reference an endpoint holds while a task
// is blocked on it: the producer slot holds a blocked consumer, the
// consumer slot holds a blocked producer.
type waitSlot struct {
	task *Task
	desc *Descriptor
}

// Stream is a bounded SPSC ring buffer with a blocking protocol on
// empty/full. The ring buffer's head/tail are
// atomics on the fast (non-blocking) path; slotMu guards only the
// rarely-touched wait-slot bookkeeping on the slow path.
type Stream struct {
	id       uint32
	capacity int
	buf      []interface{}
	head     atomic.Int64
	tail     atomic.Int64

	slotMu          sync.Mutex
	producerWaiting waitSlot // blocked consumer is never here; see doc above
	consumerWaiting waitSlot

	producerClosed atomic.Bool
	consumerClosed atomic.Bool
	destroyed      atomic.Bool
}

// NewStream creates a bounded stream. Zero-or-negative capacity is
// rejected.
func NewStream(id uint32, capacity int) (*Stream, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Stream{
		id:       id,
		capacity: capacity,
		buf:      make([]interface{}, capacity),
	}, nil
}

// ID returns the stream's identifier, used as "sid" in monitor trace lines.
func (s *Stream) ID() uint32 { return s.id }

func (s *Stream) hasData() bool {
	return s.tail.Load()-s.head.Load() > 0
}

func (s *Stream) hasSpace() bool {
	return s.tail.Load()-s.head.Load() < int64(s.capacity)
}

// registerProducerWaiting installs t/d as the blocked producer.
func (s *Stream) registerProducerWaiting(t *Task, d *Descriptor) {
	s.slotMu.Lock()
	s.producerWaiting = waitSlot{task: t, desc: d}
	s.slotMu.Unlock()
}

// registerConsumerWaiting installs t/d as the blocked consumer. Used
// both by plain Read and by WaitAny (where the same task registers
// across several streams at once).
func (s *Stream) registerConsumerWaiting(t *Task, d *Descriptor) {
	s.slotMu.Lock()
	s.consumerWaiting = waitSlot{task: t, desc: d}
	s.slotMu.Unlock()
}

func (s *Stream) clearProducerWaitingIfTask(t *Task) {
	s.slotMu.Lock()
	if s.producerWaiting.task == t {
		s.producerWaiting = waitSlot{}
	}
	s.slotMu.Unlock()
}

func (s *Stream) clearConsumerWaitingIfTask(t *Task) {
	s.slotMu.Lock()
	if s.consumerWaiting.task == t {
		s.consumerWaiting = waitSlot{}
	}
	s.slotMu.Unlock()
}

// wakeConsumerIfWaiting delivers a wakeup to a blocked consumer, if
// any, after a producer has just made an item available.
func (s *Stream) wakeConsumerIfWaiting() {
	s.slotMu.Lock()
	w := s.consumerWaiting
	s.consumerWaiting = waitSlot{}
	s.slotMu.Unlock()
	if w.task == nil {
		return
	}
	deliverWakeup(w.task, w.desc)
}

// wakeProducerIfWaiting delivers a wakeup to a blocked producer, if
// any, after a consumer has just made space available.
func (s *Stream) wakeProducerIfWaiting() {
	s.slotMu.Lock()
	w := s.producerWaiting
	s.producerWaiting = waitSlot{}
	s.slotMu.Unlock()
	if w.task == nil {
		return
	}
	deliverWakeup(w.task, w.desc)
}

// deliverWakeup delivers a wakeup to task w: bump the poll-token
// (CAS-style, from zero), record wakeup_sd, mark Ready, and hand the
// task to its owning worker's scheduler - locally or, if the owner
// differs from the caller, via the owner's mailbox (the Scheduler
// implementation, injected by internal/worker, decides which).
func deliverWakeup(t *Task, desc *Descriptor) {
	if !t.tryWin() {
		return // token race already resolved by another peer; drop
	}
	t.WakeupSD = desc
	if desc.rec != nil {
		desc.rec.Events |= monitor.EventWoken
		desc.owner.Record.MarkDirty(desc.rec)
	}
	t.setState(Ready)
	if t.sched != nil {
		t.sched.MakeReady(t)
	}
}
