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

	"github.com/lindb/lpel/internal/monitor"
)

// Mode is the direction a Descriptor operates a stream endpoint in.
type Mode byte

const (
	Read  Mode = 'r'
	Write Mode = 'w'
)

// ErrWrongMode is returned when Read/Write is called against a
// descriptor opened in the other mode.
var ErrWrongMode = errors.New("lpel: descriptor opened in the wrong mode")

// ErrAlreadyClosed is returned by a second Close on the same descriptor.
var ErrAlreadyClosed = errors.New("lpel: descriptor already closed")

// Descriptor is a task's handle to one endpoint of one Stream.
// It may be Replaced to rebind to a different underlying stream, an
// observable event for monitoring.
type Descriptor struct {
	owner  *Task
	mode   Mode
	stream *Stream
	rec    *monitor.StreamRecord
	closed bool
}

// Open creates a descriptor bound to owner's endpoint of s in the
// given mode. Monitoring is recorded only if owner has RecordStreams
// enabled.
func Open(owner *Task, s *Stream, mode Mode) *Descriptor {
	d := &Descriptor{owner: owner, mode: mode, stream: s}
	if owner.monitorStreams() {
		d.rec = &monitor.StreamRecord{
			StreamID: s.id,
			Mode:     byte(mode),
			State:    monitor.Opened,
		}
		owner.Record.MarkDirty(d.rec)
	}
	return d
}

// StreamID returns the id of the underlying stream currently bound.
func (d *Descriptor) StreamID() uint32 { return d.stream.ID() }

func (d *Descriptor) recordMoved() {
	if d.rec == nil {
		return
	}
	d.rec.Counter++
	d.rec.Events |= monitor.EventMoved
	d.owner.Record.MarkDirty(d.rec)
}

func (d *Descriptor) recordBlocked() {
	if d.rec == nil {
		return
	}
	d.rec.Events |= monitor.EventBlocked
	d.owner.Record.MarkDirty(d.rec)
}

// Write implements the producer slow path: enqueue if
// there is space and wake a blocked consumer; otherwise install self
// in the producer-waiting slot and suspend, retrying once woken.
func (d *Descriptor) Write(item interface{}) error {
	if d.mode != Write {
		return ErrWrongMode
	}
	s := d.stream
	t := d.owner
	for {
		tail := s.tail.Load()
		head := s.head.Load()
		if tail-head < int64(s.capacity) {
			s.buf[tail%int64(s.capacity)] = item
			s.tail.Store(tail + 1)
			d.recordMoved()
			s.wakeConsumerIfWaiting()
			return nil
		}

		s.registerProducerWaiting(t, d)
		// re-check after registering: closes the lost-wakeup window
		// where a consumer drained an item between our failed check
		// above and the registration just done.
		tail = s.tail.Load()
		head = s.head.Load()
		if tail-head < int64(s.capacity) {
			s.clearProducerWaitingIfTask(t)
			continue
		}
		d.recordBlocked()
		t.BlockAndYield(BlockedOnOutput)
	}
}

// Read implements the consumer slow path, symmetric to Write.
func (d *Descriptor) Read() (interface{}, error) {
	if d.mode != Read {
		return nil, ErrWrongMode
	}
	s := d.stream
	t := d.owner
	for {
		head := s.head.Load()
		tail := s.tail.Load()
		if tail-head > 0 {
			item := s.buf[head%int64(s.capacity)]
			s.buf[head%int64(s.capacity)] = nil
			s.head.Store(head + 1)
			d.recordMoved()
			s.wakeProducerIfWaiting()
			return item, nil
		}

		s.registerConsumerWaiting(t, d)
		head = s.head.Load()
		tail = s.tail.Load()
		if tail-head > 0 {
			s.clearConsumerWaitingIfTask(t)
			continue
		}
		d.recordBlocked()
		t.BlockAndYield(BlockedOnInput)
	}
}

// WaitAny implements poll/any-in: the calling task
// registers in every descriptor's consumer-waiting slot with
// BlockedOnAny, and returns the descriptor whose stream first produced
// a value. Exactly one registered descriptor wins the poll-token race
// even if several peers fire concurrently; the rest are left alone and
// are unregistered before return.
func WaitAny(self *Task, descs []*Descriptor) *Descriptor {
	self.waitToken.Store(0)
	self.blockRsn.Store(int32(BlockedOnAny))

	for _, d := range descs {
		if d.mode != Read {
			continue
		}
		d.recordBlocked()
		d.stream.registerConsumerWaiting(self, d)
	}

	var fired *Descriptor
	for _, d := range descs {
		if d.mode == Read && d.stream.hasData() && self.tryWin() {
			self.WakeupSD = d
			fired = d
			break
		}
	}

	if fired == nil {
		self.setState(Blocked)
		self.co.Yield()
		fired = self.WakeupSD
	}

	for _, d := range descs {
		if d.mode == Read {
			d.stream.clearConsumerWaitingIfTask(self)
		}
	}
	self.WakeupSD = nil
	if self.State() == Blocked {
		self.setState(Running)
	}
	return fired
}

// Replace rebinds the descriptor to a different underlying stream; an
// observable event for monitoring.
func (d *Descriptor) Replace(newStream *Stream) {
	d.stream = newStream
	if d.rec != nil {
		d.rec.StreamID = newStream.id
		d.rec.State = monitor.Replaced
		d.rec.Counter = 0
		d.owner.Record.MarkDirty(d.rec)
	}
}

// Close closes this endpoint. The stream is destroyed - its buffer
// released - once both endpoints are closed; the closer that observes
// both sides closed performs the teardown.
func (d *Descriptor) Close() error {
	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true
	s := d.stream

	switch d.mode {
	case Write:
		s.producerClosed.Store(true)
	case Read:
		s.consumerClosed.Store(true)
	}

	if d.rec != nil {
		d.rec.State = monitor.Closed
		d.owner.Record.MarkDirty(d.rec)
	}

	if s.producerClosed.Load() && s.consumerClosed.Load() {
		if s.destroyed.CompareAndSwap(false, true) {
			s.buf = nil
		}
	}
	return nil
}
