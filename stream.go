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
	"sync/atomic"

	"github.com/lindb/lpel/internal/core"
)

var nextStreamID atomic.Uint32

// Stream is a bounded, single-producer/single-consumer typed channel.
// It is created with both endpoints unassigned; each
// endpoint is opened by a task via OpenRead/OpenWrite, becoming that task's
// Descriptor.
type Stream struct {
	s *core.Stream
}

// NewStream creates a bounded stream of the given capacity.
func NewStream(capacity int) (*Stream, error) {
	id := nextStreamID.Add(1)
	s, err := core.NewStream(id, capacity)
	if err != nil {
		return nil, err
	}
	return &Stream{s: s}, nil
}

// Descriptor is a task's handle to one endpoint of a Stream.
type Descriptor struct {
	d *core.Descriptor
}

// OpenRead opens the consumer endpoint of s on behalf of owner.
func (s *Stream) OpenRead(owner *Task) *Descriptor {
	return &Descriptor{d: core.Open(owner.t, s.s, core.Read)}
}

// OpenWrite opens the producer endpoint of s on behalf of owner.
func (s *Stream) OpenWrite(owner *Task) *Descriptor {
	return &Descriptor{d: core.Open(owner.t, s.s, core.Write)}
}

// Write blocks the calling task until item is enqueued.
func (d *Descriptor) Write(item interface{}) error { return d.d.Write(item) }

// Read blocks the calling task until an item is available, returning it.
func (d *Descriptor) Read() (interface{}, error) { return d.d.Read() }

// Replace rebinds the descriptor to a different underlying stream.
func (d *Descriptor) Replace(newStream *Stream) { d.d.Replace(newStream.s) }

// Close closes this endpoint; the stream is destroyed once both
// endpoints have closed.
func (d *Descriptor) Close() error { return d.d.Close() }

// StreamID returns the id of the stream currently bound to d.
func (d *Descriptor) StreamID() uint32 { return d.d.StreamID() }

// WaitAny blocks self until any one of descs has data ready, and
// returns that descriptor.
func WaitAny(self *Task, descs []*Descriptor) *Descriptor {
	inner := make([]*core.Descriptor, len(descs))
	byInner := make(map[*core.Descriptor]*Descriptor, len(descs))
	for i, d := range descs {
		inner[i] = d.d
		byInner[d.d] = d
	}
	fired := core.WaitAny(self.t, inner)
	return byInner[fired]
}
