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

// Package monitor implements the LPEL monitoring sidecar: per-worker
// append-only trace files that record one line per task dispatch.
package monitor

import "time"

// Flag controls what a monitored task records per dispatch.
type Flag int

const (
	// RecordTimes records creation/start/stop timings on each dispatch line.
	RecordTimes Flag = 1 << iota
	// RecordStreams records the dirty list of stream events on each dispatch line.
	RecordStreams
)

// maxNameLen is the longest task name kept verbatim in a TaskRecord.
const maxNameLen = 31

// EventFlag marks what happened to a stream endpoint during one dispatch.
type EventFlag int

const (
	// EventBlocked means the task blocked on this endpoint during the dispatch.
	EventBlocked EventFlag = 1 << iota
	// EventWoken means a wakeup was delivered through this endpoint.
	EventWoken
	// EventMoved means an item was produced or consumed through this endpoint.
	EventMoved
)

// DescriptorState is the lifecycle state of a stream descriptor as seen
// by the monitor, independent of the task.State machine.
type DescriptorState int

const (
	// InUse is the steady state: opened in an earlier dispatch, still open.
	InUse DescriptorState = iota
	// Opened means the descriptor was opened during the current dispatch.
	Opened
	// Closed means the descriptor was closed during the current dispatch,
	// and is freed once its line is printed.
	Closed
	// Replaced means the descriptor was rebound to a different stream
	// during the current dispatch.
	Replaced
)

// Letter returns the single-character code used in monitor trace lines.
func (s DescriptorState) Letter() byte {
	switch s {
	case InUse:
		return 'I'
	case Opened:
		return 'O'
	case Closed:
		return 'C'
	case Replaced:
		return 'R'
	default:
		return '?'
	}
}

// dirtyListEnd is the reserved sentinel distinguishing "end of dirty list"
// from "not linked" (nil). See StreamRecord.next.
var dirtyListEnd = &StreamRecord{}

// StreamRecord is the per-descriptor monitoring record. One exists per
// monitored stream descriptor and is linked into its owning task's
// dirty list at most once per dispatch.
type StreamRecord struct {
	next *StreamRecord // nil: not linked; dirtyListEnd: linked, tail

	StreamID uint32
	Mode     byte // 'r' or 'w', matches the descriptor's open mode
	State    DescriptorState
	Counter  uint64    // number of items moved through this descriptor since it was opened or last replaced
	Events   EventFlag // accumulated since the last time this record was drained
}

// dirty reports whether the record is currently linked into a dirty list.
func (r *StreamRecord) dirty() bool {
	return r.next != nil
}

// markDirty links r at the head of the list unless it is already
// linked (the sentinel/nil scheme guarantees at most one link per dispatch).
func markDirty(head **StreamRecord, r *StreamRecord) {
	if r.dirty() {
		return
	}
	if *head == nil {
		r.next = dirtyListEnd
	} else {
		r.next = *head
	}
	*head = r
}

// TaskRecord is the per-task monitoring state: identity, counters, and
// the dirty list of stream records accumulated during the current dispatch.
type TaskRecord struct {
	Name  string
	Flags Flag

	DispatchCount uint64

	CreatedAt time.Time
	StartedAt time.Time
	StoppedAt time.Time
	Total     time.Duration

	dirtyHead *StreamRecord
}

// NewTaskRecord creates a monitor record for a task, truncating name to
// the maximum length the trace line format allows.
func NewTaskRecord(name string, flags Flag, createdAt time.Time) *TaskRecord {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return &TaskRecord{
		Name:      name,
		Flags:     flags,
		CreatedAt: createdAt,
	}
}

// MarkDirty links a stream's record into this task's dirty list, at most
// once per dispatch, per the two-reserved-value sentinel discipline.
func (t *TaskRecord) MarkDirty(r *StreamRecord) {
	markDirty(&t.dirtyHead, r)
}

// DrainDirty calls fn for every record on the dirty list, most recently
// linked first, unlinking each one, then resets the list to empty.
// Opened/Replaced transition to InUse; Closed records keep their state.
func (t *TaskRecord) DrainDirty(fn func(*StreamRecord)) {
	for r := t.dirtyHead; r != nil && r != dirtyListEnd; {
		next := r.next
		fn(r)
		switch r.State {
		case Opened, Replaced:
			r.State = InUse
		}
		r.Events = 0
		r.next = nil
		r = next
	}
	t.dirtyHead = nil
}
