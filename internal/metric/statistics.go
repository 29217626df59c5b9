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

// Package metric holds the atomic, lock-free counters each worker
// updates on its own dispatch loop and the status API reads back.
// It deliberately stops at go.uber.org/atomic primitives rather than
// pulling in the flatbuffers wire format internal/linmetric builds on
// top of them - there is no external time-series sink in scope for a
// single-process task runtime, only an in-process read path (see
// DESIGN.md).
package metric

import (
	"math"
	"time"

	"go.uber.org/atomic"
)

// WorkerStatistics tracks one worker's lifetime execution counters using
// a Bound*/atomic-counter idiom.
type WorkerStatistics struct {
	WorkerID uint32

	DispatchCount   atomic.Uint64
	ReadyQueueDepth atomic.Int64
	BlockedCount    atomic.Int64
	ZombieCollected atomic.Uint64

	minDispatch atomic.Float64
	maxDispatch atomic.Float64
	sumDispatch atomic.Float64
}

// NewWorkerStatistics creates a zeroed statistics block for a worker.
func NewWorkerStatistics(workerID uint32) *WorkerStatistics {
	s := &WorkerStatistics{WorkerID: workerID}
	s.minDispatch.Store(math.Inf(1))
	return s
}

// UpdateDispatchDuration folds one task dispatch's wall time into the
// running min/max/sum, following BoundMin's retry-on-CAS-failure shape.
func (s *WorkerStatistics) UpdateDispatchDuration(d time.Duration) {
	v := float64(d)
	s.sumDispatch.Add(v)
	for {
		cur := s.minDispatch.Load()
		if v >= cur || s.minDispatch.CompareAndSwap(cur, v) {
			break
		}
	}
	for {
		cur := s.maxDispatch.Load()
		if v <= cur || s.maxDispatch.CompareAndSwap(cur, v) {
			break
		}
	}
}

// MinDispatch returns the shortest observed dispatch duration, or 0 if
// none has been recorded yet.
func (s *WorkerStatistics) MinDispatch() time.Duration {
	v := s.minDispatch.Load()
	if math.IsInf(v, 1) {
		return 0
	}
	return time.Duration(v)
}

// MaxDispatch returns the longest observed dispatch duration.
func (s *WorkerStatistics) MaxDispatch() time.Duration {
	return time.Duration(s.maxDispatch.Load())
}

// Snapshot is the plain-data rendering of WorkerStatistics for the
// status API and monitor-free introspection.
type Snapshot struct {
	WorkerID        uint32        `json:"workerId"`
	DispatchCount   uint64        `json:"dispatchCount"`
	ReadyQueueDepth int64         `json:"readyQueueDepth"`
	BlockedCount    int64         `json:"blockedCount"`
	ZombieCollected uint64        `json:"zombieCollected"`
	MinDispatch     time.Duration `json:"minDispatchNanos"`
	MaxDispatch     time.Duration `json:"maxDispatchNanos"`
}

// Snapshot renders the current counters as plain data.
func (s *WorkerStatistics) Snapshot() Snapshot {
	return Snapshot{
		WorkerID:        s.WorkerID,
		DispatchCount:   s.DispatchCount.Load(),
		ReadyQueueDepth: s.ReadyQueueDepth.Load(),
		BlockedCount:    s.BlockedCount.Load(),
		ZombieCollected: s.ZombieCollected.Load(),
		MinDispatch:     s.MinDispatch(),
		MaxDispatch:     s.MaxDispatch(),
	}
}
