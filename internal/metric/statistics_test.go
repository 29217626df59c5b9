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

package metric

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerStatistics_MinMaxBeforeAnyUpdate(t *testing.T) {
	s := NewWorkerStatistics(1)
	assert.Equal(t, time.Duration(0), s.MinDispatch())
	assert.Equal(t, time.Duration(0), s.MaxDispatch())
}

func TestWorkerStatistics_UpdateDispatchDuration_MinMax(t *testing.T) {
	s := NewWorkerStatistics(1)
	s.UpdateDispatchDuration(50 * time.Millisecond)
	s.UpdateDispatchDuration(10 * time.Millisecond)
	s.UpdateDispatchDuration(100 * time.Millisecond)

	assert.Equal(t, 10*time.Millisecond, s.MinDispatch())
	assert.Equal(t, 100*time.Millisecond, s.MaxDispatch())
}

func TestWorkerStatistics_UpdateDispatchDuration_Concurrent(t *testing.T) {
	s := NewWorkerStatistics(1)
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.UpdateDispatchDuration(time.Duration(i) * time.Millisecond)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, time.Millisecond, s.MinDispatch())
	assert.Equal(t, 100*time.Millisecond, s.MaxDispatch())
}

func TestWorkerStatistics_Snapshot(t *testing.T) {
	s := NewWorkerStatistics(7)
	s.DispatchCount.Add(3)
	s.ReadyQueueDepth.Store(2)
	s.BlockedCount.Add(1)
	s.ZombieCollected.Add(1)
	s.UpdateDispatchDuration(5 * time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, uint32(7), snap.WorkerID)
	assert.Equal(t, uint64(3), snap.DispatchCount)
	assert.Equal(t, int64(2), snap.ReadyQueueDepth)
	assert.Equal(t, int64(1), snap.BlockedCount)
	assert.Equal(t, uint64(1), snap.ZombieCollected)
	assert.Equal(t, 5*time.Millisecond, snap.MinDispatch)
	assert.Equal(t, 5*time.Millisecond, snap.MaxDispatch)
}
