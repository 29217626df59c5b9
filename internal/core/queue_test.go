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
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestTask(id uint32) *Task {
	return NewTask(id, 0, func(*Task) {}, nil, 0)
}

func TestQueue_AppendRemoveFIFO(t *testing.T) {
	var q Queue
	a, b, c := newTestTask(1), newTestTask(2), newTestTask(3)
	q.Append(a)
	q.Append(b)
	q.Append(c)
	assert.Equal(t, 3, q.Len())

	assert.Same(t, a, q.Remove())
	assert.Same(t, b, q.Remove())
	assert.Same(t, c, q.Remove())
	assert.Nil(t, q.Remove())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_UnlinkMiddle(t *testing.T) {
	var q Queue
	a, b, c := newTestTask(1), newTestTask(2), newTestTask(3)
	q.Append(a)
	q.Append(b)
	q.Append(c)

	q.unlink(b)
	assert.Equal(t, 2, q.Len())
	assert.Same(t, a, q.Remove())
	assert.Same(t, c, q.Remove())
}

func TestQueue_IterateRemove(t *testing.T) {
	var q Queue
	for i := uint32(1); i <= 5; i++ {
		q.Append(newTestTask(i))
	}

	var removed []uint32
	q.IterateRemove(func(t *Task) bool {
		return t.ID()%2 == 0
	}, func(t *Task) {
		removed = append(removed, t.ID())
	})

	assert.Equal(t, []uint32{2, 4}, removed)
	assert.Equal(t, 3, q.Len())

	var remaining []uint32
	for t := q.Remove(); t != nil; t = q.Remove() {
		remaining = append(remaining, t.ID())
	}
	assert.Equal(t, []uint32{1, 3, 5}, remaining)
}

func TestQueue_InQueueFlag(t *testing.T) {
	var q Queue
	a := newTestTask(1)
	q.Append(a)
	assert.True(t, a.inQueue)
	q.Remove()
	assert.False(t, a.inQueue)
}
