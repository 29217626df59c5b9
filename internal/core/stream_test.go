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
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStream_InvalidCapacity(t *testing.T) {
	_, err := NewStream(1, 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewStream(1, -1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

// pipeTask wires a producer/consumer pair of tasks bound to the same
// stream, each running its body via the real coroutine so Write/Read's
// blocking slow paths exercise the actual yield/resume protocol.
func pipeTask(body Body) *Task {
	return NewTask(1, 0, body, nil, 0)
}

func TestStream_WriteRead_FastPath(t *testing.T) {
	s, err := NewStream(1, 4)
	assert.NoError(t, err)

	producer := pipeTask(func(*Task) {})
	consumer := pipeTask(func(*Task) {})
	wd := Open(producer, s, Write)
	rd := Open(consumer, s, Read)

	assert.NoError(t, wd.Write("a"))
	assert.NoError(t, wd.Write("b"))

	got, err := rd.Read()
	assert.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = rd.Read()
	assert.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestStream_WrongMode(t *testing.T) {
	s, err := NewStream(1, 1)
	assert.NoError(t, err)
	owner := pipeTask(func(*Task) {})
	wd := Open(owner, s, Write)

	_, err = wd.Read()
	assert.ErrorIs(t, err, ErrWrongMode)
}

// blockingScheduler stands in for internal/worker's Scheduler during a
// unit test: MakeReady just resumes the task's coroutine directly on
// whatever goroutine calls it, instead of routing through a ready
// queue and dispatch loop.
type blockingScheduler struct{}

func (blockingScheduler) MakeReady(t *Task) {
	go t.Resume()
}

func TestStream_Write_BlocksThenWakesOnRead(t *testing.T) {
	s, err := NewStream(1, 1)
	assert.NoError(t, err)

	done := make(chan struct{})
	var writeErr error

	producer := pipeTask(func(self *Task) {
		wd := Open(self, s, Write)
		writeErr = wd.Write("first")
		writeErr = wd.Write("second") // fills, then blocks until drained
		close(done)
	})
	producer.SetScheduler(blockingScheduler{})
	producer.Resume() // runs until the second Write blocks and yields

	select {
	case <-done:
		t.Fatal("producer should still be blocked on a full stream")
	case <-time.After(20 * time.Millisecond):
	}

	consumer := pipeTask(func(*Task) {})
	rd := Open(consumer, s, Read)
	v, err := rd.Read()
	assert.NoError(t, err)
	assert.Equal(t, "first", v)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer was not woken after space freed")
	}
	assert.NoError(t, writeErr)
}

func TestStream_Read_BlocksThenWakesOnWrite(t *testing.T) {
	s, err := NewStream(1, 2)
	assert.NoError(t, err)

	done := make(chan struct{})
	var got interface{}

	consumer := pipeTask(func(self *Task) {
		rd := Open(self, s, Read)
		v, _ := rd.Read()
		got = v
		close(done)
	})
	consumer.SetScheduler(blockingScheduler{})
	consumer.Resume() // runs until Read finds the stream empty and blocks

	select {
	case <-done:
		t.Fatal("consumer should still be blocked on an empty stream")
	case <-time.After(20 * time.Millisecond):
	}

	producer := pipeTask(func(*Task) {})
	wd := Open(producer, s, Write)
	assert.NoError(t, wd.Write("payload"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer was not woken after an item arrived")
	}
	assert.Equal(t, "payload", got)
}

func TestDescriptor_Close_DestroysStreamOnce(t *testing.T) {
	s, err := NewStream(1, 2)
	assert.NoError(t, err)

	owner := pipeTask(func(*Task) {})
	wd := Open(owner, s, Write)
	rd := Open(owner, s, Read)

	assert.NoError(t, wd.Close())
	assert.False(t, s.destroyed.Load())
	assert.NoError(t, rd.Close())
	assert.True(t, s.destroyed.Load())
	assert.Nil(t, s.buf)

	assert.ErrorIs(t, wd.Close(), ErrAlreadyClosed)
}

func TestDescriptor_Replace_RebindsStream(t *testing.T) {
	s1, _ := NewStream(1, 1)
	s2, _ := NewStream(2, 1)
	owner := pipeTask(func(*Task) {})
	d := Open(owner, s1, Write)

	assert.Equal(t, uint32(1), d.StreamID())
	d.Replace(s2)
	assert.Equal(t, uint32(2), d.StreamID())
}

func TestWaitAny_FiresOnFirstReadyStream(t *testing.T) {
	s1, _ := NewStream(1, 1)
	s2, _ := NewStream(2, 1)

	owner := pipeTask(func(*Task) {})
	d1 := Open(owner, s1, Read)
	d2 := Open(owner, s2, Read)

	// s2 already has data; WaitAny must return immediately without
	// yielding, since it is on the calling goroutine directly here.
	producer := pipeTask(func(*Task) {})
	wd2 := Open(producer, s2, Write)
	assert.NoError(t, wd2.Write("ready"))

	fired := WaitAny(owner, []*Descriptor{d1, d2})
	assert.Same(t, d2, fired)
}

func TestWaitAny_BlocksThenWakesOnEitherStream(t *testing.T) {
	s1, _ := NewStream(1, 1)
	s2, _ := NewStream(2, 1)

	done := make(chan struct{})
	var fired *Descriptor

	owner := pipeTask(func(self *Task) {
		d1 := Open(self, s1, Read)
		d2 := Open(self, s2, Read)
		fired = WaitAny(self, []*Descriptor{d1, d2})
		close(done)
	})
	owner.SetScheduler(blockingScheduler{})
	owner.Resume() // runs until WaitAny registers on both and blocks

	select {
	case <-done:
		t.Fatal("WaitAny should still be blocked, neither stream has data")
	case <-time.After(20 * time.Millisecond):
	}

	producer := pipeTask(func(*Task) {})
	wd2 := Open(producer, s2, Write)
	assert.NoError(t, wd2.Write("payload"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitAny was not woken after s2 received an item")
	}
	assert.Equal(t, uint32(2), fired.StreamID())
}
