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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lindb/lpel/config"
	"github.com/lindb/lpel/internal/affinity"
	"github.com/lindb/lpel/internal/clock"
)

// fakeAffinity never actually pins, so the lifecycle tests below don't
// depend on root or Linux.
type fakeAffinity struct {
	numCores    int
	exclusiveOK bool
}

func (f fakeAffinity) NumCores() int         { return f.numCores }
func (f fakeAffinity) CanSetExclusive() bool { return f.exclusiveOK }
func (f fakeAffinity) Pin(int) error         { return nil }
func (f fakeAffinity) SetExclusive() error {
	if !f.exclusiveOK {
		return affinity.ErrExclusiveDenied
	}
	return nil
}

func newTestEngine(numCores int) *Engine {
	return NewEngineWithDeps(fakeAffinity{numCores: numCores}, clock.New())
}

func TestEngine_Init_RejectsInvalidConfig(t *testing.T) {
	e := newTestEngine(4)
	cfg := *config.NewDefaultEngine()
	cfg.NumWorkers = 0
	assert.Equal(t, ErrInval, e.Init(cfg))
}

func TestEngine_Init_RejectsExclusiveWithoutCapability(t *testing.T) {
	e := newTestEngine(4)
	cfg := *config.NewDefaultEngine()
	cfg.NumWorkers, cfg.ProcWorkers = 2, 2
	cfg.Flags = config.Pinned | config.Exclusive
	assert.Equal(t, ErrExcl, e.Init(cfg))
}

func TestEngine_FullLifecycle_PingPong(t *testing.T) {
	e := newTestEngine(2)
	cfg := *config.NewDefaultEngine()
	cfg.NumWorkers, cfg.ProcWorkers = 2, 2
	assert.Equal(t, OK, e.Init(cfg))
	assert.Equal(t, OK, e.Spawn())

	ping, err := NewStream(1)
	assert.NoError(t, err)
	pong, err := NewStream(1)
	assert.NoError(t, err)

	const rounds = 5
	received := make(chan int, 1)

	pinger := e.TaskCreate(0, func(self *Task) {
		w := ping.OpenWrite(self)
		r := pong.OpenRead(self)
		for i := 0; i < rounds; i++ {
			assert.NoError(t, w.Write(i))
			_, _ = r.Read()
		}
		_ = w.Close()
		_ = r.Close()
	}, nil, 0)

	ponger := e.TaskCreate(1, func(self *Task) {
		r := ping.OpenRead(self)
		w := pong.OpenWrite(self)
		count := 0
		for i := 0; i < rounds; i++ {
			v, _ := r.Read()
			count += v.(int)
			assert.NoError(t, w.Write(struct{}{}))
		}
		_ = r.Close()
		_ = w.Close()
		received <- count
	}, nil, 0)

	e.TaskRun(pinger)
	e.TaskRun(ponger)

	select {
	case sum := <-received:
		assert.Equal(t, 0+1+2+3+4, sum)
	case <-time.After(2 * time.Second):
		t.Fatal("ping-pong exchange never completed")
	}

	assert.Equal(t, OK, e.Stop())
	assert.Equal(t, OK, e.Cleanup())
}

func TestEngine_TaskDestroy_PanicsOnNonZombie(t *testing.T) {
	e := newTestEngine(1)
	cfg := *config.NewDefaultEngine()
	cfg.NumWorkers, cfg.ProcWorkers = 1, 1
	assert.Equal(t, OK, e.Init(cfg))
	assert.Equal(t, OK, e.Spawn())
	defer func() {
		e.Stop()
		e.Cleanup()
	}()

	// a freshly-created, never-run task sits in Created, not Zombie.
	task := e.TaskCreate(0, func(self *Task) {}, nil, 0)
	assert.Panics(t, func() {
		e.TaskDestroy(task)
	})
}

func TestEngine_GetNumCores_DelegatesToAffinity(t *testing.T) {
	e := newTestEngine(8)
	assert.Equal(t, 8, e.GetNumCores())
}
