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

// coroutine stands in for an opaque "save current context, resume
// target context" stack-switch primitive, treated as an external
// collaborator. It is realized as a task-private goroutine
// paired with two unbuffered channels: because an unbuffered send/
// receive is a rendezvous, at most one of {worker, task} is ever
// runnable for a given task at a time, giving the same "atomically
// from the caller's point of view" guarantee a real stack switch
// would, without a real stack-switch primitive. The task goroutine's
// own Go stack is owned by, and lives exactly as long as, the task.
type coroutine struct {
	resume  chan struct{}
	yielded chan struct{}
}

// newCoroutine creates and immediately launches the task's goroutine;
// it parks on the first resume before running the task body. stacksize
// is accepted only for API compatibility with TaskCreate's stacksize
// parameter (see DESIGN.md's open-question resolution #2); Go manages
// the actual stack.
func newCoroutine(t *Task, stacksize int) *coroutine {
	c := &coroutine{
		resume:  make(chan struct{}),
		yielded: make(chan struct{}),
	}
	go c.run(t)
	return c
}

// errTaskExit is the sentinel panic value TaskExit uses to unwind a
// task body immediately, recovered here and nowhere else: it must
// never escape run, since nothing past the coroutine boundary expects it.
var errTaskExit = struct{}{}

// run is the task's goroutine body. It blocks until the owning worker
// transfers control in, runs the task body exactly once, and on
// return (or on an explicit TaskExit unwind) transitions the task to
// Zombie before handing control back for the final time: it never
// "returns" into the worker directly.
func (c *coroutine) run(t *Task) {
	<-c.resume
	func() {
		defer func() {
			if r := recover(); r != nil && r != errTaskExit {
				panic(r)
			}
		}()
		t.body(t)
	}()
	t.setState(Zombie)
	c.yielded <- struct{}{}
}

// Exit unwinds the calling task's body immediately via panic/recover,
// transitioning it to Zombie without returning through the rest of its
// call stack; used by the public TaskExit operation.
func (t *Task) Exit() {
	panic(errTaskExit)
}

// Resume transfers control from the calling (worker) goroutine into
// the task goroutine, and blocks until the task yields, blocks, or
// exits. Called only by the task's owning worker.
func (c *coroutine) Resume() {
	c.resume <- struct{}{}
	<-c.yielded
}

// Yield transfers control from the task goroutine back to its worker,
// and blocks until the worker resumes it again. Called only from
// within the task's own body.
func (c *coroutine) Yield() {
	c.yielded <- struct{}{}
	<-c.resume
}

// Resume runs the task until its next suspension point or exit; see
// coroutine.Resume.
func (t *Task) Resume() { t.co.Resume() }

// Yield voluntarily suspends the calling task without changing state,
// implementing the public TaskYield operation.
func (t *Task) Yield() { t.co.Yield() }

// BlockAndYield transitions the task to Blocked with reason and
// suspends it; used by the stream slow paths.
func (t *Task) BlockAndYield(reason BlockReason) {
	t.Block(reason)
	t.co.Yield()
}
