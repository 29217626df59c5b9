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

package worker

import "github.com/lindb/lpel/internal/core"

// messageKind distinguishes mailbox message payloads: assign, wakeup,
// and terminate.
type messageKind int

const (
	msgAssign messageKind = iota
	msgReady
	msgTerminate
)

// message is the only unit of cross-worker communication: a worker
// never reaches directly into a peer's ready queue or task fields, it
// only posts to the peer's mailbox.
type message struct {
	kind messageKind
	task *core.Task
}

// mailboxCapacity bounds the buffered channel standing in for the
// MPSC mailbox; sized generously since producers never block on a
// full mailbox under ordinary dispatch rates (sends happen at
// wakeup/assign rate, drained once per dispatch loop iteration).
const mailboxCapacity = 4096

// mailbox is an MPSC channel: any worker (or the engine) may send,
// only the owning worker receives, in its own dispatch loop.
type mailbox chan message

func newMailbox() mailbox {
	return make(mailbox, mailboxCapacity)
}
