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

// Package affinity wraps the platform's "pin this thread to core N"
// capability behind a small interface: the real syscalls are an
// opaque external collaborator, swappable for a no-op double in tests
// that do not run as root or on Linux.
package affinity

import "errors"

//go:generate mockgen -source=./affinity.go -destination=./affinity_mock.go -package=affinity

// ErrAssignFailed is returned by Pin when the underlying syscall
// fails; callers treat this as non-fatal and decide whether to
// proceed unpinned.
var ErrAssignFailed = errors.New("lpel: affinity assignment failed")

// ErrExclusiveDenied is returned by SetExclusive when the process does
// not hold the real-time scheduling elevation capability.
var ErrExclusiveDenied = errors.New("lpel: exclusive scheduling denied")

// Capability pins OS threads to cores and raises their scheduling
// class, standing in for the opaque affinity collaborator.
type Capability interface {
	// NumCores reports the number of cores the runtime may pin to.
	NumCores() int
	// CanSetExclusive reports whether the process holds the privilege
	// needed to raise a thread to real-time FIFO scheduling.
	CanSetExclusive() bool
	// Pin binds the calling OS thread to the given core. The Linux
	// implementation calls runtime.LockOSThread itself before setting
	// the affinity mask.
	Pin(core int) error
	// SetExclusive raises the calling thread's scheduling class to
	// real-time FIFO at the lowest real-time priority.
	SetExclusive() error
}

// New returns the platform Capability implementation.
func New() Capability { return newPlatform() }
