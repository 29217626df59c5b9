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

//go:build linux

package affinity

import (
	"runtime"

	"golang.org/x/sys/unix"
)

type linuxCapability struct {
	cores int
}

func newPlatform() Capability {
	return &linuxCapability{cores: runtime.NumCPU()}
}

func (c *linuxCapability) NumCores() int { return c.cores }

// CanSetExclusive probes the elevation capability by attempting, and
// immediately reverting, a real-time FIFO priority change on the
// calling thread; unprivileged processes get EPERM back from the
// kernel.
func (c *linuxCapability) CanSetExclusive() bool {
	prio, err := unix.SchedGetParam(0)
	if err != nil {
		return false
	}
	probe := &unix.SchedParam{Priority: 1}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, probe); err != nil {
		return false
	}
	_ = unix.SchedSetscheduler(0, unix.SCHED_OTHER, prio)
	return true
}

func (c *linuxCapability) Pin(core int) error {
	if core < 0 || core >= c.cores {
		return ErrAssignFailed
	}
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return ErrAssignFailed
	}
	return nil
}

func (c *linuxCapability) SetExclusive() error {
	param := &unix.SchedParam{Priority: 1}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, param); err != nil {
		return ErrExclusiveDenied
	}
	return nil
}
