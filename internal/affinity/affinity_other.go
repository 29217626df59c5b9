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

//go:build !linux

package affinity

import "runtime"

// otherCapability is the non-Linux fallback: thread pinning is not
// available, so Pin always fails with ErrAssignFailed and leaves the
// caller to decide whether to proceed unpinned; exclusive scheduling
// is never grantable.
type otherCapability struct{}

func newPlatform() Capability { return otherCapability{} }

func (otherCapability) NumCores() int { return runtime.NumCPU() }

func (otherCapability) CanSetExclusive() bool { return false }

func (otherCapability) Pin(int) error { return ErrAssignFailed }

func (otherCapability) SetExclusive() error { return ErrExclusiveDenied }
