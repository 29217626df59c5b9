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

// Package clock wraps the wall-clock timing primitive as an external
// collaborator, so monitor/worker timings are mockable.
//
//go:generate mockgen -source ./clock.go -destination ./clock_mock.go -package clock
package clock

import "time"

// Clock is the timing capability the engine depends on.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// realClock delegates to the standard library.
type realClock struct{}

// New returns the real, monotonic-backed wall-clock implementation.
func New() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }
