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

package config

import "fmt"

// Trace configures the per-worker monitor trace writer.
type Trace struct {
	Enabled bool   `env:"LPEL_MONITOR_ENABLED" toml:"enabled"`
	Dir     string `env:"LPEL_MONITOR_DIR" toml:"dir"`
	Prefix  string `env:"LPEL_MONITOR_PREFIX" toml:"prefix"`
	Postfix string `env:"LPEL_MONITOR_POSTFIX" toml:"postfix"`
}

// TOML returns Trace's toml config, nested under [monitor].
func (t *Trace) TOML() string {
	return fmt.Sprintf(`[monitor]
## whether per-worker dispatch trace files are written
## Default: %v
## Env: LPEL_MONITOR_ENABLED
enabled = %v
## directory trace files are written into
## Default: %q
## Env: LPEL_MONITOR_DIR
dir = %q
## prefix prepended to each worker's trace file name
## Default: %q
## Env: LPEL_MONITOR_PREFIX
prefix = %q
## postfix appended to each worker's trace file name
## Default: %q
## Env: LPEL_MONITOR_POSTFIX
postfix = %q`,
		t.Enabled, t.Enabled,
		t.Dir, t.Dir,
		t.Prefix, t.Prefix,
		t.Postfix, t.Postfix,
	)
}

// NewDefaultTrace returns monitoring disabled, with a
// "./lpel-mon/" style default directory for when it is turned on.
func NewDefaultTrace() *Trace {
	return &Trace{
		Enabled: false,
		Dir:     "./lpel-mon",
		Prefix:  "lpel-mon-",
		Postfix: ".log",
	}
}
