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

package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lindb/lpel/internal/clock"
)

// fixedClock returns a constant instant, advanced manually between
// RecordDispatchStart/Stop calls so trace line durations are deterministic.
type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fakeTaskView struct {
	id    uint32
	state byte
	block byte
}

func (v fakeTaskView) ID() uint32        { return v.id }
func (v fakeTaskView) StateLetter() byte { return v.state }
func (v fakeTaskView) BlockLetter() byte { return v.block }

func TestContext_Disabled_DrainsWithoutWriting(t *testing.T) {
	c := NewContext("w0", Config{Enabled: false}, &fixedClock{now: time.Now()}, time.Now())
	rec := NewTaskRecord("t", RecordStreams, time.Now())
	rec.MarkDirty(&StreamRecord{StreamID: 1, State: Opened})

	c.RecordDispatchStop(fakeTaskView{id: 1, state: 'Z'}, rec)
	assert.Nil(t, c.file)
}

func TestContext_RecordDispatchStop_WritesLine(t *testing.T) {
	dir := t.TempDir()
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cl := &fixedClock{now: epoch}
	cfg := Config{Enabled: true, Dir: dir, Prefix: "trace-", Postfix: ".log"}
	c := NewContext("w0", cfg, cl, epoch)

	rec := NewTaskRecord("pingpong", RecordTimes, epoch)
	cl.now = epoch.Add(5 * time.Millisecond)
	c.RecordDispatchStart(rec)
	cl.now = epoch.Add(8 * time.Millisecond)
	c.RecordDispatchStop(fakeTaskView{id: 42, state: 'U'}, rec)
	assert.NoError(t, c.Close())

	data, err := os.ReadFile(filepath.Join(dir, "trace-w0.log"))
	assert.NoError(t, err)
	line := strings.TrimSpace(string(data))

	fields := strings.Fields(line)
	assert.Equal(t, "8000", fields[0]) // 8ms since epoch, in microseconds
	assert.Equal(t, "42", fields[1])
	assert.Equal(t, "pingpong", fields[2])
	assert.Equal(t, "disp", fields[3])
	assert.Equal(t, "1", fields[4])
	assert.Equal(t, "st", fields[5])
	assert.Equal(t, "U", fields[6])
	assert.Equal(t, "et", fields[7])
	assert.Equal(t, "3000", fields[8]) // 8ms-5ms = 3ms
}

func TestContext_RecordDispatchStop_WithBlockSubLetter(t *testing.T) {
	dir := t.TempDir()
	epoch := time.Now()
	cfg := Config{Enabled: true, Dir: dir, Prefix: "", Postfix: ""}
	c := NewContext("w1", cfg, &fixedClock{now: epoch}, epoch)

	rec := NewTaskRecord("", 0, epoch)
	c.RecordDispatchStop(fakeTaskView{id: 1, state: 'B', block: 'I'}, rec)
	assert.NoError(t, c.Close())

	data, err := os.ReadFile(filepath.Join(dir, "w1"))
	assert.NoError(t, err)
	assert.Contains(t, string(data), "st BI")
}

func TestContext_RecordDispatchStop_StreamDirtyListFormatted(t *testing.T) {
	dir := t.TempDir()
	epoch := time.Now()
	cfg := Config{Enabled: true, Dir: dir, Prefix: "", Postfix: ""}
	c := NewContext("w2", cfg, &fixedClock{now: epoch}, epoch)

	rec := NewTaskRecord("t", RecordStreams, epoch)
	sr := &StreamRecord{StreamID: 7, Mode: 'w', State: Opened, Counter: 3,
		Events: EventMoved | EventWoken}
	rec.MarkDirty(sr)

	c.RecordDispatchStop(fakeTaskView{id: 1, state: 'Z'}, rec)
	assert.NoError(t, c.Close())

	data, err := os.ReadFile(filepath.Join(dir, "w2"))
	assert.NoError(t, err)
	assert.Contains(t, string(data), "7,w,O,3,!*;")
	assert.Equal(t, InUse, sr.State) // Opened transitions to InUse after drain
}

func TestContext_EnsureOpen_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Enabled: true, Dir: dir, Prefix: "trace-", Postfix: ".log"}
	c := NewContext("w3", cfg, clock.New(), time.Now())

	rec1 := NewTaskRecord("a", 0, time.Now())
	rec2 := NewTaskRecord("b", 0, time.Now())
	c.RecordDispatchStop(fakeTaskView{id: 1, state: 'Z'}, rec1)
	c.RecordDispatchStop(fakeTaskView{id: 2, state: 'Z'}, rec2)
	assert.NoError(t, c.Close())

	data, err := os.ReadFile(filepath.Join(dir, "trace-w3.log"))
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestContext_Close_WithoutEverOpening(t *testing.T) {
	c := NewContext("w4", Config{Enabled: false}, clock.New(), time.Now())
	assert.NoError(t, c.Close())
}
