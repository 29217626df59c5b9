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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/lpel/internal/clock"
)

var log = logger.GetLogger("LPEL", "Monitor")

// Config controls where and whether per-worker trace files are written.
type Config struct {
	// Enabled turns the sidecar on; when false, writers are no-ops.
	Enabled bool
	// Dir is the directory trace files are created in.
	Dir string
	// Prefix and Postfix bracket the worker name in the trace file name:
	// <Prefix><worker-name><Postfix>.
	Prefix  string
	Postfix string
}

// DefaultConfig returns the sidecar's default (disabled) configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Dir:     ".",
		Prefix:  "lpel-mon-",
		Postfix: ".log",
	}
}

// TaskView is the read-only projection of a task the monitor needs in
// order to format a dispatch-stop trace line, implemented by
// internal/core.Task without monitor importing core (core imports monitor
// for TaskRecord/StreamRecord; the dependency only runs one way).
type TaskView interface {
	// ID returns the task's unique identifier.
	ID() uint32
	// StateLetter returns the monitor letter for the task's current state.
	StateLetter() byte
	// BlockLetter returns the monitor sub-reason letter, or 0 if not blocked.
	BlockLetter() byte
}

// Context is a worker-private monitor sidecar: it owns one append-only
// trace file, created lazily on the first recorded dispatch.
type Context struct {
	cfg        Config
	workerName string
	clock      clock.Clock
	epoch      time.Time

	file *os.File
	buf  *bufio.Writer
}

// NewContext creates the monitor sidecar for one worker. The underlying
// file is not opened until the first dispatch is recorded.
func NewContext(workerName string, cfg Config, c clock.Clock, epoch time.Time) *Context {
	return &Context{
		cfg:        cfg,
		workerName: workerName,
		clock:      c,
		epoch:      epoch,
	}
}

// ensureOpen lazily creates the trace file. Failures are logged and
// reported to the caller, which drops the record rather than crashing
// the worker: monitor I/O failures are never fatal.
func (c *Context) ensureOpen() error {
	if c.file != nil {
		return nil
	}
	name := filepath.Join(c.cfg.Dir, c.cfg.Prefix+c.workerName+c.cfg.Postfix)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	c.file = f
	c.buf = bufio.NewWriter(f)
	return nil
}

// RecordDispatchStop formats and appends one trace line for a task that
// just stopped running, in the fixed trace line format:
//
//	<ts_norm> <tid> [<name> ] disp <N> st <S>[<sub>] [et <dt> [creat <ct>]] [<streams>]
func (c *Context) RecordDispatchStop(t TaskView, rec *TaskRecord) {
	if !c.cfg.Enabled {
		rec.DrainDirty(func(*StreamRecord) {})
		return
	}
	if err := c.ensureOpen(); err != nil {
		log.Warn("open monitor trace file failed, dropping record",
			logger.String("worker", c.workerName), logger.Error(err))
		rec.DrainDirty(func(*StreamRecord) {})
		return
	}

	now := c.clock.Now()
	rec.DispatchCount++
	rec.StoppedAt = now

	var b strings.Builder
	fmt.Fprintf(&b, "%d %d", now.Sub(c.epoch).Microseconds(), t.ID())
	if rec.Name != "" {
		fmt.Fprintf(&b, " %s ", rec.Name)
	} else {
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "disp %d st %c", rec.DispatchCount, t.StateLetter())
	if sub := t.BlockLetter(); sub != 0 {
		b.WriteByte(sub)
	}

	if rec.Flags&RecordTimes != 0 {
		fmt.Fprintf(&b, " et %d", rec.StoppedAt.Sub(rec.StartedAt).Microseconds())
		fmt.Fprintf(&b, " creat %d", rec.StoppedAt.Sub(rec.CreatedAt).Microseconds())
	}

	if rec.Flags&RecordStreams != 0 {
		var streams strings.Builder
		rec.DrainDirty(func(sr *StreamRecord) {
			streams.WriteByte(' ')
			fmt.Fprintf(&streams, "%d,%c,%c,%d,", sr.StreamID, sr.Mode, sr.State.Letter(), sr.Counter)
			if sr.Events&EventBlocked != 0 {
				streams.WriteByte('?')
			}
			if sr.Events&EventWoken != 0 {
				streams.WriteByte('!')
			}
			if sr.Events&EventMoved != 0 {
				streams.WriteByte('*')
			}
			streams.WriteByte(';')
		})
		b.WriteString(streams.String())
	} else {
		rec.DrainDirty(func(*StreamRecord) {})
	}

	b.WriteByte('\n')
	if _, err := c.buf.WriteString(b.String()); err != nil {
		log.Warn("write monitor trace record failed, dropping record",
			logger.String("worker", c.workerName), logger.Error(err))
		return
	}
	if err := c.buf.Flush(); err != nil {
		log.Warn("flush monitor trace file failed, dropping record",
			logger.String("worker", c.workerName), logger.Error(err))
	}
}

// RecordDispatchStart stamps the start time used by RecordDispatchStop's
// "et" field.
func (c *Context) RecordDispatchStart(rec *TaskRecord) {
	rec.StartedAt = c.clock.Now()
}

// Close flushes and closes the trace file, if it was ever opened.
func (c *Context) Close() error {
	if c.file == nil {
		return nil
	}
	if err := c.buf.Flush(); err != nil {
		log.Warn("flush monitor trace file on close failed",
			logger.String("worker", c.workerName), logger.Error(err))
	}
	return c.file.Close()
}
