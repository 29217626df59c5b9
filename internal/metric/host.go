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

package metric

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"
)

var hostLog = logger.GetLogger("LPEL", "HostCollector")

// HostSnapshot is the plain-data rendering of one collection tick, for
// the status API: a rough read of how loaded the machine as a whole
// is, to help a caller judge whether a worker's dispatch latency is
// the engine's fault or the host's.
type HostSnapshot struct {
	CPUPercent float64 `json:"cpuPercent"`
	MemPercent float64 `json:"memPercent"`
}

// HostCollector periodically samples host CPU/memory utilization,
// grounded on internal/monitoring's NewSystemCollector/Run shape
// (ctx-cancellable periodic collector wrapping gopsutil). Unlike the
// teacher's collector, this one pushes nowhere: it only keeps the last
// sample for the status API to read, since LPEL has no metrics
// ingestion endpoint to push into (dynamic pool resizing is out of
// scope, and there's no TSDB here to receive pushes).
type HostCollector struct {
	interval time.Duration

	cpuPercent atomic.Float64
	memPercent atomic.Float64
}

// NewHostCollector creates a collector sampling at the given interval.
func NewHostCollector(interval time.Duration) *HostCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HostCollector{interval: interval}
}

// Run samples until ctx is done; meant to be launched with `go c.Run(ctx)`.
func (c *HostCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	c.collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *HostCollector) collect() {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		hostLog.Warn("collect cpu percent failed", logger.Error(err))
	} else if len(percents) > 0 {
		c.cpuPercent.Store(percents[0])
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		hostLog.Warn("collect memory stats failed", logger.Error(err))
	} else {
		c.memPercent.Store(vm.UsedPercent)
	}
}

// Snapshot returns the most recently collected sample.
func (c *HostCollector) Snapshot() HostSnapshot {
	return HostSnapshot{
		CPUPercent: c.cpuPercent.Load(),
		MemPercent: c.memPercent.Load(),
	}
}
