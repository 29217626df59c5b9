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

// Package api exposes a read-only HTTP status surface over the
// runtime's worker and task state, grounded on
// internal/api/explore_handle.go's gin handler shape.
package api

import (
	"github.com/gin-gonic/gin"

	httppkg "github.com/lindb/common/pkg/http"
	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/lpel/internal/metric"
	"github.com/lindb/lpel/internal/worker"
)

var (
	// WorkersPath lists every worker's live statistics snapshot.
	WorkersPath = "/lpel/state/workers"
	// TasksPath lists every live task owned by one worker.
	TasksPath = "/lpel/state/tasks"
	// HostPath reports the most recent host CPU/memory sample.
	HostPath = "/lpel/state/host"
)

// TaskView is the read-only projection of a live task the status API
// renders; kept structural so this package need not import the root
// module (which would import api, forming a cycle).
type TaskView struct {
	ID    uint32 `json:"id"`
	Owner uint32 `json:"owner"`
	State byte   `json:"state"`
}

// Source is implemented by the engine to list live tasks per worker
// without api depending on the root package's types directly.
type Source interface {
	TasksByWorker(workerID uint32) []TaskView
}

// StatusAPI serves read-only worker/task introspection.
type StatusAPI struct {
	pool   *worker.Pool
	source Source
	host   *metric.HostCollector
	logger logger.Logger
}

// NewStatusAPI creates the status API bound to the running worker pool.
func NewStatusAPI(pool *worker.Pool, source Source, host *metric.HostCollector) *StatusAPI {
	return &StatusAPI{
		pool:   pool,
		source: source,
		host:   host,
		logger: logger.GetLogger("LPEL", "StatusAPI"),
	}
}

// Register adds the status routes to route.
func (a *StatusAPI) Register(route gin.IRoutes) {
	route.GET(WorkersPath, a.Workers)
	route.GET(TasksPath, a.Tasks)
	route.GET(HostPath, a.Host)
}

// Host returns the most recent host CPU/memory sample.
func (a *StatusAPI) Host(c *gin.Context) {
	httppkg.OK(c, a.host.Snapshot())
}

// Workers returns every worker's current statistics snapshot.
func (a *StatusAPI) Workers(c *gin.Context) {
	snapshots := make([]metric.Snapshot, 0, len(a.pool.Workers()))
	for _, w := range a.pool.Workers() {
		snapshots = append(snapshots, w.Stats.Snapshot())
	}
	httppkg.OK(c, snapshots)
}

// Tasks returns the live tasks owned by the worker named in the
// "worker" query parameter.
func (a *StatusAPI) Tasks(c *gin.Context) {
	var param struct {
		Worker *uint32 `form:"worker" binding:"required"`
	}
	if err := c.ShouldBindQuery(&param); err != nil {
		httppkg.Error(c, err)
		return
	}
	httppkg.OK(c, a.source.TasksByWorker(*param.Worker))
}
