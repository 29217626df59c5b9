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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v7"
	"github.com/gin-gonic/gin"
	"github.com/lindb/common/pkg/fileutil"
	"github.com/lindb/common/pkg/logger"
	"github.com/spf13/cobra"

	"github.com/lindb/lpel"
	"github.com/lindb/lpel/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "spawn the engine and execute the demo workloads",
	RunE:  runDemo,
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "write a new default config file",
	RunE: func(_ *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = defaultConfigFile
		}
		if fileutil.Exist(path) {
			return fmt.Errorf("config file %s already exists", path)
		}
		cfg := config.NewDefaultEngine()
		return os.WriteFile(path, []byte(cfg.TOML()), 0o644)
	},
}

// loadConfig resolves the engine config from file (TOML, falling back
// to defaults when absent) with environment variables layered on top,
// via the BurntSushi/toml + caarlos0/env pairing (config
// struct tags carry both `toml` and `env` keys).
func loadConfig() config.Engine {
	path := configPath
	if path == "" {
		path = defaultConfigFile
	}
	cfg := *config.NewDefaultEngine()
	if fileutil.Exist(path) {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			logger.GetLogger("LPEL", "CLI").Warn("failed decoding config file, using defaults",
				logger.String("path", path), logger.Error(err))
		}
	}
	if err := env.Parse(&cfg); err != nil {
		logger.GetLogger("LPEL", "CLI").Warn("failed applying env overrides", logger.Error(err))
	}
	return cfg
}

// runDemo spawns the engine with the resolved config and runs three
// fixed workloads end to end: ping-pong on one worker, a cross-worker
// producer/consumer, and an any-in fan-in
// end-to-end scenarios.
func runDemo(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	e := lpel.NewEngine()
	if status := e.Init(cfg); status != lpel.OK {
		return fmt.Errorf("engine init failed: %s", status)
	}
	if status := e.Spawn(); status != lpel.OK {
		return fmt.Errorf("engine spawn failed: %s", status)
	}

	srv := startStatusServer(e)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); pingPong(e) }()
	go func() { defer wg.Done(); crossWorker(e, cfg) }()
	go func() { defer wg.Done(); fanIn(e, cfg) }()
	wg.Wait()

	e.Stop()
	e.Cleanup()
	return nil
}

// startStatusServer mounts the read-only worker/task/host status
// routes on a background HTTP server, using a plain gin engine with
// internal/api's handlers registered onto it.
func startStatusServer(e *lpel.Engine) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	e.StatusAPI().Register(router)

	srv := &http.Server{Addr: "127.0.0.1:9100", Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.GetLogger("LPEL", "CLI").Error("status server stopped", logger.Error(err))
		}
	}()
	return srv
}

// pingPong runs two tasks on worker 0 that bounce 1000 ints back and
// forth over a pair of streams (scenario 1).
func pingPong(e *lpel.Engine) {
	const rounds = 1000
	ab, _ := lpel.NewStream(1)
	ba, _ := lpel.NewStream(1)

	var done sync.WaitGroup
	done.Add(2)

	var pingTask, pongTask *lpel.Task
	pingTask = e.TaskCreate(0, func(self *lpel.Task) {
		out := ab.OpenWrite(self)
		in := ba.OpenRead(self)
		for i := 0; i < rounds; i++ {
			_ = out.Write(i)
			_, _ = in.Read()
		}
		_ = out.Close()
		_ = in.Close()
		done.Done()
	}, nil, 0)

	pongTask = e.TaskCreate(0, func(self *lpel.Task) {
		in := ab.OpenRead(self)
		out := ba.OpenWrite(self)
		for i := 0; i < rounds; i++ {
			v, _ := in.Read()
			_ = out.Write(v)
		}
		_ = in.Close()
		_ = out.Close()
		done.Done()
	}, nil, 0)

	e.TaskRun(pingTask)
	e.TaskRun(pongTask)
	done.Wait()
}

// crossWorker runs a producer on worker 0 and a consumer on worker 1
// (or worker 0 again, if only one worker is configured), exchanging
// 10,000 items over a capacity-4 stream (scenario 2).
func crossWorker(e *lpel.Engine, cfg config.Engine) {
	const items = 10000
	consumerWorker := uint32(0)
	if cfg.NumWorkers > 1 {
		consumerWorker = 1
	}

	s, _ := lpel.NewStream(4)
	var done sync.WaitGroup
	done.Add(2)

	producer := e.TaskCreate(0, func(self *lpel.Task) {
		out := s.OpenWrite(self)
		for i := 0; i < items; i++ {
			_ = out.Write(i)
		}
		_ = out.Close()
		done.Done()
	}, nil, 0)

	consumer := e.TaskCreate(consumerWorker, func(self *lpel.Task) {
		in := s.OpenRead(self)
		for i := 0; i < items; i++ {
			_, _ = in.Read()
		}
		_ = in.Close()
		done.Done()
	}, nil, 0)

	e.TaskRun(producer)
	e.TaskRun(consumer)
	done.Wait()
}

// fanIn runs three producers and one consumer that waits on whichever
// producer has data next, via WaitAny (scenario 3).
func fanIn(e *lpel.Engine, cfg config.Engine) {
	const perProducer = 200
	streams := make([]*lpel.Stream, 3)
	for i := range streams {
		streams[i], _ = lpel.NewStream(2)
	}

	var done sync.WaitGroup
	done.Add(len(streams) + 1)

	for _, s := range streams {
		s := s
		t := e.TaskCreate(0, func(self *lpel.Task) {
			out := s.OpenWrite(self)
			for i := 0; i < perProducer; i++ {
				_ = out.Write(i)
				time.Sleep(time.Microsecond)
			}
			_ = out.Close()
			done.Done()
		}, nil, 0)
		e.TaskRun(t)
	}

	consumer := e.TaskCreate(0, func(self *lpel.Task) {
		descs := make([]*lpel.Descriptor, len(streams))
		for i, s := range streams {
			descs[i] = s.OpenRead(self)
		}
		received := 0
		for received < perProducer*len(streams) {
			d := lpel.WaitAny(self, descs)
			if d == nil {
				continue
			}
			if _, err := d.Read(); err == nil {
				received++
			}
		}
		for _, d := range descs {
			_ = d.Close()
		}
		done.Done()
	}, nil, 0)
	e.TaskRun(consumer)

	done.Wait()
}
