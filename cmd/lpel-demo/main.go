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
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/lindb/common/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "./lpel-demo.toml"
	logFileName       = "lpel-demo.log"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "lpel-demo",
		Short: "run example LPEL workloads against the engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		fmt.Sprintf("config file path, default is %s", defaultConfigFile))

	root.AddCommand(runCmd, initConfigCmd)

	if err := root.Execute(); err != nil {
		logger.GetLogger("LPEL", "CLI").Error("command failed", logger.Error(err))
		os.Exit(1)
	}
}
