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

import "errors"

// ErrInvalidConfig is returned by Engine.Validate for any rejected
// field combination.
var ErrInvalidConfig = errors.New("lpel: invalid engine configuration")

// ErrExclusiveDenied is returned by Engine.Validate when Exclusive is
// requested but the process lacks the scheduling elevation capability.
var ErrExclusiveDenied = errors.New("lpel: exclusive scheduling denied by platform")
