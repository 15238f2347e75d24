// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import "errors"

var (
	// ErrRunnerRequired is returned when a Scheduler is created without a runner.
	ErrRunnerRequired = errors.New("batch runner is required")

	// ErrRunInProgress is returned by TriggerNow while a run is in flight.
	ErrRunInProgress = errors.New("a batch run is already in progress")
)
