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

// Package scheduler runs the batch orchestrator on a cron schedule.
//
// A single Scheduler owns one cron entry and a single-flight guard: a
// tick that fires while a previous run is still in flight is skipped,
// not queued. The summary of the most recent run is retained and
// exposed through Status for the HTTP boundary.
package scheduler
