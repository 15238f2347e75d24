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

// Package server is the HTTP boundary: candidate search, batch control
// and health endpoints on a chi router.
//
// Search failures map to status codes by kind: invalid input is 400,
// retryable kinds are 503 with a Retry-After header, everything else is
// 500. Internal cause strings are only included in responses when debug
// mode is enabled.
package server
