// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package retry provides a generic, domain-agnostic executor that reruns a
// task with exponential backoff when its Outcome reports a retryable failure.
// It has no knowledge of portfolios, search, or any particular collaborator:
// the failure's ErrorKind alone decides whether another attempt is made.
package retry
