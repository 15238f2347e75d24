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


package extract

import "errors"

var (
	// ErrFileNotFound is returned when the attachment path does not exist
	// in the file store.
	ErrFileNotFound = errors.New("attachment file not found")

	// ErrUnsupportedFormat is returned when no extractor handles the file's
	// extension.
	ErrUnsupportedFormat = errors.New("unsupported attachment format")

	// ErrExtraction is returned when an extractor fails to produce text
	// from an existing file.
	ErrExtraction = errors.New("attachment extraction failed")
)
