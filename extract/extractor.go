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

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extractor turns one attachment file into searchable text.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract returns the text content of the file at path. A missing file
	// returns an error wrapping ErrFileNotFound.
	Extract(ctx context.Context, path string) (string, error)
}

// Registry routes attachments to extractors by file extension.
// Extensions are matched case-insensitively and include the dot.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Register maps the given extensions to the extractor, replacing any
// previous mapping.
func (r *Registry) Register(extractor Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = extractor
	}
}

// Extract dispatches to the extractor registered for the file's extension.
// Unknown extensions return an error wrapping ErrUnsupportedFormat.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return extractor.Extract(ctx, path)
}

// Supports reports whether the registry has an extractor for the path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// PlainText extracts text formats (txt, md) by reading them from the store.
type PlainText struct {
	store FileStore
}

var _ Extractor = (*PlainText)(nil)

// NewPlainText creates an extractor reading from store.
func NewPlainText(store FileStore) *PlainText {
	return &PlainText{store: store}
}

func (p *PlainText) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := p.store.Read(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrExtraction, path)
	}
	return strings.TrimSpace(string(data)), nil
}

// DefaultRegistry wires the standard format routing: plain text read from
// store, images and PDFs through the OCR client. A nil ocr leaves those
// formats unsupported.
func DefaultRegistry(store FileStore, ocr *OCRClient) *Registry {
	r := NewRegistry()
	r.Register(NewPlainText(store), ".txt", ".md")
	if ocr != nil {
		r.Register(ocr, ".pdf", ".png", ".jpg", ".jpeg")
	}
	return r
}
