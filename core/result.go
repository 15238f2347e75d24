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


package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrorKind classifies a failure. Retryability and the suggested retry delay
// are fixed per kind and never overridden per instance.
type ErrorKind int

const (
	// ErrorNetwork is a transient transport or storage fault.
	ErrorNetwork ErrorKind = iota + 1
	// ErrorRateLimit is an upstream API rate limit rejection.
	ErrorRateLimit
	// ErrorTimeout is an operation that exceeded its deadline.
	ErrorTimeout
	// ErrorInvalidInput is malformed or out-of-range input data.
	ErrorInvalidInput
	// ErrorAuthentication is a credential or API key problem.
	ErrorAuthentication
	// ErrorConfiguration is an invalid or missing setting.
	ErrorConfiguration
	// ErrorSystemResource is an unexpected fault or resource exhaustion.
	ErrorSystemResource
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidInput:
		return "invalid_input"
	case ErrorAuthentication:
		return "authentication"
	case ErrorConfiguration:
		return "configuration"
	case ErrorSystemResource:
		return "system_resource"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind are eligible for
// backoff-and-retry.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorNetwork, ErrorRateLimit, ErrorTimeout:
		return true
	default:
		return false
	}
}

// RetryDelay returns the suggested delay before retrying a failure of this
// kind. Zero for non-retryable kinds.
func (k ErrorKind) RetryDelay() time.Duration {
	switch k {
	case ErrorNetwork:
		return 1 * time.Second
	case ErrorRateLimit:
		return 60 * time.Second
	case ErrorTimeout:
		return 5 * time.Second
	default:
		return 0
	}
}

// Failure is a classified error. It carries the underlying cause and optional
// context for logs.
type Failure struct {
	Kind    ErrorKind
	Err     error
	Context map[string]any
}

// NewFailure creates a Failure of the given kind wrapping cause.
func NewFailure(kind ErrorKind, cause error) *Failure {
	return &Failure{Kind: kind, Err: cause}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Err.Error())
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable delegates to the kind.
func (f *Failure) Retryable() bool {
	return f.Kind.Retryable()
}

// RetryDelay delegates to the kind.
func (f *Failure) RetryDelay() time.Duration {
	return f.Kind.RetryDelay()
}

// With attaches a context value and returns the same Failure for chaining.
func (f *Failure) With(key string, value any) *Failure {
	if f.Context == nil {
		f.Context = make(map[string]any)
	}
	f.Context[key] = value
	return f
}

// Outcome is the result of an operation that can fail in an expected way:
// either a value or a classified Failure, never both. It replaces error
// returns across orchestration boundaries so that callers can decide on
// retryability without type-switching on provider errors.
type Outcome[T any] struct {
	value   T
	failure *Failure
}

// Ok constructs a successful Outcome.
func Ok[T any](value T) Outcome[T] {
	return Outcome[T]{value: value}
}

// Fail constructs a failed Outcome of the given kind wrapping cause.
func Fail[T any](kind ErrorKind, cause error) Outcome[T] {
	return Outcome[T]{failure: NewFailure(kind, cause)}
}

// FailWith constructs a failed Outcome from an existing Failure. Used to
// propagate a failure across outcomes of different value types unchanged.
func FailWith[T any](f *Failure) Outcome[T] {
	if f == nil {
		f = NewFailure(ErrorSystemResource, errors.New("nil failure"))
	}
	return Outcome[T]{failure: f}
}

// Ok reports whether the outcome holds a value.
func (o Outcome[T]) Ok() bool {
	return o.failure == nil
}

// Value returns the success value. Zero value when the outcome is a failure.
func (o Outcome[T]) Value() T {
	return o.value
}

// Failure returns the classified failure, or nil on success.
func (o Outcome[T]) Failure() *Failure {
	return o.failure
}

// Classify maps a collaborator error to a Failure. Typed failures pass
// through unchanged; context deadlines become Timeout; rate limit and
// authentication rejections are recognized from the provider error text,
// since OpenAI-compatible SDKs surface them as opaque strings. Anything else
// from an external call is treated as a transient Network fault.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewFailure(ErrorTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewFailure(ErrorTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota"):
		return NewFailure(ErrorRateLimit, err)
	case strings.Contains(msg, "401") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "authentication"):
		return NewFailure(ErrorAuthentication, err)
	default:
		return NewFailure(ErrorNetwork, err)
	}
}
