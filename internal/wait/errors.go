// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wait

import (
	"fmt"
	"time"
)

// ConfigurationError reports invalid Options. It is returned before any
// network call is made.
type ConfigurationError struct {
	// Reason describes which option value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid wait options: %s", e.Reason)
}

// FetchError reports that the operation's status could not be determined:
// either the fetch-retry budget was exhausted by transient failures, or a
// single non-retryable fetch failure occurred. It says nothing about whether
// the operation itself succeeded or failed.
type FetchError struct {
	// Name identifies the operation being polled.
	Name string

	// Attempts is the number of consecutive failed fetches.
	Attempts int

	// Err is the last fetch failure.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("could not determine status of operation %q after %d attempt(s): %v", e.Name, e.Attempts, e.Err)
}

// Unwrap returns the underlying fetch failure.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that the overall wait budget elapsed before the
// operation completed. The operation may still finish on the server; callers
// may keep waiting by calling For again with the same operation name.
type TimeoutError struct {
	// Name identifies the operation being polled.
	Name string

	// Message is the progress message associated with the wait.
	Message string

	// Elapsed is the time spent waiting before giving up.
	Elapsed time.Duration

	// Last is the most recently fetched snapshot, if any poll succeeded.
	// It is kept for diagnostics; its concrete type is whatever the
	// poller's Poll returned.
	Last any
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %q did not complete within %s", e.Name, e.Elapsed)
}

// CancelledError reports that the caller cancelled the wait before the
// operation completed. The server-side operation is unaffected.
type CancelledError struct {
	// Message is the progress message associated with the wait.
	Message string

	// Err is the context error that triggered cancellation.
	Err error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("wait cancelled: %v", e.Err)
}

// Unwrap returns the context error, so errors.Is reports context.Canceled
// or context.DeadlineExceeded as appropriate.
func (e *CancelledError) Unwrap() error {
	return e.Err
}
