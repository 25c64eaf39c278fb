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

package lro

import (
	"errors"
	"fmt"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// OperationError reports that the operation itself failed: the service
// completed it with an error status. Retrying the wait will not help.
type OperationError struct {
	// Name identifies the failed operation.
	Name string

	// Status is the error the service recorded on the operation.
	Status *statuspb.Status
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %q failed: %v", e.Name, status.ErrorProto(e.Status))
}

// GRPCStatus exposes the operation's error as a gRPC status, so callers can
// inspect the code with status.FromError.
func (e *OperationError) GRPCStatus() *status.Status {
	return status.FromProto(e.Status)
}

// MissingResultError reports that an operation completed successfully but
// carried no response payload where one was expected. This indicates a bug
// in the service or in the caller's expectations, not a retryable condition,
// so it is surfaced rather than papered over with a default value.
type MissingResultError struct {
	// Name identifies the operation.
	Name string
}

// Error implements the error interface.
func (e *MissingResultError) Error() string {
	return fmt.Sprintf("operation %q completed successfully but has no result payload", e.Name)
}

// transientError marks a fetch failure that is worth retrying.
type transientError struct {
	err error
}

// Error implements the error interface.
func (e *transientError) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error.
func (e *transientError) Unwrap() error {
	return e.err
}

// Temporary reports that the error may succeed if retried. The wait loop
// checks for this method.
func (e *transientError) Temporary() bool {
	return true
}

// classifyFetchError wraps err as transient when it describes a condition
// that a later poll may not hit again: connectivity problems, server errors
// and throttling. Everything else, including cancellation and permission or
// not-found errors, passes through unchanged and stops the wait.
func classifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if transientCode(ae.GRPCStatus().Code()) || transientHTTPStatus(ae.HTTPCode()) {
			return &transientError{err: err}
		}
		return err
	}
	if s, ok := status.FromError(err); ok && transientCode(s.Code()) {
		return &transientError{err: err}
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) && transientHTTPStatus(ge.Code) {
		return &transientError{err: err}
	}
	return err
}

func transientCode(c codes.Code) bool {
	switch c {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func transientHTTPStatus(code int) bool {
	return code >= 500 || code == 429
}
