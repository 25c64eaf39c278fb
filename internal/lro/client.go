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

// Package lro implements pollers for google.longrunning.Operation resources.
// Each poller binds a done-predicate, a status fetch and a result extraction
// to one operation shape; the generic loop that drives them lives in the
// wait package.
package lro

import (
	"context"
	"iter"

	longrunning "cloud.google.com/go/longrunning/autogen"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// OperationsClient is the subset of the generated operations client used by
// pollers. It is an interface for mocking calls to the operations service.
type OperationsClient interface {
	// GetOperation fetches the current state of one operation.
	GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest, opts ...gax.CallOption) (*longrunningpb.Operation, error)

	// ListOperations lists operations matching a filter under a parent
	// resource.
	ListOperations(ctx context.Context, req *longrunningpb.ListOperationsRequest, opts ...gax.CallOption) iter.Seq2[*longrunningpb.Operation, error]

	// CancelOperation asks the service to cancel an operation. The
	// operation is not guaranteed to stop; its eventual terminal state is
	// still observed by polling.
	CancelOperation(ctx context.Context, req *longrunningpb.CancelOperationRequest, opts ...gax.CallOption) error
}

// Client wraps the generated long-running operations client so that it
// satisfies OperationsClient. It is safe for concurrent use by multiple
// simultaneous waits.
type Client struct {
	ops *longrunning.OperationsClient
}

// NewClient creates an operations client for the given service endpoint.
// The caller must Close the client when done.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	ops, err := longrunning.NewOperationsClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{ops: ops}, nil
}

// GetOperation executes the RPC to fetch one operation.
func (c *Client) GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest, opts ...gax.CallOption) (*longrunningpb.Operation, error) {
	return c.ops.GetOperation(ctx, req, opts...)
}

// ListOperations executes the RPC to list operations.
func (c *Client) ListOperations(ctx context.Context, req *longrunningpb.ListOperationsRequest, opts ...gax.CallOption) iter.Seq2[*longrunningpb.Operation, error] {
	return c.ops.ListOperations(ctx, req, opts...).All()
}

// CancelOperation executes the RPC to cancel one operation.
func (c *Client) CancelOperation(ctx context.Context, req *longrunningpb.CancelOperationRequest, opts ...gax.CallOption) error {
	return c.ops.CancelOperation(ctx, req, opts...)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.ops.Close()
}
