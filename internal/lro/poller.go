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
	"context"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/opwait/internal/wait"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Poller polls a single operation whose success payload is carried in the
// operation's response field. It holds no per-wait state; the same Poller
// may drive any number of concurrent waits.
type Poller struct {
	client OperationsClient
}

var _ wait.Poller[*longrunningpb.Operation, *anypb.Any] = (*Poller)(nil)

// NewPoller creates a poller that fetches operations through client.
func NewPoller(client OperationsClient) *Poller {
	return &Poller{client: client}
}

// Poll fetches the operation's current state.
func (p *Poller) Poll(ctx context.Context, name string) (*longrunningpb.Operation, error) {
	op, err := p.client.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: name})
	if err != nil {
		return nil, classifyFetchError(err)
	}
	return op, nil
}

// IsDone reports whether the operation reached a terminal state. An
// operation that completed with an error is done.
func (p *Poller) IsDone(op *longrunningpb.Operation) bool {
	return op.GetDone()
}

// Result returns the operation's response payload, or the operation's
// embedded failure as an OperationError. A successful operation without a
// response payload is reported as a MissingResultError.
func (p *Poller) Result(op *longrunningpb.Operation) (*anypb.Any, error) {
	if s := op.GetError(); s != nil {
		return nil, &OperationError{Name: op.GetName(), Status: s}
	}
	resp := op.GetResponse()
	if resp == nil {
		return nil, &MissingResultError{Name: op.GetName()}
	}
	return resp, nil
}

// DeletePoller polls an operation whose completion is all the caller cares
// about, such as a delete. A missing response payload is expected and not
// an error.
type DeletePoller struct {
	inner *Poller
}

var _ wait.Poller[*longrunningpb.Operation, *emptypb.Empty] = (*DeletePoller)(nil)

// NewDeletePoller creates a no-result poller that fetches operations
// through client.
func NewDeletePoller(client OperationsClient) *DeletePoller {
	return &DeletePoller{inner: NewPoller(client)}
}

// Poll fetches the operation's current state.
func (p *DeletePoller) Poll(ctx context.Context, name string) (*longrunningpb.Operation, error) {
	return p.inner.Poll(ctx, name)
}

// IsDone reports whether the operation reached a terminal state.
func (p *DeletePoller) IsDone(op *longrunningpb.Operation) bool {
	return p.inner.IsDone(op)
}

// Result returns an empty message on success, or the operation's embedded
// failure as an OperationError.
func (p *DeletePoller) Result(op *longrunningpb.Operation) (*emptypb.Empty, error) {
	if s := op.GetError(); s != nil {
		return nil, &OperationError{Name: op.GetName(), Status: s}
	}
	return &emptypb.Empty{}, nil
}
