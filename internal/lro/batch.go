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
	"errors"
	"sync"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/opwait/internal/wait"
	"google.golang.org/protobuf/types/known/anypb"
)

// Result is the terminal outcome of one operation within a batch. Exactly
// one batch result is produced per tracked operation; failures of one
// operation never suppress the results of the others.
type Result struct {
	// Response is the operation's success payload, if any.
	Response *anypb.Any

	// Err is the operation's failure, or the fetch failure that made its
	// status permanently undeterminable. Nil on success.
	Err error
}

// BatchEntry is the last observed state of one operation within a batch
// snapshot.
type BatchEntry struct {
	// Operation is the most recently fetched state, nil if the most
	// recent fetch failed transiently.
	Operation *longrunningpb.Operation

	// Err is a permanent fetch failure for this entry. Once set, the
	// entry is terminal and is not fetched again within this snapshot's
	// evaluation.
	Err error
}

// BatchSnapshot maps operation names to their last observed state. A fresh
// snapshot is produced by every poll; snapshots are never mutated after
// they are returned.
type BatchSnapshot map[string]BatchEntry

// BatchPoller tracks several independent operations, fetching each with its
// own GetOperation call. Fetches within one poll run concurrently; the
// shared client is safe for that. Use ListPoller instead when the service
// can report all operations in a single request, since the failure and
// latency characteristics differ.
type BatchPoller struct {
	client OperationsClient
	names  []string
}

var _ wait.Poller[BatchSnapshot, map[string]Result] = (*BatchPoller)(nil)

// NewBatchPoller creates a poller tracking the given operation names.
func NewBatchPoller(client OperationsClient, names []string) *BatchPoller {
	return &BatchPoller{client: client, names: names}
}

// Poll fetches the current state of every tracked operation. The name
// argument labels the batch in progress reporting and is not interpreted.
//
// A permanent fetch failure for one operation becomes that entry's terminal
// state rather than failing the whole batch. Only when every fetch in the
// round fails transiently is the round itself reported as a transient
// failure, so the wait loop's retry budget applies.
func (p *BatchPoller) Poll(ctx context.Context, name string) (BatchSnapshot, error) {
	type fetch struct {
		op  *longrunningpb.Operation
		err error
	}
	fetches := make([]fetch, len(p.names))
	var wg sync.WaitGroup
	for i, opName := range p.names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op, err := p.client.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: opName})
			fetches[i] = fetch{op: op, err: classifyFetchError(err)}
		}()
	}
	wg.Wait()

	snapshot := make(BatchSnapshot, len(p.names))
	transientOnly := len(p.names) > 0
	var firstTransient error
	for i, opName := range p.names {
		f := fetches[i]
		switch {
		case f.err == nil:
			snapshot[opName] = BatchEntry{Operation: f.op}
			transientOnly = false
		case isTransient(f.err):
			// Leave the entry pending; the next round refetches it.
			snapshot[opName] = BatchEntry{}
			if firstTransient == nil {
				firstTransient = f.err
			}
		default:
			snapshot[opName] = BatchEntry{Err: f.err}
			transientOnly = false
		}
	}
	if transientOnly {
		return nil, firstTransient
	}
	return snapshot, nil
}

// IsDone reports whether every tracked operation is terminal: either done
// on the server or permanently unfetchable.
func (p *BatchPoller) IsDone(s BatchSnapshot) bool {
	return batchDone(p.names, s)
}

// Result returns one Result per tracked operation, partial failures
// included.
func (p *BatchPoller) Result(s BatchSnapshot) (map[string]Result, error) {
	return batchResult(p.names, s), nil
}

// ListPoller tracks several operations under one parent resource, fetching
// all of them with a single ListOperations call per poll. This is the
// variant to use against true batch status endpoints: one RPC per round
// regardless of batch size, at the cost of the whole round failing when
// that RPC fails.
type ListPoller struct {
	client OperationsClient
	parent string
	filter string
	names  []string
}

var _ wait.Poller[BatchSnapshot, map[string]Result] = (*ListPoller)(nil)

// NewListPoller creates a poller that lists operations under parent,
// optionally constrained by a service-specific filter expression, and
// tracks the given operation names to completion.
func NewListPoller(client OperationsClient, parent, filter string, names []string) *ListPoller {
	return &ListPoller{client: client, parent: parent, filter: filter, names: names}
}

// Poll lists the operations under the parent and folds the tracked names
// into a snapshot. Tracked operations absent from the listing stay pending.
func (p *ListPoller) Poll(ctx context.Context, name string) (BatchSnapshot, error) {
	listed := make(map[string]*longrunningpb.Operation)
	for op, err := range p.client.ListOperations(ctx, &longrunningpb.ListOperationsRequest{
		Name:   p.parent,
		Filter: p.filter,
	}) {
		if err != nil {
			return nil, classifyFetchError(err)
		}
		listed[op.GetName()] = op
	}

	snapshot := make(BatchSnapshot, len(p.names))
	for _, opName := range p.names {
		snapshot[opName] = BatchEntry{Operation: listed[opName]}
	}
	return snapshot, nil
}

// IsDone reports whether every tracked operation is terminal.
func (p *ListPoller) IsDone(s BatchSnapshot) bool {
	return batchDone(p.names, s)
}

// Result returns one Result per tracked operation, partial failures
// included.
func (p *ListPoller) Result(s BatchSnapshot) (map[string]Result, error) {
	return batchResult(p.names, s), nil
}

func batchDone(names []string, s BatchSnapshot) bool {
	for _, name := range names {
		e, ok := s[name]
		if !ok {
			return false
		}
		if e.Err != nil {
			continue
		}
		if !e.Operation.GetDone() {
			return false
		}
	}
	return true
}

func batchResult(names []string, s BatchSnapshot) map[string]Result {
	results := make(map[string]Result, len(names))
	for _, name := range names {
		e := s[name]
		switch {
		case e.Err != nil:
			results[name] = Result{Err: e.Err}
		case e.Operation.GetError() != nil:
			results[name] = Result{Err: &OperationError{Name: name, Status: e.Operation.GetError()}}
		default:
			results[name] = Result{Response: e.Operation.GetResponse()}
		}
	}
	return results
}

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
