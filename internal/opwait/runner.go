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

package opwait

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/opwait/internal/config"
	"github.com/googleapis/opwait/internal/display"
	"github.com/googleapis/opwait/internal/lro"
	"github.com/googleapis/opwait/internal/wait"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"
)

// runner holds everything a single command invocation needs: the parsed
// configuration, the operations client and the output stream.
type runner struct {
	cfg    *config.Config
	client lro.OperationsClient
	stdout io.Writer
}

// withRunner creates a runner with a real operations client, invokes fn and
// releases the client.
func withRunner(ctx context.Context, fn func(*runner, context.Context) error) error {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := lro.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("error creating operations client: %w", err)
	}
	defer func() { _ = client.Close() }()
	r := &runner{cfg: cfg, client: client, stdout: os.Stdout}
	return fn(r, ctx)
}

// wait drives the configured operation (or batch of operations) to
// completion and prints the outcome.
func (r *runner) wait(ctx context.Context) error {
	opts := &wait.Options{
		InitialWait:   r.cfg.InitialWait,
		MaxWait:       r.cfg.MaxWait,
		BackoffFactor: r.cfg.BackoffFactor,
		MaxTotalWait:  r.cfg.Timeout,
		DisableJitter: r.cfg.NoJitter,
		Progress:      display.Progress(slog.Default()),
	}

	switch {
	case r.cfg.Names != "" && r.cfg.Parent != "":
		// All tracked operations live under one parent: one
		// ListOperations request per poll covers the whole batch.
		names := splitNames(r.cfg.Names)
		poller := lro.NewListPoller(r.client, r.cfg.Parent, r.cfg.Filter, names)
		results, err := wait.For[lro.BatchSnapshot, map[string]lro.Result](ctx, poller, r.cfg.Parent, r.progressMessage(r.cfg.Parent), opts)
		if err != nil {
			return err
		}
		return display.Batch(r.stdout, r.cfg.Format, results)
	case r.cfg.Names != "":
		names := splitNames(r.cfg.Names)
		poller := lro.NewBatchPoller(r.client, names)
		label := fmt.Sprintf("batch of %d operations", len(names))
		results, err := wait.For[lro.BatchSnapshot, map[string]lro.Result](ctx, poller, label, r.progressMessage(label), opts)
		if err != nil {
			return err
		}
		return display.Batch(r.stdout, r.cfg.Format, results)
	case r.cfg.Name != "" && r.cfg.IgnoreResult:
		poller := lro.NewDeletePoller(r.client)
		if _, err := wait.For[*longrunningpb.Operation, *emptypb.Empty](ctx, poller, r.cfg.Name, r.progressMessage(r.cfg.Name), opts); err != nil {
			return err
		}
		slog.Info("operation completed", slog.String("name", r.cfg.Name))
		return nil
	case r.cfg.Name != "":
		poller := lro.NewPoller(r.client)
		payload, err := wait.For[*longrunningpb.Operation, *anypb.Any](ctx, poller, r.cfg.Name, r.progressMessage(r.cfg.Name), opts)
		if err != nil {
			return err
		}
		return display.Payload(r.stdout, r.cfg.Format, payload)
	default:
		return fmt.Errorf("-name or -names must be specified")
	}
}

// describe fetches and prints the current state of one operation without
// waiting.
func (r *runner) describe(ctx context.Context) error {
	if r.cfg.Name == "" {
		return fmt.Errorf("-name must be specified")
	}
	op, err := r.client.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: r.cfg.Name})
	if err != nil {
		return fmt.Errorf("error fetching operation %q: %w", r.cfg.Name, err)
	}
	return display.Operation(r.stdout, r.cfg.Format, op)
}

// list prints the operations under the configured parent.
func (r *runner) list(ctx context.Context) error {
	if r.cfg.Parent == "" {
		return fmt.Errorf("-parent must be specified")
	}
	var ops []*longrunningpb.Operation
	for op, err := range r.client.ListOperations(ctx, &longrunningpb.ListOperationsRequest{
		Name:   r.cfg.Parent,
		Filter: r.cfg.Filter,
	}) {
		if err != nil {
			return fmt.Errorf("error listing operations under %q: %w", r.cfg.Parent, err)
		}
		ops = append(ops, op)
	}
	return display.Operations(r.stdout, r.cfg.Format, ops)
}

// cancel asks the service to cancel an operation. The operation may still
// run to completion; its terminal state is observed with the wait command.
func (r *runner) cancel(ctx context.Context) error {
	if r.cfg.Name == "" {
		return fmt.Errorf("-name must be specified")
	}
	if err := r.client.CancelOperation(ctx, &longrunningpb.CancelOperationRequest{Name: r.cfg.Name}); err != nil {
		return fmt.Errorf("error cancelling operation %q: %w", r.cfg.Name, err)
	}
	slog.Info("cancellation requested", slog.String("name", r.cfg.Name))
	return nil
}

func (r *runner) progressMessage(target string) string {
	if r.cfg.Message != "" {
		return r.cfg.Message
	}
	return fmt.Sprintf("Waiting for %s", target)
}

func splitNames(names string) []string {
	var out []string
	for _, name := range strings.Split(names, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
