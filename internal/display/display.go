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

// Package display renders operations, results and polling progress for the
// user. The wait engine itself never prints; this package is the presenter
// its progress events are handed to.
package display

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/opwait/internal/config"
	"github.com/googleapis/opwait/internal/lro"
	"github.com/googleapis/opwait/internal/wait"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"gopkg.in/yaml.v3"
)

// Progress returns a progress callback that reports each polling attempt
// through logger.
func Progress(logger *slog.Logger) func(wait.ProgressEvent) {
	return func(e wait.ProgressEvent) {
		logger.Info(e.Message,
			slog.Int("attempt", e.Attempt),
			slog.Duration("elapsed", e.Elapsed),
			slog.Duration("next_wait", e.NextWait),
		)
	}
}

// Operation renders a single operation snapshot to w.
func Operation(w io.Writer, format string, op *longrunningpb.Operation) error {
	return render(w, format, messageValue(op))
}

// Operations renders a list of operation snapshots to w.
func Operations(w io.Writer, format string, ops []*longrunningpb.Operation) error {
	values := make([]any, 0, len(ops))
	for _, op := range ops {
		values = append(values, messageValue(op))
	}
	return render(w, format, values)
}

// Payload renders an operation's response payload to w.
func Payload(w io.Writer, format string, payload *anypb.Any) error {
	return render(w, format, anyValue(payload))
}

// Batch renders per-operation batch results to w, in operation-name order.
// Failed entries are rendered alongside successful ones.
func Batch(w io.Writer, format string, results map[string]lro.Result) error {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	slices.Sort(names)

	values := make([]any, 0, len(names))
	for _, name := range names {
		r := results[name]
		entry := map[string]any{"name": name}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		} else {
			entry["response"] = anyValue(r.Response)
		}
		values = append(values, entry)
	}
	return render(w, format, values)
}

// messageValue converts a proto message to a plain value suitable for both
// YAML and JSON rendering. Messages embedding payload types that are not
// linked into this binary cannot be expanded by protojson; those fall back
// to a raw rendering rather than failing the command.
func messageValue(m proto.Message) any {
	data, err := protojson.Marshal(m)
	if err != nil {
		if op, ok := m.(*longrunningpb.Operation); ok {
			return rawOperationValue(op)
		}
		return map[string]any{"unrenderable": fmt.Sprintf("%v", err)}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return map[string]any{"unrenderable": fmt.Sprintf("%v", err)}
	}
	return v
}

func anyValue(payload *anypb.Any) any {
	if payload == nil {
		return nil
	}
	data, err := protojson.Marshal(payload)
	if err != nil {
		// The payload type is not known to this binary; show it raw.
		return map[string]any{
			"@type": payload.GetTypeUrl(),
			"value": base64.StdEncoding.EncodeToString(payload.GetValue()),
		}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return map[string]any{"unrenderable": fmt.Sprintf("%v", err)}
	}
	return v
}

func rawOperationValue(op *longrunningpb.Operation) any {
	entry := map[string]any{
		"name": op.GetName(),
		"done": op.GetDone(),
	}
	if s := op.GetError(); s != nil {
		entry["error"] = map[string]any{
			"code":    s.GetCode(),
			"message": s.GetMessage(),
		}
	}
	if resp := op.GetResponse(); resp != nil {
		entry["response"] = anyValue(resp)
	}
	if md := op.GetMetadata(); md != nil {
		entry["metadata"] = anyValue(md)
	}
	return entry
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}
