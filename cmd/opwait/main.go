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

// Command opwait waits for Google Cloud long-running operations to reach a
// terminal state, polling with exponential backoff.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/googleapis/opwait/internal/opwait"
)

func main() {
	// Interrupts cancel the context so in-flight waits return a
	// cancellation error instead of being killed mid-poll.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := opwait.Run(ctx, os.Args[1:]...); err != nil {
		slog.Error("opwait failed", slog.Any("err", err))
		os.Exit(1)
	}
}
