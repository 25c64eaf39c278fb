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

// Package opwait contains the business logic for the opwait CLI, which
// waits for Google Cloud long-running operations to complete. The polling
// engine lives in the wait package and the operation-shape-specific pollers
// in the lro package; this package wires them to commands, flags and
// output.
package opwait

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/googleapis/opwait/internal/cli"
	"github.com/googleapis/opwait/internal/config"
)

var cfg = config.New("")

var cmdWait = &cli.Command{
	Name:  "wait",
	Short: "Wait for one or more operations to complete and print the result",
}

var cmdDescribe = &cli.Command{
	Name:  "describe",
	Short: "Fetch and print the current state of an operation",
}

var cmdList = &cli.Command{
	Name:  "list",
	Short: "List operations under a parent resource",
}

var cmdCancel = &cli.Command{
	Name:  "cancel",
	Short: "Request cancellation of an operation",
}

var cmdVersion = &cli.Command{
	Name:  "version",
	Short: "Print the version of the opwait binary",
}

var commands = []*cli.Command{
	cmdWait,
	cmdDescribe,
	cmdList,
	cmdCancel,
	cmdVersion,
}

func init() {
	waitFlags := []func(fs *flag.FlagSet){
		addFlagBackoffFactor,
		addFlagEndpoint,
		addFlagFilter,
		addFlagFormat,
		addFlagIgnoreResult,
		addFlagInitialWait,
		addFlagMaxWait,
		addFlagMessage,
		addFlagName,
		addFlagNames,
		addFlagNoJitter,
		addFlagParent,
		addFlagTimeout,
	}
	cmdWait.SetFlags(waitFlags)
	cmdWait.Run = func(ctx context.Context) error {
		return withRunner(ctx, (*runner).wait)
	}

	cmdDescribe.SetFlags([]func(fs *flag.FlagSet){
		addFlagEndpoint,
		addFlagFormat,
		addFlagName,
	})
	cmdDescribe.Run = func(ctx context.Context) error {
		return withRunner(ctx, (*runner).describe)
	}

	cmdList.SetFlags([]func(fs *flag.FlagSet){
		addFlagEndpoint,
		addFlagFilter,
		addFlagFormat,
		addFlagParent,
	})
	cmdList.Run = func(ctx context.Context) error {
		return withRunner(ctx, (*runner).list)
	}

	cmdCancel.SetFlags([]func(fs *flag.FlagSet){
		addFlagEndpoint,
		addFlagName,
	})
	cmdCancel.Run = func(ctx context.Context) error {
		return withRunner(ctx, (*runner).cancel)
	}

	cmdVersion.SetFlags(nil)
	cmdVersion.Run = func(ctx context.Context) error {
		fmt.Println(cli.Version())
		return nil
	}
}

// Run executes the opwait CLI with the given command line arguments.
func Run(ctx context.Context, args ...string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("command not specified")
	}
	cmd, err := cli.Lookup(args[0], commands)
	if err != nil {
		usage()
		return err
	}
	if err := cmd.Parse(args[1:]); err != nil {
		// cmd.Parse already printed a command-specific usage error.
		return err
	}
	cfg.CommandName = cmd.Name
	if err := cfg.SetDefaults(); err != nil {
		return fmt.Errorf("failed to load configuration defaults: %w", err)
	}
	if _, err := cfg.IsValid(); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	slog.Debug("opwait", "command", cmd.Name, "arguments", args[1:])
	return cmd.Run(ctx)
}

func usage() {
	fmt.Print("Usage:\n\n  opwait <command> [arguments]\n\nCommands:\n\n")
	for _, cmd := range commands {
		fmt.Printf("  %-10s %s\n", cmd.Name, cmd.Short)
	}
	fmt.Println()
}
