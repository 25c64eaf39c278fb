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
	"flag"
)

func addFlagBackoffFactor(fs *flag.FlagSet) {
	fs.Float64Var(&cfg.BackoffFactor, "backoff-factor", 0, "factor by which the polling delay grows after each attempt (must be > 1; default 1.5)")
}

func addFlagEndpoint(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "service endpoint owning the operations (e.g. spanner.googleapis.com:443)")
}

func addFlagFilter(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Filter, "filter", "", "service-specific filter expression for listing operations")
}

func addFlagFormat(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Format, "format", "", "output format: yaml or json (default yaml)")
}

func addFlagIgnoreResult(fs *flag.FlagSet) {
	fs.BoolVar(&cfg.IgnoreResult, "ignore-result", false, "only wait for completion; do not expect or print a result payload (e.g. delete operations)")
}

func addFlagInitialWait(fs *flag.FlagSet) {
	fs.DurationVar(&cfg.InitialWait, "initial-wait", 0, "delay before the second poll (default 1s)")
}

func addFlagMaxWait(fs *flag.FlagSet) {
	fs.DurationVar(&cfg.MaxWait, "max-wait", 0, "upper bound on the delay between polls (default 60s)")
}

func addFlagMessage(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Message, "message", "", "progress message displayed while waiting")
}

func addFlagName(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Name, "name", "", "fully-qualified operation name (e.g. projects/p/locations/l/operations/op-1)")
}

func addFlagNames(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Names, "names", "", "comma-separated operation names to wait for as a batch")
}

func addFlagNoJitter(fs *flag.FlagSet) {
	fs.BoolVar(&cfg.NoJitter, "no-jitter", false, "disable the random perturbation of polling delays")
}

func addFlagParent(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Parent, "parent", "", "resource whose operations collection to use (e.g. projects/p/locations/l)")
}

func addFlagTimeout(fs *flag.FlagSet) {
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "overall wait budget; 0 waits until completion or interruption")
}
