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

// Package wait drives a long-running operation to completion by polling it
// with exponential backoff. The loop itself knows nothing about what the
// operation represents: everything operation-specific is behind the Poller
// interface, so one engine serves every operation shape.
package wait

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

const (
	defaultInitialWait   = 1 * time.Second
	defaultMaxWait       = 60 * time.Second
	defaultBackoffFactor = 1.5
	defaultFetchRetries  = 4
)

// are variables so they can be replaced during testing.
var (
	sleep     = sleepContext
	randFloat = rand.Float64
)

// Poller describes how to check, fetch and extract state for one class of
// long-running operation. S is the snapshot type produced by a single poll
// and R is the final result type.
//
// Implementations must keep Poll free of side effects other than the status
// fetch itself: polling an already-finished operation is safe and returns an
// equivalent snapshot every time.
type Poller[S, R any] interface {
	// Poll performs exactly one fetch of the operation's current state.
	// Errors that may succeed on retry (network problems, 5xx responses)
	// must report Temporary() as true; any other error is treated as
	// non-retryable.
	Poll(ctx context.Context, name string) (S, error)

	// IsDone reports whether polling should stop. It performs no I/O and
	// must not panic for any snapshot Poll can produce, including
	// snapshots describing a failed operation.
	IsDone(s S) bool

	// Result extracts the final result from a snapshot for which IsDone
	// returned true, or surfaces the operation's embedded failure.
	Result(s S) (R, error)
}

// Options configures a single For call. The zero value of each field selects
// its documented default, so callers only set what they need to change.
type Options struct {
	// InitialWait is the delay before the second poll. Defaults to 1s.
	InitialWait time.Duration

	// MaxWait caps the delay between polls as backoff grows.
	// Defaults to 60s.
	MaxWait time.Duration

	// BackoffFactor multiplies the delay after every poll. It must be
	// greater than 1 when set. Defaults to 1.5.
	BackoffFactor float64

	// MaxTotalWait bounds the overall time spent waiting. Zero means
	// unbounded: the loop polls until the operation completes or the
	// context is cancelled. Unbounded waiting is a deliberate choice for
	// interactive use, where the user's interrupt is the natural limit.
	MaxTotalWait time.Duration

	// DisableJitter turns off the random +/-20% perturbation applied to
	// each delay. Jitter is on by default; tests and callers that need
	// exact schedules can disable it.
	DisableJitter bool

	// FetchRetries is the number of consecutive transient poll failures
	// tolerated before the wait fails with a FetchError. This budget is
	// separate from MaxTotalWait and resets on every successful poll.
	// Defaults to 4.
	FetchRetries int

	// Progress, if set, receives an event after every poll that did not
	// complete the operation. The engine itself never prints.
	Progress func(ProgressEvent)
}

// ProgressEvent describes the state of an in-flight wait after one poll.
type ProgressEvent struct {
	// Attempt is the 1-based number of polls issued so far.
	Attempt int

	// Elapsed is the total time slept between polls so far.
	Elapsed time.Duration

	// NextWait is the delay before the next poll.
	NextWait time.Duration

	// Message is the human-readable progress message supplied to For.
	Message string
}

// withDefaults validates o and returns a copy with unset fields replaced by
// their defaults. A nil receiver selects all defaults.
func (o *Options) withDefaults() (Options, error) {
	var out Options
	if o != nil {
		out = *o
	}
	if out.InitialWait < 0 || out.MaxWait < 0 || out.MaxTotalWait < 0 {
		return out, &ConfigurationError{Reason: "wait durations must not be negative"}
	}
	if out.BackoffFactor != 0 && out.BackoffFactor <= 1 {
		return out, &ConfigurationError{Reason: "backoff factor must be greater than 1"}
	}
	if out.FetchRetries < 0 {
		return out, &ConfigurationError{Reason: "fetch retry budget must not be negative"}
	}
	if out.InitialWait == 0 {
		out.InitialWait = defaultInitialWait
	}
	if out.MaxWait == 0 {
		out.MaxWait = defaultMaxWait
	}
	if out.BackoffFactor == 0 {
		out.BackoffFactor = defaultBackoffFactor
	}
	if out.FetchRetries == 0 {
		out.FetchRetries = defaultFetchRetries
	}
	if out.InitialWait > out.MaxWait {
		return out, &ConfigurationError{Reason: "initial wait exceeds maximum wait"}
	}
	return out, nil
}

// For polls p until the operation identified by name reaches a terminal
// state, then returns the extracted result. The name is passed through to
// the poller verbatim; the loop never interprets it. The message is attached
// to progress events and returned errors for display by the caller.
//
// Polls are strictly sequential: no poll is issued while a previous one is
// outstanding. Between polls the loop sleeps for an exponentially growing,
// optionally jittered interval. Cancellation of ctx is observed at the top
// of every iteration and during sleeps, and is reported as a CancelledError
// rather than a fetch failure.
func For[S, R any](ctx context.Context, p Poller[S, R], name, message string, opts *Options) (R, error) {
	var zero R
	o, err := opts.withDefaults()
	if err != nil {
		return zero, err
	}

	var (
		last          S
		haveSnapshot  bool
		attempt       int
		fetchFailures int
		elapsed       time.Duration
		interval      = o.InitialWait
	)
	for {
		if err := ctx.Err(); err != nil {
			return zero, &CancelledError{Message: message, Err: err}
		}
		attempt++
		s, err := p.Poll(ctx, name)
		switch {
		case err == nil:
			fetchFailures = 0
			last, haveSnapshot = s, true
			if p.IsDone(s) {
				return p.Result(s)
			}
		case ctx.Err() != nil:
			// The fetch was aborted by the caller, not by the service.
			return zero, &CancelledError{Message: message, Err: ctx.Err()}
		case isTransient(err):
			fetchFailures++
			if fetchFailures > o.FetchRetries {
				return zero, &FetchError{Name: name, Attempts: fetchFailures, Err: err}
			}
		default:
			return zero, &FetchError{Name: name, Attempts: fetchFailures + 1, Err: err}
		}

		if o.MaxTotalWait > 0 && elapsed+interval > o.MaxTotalWait {
			te := &TimeoutError{Name: name, Message: message, Elapsed: elapsed}
			if haveSnapshot {
				te.Last = last
			}
			return zero, te
		}
		if o.Progress != nil {
			o.Progress(ProgressEvent{
				Attempt:  attempt,
				Elapsed:  elapsed,
				NextWait: interval,
				Message:  message,
			})
		}
		if err := sleep(ctx, jitter(interval, o.DisableJitter)); err != nil {
			return zero, &CancelledError{Message: message, Err: err}
		}
		elapsed += interval
		interval = min(time.Duration(float64(interval)*o.BackoffFactor), o.MaxWait)
	}
}

// jitter perturbs d by up to +/-20% unless disabled.
func jitter(d time.Duration, disabled bool) time.Duration {
	if disabled {
		return d
	}
	return time.Duration(float64(d) * (0.8 + 0.4*randFloat()))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// temporary is implemented by poll errors that may succeed if retried.
type temporary interface {
	Temporary() bool
}

func isTransient(err error) bool {
	var t temporary
	return errors.As(err, &t) && t.Temporary()
}
