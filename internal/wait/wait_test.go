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

package wait

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// step is one scripted poll outcome.
type step struct {
	done  bool
	value string
	err   error
}

// fakePoller replays a scripted sequence of poll outcomes. The last step
// repeats if the loop polls beyond the script.
type fakePoller struct {
	steps     []step
	polls     int
	resultErr error
}

func (p *fakePoller) Poll(ctx context.Context, name string) (step, error) {
	i := p.polls
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	p.polls++
	s := p.steps[i]
	if s.err != nil {
		return step{}, s.err
	}
	return s, nil
}

func (p *fakePoller) IsDone(s step) bool {
	return s.done
}

func (p *fakePoller) Result(s step) (string, error) {
	if p.resultErr != nil {
		return "", p.resultErr
	}
	return s.value, nil
}

type tempError struct {
	msg string
}

func (e *tempError) Error() string {
	return e.msg
}

func (e *tempError) Temporary() bool {
	return true
}

// recordSleeps replaces the sleep function for the duration of the test and
// returns the recorded sleep durations.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })
	return &slept
}

func TestForDoneOnFirstPoll(t *testing.T) {
	slept := recordSleeps(t)
	poller := &fakePoller{steps: []step{{done: true, value: "ok"}}}

	got, err := For[step, string](context.Background(), poller, "op-1", "creating", nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("ok", got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if poller.polls != 1 {
		t.Errorf("polls = %d, want 1", poller.polls)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no sleeping", *slept)
	}
}

func TestForBackoffSequence(t *testing.T) {
	for _, test := range []struct {
		name string
		opts *Options
		// polls before the operation reports done
		pendingPolls int
		want         []time.Duration
	}{
		{
			name: "doubling capped",
			opts: &Options{
				InitialWait:   1 * time.Second,
				MaxWait:       10 * time.Second,
				BackoffFactor: 2,
				DisableJitter: true,
			},
			pendingPolls: 3,
			want:         []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		},
		{
			name: "ceiling reached",
			opts: &Options{
				InitialWait:   1 * time.Second,
				MaxWait:       5 * time.Second,
				BackoffFactor: 3,
				DisableJitter: true,
			},
			pendingPolls: 5,
			want:         []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second, 5 * time.Second, 5 * time.Second},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			slept := recordSleeps(t)
			var steps []step
			for range test.pendingPolls {
				steps = append(steps, step{})
			}
			steps = append(steps, step{done: true, value: "ok"})
			poller := &fakePoller{steps: steps}

			got, err := For[step, string](context.Background(), poller, "op-1", "creating", test.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got != "ok" {
				t.Errorf("result = %q, want %q", got, "ok")
			}
			if diff := cmp.Diff(test.want, *slept); diff != "" {
				t.Errorf("sleep sequence mismatch (-want +got):\n%s", diff)
			}
			for i := 1; i < len(*slept); i++ {
				if (*slept)[i] < (*slept)[i-1] {
					t.Errorf("sleep sequence decreased at %d: %v", i, *slept)
				}
			}
		})
	}
}

func TestForTransientErrorThenSuccess(t *testing.T) {
	recordSleeps(t)
	poller := &fakePoller{steps: []step{
		{},
		{err: &tempError{msg: "connection reset"}},
		{done: true, value: "ok"},
	}}

	got, err := For[step, string](context.Background(), poller, "op-1", "creating", &Options{DisableJitter: true})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("result = %q, want %q", got, "ok")
	}
	if poller.polls != 3 {
		t.Errorf("polls = %d, want 3", poller.polls)
	}
}

func TestForTransientErrorsExhaustBudget(t *testing.T) {
	recordSleeps(t)
	poller := &fakePoller{steps: []step{{err: &tempError{msg: "unavailable"}}}}

	_, err := For[step, string](context.Background(), poller, "op-1", "creating", &Options{
		DisableJitter: true,
		FetchRetries:  3,
	})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	if fe.Attempts != 4 {
		t.Errorf("attempts = %d, want 4", fe.Attempts)
	}
	// The retry budget bounds the polls: initial attempt plus retries.
	if poller.polls != 4 {
		t.Errorf("polls = %d, want 4", poller.polls)
	}
}

func TestForPermanentFetchError(t *testing.T) {
	recordSleeps(t)
	poller := &fakePoller{steps: []step{{err: fmt.Errorf("operation not found")}}}

	_, err := For[step, string](context.Background(), poller, "op-1", "creating", nil)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	if poller.polls != 1 {
		t.Errorf("polls = %d, want 1 (no retry of permanent failures)", poller.polls)
	}
}

func TestForTimeout(t *testing.T) {
	slept := recordSleeps(t)
	poller := &fakePoller{
		steps:     []step{{value: "pending"}},
		resultErr: fmt.Errorf("Result must not be called on timeout"),
	}

	_, err := For[step, string](context.Background(), poller, "op-1", "creating", &Options{
		InitialWait:   1 * time.Second,
		BackoffFactor: 2,
		MaxTotalWait:  5 * time.Second,
		DisableJitter: true,
	})
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	// 1s + 2s fit in the 5s budget; the 4s sleep would overshoot.
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if diff := cmp.Diff(want, *slept); diff != "" {
		t.Errorf("sleep sequence mismatch (-want +got):\n%s", diff)
	}
	if te.Elapsed != 3*time.Second {
		t.Errorf("elapsed = %v, want 3s", te.Elapsed)
	}
	last, ok := te.Last.(step)
	if !ok {
		t.Fatalf("last snapshot = %T, want step", te.Last)
	}
	if last.value != "pending" || last.done {
		t.Errorf("last snapshot = %+v, want pending non-done snapshot", last)
	}
}

func TestForCancelledBetweenPolls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })

	poller := &fakePoller{steps: []step{{value: "pending"}}}
	_, err := For[step, string](ctx, poller, "op-1", "creating", &Options{DisableJitter: true})
	var ce *CancelledError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CancelledError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error does not unwrap to context.Canceled: %v", err)
	}
	if poller.polls != 1 {
		t.Errorf("polls = %d, want 1 (no poll after cancellation)", poller.polls)
	}
}

func TestForCancelledBeforeFirstPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	poller := &fakePoller{steps: []step{{done: true, value: "ok"}}}
	_, err := For[step, string](ctx, poller, "op-1", "creating", nil)
	var ce *CancelledError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CancelledError", err)
	}
	if poller.polls != 0 {
		t.Errorf("polls = %d, want 0", poller.polls)
	}
}

func TestForInvalidOptions(t *testing.T) {
	for _, test := range []struct {
		name string
		opts *Options
	}{
		{
			name: "negative initial wait",
			opts: &Options{InitialWait: -1 * time.Second},
		},
		{
			name: "negative max total wait",
			opts: &Options{MaxTotalWait: -1 * time.Second},
		},
		{
			name: "backoff factor of one",
			opts: &Options{BackoffFactor: 1},
		},
		{
			name: "backoff factor below one",
			opts: &Options{BackoffFactor: 0.5},
		},
		{
			name: "negative retry budget",
			opts: &Options{FetchRetries: -1},
		},
		{
			name: "initial wait above maximum",
			opts: &Options{InitialWait: 2 * time.Minute, MaxWait: 1 * time.Minute},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			poller := &fakePoller{steps: []step{{done: true}}}
			_, err := For[step, string](context.Background(), poller, "op-1", "creating", test.opts)
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want ConfigurationError", err)
			}
			if poller.polls != 0 {
				t.Errorf("polls = %d, want 0 (validation precedes polling)", poller.polls)
			}
		})
	}
}

func TestForProgressEvents(t *testing.T) {
	recordSleeps(t)
	var events []ProgressEvent
	poller := &fakePoller{steps: []step{{}, {}, {done: true, value: "ok"}}}

	_, err := For[step, string](context.Background(), poller, "op-1", "Creating instance", &Options{
		InitialWait:   1 * time.Second,
		BackoffFactor: 2,
		DisableJitter: true,
		Progress:      func(e ProgressEvent) { events = append(events, e) },
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []ProgressEvent{
		{Attempt: 1, Elapsed: 0, NextWait: 1 * time.Second, Message: "Creating instance"},
		{Attempt: 2, Elapsed: 1 * time.Second, NextWait: 2 * time.Second, Message: "Creating instance"},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("progress events mismatch (-want +got):\n%s", diff)
	}
}

func TestJitterBounds(t *testing.T) {
	for _, r := range []float64{0, 0.25, 0.5, 0.75, 1} {
		orig := randFloat
		randFloat = func() float64 { return r }
		d := jitter(10*time.Second, false)
		randFloat = orig

		if d < 8*time.Second || d > 12*time.Second {
			t.Errorf("jitter(10s) with rand=%v = %v, want within [8s, 12s]", r, d)
		}
	}
	if d := jitter(10*time.Second, true); d != 10*time.Second {
		t.Errorf("disabled jitter altered the interval: %v", d)
	}
}
