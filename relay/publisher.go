// SPDX-License-Identifier: MIT

package relay

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/nostr-badger/badger/model"
)

type (
	Status        string
	OverallStatus string

	// Outcome is one relay's verdict on a single publish attempt. Err carries
	// the rejection reason or transport error for the non-accepted statuses.
	Outcome struct {
		Relay  string
		Status Status
		Err    error
	}

	Result struct {
		Outcomes []Outcome
	}

	Publisher struct {
		pool *Pool
	}
)

const (
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusUnreachable Status = "unreachable"
	StatusTimedOut    Status = "timed-out"

	FullSuccess    OverallStatus = "full success"
	PartialSuccess OverallStatus = "partial success"
	TotalFailure   OverallStatus = "total failure"
)

func New() *Publisher {
	return &Publisher{pool: NewPool()}
}

func (p *Publisher) Close() {
	p.pool.Close()
}

// Publish sends the signed event to every relay concurrently. Each relay gets
// its own timeout-bounded attempt and its own result slot, so one dead relay
// never blocks or aborts the others. Attempts canceled by the caller are
// reported as timed-out while already-completed outcomes are preserved.
// Publish never retries; retry policy belongs to the caller.
func (p *Publisher) Publish(ctx context.Context, ev *model.Event, relayURLs []string, timeout time.Duration) (*Result, error) {
	if len(relayURLs) == 0 {
		return nil, errors.Wrap(model.ErrValidation, "no relay endpoints configured")
	}
	result := &Result{Outcomes: make([]Outcome, len(relayURLs))}
	eg := errgroup.Group{}
	for ix, relayURL := range relayURLs {
		eg.Go(func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			result.Outcomes[ix] = p.publishToRelay(attemptCtx, ev, relayURL)

			return nil
		})
	}
	// Every failure is already captured in its own slot.
	_ = eg.Wait()

	return result, nil
}

func (p *Publisher) publishToRelay(ctx context.Context, ev *model.Event, relayURL string) Outcome {
	relay, err := p.pool.Get(ctx, relayURL)
	if err != nil {
		if isDeadline(ctx, err) {
			return Outcome{Relay: relayURL, Status: StatusTimedOut, Err: err}
		}

		return Outcome{Relay: relayURL, Status: StatusUnreachable, Err: err}
	}
	if err = relay.Publish(ctx, ev.Event); err != nil {
		if isDeadline(ctx, err) {
			p.pool.Drop(relayURL)

			return Outcome{Relay: relayURL, Status: StatusTimedOut, Err: errors.Wrapf(err, "publish to %v timed out", relayURL)}
		}

		return Outcome{Relay: relayURL, Status: StatusRejected, Err: errors.Wrapf(err, "relay %v rejected event %v", relayURL, ev.GetID())}
	}

	return Outcome{Relay: relayURL, Status: StatusAccepted}
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}

func (r *Result) Accepted() int {
	count := 0
	for ix := range r.Outcomes {
		if r.Outcomes[ix].Status == StatusAccepted {
			count++
		}
	}

	return count
}

func (r *Result) Status() OverallStatus {
	switch accepted := r.Accepted(); {
	case accepted == len(r.Outcomes):
		return FullSuccess
	case accepted == 0:
		return TotalFailure
	default:
		return PartialSuccess
	}
}

// Err combines every non-accepted outcome into one error, nil on full success.
func (r *Result) Err() error {
	var mErr *multierror.Error
	for ix := range r.Outcomes {
		if out := &r.Outcomes[ix]; out.Status != StatusAccepted {
			mErr = multierror.Append(mErr, errors.Wrapf(out.Err, "%v: %v", out.Relay, out.Status))
		}
	}

	return mErr.ErrorOrNil()
}
