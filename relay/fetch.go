// SPDX-License-Identifier: MIT

package relay

import (
	"context"
	"log"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nostr-badger/badger/model"
)

// FetchProfileBadges returns the recipient's latest kind 30008 aggregate seen
// on any of the relays, or nil when no relay has one. Relays are queried
// concurrently; relays that fail to answer are skipped, the newest event by
// created_at wins.
func (p *Publisher) FetchProfileBadges(ctx context.Context, recipientPubKey string, relayURLs []string, timeout time.Duration) (*model.Event, error) {
	if !model.IsValidPublicKey(recipientPubKey) {
		return nil, errors.Wrapf(model.ErrValidation, "recipient %q is not a hex pubkey", recipientPubKey)
	}
	filter := model.Filter{
		Kinds:   []int{model.KindProfileBadges},
		Authors: []string{recipientPubKey},
		Tags:    model.TagMap{"d": {model.ProfileBadgesDTag}},
		Limit:   1,
	}

	found := p.queryAll(ctx, filter, relayURLs, timeout)
	var latest *model.Event
	for _, ev := range found {
		if latest == nil || ev.CreatedAt > latest.CreatedAt {
			latest = ev
		}
	}

	return latest, nil
}

// CountStored reports how many of the relays answer a query for the event by
// id, the post-publish verification step.
func (p *Publisher) CountStored(ctx context.Context, ev *model.Event, relayURLs []string, timeout time.Duration) int {
	filter := model.Filter{IDs: []string{ev.GetID()}, Limit: 1}
	count := 0
	for _, stored := range p.queryAll(ctx, filter, relayURLs, timeout) {
		if stored.GetID() == ev.GetID() {
			count++
		}
	}

	return count
}

func (p *Publisher) queryAll(ctx context.Context, filter model.Filter, relayURLs []string, timeout time.Duration) []*model.Event {
	slots := make([]*model.Event, len(relayURLs))
	eg := errgroup.Group{}
	for ix, relayURL := range relayURLs {
		eg.Go(func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			relay, err := p.pool.Get(attemptCtx, relayURL)
			if err != nil {
				log.Printf("can't query relay %v: %v", relayURL, err)

				return nil
			}
			evs, err := relay.QueryEvents(attemptCtx, filter)
			if err != nil {
				log.Printf("query failed on relay %v: %v", relayURL, err)

				return nil
			}
			for ev := range evs {
				if slots[ix] == nil || ev.CreatedAt > slots[ix].CreatedAt {
					slots[ix] = &model.Event{Event: *ev}
				}
			}

			return nil
		})
	}
	_ = eg.Wait()

	found := make([]*model.Event, 0, len(slots))
	for _, ev := range slots {
		if ev != nil {
			found = append(found, ev)
		}
	}

	return found
}
