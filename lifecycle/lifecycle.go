// SPDX-License-Identifier: MIT

// Package lifecycle orchestrates the three badge operations: define, award,
// accept. The engine holds no per-session state; keys and references are
// threaded through each call.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nbd-wtf/go-nostr"

	"github.com/nostr-badger/badger/badge"
	"github.com/nostr-badger/badger/model"
	"github.com/nostr-badger/badger/relay"
	"github.com/nostr-badger/badger/store"
)

type (
	Stage string

	// StageError marks which pipeline stage an operation died in. No stage is
	// retried automatically.
	StageError struct {
		Stage Stage
		cause error
	}

	// AggregateFetcher returns the recipient's current kind 30008 event, nil
	// when the recipient has never accepted a badge.
	AggregateFetcher func(ctx context.Context, recipientPubKey string, relayURLs []string) (*model.Event, error)

	Engine struct {
		publisher *relay.Publisher
		store     *store.Store
		relayURLs []string
		timeout   time.Duration
	}
)

const (
	StageFetch   Stage = "fetching current aggregate"
	StageMerge   Stage = "merging"
	StageBuild   Stage = "building event"
	StageSign    Stage = "signing"
	StagePublish Stage = "publishing"

	defaultTimeout = 10 * time.Second
)

func (e *StageError) Error() string {
	return fmt.Sprintf("failed while %v: %v", e.Stage, e.cause)
}

func (e *StageError) Unwrap() error {
	return e.cause
}

func failedAt(stage Stage, err error) error {
	return &StageError{Stage: stage, cause: err}
}

// New wires the engine. st may be nil to disable the local paper trail.
func New(publisher *relay.Publisher, st *store.Store, relayURLs []string, timeout time.Duration) *Engine {
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Engine{publisher: publisher, store: st, relayURLs: relayURLs, timeout: timeout}
}

// CreateDefinition builds, signs, and publishes a kind 30009 definition.
func (e *Engine) CreateDefinition(ctx context.Context, def badge.Definition, privateKey string) (*relay.Result, *model.Event, error) {
	key, err := model.DecodePrivateKey(privateKey)
	if err != nil {
		return nil, nil, failedAt(StageSign, err)
	}
	ev, err := badge.BuildDefinition(def, nostr.Timestamp(time.Now().Unix()))
	if err != nil {
		return nil, nil, failedAt(StageBuild, err)
	}

	return e.signAndPublish(ctx, ev, key)
}

// AwardBadge builds, signs, and publishes a kind 8 award naming every
// recipient in one event. Recipients may be npub or hex, order is preserved.
func (e *Engine) AwardBadge(ctx context.Context, ref model.BadgeReference, recipients []string, privateKey string) (*relay.Result, *model.Event, error) {
	key, err := model.DecodePrivateKey(privateKey)
	if err != nil {
		return nil, nil, failedAt(StageSign, err)
	}
	normalized := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		pubkey, nErr := model.NormalizePublicKey(recipient)
		if nErr != nil {
			return nil, nil, failedAt(StageBuild, nErr)
		}
		normalized = append(normalized, pubkey)
	}
	ev, err := badge.BuildAward(ref, normalized, nostr.Timestamp(time.Now().Unix()))
	if err != nil {
		return nil, nil, failedAt(StageBuild, err)
	}

	return e.signAndPublish(ctx, ev, key)
}

// AcceptBadge merges the award into the recipient's aggregate and republishes
// it: fetch current -> merge -> build -> sign -> publish. A corrupt existing
// aggregate fails the merge stage; the caller decides whether to rebuild.
func (e *Engine) AcceptBadge(ctx context.Context, privateKey string, ref model.BadgeReference, awardEventID string, fetch AggregateFetcher) (*relay.Result, *model.Event, error) {
	key, err := model.DecodePrivateKey(privateKey)
	if err != nil {
		return nil, nil, failedAt(StageSign, err)
	}
	recipientPubKey, err := nostr.GetPublicKey(key)
	if err != nil {
		return nil, nil, failedAt(StageSign, errors.Wrapf(model.ErrInvalidKey, "can't derive public key: %v", err))
	}
	if fetch == nil {
		fetch = func(fCtx context.Context, pubKey string, urls []string) (*model.Event, error) {
			return e.publisher.FetchProfileBadges(fCtx, pubKey, urls, e.timeout)
		}
	}

	currentEvent, err := fetch(ctx, recipientPubKey, e.relayURLs)
	if err != nil {
		return nil, nil, failedAt(StageFetch, err)
	}
	var current *badge.Aggregate
	if currentEvent != nil {
		if current, err = badge.ParseAggregate(currentEvent); err != nil {
			return nil, nil, failedAt(StageMerge, err)
		}
	}
	next, err := badge.Merge(current, badge.AcceptanceEntry{Badge: ref, AwardID: awardEventID})
	if err != nil {
		return nil, nil, failedAt(StageMerge, err)
	}
	if e.store != nil && current != nil {
		if _, bErr := e.store.SaveBackup(current, recipientPubKey, currentEvent.GetID()); bErr != nil {
			log.Printf("WARN: failed to back up current aggregate: %v", bErr)
		}
	}
	relayHint := ""
	if len(e.relayURLs) > 0 {
		relayHint = e.relayURLs[0]
	}
	ev, err := badge.BuildProfileBadges(next, relayHint, nostr.Timestamp(time.Now().Unix()))
	if err != nil {
		return nil, nil, failedAt(StageBuild, err)
	}

	return e.signAndPublish(ctx, ev, key)
}

func (e *Engine) signAndPublish(ctx context.Context, ev *model.Event, key string) (*relay.Result, *model.Event, error) {
	if err := ev.Sign(key); err != nil {
		return nil, nil, failedAt(StageSign, err)
	}
	if e.store != nil {
		if path, err := e.store.SaveEvent(ev); err != nil {
			log.Printf("WARN: failed to save signed event %v: %v", ev.GetID(), err)
		} else {
			log.Printf("signed event saved: %v", path)
		}
	}
	result, err := e.publisher.Publish(ctx, ev, e.relayURLs, e.timeout)
	if err != nil {
		return nil, ev, failedAt(StagePublish, err)
	}

	return result, ev, nil
}
