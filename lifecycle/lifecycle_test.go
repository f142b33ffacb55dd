// SPDX-License-Identifier: MIT

package lifecycle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/require"

	"github.com/nostr-badger/badger/badge"
	"github.com/nostr-badger/badger/model"
	"github.com/nostr-badger/badger/relay"
	"github.com/nostr-badger/badger/relay/fixture"
	"github.com/nostr-badger/badger/store"
)

const testTimeout = 2 * time.Second

func testEngine(t *testing.T, relayURLs []string) (*Engine, *store.Store) {
	t.Helper()
	publisher := relay.New()
	t.Cleanup(publisher.Close)
	st := store.New(t.TempDir())

	return New(publisher, st, relayURLs, testTimeout), st
}

func TestCreateDefinition(t *testing.T) {
	t.Parallel()

	accepting := fixture.New(fixture.Config{})
	defer accepting.Close()
	engine, _ := testEngine(t, []string{accepting.URL()})

	def := badge.Definition{
		Identifier:  "nostruser",
		Name:        "Nostr User",
		Description: "Welcome to nostr",
		ImageURL:    "https://example.com/badge.png",
	}
	result, ev, err := engine.CreateDefinition(context.Background(), def, nostr.GeneratePrivateKey())
	require.NoError(t, err)
	require.Equal(t, relay.FullSuccess, result.Status())
	require.Equal(t, model.KindBadgeDefinition, ev.Kind)

	stored, ok := accepting.Event(ev.GetID())
	require.True(t, ok)
	require.Equal(t, "nostruser", stored.Tags.GetFirst([]string{"d"}).Value())
}

func TestAwardBadge(t *testing.T) {
	t.Parallel()

	accepting := fixture.New(fixture.Config{})
	defer accepting.Close()
	engine, _ := testEngine(t, []string{accepting.URL()})

	issuerKey := nostr.GeneratePrivateKey()
	issuerPub, err := nostr.GetPublicKey(issuerKey)
	require.NoError(t, err)
	recipientPub, err := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	recipientNpub, err := nip19.EncodePublicKey(recipientPub)
	require.NoError(t, err)

	ref := model.NewBadgeReference(issuerPub, "nostruser")
	result, ev, err := engine.AwardBadge(context.Background(), ref, []string{recipientNpub}, issuerKey)
	require.NoError(t, err)
	require.Equal(t, relay.FullSuccess, result.Status())
	require.Equal(t, model.KindBadgeAward, ev.Kind)

	stored, ok := accepting.Event(ev.GetID())
	require.True(t, ok)
	require.Equal(t, ref.String(), stored.Tags.GetFirst([]string{"a"}).Value())
	// npub recipients are normalized to hex on the wire.
	require.Equal(t, recipientPub, stored.Tags.GetFirst([]string{"p"}).Value())
}

func TestAcceptBadgeIsIdempotent(t *testing.T) {
	t.Parallel()

	accepting := fixture.New(fixture.Config{})
	defer accepting.Close()
	engine, st := testEngine(t, []string{accepting.URL()})

	recipientKey := nostr.GeneratePrivateKey()
	issuerPub, err := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	ref := model.NewBadgeReference(issuerPub, "nostruser")
	awardID := strings.Repeat("ab", 32)

	result, first, err := engine.AcceptBadge(context.Background(), recipientKey, ref, awardID, nil)
	require.NoError(t, err)
	require.Equal(t, relay.FullSuccess, result.Status())
	agg, err := badge.ParseAggregate(first)
	require.NoError(t, err)
	require.Len(t, agg.Entries, 1)

	// A second accept of the same award re-fetches the published aggregate and
	// must not duplicate the entry.
	_, second, err := engine.AcceptBadge(context.Background(), recipientKey, ref, awardID, nil)
	require.NoError(t, err)
	agg, err = badge.ParseAggregate(second)
	require.NoError(t, err)
	require.Len(t, agg.Entries, 1)
	require.Equal(t, ref, agg.Entries[0].Badge)
	require.Equal(t, awardID, agg.Entries[0].AwardID)

	// The pre-merge aggregate was snapshotted before the second publish.
	backup, err := st.LatestBackup()
	require.NoError(t, err)
	require.Len(t, backup.Entries, 1)
	require.Equal(t, awardID, backup.Entries[0].AwardID)
}

func TestAcceptBadgeGrowsAggregate(t *testing.T) {
	t.Parallel()

	accepting := fixture.New(fixture.Config{})
	defer accepting.Close()
	engine, _ := testEngine(t, []string{accepting.URL()})

	recipientKey := nostr.GeneratePrivateKey()
	issuerPub, err := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	firstRef := model.NewBadgeReference(issuerPub, "first")
	secondRef := model.NewBadgeReference(issuerPub, "second")

	_, _, err = engine.AcceptBadge(context.Background(), recipientKey, firstRef, strings.Repeat("11", 32), nil)
	require.NoError(t, err)
	_, ev, err := engine.AcceptBadge(context.Background(), recipientKey, secondRef, strings.Repeat("22", 32), nil)
	require.NoError(t, err)

	agg, err := badge.ParseAggregate(ev)
	require.NoError(t, err)
	require.Equal(t, []badge.AcceptanceEntry{
		{Badge: firstRef, AwardID: strings.Repeat("11", 32)},
		{Badge: secondRef, AwardID: strings.Repeat("22", 32)},
	}, agg.Entries)
}

func TestAcceptBadgeBadKey(t *testing.T) {
	t.Parallel()

	engine, _ := testEngine(t, []string{"ws://127.0.0.1:1"})
	issuerPub, err := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	require.NoError(t, err)

	_, _, err = engine.AcceptBadge(context.Background(), "nsec1garbage", model.NewBadgeReference(issuerPub, "nostruser"), strings.Repeat("ab", 32), nil)
	require.ErrorIs(t, err, model.ErrInvalidKey)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageSign, stageErr.Stage)
}

func TestAcceptBadgeCorruptAggregate(t *testing.T) {
	t.Parallel()

	accepting := fixture.New(fixture.Config{})
	defer accepting.Close()
	engine, _ := testEngine(t, []string{accepting.URL()})

	issuerPub, err := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	corrupt := func(context.Context, string, []string) (*model.Event, error) {
		var ev model.Event
		ev.Kind = model.KindProfileBadges
		ev.Tags = model.Tags{
			{"d", model.ProfileBadgesDTag},
			{"a", "30009:" + issuerPub + ":first"},
			{"a", "30009:" + issuerPub + ":second"},
			{"e", strings.Repeat("ab", 32)},
		}

		return &ev, nil
	}

	_, _, err = engine.AcceptBadge(context.Background(), nostr.GeneratePrivateKey(), model.NewBadgeReference(issuerPub, "nostruser"), strings.Repeat("ab", 32), corrupt)
	require.ErrorIs(t, err, model.ErrCorruptAggregate)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageMerge, stageErr.Stage)
}

func TestCreateDefinitionEmptyRelaySet(t *testing.T) {
	t.Parallel()

	engine, _ := testEngine(t, nil)

	started := time.Now()
	_, _, err := engine.CreateDefinition(context.Background(), badge.Definition{Identifier: "nostruser", Name: "Nostr User"}, nostr.GeneratePrivateKey())
	require.ErrorIs(t, err, model.ErrValidation)
	require.Less(t, time.Since(started), time.Second)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StagePublish, stageErr.Stage)
}
