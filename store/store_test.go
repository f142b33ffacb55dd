// SPDX-License-Identifier: MIT

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/nostr-badger/badger/badge"
	"github.com/nostr-badger/badger/model"
)

func helperAggregate(identifier string) *badge.Aggregate {
	return &badge.Aggregate{Entries: []badge.AcceptanceEntry{{
		Badge:   model.NewBadgeReference(strings.Repeat("ab", 32), identifier),
		AwardID: strings.Repeat("cd", 32),
	}}}
}

func TestSaveEvent(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	var ev model.Event
	ev.Kind = model.KindBadgeAward
	ev.CreatedAt = 1
	ev.Tags = model.Tags{{"a", "30009:" + strings.Repeat("ab", 32) + ":nostruser"}, {"p", strings.Repeat("ab", 32)}}
	require.NoError(t, ev.Sign(nostr.GeneratePrivateKey()))

	path, err := s.SaveEvent(&ev)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded nostr.Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, ev.GetID(), decoded.ID)
	require.Equal(t, ev.Sig, decoded.Sig)
}

func TestBackupRoundTrip(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	agg := helperAggregate("nostruser")

	_, err := s.SaveBackup(agg, strings.Repeat("ef", 32), strings.Repeat("12", 32))
	require.NoError(t, err)

	restored, err := s.LatestBackup()
	require.NoError(t, err)
	require.Equal(t, agg.Entries, restored.Entries)
}

func TestLatestBackupNotFound(t *testing.T) {
	t.Parallel()

	_, err := New(t.TempDir()).LatestBackup()
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestBackupRotation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := New(dir)
	for i := 0; i < defaultMaxBackups+2; i++ {
		_, err := s.SaveBackup(helperAggregate(fmt.Sprintf("badge-%v", i)), strings.Repeat("ef", 32), fmt.Sprintf("%064d", i))
		require.NoError(t, err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "backups", "profile_badges_*.json"))
	require.NoError(t, err)
	require.Len(t, files, defaultMaxBackups)
}
