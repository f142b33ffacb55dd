// SPDX-License-Identifier: MIT

package model

import (
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func TestEventSign(t *testing.T) {
	t.Parallel()

	t.Run("OK", func(t *testing.T) {
		var ev Event
		ev.Kind = KindBadgeAward
		ev.CreatedAt = 1
		ev.Content = "Awarded badge to 1 recipient(s)"

		sk := nostr.GeneratePrivateKey()
		require.NotEmpty(t, sk)
		require.NoError(t, ev.Sign(sk))
		require.NotEmpty(t, ev.GetID())
		require.NotEmpty(t, ev.Sig)

		ok, err := ev.CheckSignature()
		require.NoError(t, err)
		require.True(t, ok)
	})
	t.Run("BadKey", func(t *testing.T) {
		for _, bad := range []string{"", "zz", strings.Repeat("ab", 16)} {
			var ev Event
			require.ErrorIsf(t, ev.Sign(bad), ErrInvalidKey, "key: %q", bad)
		}
	})
}

func TestEventGetTag(t *testing.T) {
	t.Parallel()

	var ev Event
	ev.Tags = Tags{{"d", "nostruser"}, {"name", "Nostr User"}}
	require.Equal(t, "nostruser", ev.GetTag("d").Value())
	require.Nil(t, ev.GetTag("p"))
}
