// SPDX-License-Identifier: MIT

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBadgeReferenceRoundTrip(t *testing.T) {
	t.Parallel()

	pk := strings.Repeat("ab", 32)
	ref := NewBadgeReference(pk, "nostruser")
	require.Equal(t, "30009:"+pk+":nostruser", ref.String())

	parsed, err := ParseBadgeReference(ref.String())
	require.NoError(t, err)
	require.Equal(t, ref, parsed)
}

func TestParseBadgeReferenceErrors(t *testing.T) {
	t.Parallel()

	pk := strings.Repeat("ab", 32)
	for _, bad := range []string{
		"",
		"30009:" + pk,
		"30009:" + pk + ":id:extra",
		"notakind:" + pk + ":id",
		"8:" + pk + ":id",
		"30009:nothex:id",
		"30009:" + pk + ":",
	} {
		_, err := ParseBadgeReference(bad)
		require.ErrorIsf(t, err, ErrValidation, "input: %q", bad)
	}
}

func TestBadgeReferenceFilter(t *testing.T) {
	t.Parallel()

	pk := strings.Repeat("cd", 32)
	ref := NewBadgeReference(pk, "early-adopter")
	f := ref.Filter()
	require.Equal(t, []int{KindBadgeDefinition}, f.Kinds)
	require.Equal(t, []string{pk}, f.Authors)
	require.Equal(t, []string{"early-adopter"}, f.Tags["d"])
}
