// SPDX-License-Identifier: MIT

package badge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSourceWatchReloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinitionFile(t, dir, "first.json", `{"tags": [["d", "first"], ["name", "First"]]}`)

	source, err := NewSource(dir)
	require.NoError(t, err)
	require.Len(t, source.Definitions(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, source.Watch(ctx))

	writeDefinitionFile(t, dir, "second.json", `{"tags": [["d", "second"], ["name", "Second"]]}`)
	require.Eventually(t, func() bool {
		return len(source.Definitions()) == 2
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, "first", source.Definitions()[0].Identifier)
	require.Equal(t, "second", source.Definitions()[1].Identifier)
}

func TestSourceWatchKeepsSetOnFailedReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinitionFile(t, dir, "first.json", `{"tags": [["d", "first"], ["name", "First"]]}`)

	source, err := NewSource(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, source.Watch(ctx))

	// A broken file makes every reload fail; the previously loaded set stays.
	writeDefinitionFile(t, dir, "broken.json", `{not json`)
	time.Sleep(300 * time.Millisecond)
	defs := source.Definitions()
	require.Len(t, defs, 1)
	require.Equal(t, "first", defs[0].Identifier)
}

func TestSourceWatchMissingDir(t *testing.T) {
	t.Parallel()

	source := &Source{dir: "does-not-exist"}
	require.Error(t, source.Watch(context.Background()))
}
