package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slidesmith/domain/deck"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zap.NewNop())
}

func TestWriteSectionIfChanged(t *testing.T) {
	store := newTestStore(t)
	payload := map[string]interface{}{"name": "Jericca", "role": "Director"}

	t.Run("first write lands", func(t *testing.T) {
		changed, err := store.WriteSectionIfChanged("acme", "bio", payload)
		require.NoError(t, err)
		assert.True(t, changed)

		_, err = os.Stat(filepath.Join(store.RunDir("acme"), "bio.json"))
		assert.NoError(t, err)
	})

	t.Run("identical content skips the write", func(t *testing.T) {
		path := filepath.Join(store.RunDir("acme"), "bio.json")
		before, err := os.Stat(path)
		require.NoError(t, err)

		// Equal maps serialize to equal canonical bytes regardless of how
		// they were built.
		changed, err := store.WriteSectionIfChanged("acme", "bio",
			map[string]interface{}{"role": "Director", "name": "Jericca"})
		require.NoError(t, err)
		assert.False(t, changed)

		after, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, before.ModTime(), after.ModTime())
	})

	t.Run("changed content rewrites", func(t *testing.T) {
		changed, err := store.WriteSectionIfChanged("acme", "bio",
			map[string]interface{}{"name": "Someone Else"})
		require.NoError(t, err)
		assert.True(t, changed)
	})
}

func TestReadSection(t *testing.T) {
	store := newTestStore(t)

	t.Run("missing section is a clean miss", func(t *testing.T) {
		_, ok, err := store.ReadSection("acme", "bio")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("round trips a written section", func(t *testing.T) {
		payload := map[string]interface{}{"name": "Jericca"}
		_, err := store.WriteSectionIfChanged("acme", "bio", payload)
		require.NoError(t, err)

		got, ok, err := store.ReadSection("acme", "bio")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, payload, got)
	})

	t.Run("corrupt section surfaces an error", func(t *testing.T) {
		path := filepath.Join(store.RunDir("acme"), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, ok, err := store.ReadSection("acme", "broken")
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestWriteCombinedAndInput(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.WriteInput("acme", []byte(`{"company":"Acme"}`)))
	require.NoError(t, store.WriteCombined("acme", deck.ContentBundle{"bio": "text"}))

	dir := store.RunDir("acme")
	for _, name := range []string{"user_input.json", "combined_output.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestAudioRoundTrip(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.AudioPath("acme", "capability_2_create.mp3")
	assert.False(t, ok)

	path, err := store.WriteAudio("acme", "capability_2_create.mp3", []byte("mp3 bytes"))
	require.NoError(t, err)

	found, ok := store.AudioPath("acme", "capability_2_create.mp3")
	assert.True(t, ok)
	assert.Equal(t, path, found)

	data, err := os.ReadFile(found)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), data)
}

func TestEmptyPrefixUsesAnonymousRun(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, filepath.Base(store.RunDir("")), "anonymous")
}
