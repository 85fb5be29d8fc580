package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidesmith/infrastructure/artifacts"
)

func newGeneratorFixture(t *testing.T, llm *stubLLM) (*GeneratorService, *artifacts.Store) {
	t.Helper()
	store := artifacts.NewStore(t.TempDir(), testLogger())
	return NewGeneratorService(llm, stubPrompts{}, store, testLogger()), store
}

func TestGenerate(t *testing.T) {
	t.Run("runs every section in order", func(t *testing.T) {
		llm := &stubLLM{fallback: `{"ok": true}`}
		svc, store := newGeneratorFixture(t, llm)

		bundle, err := svc.Generate(context.Background(), "acme", map[string]interface{}{"company": "Acme"})
		require.NoError(t, err)

		for _, section := range SectionSequence {
			assert.Contains(t, bundle, section)
		}
		require.Len(t, llm.prompts, len(SectionSequence))
		for i, section := range SectionSequence {
			assert.True(t, strings.HasPrefix(llm.prompts[i], section),
				"prompt %d should be for %s", i, section)
		}

		_, err = os.Stat(filepath.Join(store.RunDir("acme"), "combined_output.json"))
		assert.NoError(t, err)
	})

	t.Run("inline bio skips generation", func(t *testing.T) {
		llm := &stubLLM{fallback: `{"ok": true}`}
		svc, _ := newGeneratorFixture(t, llm)

		bundle, err := svc.Generate(context.Background(), "acme", map[string]interface{}{
			"bio": "hand-written bio",
		})
		require.NoError(t, err)

		assert.Equal(t, "hand-written bio", bundle["bio"])
		assert.Len(t, llm.prompts, len(SectionSequence)-1)
		for _, prompt := range llm.prompts {
			assert.False(t, strings.HasPrefix(prompt, "bio "), "bio must not be generated")
		}
	})

	t.Run("strips code fences", func(t *testing.T) {
		llm := &stubLLM{fallback: fencedJSON(`{"name": "Jericca"}`)}
		svc, _ := newGeneratorFixture(t, llm)

		bundle, err := svc.Generate(context.Background(), "acme", map[string]interface{}{"x": "y"})
		require.NoError(t, err)

		rec, ok := bundle["fictional_profile"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "Jericca", rec["name"])
	})

	t.Run("invalid completion degrades to cleaned text", func(t *testing.T) {
		llm := &stubLLM{fallback: fencedJSON("this is prose, not JSON")}
		svc, _ := newGeneratorFixture(t, llm)

		bundle, err := svc.Generate(context.Background(), "acme", map[string]interface{}{"x": "y"})
		require.NoError(t, err)
		assert.Equal(t, "this is prose, not JSON", bundle["bio"])
	})

	t.Run("capability model is injected into every prompt", func(t *testing.T) {
		llm := &stubLLM{fallback: `{"ok": true}`}
		store := artifacts.NewStore(t.TempDir(), testLogger())
		svc := NewGeneratorService(llm, stubPrompts{model: "seven capabilities"}, store, testLogger())

		_, err := svc.Generate(context.Background(), "acme", map[string]interface{}{"x": "y"})
		require.NoError(t, err)

		require.NotEmpty(t, llm.prompts)
		for _, prompt := range llm.prompts {
			assert.Contains(t, prompt, "model=seven capabilities")
		}
	})

	t.Run("cached sections skip the model on a re-run", func(t *testing.T) {
		llm := &stubLLM{fallback: `{"ok": true}`}
		svc, _ := newGeneratorFixture(t, llm)
		input := map[string]interface{}{"company": "Acme"}

		first, err := svc.Generate(context.Background(), "acme", input)
		require.NoError(t, err)
		require.Len(t, llm.prompts, len(SectionSequence))

		second, err := svc.Generate(context.Background(), "acme", input)
		require.NoError(t, err)
		assert.Len(t, llm.prompts, len(SectionSequence), "re-run must not call the model")
		assert.Equal(t, first, second)
	})

	t.Run("bio generation failure aborts the run", func(t *testing.T) {
		llm := &stubLLM{err: errors.New("rate limited")}
		svc, _ := newGeneratorFixture(t, llm)

		_, err := svc.Generate(context.Background(), "acme", map[string]interface{}{"x": "y"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"bio"`)
	})

	t.Run("later section failure leaves the section out and continues", func(t *testing.T) {
		llm := &stubLLM{err: errors.New("rate limited")}
		svc, _ := newGeneratorFixture(t, llm)

		bundle, err := svc.Generate(context.Background(), "acme", map[string]interface{}{
			"bio": "hand-written bio",
		})
		require.NoError(t, err)

		assert.Equal(t, "hand-written bio", bundle["bio"])
		for _, section := range SectionSequence[1:] {
			assert.NotContains(t, bundle, section)
		}
		// Every non-bio section was still attempted.
		assert.Len(t, llm.prompts, len(SectionSequence)-1)
	})

	t.Run("earlier sections feed later prompts", func(t *testing.T) {
		llm := &stubLLM{responses: map[string]string{
			"bio prompt": `{"headline": "the bio"}`,
		}, fallback: `{"ok": true}`}
		svc, _ := newGeneratorFixture(t, llm)

		_, err := svc.Generate(context.Background(), "acme", map[string]interface{}{"x": "y"})
		require.NoError(t, err)

		// The second prompt embeds the rendered bio section.
		require.Greater(t, len(llm.prompts), 1)
		assert.Contains(t, llm.prompts[1], `{"headline":"the bio"}`)
	})

	t.Run("cancelled context stops the pipeline", func(t *testing.T) {
		llm := &stubLLM{fallback: `{"ok": true}`}
		svc, _ := newGeneratorFixture(t, llm)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Generate(ctx, "acme", map[string]interface{}{"x": "y"})
		require.Error(t, err)
		assert.Empty(t, llm.prompts)
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  \n```json\n{\"a\":1}\n```\n  "))
}
