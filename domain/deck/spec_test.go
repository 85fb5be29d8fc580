package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "slidesmith/pkg/errors"
)

func TestParseRelative(t *testing.T) {
	t.Run("valid expression", func(t *testing.T) {
		pos, err := ParseRelative("b", "capability_inform + 2")
		require.NoError(t, err)
		assert.Equal(t, RelativeTo{Base: "capability_inform", Offset: 2}, pos)
	})

	t.Run("negative offset", func(t *testing.T) {
		pos, err := ParseRelative("b", "a + -1")
		require.NoError(t, err)
		assert.Equal(t, RelativeTo{Base: "a", Offset: -1}, pos)
	})

	t.Run("missing plus", func(t *testing.T) {
		_, err := ParseRelative("b", "just_a_label")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPosition))
	})

	t.Run("non-integer offset", func(t *testing.T) {
		_, err := ParseRelative("b", "a + two")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPosition))
	})
}

func TestLoadSlideMap(t *testing.T) {
	writeMap := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "slide_map.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("round trip", func(t *testing.T) {
		path := writeMap(t, `
- label: profile
  position: 3
  source:
    section: fictional_profile
  field_map:
    0: narrative
    1: name
- label: capability_create
  position: profile + 2
  add_audio: true
  source:
    collection: capability_use_cases
    match:
      capability: Create & Edit
  field_map:
    1: name
`)

		specs, err := LoadSlideMap(path)
		require.NoError(t, err)
		require.Len(t, specs, 2)

		assert.Equal(t, "profile", specs[0].Label)
		assert.Equal(t, Absolute(3), specs[0].Position)
		assert.Equal(t, "fictional_profile", specs[0].Source.Section)
		assert.Equal(t, "narrative", specs[0].FieldMap[0])

		assert.Equal(t, RelativeTo{Base: "profile", Offset: 2}, specs[1].Position)
		assert.True(t, specs[1].AddAudio)
		assert.Equal(t, "Create & Edit", specs[1].Source.Match["capability"])
	})

	t.Run("missing label fails", func(t *testing.T) {
		path := writeMap(t, `
- position: 3
`)
		_, err := LoadSlideMap(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("bad position fails", func(t *testing.T) {
		path := writeMap(t, `
- label: a
  position: 0
`)
		_, err := LoadSlideMap(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPosition))
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadSlideMap(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
