package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "slidesmith/pkg/errors"
)

func TestResolveLayout(t *testing.T) {
	t.Run("absolute and relative positions", func(t *testing.T) {
		specs := []SlideSpec{
			{Label: "a", Position: Absolute(1)},
			{Label: "b", Position: RelativeTo{Base: "a", Offset: 2}},
			{Label: "c", Position: RelativeTo{Base: "b", Offset: 2}},
		}

		layout, err := ResolveLayout(specs)
		require.NoError(t, err)
		assert.Equal(t, ResolvedLayout{"a": 0, "b": 2, "c": 4}, layout)
	})

	t.Run("forward reference fails", func(t *testing.T) {
		specs := []SlideSpec{
			{Label: "a", Position: RelativeTo{Base: "b", Offset: 1}},
			{Label: "b", Position: Absolute(1)},
		}

		_, err := ResolveLayout(specs)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnresolvedReference(err))
	})

	t.Run("duplicate label fails", func(t *testing.T) {
		specs := []SlideSpec{
			{Label: "a", Position: Absolute(1)},
			{Label: "a", Position: Absolute(2)},
		}

		_, err := ResolveLayout(specs)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("absolute position below one fails", func(t *testing.T) {
		_, err := ResolveLayout([]SlideSpec{{Label: "a", Position: Absolute(0)}})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPosition))
	})

	t.Run("negative resolved index fails", func(t *testing.T) {
		specs := []SlideSpec{
			{Label: "a", Position: Absolute(1)},
			{Label: "b", Position: RelativeTo{Base: "a", Offset: -3}},
		}

		_, err := ResolveLayout(specs)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPosition))
	})

	t.Run("missing position fails", func(t *testing.T) {
		_, err := ResolveLayout([]SlideSpec{{Label: "a"}})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidPosition))
	})

	t.Run("default slide map resolves cleanly", func(t *testing.T) {
		layout, err := ResolveLayout(DefaultSlideMap())
		require.NoError(t, err)

		assert.Equal(t, 2, layout["fictional_profile"])
		assert.Equal(t, 4, layout["capability_inform"])
		assert.Equal(t, 5, layout["capability_scenario_inform"])
		assert.Equal(t, 6, layout["capability_create"])
		assert.Equal(t, 16, layout["capability_explore"])
		assert.Equal(t, 17, layout["capability_scenario_explore"])
		assert.Len(t, layout, 15)
	})
}
