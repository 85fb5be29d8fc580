package deck

import (
	"fmt"

	apperrors "slidesmith/pkg/errors"
)

// ResolvedLayout maps slide labels to zero-based slide indices. It is derived
// once per run and immutable afterward.
type ResolvedLayout map[string]int

// ResolveLayout converts a slide map into concrete slide indices in a single
// left-to-right pass. Absolute positions are 1-based in the authoring input
// and converted here; relative positions are base index plus offset. A
// relative reference to a label that appears later (or not at all) fails —
// ordering of the slide map is part of the authoring contract, there is no
// iteration to a fixpoint.
func ResolveLayout(specs []SlideSpec) (ResolvedLayout, error) {
	layout := make(ResolvedLayout, len(specs))

	for _, spec := range specs {
		if _, dup := layout[spec.Label]; dup {
			return nil, apperrors.NewValidationError(fmt.Sprintf("duplicate slide label '%s'", spec.Label))
		}

		switch pos := spec.Position.(type) {
		case Absolute:
			if pos < 1 {
				return nil, apperrors.NewInvalidPositionError(spec.Label, fmt.Sprintf("absolute position %d must be >= 1", int(pos)))
			}
			layout[spec.Label] = int(pos) - 1
		case RelativeTo:
			base, ok := layout[pos.Base]
			if !ok {
				return nil, apperrors.NewUnresolvedReferenceError(spec.Label, pos.Base)
			}
			idx := base + pos.Offset
			if idx < 0 {
				return nil, apperrors.NewInvalidPositionError(spec.Label, fmt.Sprintf("resolved index %d is negative", idx))
			}
			layout[spec.Label] = idx
		case nil:
			return nil, apperrors.NewInvalidPositionError(spec.Label, "position missing")
		default:
			return nil, apperrors.NewInvalidPositionError(spec.Label, fmt.Sprintf("unsupported position type %T", spec.Position))
		}
	}

	return layout, nil
}
