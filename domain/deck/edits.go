package deck

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// EditOp is one mutation against a placeholder region. A replacement is
// always a ClearRegion followed by an InsertText when the region currently
// holds text, and an InsertText alone when it is empty.
type EditOp interface {
	isEditOp()
	RegionID() string
}

// ClearRegion deletes all text in a region.
type ClearRegion struct {
	ID string
}

func (ClearRegion) isEditOp()          {}
func (c ClearRegion) RegionID() string { return c.ID }

// InsertText inserts text at index 0 of a region.
type InsertText struct {
	ID   string
	Text string
}

func (InsertText) isEditOp()          {}
func (i InsertText) RegionID() string { return i.ID }

// ComputeEdits walks a slide's field map against its visually sorted regions
// and returns the minimal edit set that brings each mapped region to its
// desired text. The caller applies the returned ops as one atomic batch.
//
// Skips are deliberate policy, not errors:
//   - an index past the available region count is logged and skipped
//     (layouts may have fewer placeholders than expected on some slides);
//   - an empty or absent record value preserves the existing text — missing
//     data must never blank a slide;
//   - a region already holding exactly the desired text produces no ops, so
//     repeated runs over identical data converge to an empty edit set.
func ComputeEdits(fieldMap map[int]string, regions []PlaceholderRegion, rec Record, logger *zap.Logger) []EditOp {
	indices := make([]int, 0, len(fieldMap))
	for idx := range fieldMap {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var ops []EditOp
	for _, idx := range indices {
		field := fieldMap[idx]
		if idx >= len(regions) {
			logger.Warn("no placeholder region for mapped index",
				zap.Int("index", idx),
				zap.String("field", field),
				zap.Int("regions", len(regions)),
			)
			continue
		}

		newText := rec.Field(field)
		if newText == "" {
			continue
		}

		region := regions[idx]
		oldText := strings.TrimSpace(region.Text)
		if oldText == newText {
			continue
		}
		if oldText != "" {
			ops = append(ops, ClearRegion{ID: region.ID})
		}
		ops = append(ops, InsertText{ID: region.ID, Text: newText})
	}
	return ops
}
