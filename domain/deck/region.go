package deck

import (
	"math"
	"sort"
)

// rowBucket is the coarse row granularity used to approximate reading order.
// Regions whose top coordinates round to the same bucket are treated as one
// visual row and ordered left to right.
const rowBucket = 10.0

// PlaceholderRegion is one editable text area on a slide, identified and
// positioned independently of element-creation order.
type PlaceholderRegion struct {
	ID   string
	Text string
	Top  float64
	Left float64
}

// SortRegions orders regions into approximate reading order: primary key is
// the top coordinate rounded to a coarse row bucket, secondary key is the
// left coordinate ascending. The sort is stable so equal coordinates keep
// their fetch order.
func SortRegions(regions []PlaceholderRegion) {
	sort.SliceStable(regions, func(i, j int) bool {
		ri, rj := rowOf(regions[i].Top), rowOf(regions[j].Top)
		if ri != rj {
			return ri < rj
		}
		return regions[i].Left < regions[j].Left
	})
}

func rowOf(top float64) float64 {
	return math.Round(top/rowBucket) * rowBucket
}
