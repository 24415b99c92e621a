package ocr

import (
	"sort"

	"github.com/dooshek/textgrab/internal/types"
)

// Filter keeps detections with confidence >= threshold and orders them
// top-to-bottom then left-to-right by polygon top-left. Equal positions keep
// their input order. Nothing is merged or rewritten, so filtering the output
// again with the same threshold returns it unchanged.
func Filter(raw []types.RawDetection, threshold float64) []types.TextRegion {
	regions := make([]types.TextRegion, 0, len(raw))
	for _, d := range raw {
		if d.Confidence < threshold {
			continue
		}
		regions = append(regions, types.TextRegion{
			Text:       d.Text,
			Polygon:    d.Polygon,
			Confidence: d.Confidence,
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Polygon.TopLeft(), regions[j].Polygon.TopLeft()
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return regions
}
