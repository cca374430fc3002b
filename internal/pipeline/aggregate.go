package pipeline

import (
	"strings"

	"textscope/internal/ocr"
)

// Aggregate joins the top candidate of each observation with newlines.
// Observations without candidates contribute nothing.
func Aggregate(observations []ocr.Observation) string {
	lines := make([]string, 0, len(observations))
	for _, o := range observations {
		top := o.TopCandidates(1)
		if len(top) == 0 {
			continue
		}
		lines = append(lines, top[0].Text)
	}
	return strings.Join(lines, "\n")
}
