package orchestrator

import (
	"math"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
)

// pageCountEstimate is the worst-case page-count heuristic the worker feeds
// into calcTimeout when it has no cheaper way to probe the file. A real
// implementation should estimate this from the file itself; this is left as
// a placeholder per the open question it's specified to carry.
const pageCountEstimate = 100

// calcTimeout implements round((base + pageCount*perPage) * tier multiplier)
// with unknown tier strings folding to a multiplier of 1.0.
func calcTimeout(pageCount int, tier domain.Tier, baseSeconds, perPageSeconds int) int {
	raw := (float64(baseSeconds) + float64(pageCount)*float64(perPageSeconds)) * tier.Multiplier()
	return int(math.Round(raw))
}
