// Package quality computes an advisory confidence score for an
// extraction pass. The score quantifies trust; it never blocks
// persistence.
package quality

import (
	"strings"

	"github.com/homeroomhq/homeroom/internal/ai"
)

const (
	base             = 0.5
	confidenceWeight = 0.3
	fieldBonus       = 0.05
	maxFieldBonus    = 0.20
	inferredPenalty  = 0.1
	inferredShareCap = 0.7
)

// Score returns a bounded [0,1] heuristic confidence for the result.
func Score(result *ai.ExtractionResult) float64 {
	if result == nil {
		return clamp(base)
	}

	score := base + AverageConfidence(result)*confidenceWeight

	bonus := 0.0
	for _, field := range []string{
		result.HumanAnalysis.Summary,
		result.HumanAnalysis.Tone,
		result.HumanAnalysis.Intent,
		result.HumanAnalysis.ImplicitContext,
	} {
		if strings.TrimSpace(field) != "" {
			bonus += fieldBonus
		}
	}
	if bonus > maxFieldBonus {
		bonus = maxFieldBonus
	}
	score += bonus

	total, inferred := itemCounts(result)
	if total > 0 && float64(inferred)/float64(total) > inferredShareCap {
		score -= inferredPenalty
	}

	return clamp(score)
}

// AverageConfidence returns the mean confidence across all extracted
// items, or 0 when there are none.
func AverageConfidence(result *ai.ExtractionResult) float64 {
	if result == nil {
		return 0
	}
	sum := 0.0
	n := 0
	for _, e := range result.Events {
		sum += e.Confidence
		n++
	}
	for _, td := range result.Todos {
		sum += td.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func itemCounts(result *ai.ExtractionResult) (total, inferred int) {
	for _, e := range result.Events {
		total++
		if e.Inferred {
			inferred++
		}
	}
	for _, td := range result.Todos {
		total++
		if td.Inferred {
			inferred++
		}
	}
	return total, inferred
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
