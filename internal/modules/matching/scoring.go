// README: Composite suitability scoring for (task, doer, history) triples.
package matching

import (
	"strings"
	"time"

	"taskhive/internal/modules/doer"
	"taskhive/internal/modules/task"
)

const (
	baseScore            = 100.0
	distancePenaltyPerKm = 2.0
	categoryMatchBonus   = 20.0
	categoryHistoryBonus = 5.0
	ratingBonusPerPoint  = 10.0
	recentTaskBonus      = 2.0
	recentTaskWindow     = 30 * 24 * time.Hour
	completionBonusPer   = 2.0
	completionBonusCeil  = 50.0
)

type scoreMode int

const (
	// modeBestMatch scores for single-winner selection.
	modeBestMatch scoreMode = iota
	// modeRecommend additionally rewards recent activity for top-K lists.
	modeRecommend
)

// scoreCandidate computes the composite suitability score. Higher is better;
// the result is floored at zero. The adjustments are applied in a fixed order
// for reproducibility even though the sum is order-independent.
func scoreCandidate(in Input, d *doer.Doer, history []task.HistoryRecord, distanceKm float64, mode scoreMode, now time.Time) float64 {
	score := baseScore

	// Linear distance penalty: closer doers preferred.
	score -= distanceKm * distancePenaltyPerKm

	// Direct skill match.
	if d.Profile.OffersCategory(in.Category) {
		score += categoryMatchBonus
	}

	// Track record in this category.
	categoryCount := 0
	for _, h := range history {
		if strings.EqualFold(h.Category, in.Category) {
			categoryCount++
		}
	}
	score += float64(categoryCount) * categoryHistoryBonus

	// Reward quality; average is 0 when unrated.
	score += d.Profile.Ratings.Average * ratingBonusPerPoint

	// Reward active doers, recommendation flavour only.
	if mode == modeRecommend {
		recent := 0
		for _, h := range history {
			if now.Sub(h.CompletedAt) <= recentTaskWindow {
				recent++
			}
		}
		score += float64(recent) * recentTaskBonus
	}

	// Reward experience, capped to avoid runaway dominance.
	completionBonus := float64(d.Profile.CompletedTasks) * completionBonusPer
	if completionBonus > completionBonusCeil {
		completionBonus = completionBonusCeil
	}
	score += completionBonus

	if score < 0 {
		return 0
	}
	return score
}
