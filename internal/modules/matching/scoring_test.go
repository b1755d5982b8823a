// README: Scoring model tests: floor, bonuses, worked scenario.
package matching

import (
	"math"
	"testing"
	"time"

	"taskhive/internal/modules/doer"
	"taskhive/internal/modules/task"
	"taskhive/internal/types"
)

var scoringNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func cleaningInput() Input {
	return Input{
		TaskID:      "t1",
		Category:    "cleaning",
		Location:    types.Point{Lat: 0, Lng: 0},
		ScheduledAt: scoringNow,
	}
}

func cleaningDoer(rating float64, completed int) *doer.Doer {
	return &doer.Doer{
		ID: "d1",
		Profile: doer.Profile{
			CurrentLocation: types.Point{Lat: 0, Lng: 0.01},
			Services:        []doer.ServiceOffering{{Category: "Cleaning"}},
			Ratings:         doer.Ratings{Average: rating},
			CompletedTasks:  completed,
		},
	}
}

func TestScoreNeverNegative(t *testing.T) {
	d := &doer.Doer{ID: "far", Profile: doer.Profile{}}
	// 20000 km of distance penalty dwarfs every possible bonus.
	got := scoreCandidate(cleaningInput(), d, nil, 20000, modeBestMatch, scoringNow)
	if got != 0 {
		t.Fatalf("score = %v, want floor of 0", got)
	}
}

func TestScoreWorkedScenario(t *testing.T) {
	// Doer ~1.1 km away, matching category, rating 4.5, 10 completed tasks:
	// 100 - 2*1.1 + 20 + 45 + min(20, 50) = 182.8 give or take formula variance.
	d := cleaningDoer(4.5, 10)
	dist := haversineKm(0, 0, 0, 0.01)
	got := scoreCandidate(cleaningInput(), d, nil, dist, modeBestMatch, scoringNow)
	if math.Abs(got-182.8) > 0.5 {
		t.Fatalf("score = %v, want about 182.8", got)
	}
}

func TestScoreCategoryHistoryBonus(t *testing.T) {
	d := cleaningDoer(0, 0)
	history := []task.HistoryRecord{
		{Category: "CLEANING", CompletedAt: scoringNow.Add(-90 * 24 * time.Hour)},
		{Category: "cleaning", CompletedAt: scoringNow.Add(-60 * 24 * time.Hour)},
		{Category: "plumbing", CompletedAt: scoringNow.Add(-10 * 24 * time.Hour)},
	}
	dist := 0.0
	base := scoreCandidate(cleaningInput(), d, nil, dist, modeBestMatch, scoringNow)
	got := scoreCandidate(cleaningInput(), d, history, dist, modeBestMatch, scoringNow)
	// Two case-insensitive category matches at +5 each.
	if want := base + 10; math.Abs(got-want) > 1e-9 {
		t.Fatalf("score with history = %v, want %v", got, want)
	}
}

func TestScoreRecencyBonusOnlyInRecommendMode(t *testing.T) {
	d := cleaningDoer(0, 0)
	history := []task.HistoryRecord{
		{Category: "plumbing", CompletedAt: scoringNow.Add(-5 * 24 * time.Hour)},
		{Category: "plumbing", CompletedAt: scoringNow.Add(-29 * 24 * time.Hour)},
		{Category: "plumbing", CompletedAt: scoringNow.Add(-45 * 24 * time.Hour)},
	}
	best := scoreCandidate(cleaningInput(), d, history, 0, modeBestMatch, scoringNow)
	rec := scoreCandidate(cleaningInput(), d, history, 0, modeRecommend, scoringNow)
	// Two entries inside the 30-day window at +2 each.
	if want := best + 4; math.Abs(rec-want) > 1e-9 {
		t.Fatalf("recommend score = %v, want %v (best %v)", rec, want, best)
	}
}

func TestScoreCompletionBonusCapped(t *testing.T) {
	few := cleaningDoer(0, 10)
	many := cleaningDoer(0, 1000)
	fewScore := scoreCandidate(cleaningInput(), few, nil, 0, modeBestMatch, scoringNow)
	manyScore := scoreCandidate(cleaningInput(), many, nil, 0, modeBestMatch, scoringNow)
	if want := fewScore + 30; math.Abs(manyScore-want) > 1e-9 {
		t.Fatalf("capped bonus: got %v, want %v (10 tasks -> +20, cap -> +50)", manyScore, want)
	}
}

func TestScoreUnratedDoerGetsNoRatingBonus(t *testing.T) {
	unrated := cleaningDoer(0, 0)
	rated := cleaningDoer(5, 0)
	u := scoreCandidate(cleaningInput(), unrated, nil, 0, modeBestMatch, scoringNow)
	r := scoreCandidate(cleaningInput(), rated, nil, 0, modeBestMatch, scoringNow)
	if want := u + 50; math.Abs(r-want) > 1e-9 {
		t.Fatalf("rating bonus: got %v, want %v", r, want)
	}
}
