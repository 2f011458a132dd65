// Package scoring turns submitted answers into a percentage score and the
// points a user earns for it.
package scoring

import (
	"math"

	"lpk-quiz-service/internal/domain"
)

const (
	// PointsPerCorrect is credited per correct-equivalent answer.
	PointsPerCorrect = 10
	// PerfectBonus is added only for a score of exactly 100.
	PerfectBonus = 50
)

// Result is the outcome of scoring one submission.
type Result struct {
	Score        int
	CorrectCount int
	Total        int
	// Correct is keyed by question ID.
	Correct map[string]bool
}

// Score compares every question against answers using exact equality.
// An empty question set scores 0.
func Score(answers map[string]string, questions []domain.Question) Result {
	res := Result{
		Total:   len(questions),
		Correct: make(map[string]bool, len(questions)),
	}
	for _, q := range questions {
		submitted, ok := answers[q.ID]
		correct := ok && submitted == q.CorrectAnswer
		res.Correct[q.ID] = correct
		if correct {
			res.CorrectCount++
		}
	}
	if res.Total > 0 {
		res.Score = int(math.Round(float64(res.CorrectCount) / float64(res.Total) * 100))
	}
	return res
}

// Points maps a score onto points for a quiz of total questions. It depends
// only on the score, not on which questions were answered correctly.
func Points(score, total int) int {
	if total <= 0 {
		return 0
	}
	correctEquivalent := int(math.Round(float64(score) / 100 * float64(total)))
	points := correctEquivalent * PointsPerCorrect
	if score == 100 {
		points += PerfectBonus
	}
	return points
}

// Delta returns the points earned by score over the best of prevScores.
// Previous scores are reinterpreted against the current total. The result is
// never negative, so repeating a score earns nothing.
func Delta(prevScores []int, score, total int) int {
	prevMax := 0
	for _, prev := range prevScores {
		if p := Points(prev, total); p > prevMax {
			prevMax = p
		}
	}
	awarded := Points(score, total) - prevMax
	if awarded < 0 {
		return 0
	}
	return awarded
}
