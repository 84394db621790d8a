package domain

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"
)

// PriorityWeights controls how the four priority factors combine into the
// composite score. weights are expected to sum to 1.0 but caller-supplied
// sets are used as-is, never renormalized.
type PriorityWeights struct {
	Capacity   float64
	Likelihood float64
	Timing     float64
	Recency    float64
}

// WeightSumTolerance is how far a weight set may drift from 1.0.
const WeightSumTolerance = 0.01

var ErrWeightsUnbalanced = errors.New("weights must sum to 1.0")

// DefaultPriorityWeights returns the standard weight set.
// returned by value so callers cannot mutate shared configuration.
func DefaultPriorityWeights() PriorityWeights {
	return PriorityWeights{
		Capacity:   0.30,
		Likelihood: 0.30,
		Timing:     0.15,
		Recency:    0.25,
	}
}

// Sum returns the total of all weights.
func (w PriorityWeights) Sum() float64 {
	return w.Capacity + w.Likelihood + w.Timing + w.Recency
}

// Validate checks the weight-sum invariant.
func (w PriorityWeights) Validate() error {
	if math.Abs(w.Sum()-1.0) > WeightSumTolerance {
		return ErrWeightsUnbalanced
	}
	return nil
}

// RecommendedAction is the suggested next move for an officer.
type RecommendedAction struct {
	Action string
	Reason string
}

// CompositeScore is the output of the priority and lapse risk scorers:
// one normalized score, a confidence estimate, and the per-dimension
// factors that explain it.
type CompositeScore struct {
	Score             Score
	Confidence        float64
	Factors           []Factor
	RecommendedAction *RecommendedAction
}

// PriorityInput contains everything the priority scorer needs.
// all data is provided upfront - no side effects or time acquisition inside.
type PriorityInput struct {
	Capacity  CapacityInput
	LapseRisk LikelihoodInput
	Timing    TimingInput
	Gifts     []Gift
	Contacts  []Contact

	// ReferenceDate is the explicit "now" for every age calculation.
	ReferenceDate time.Time

	// Weights overrides DefaultPriorityWeights when set.
	Weights *PriorityWeights
}

// recentContactWindowDays bounds what counts as "recently contacted" for
// the recommended action decision table.
const recentContactWindowDays = 90

// CalculatePriorityScore combines the four priority factors into one
// composite fundraising priority score. this is a pure function of its
// input plus the reference date.
func CalculatePriorityScore(in PriorityInput) CompositeScore {
	weights := DefaultPriorityWeights()
	if in.Weights != nil {
		weights = *in.Weights
	}

	capacity := CalculateCapacityScore(in.Capacity)
	likelihood := CalculateLikelihoodScore(in.LapseRisk)
	timing := CalculateTimingScore(in.Timing, in.ReferenceDate)
	recency := CalculateEngagementRecency(in.Gifts, in.Contacts, in.ReferenceDate)

	score := capacity.Score.Value()*weights.Capacity +
		likelihood.Score.Value()*weights.Likelihood +
		timing.Score.Value()*weights.Timing +
		recency.Score.Value()*weights.Recency

	composite := NewScore(score)

	return CompositeScore{
		Score:             composite,
		Confidence:        priorityConfidence(in),
		Factors:           []Factor{capacity, likelihood, timing, recency},
		RecommendedAction: recommendAction(in, composite),
	}
}

// priorityConfidence estimates how much the composite score can be
// trusted. known capacity, a confident lapse risk score, and a deeper
// gift/contact history all raise it; an unscreened constituent with no
// history sits at the 0.3 baseline.
func priorityConfidence(in PriorityInput) float64 {
	confidence := 0.3

	if in.Capacity.Estimated != nil {
		confidence += 0.2
	}
	if in.LapseRisk.LapseRisk != nil {
		confidence += 0.1
		if in.LapseRisk.LapseRiskConfidence != nil {
			confidence += 0.1 * *in.LapseRisk.LapseRiskConfidence
		}
	}

	giftDepth := float64(len(in.Gifts))
	if giftDepth > 10 {
		giftDepth = 10
	}
	confidence += 0.2 * giftDepth / 10

	contactDepth := float64(len(in.Contacts))
	if contactDepth > 5 {
		contactDepth = 5
	}
	confidence += 0.1 * contactDepth / 5

	return NewScore(confidence).Value()
}

// recommendAction runs the next-action decision table over lapse risk,
// recent contact presence, and the composite score. rules are ordered by
// urgency; the first match wins.
func recommendAction(in PriorityInput, score Score) *RecommendedAction {
	contactedRecently := false
	if last := MostRecentContact(in.Contacts); last != nil {
		contactedRecently = DaysBetween(last.Date, in.ReferenceDate) <= recentContactWindowDays
	}

	switch {
	case in.LapseRisk.LapseRisk != nil && *in.LapseRisk.LapseRisk >= 0.7:
		return &RecommendedAction{
			Action: "re_engagement_outreach",
			Reason: "High lapse risk, a personal touch is needed to retain this donor",
		}
	case !contactedRecently && score.Value() >= 0.6:
		return &RecommendedAction{
			Action: "schedule_meeting",
			Reason: "High priority constituent with no recent contact",
		}
	case score.Value() >= 0.8:
		return &RecommendedAction{
			Action: "prepare_proposal",
			Reason: "Top priority constituent ready for a solicitation conversation",
		}
	default:
		return &RecommendedAction{
			Action: "continue_stewardship",
			Reason: "No urgent signal, maintain the current stewardship cadence",
		}
	}
}

// PriorityBatchItem pairs a constituent id with its scoring input.
type PriorityBatchItem struct {
	ID    ConstituentID
	Input PriorityInput
}

// PriorityBatchResult pairs a constituent id with its composite score.
type PriorityBatchResult struct {
	ID     ConstituentID
	Result CompositeScore
}

// maxBatchWorkers bounds the fan-out of batch scoring.
const maxBatchWorkers = 8

// CalculateBatchPriorityScores scores every item using the shared
// reference date and returns results sorted descending by score. scoring
// is fanned out across workers; only the final sorted order is
// observable, so completion order never leaks into the result. ties break
// on constituent id to keep the ordering deterministic.
func CalculateBatchPriorityScores(items []PriorityBatchItem, referenceDate time.Time) []PriorityBatchResult {
	results := make([]PriorityBatchResult, len(items))
	if len(items) == 0 {
		return results
	}

	workers := maxBatchWorkers
	if len(items) < workers {
		workers = len(items)
	}

	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				input := items[i].Input
				input.ReferenceDate = referenceDate
				results[i] = PriorityBatchResult{
					ID:     items[i].ID,
					Result: CalculatePriorityScore(input),
				}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Result.Score.Value() != results[j].Result.Score.Value() {
			return results[i].Result.Score.Value() > results[j].Result.Score.Value()
		}
		return results[i].ID.String() < results[j].ID.String()
	})

	return results
}
