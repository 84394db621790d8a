package domain

import (
	"math"
	"sort"
	"sync"
	"time"
)

// LapseWeights controls how the four lapse factors combine into the
// composite risk score. same contract as PriorityWeights: expected to sum
// to 1.0, caller-supplied sets used as-is.
type LapseWeights struct {
	Recency   float64
	Frequency float64
	Monetary  float64
	Contact   float64
}

// DefaultLapseWeights returns the standard weight set.
// returned by value so callers cannot mutate shared configuration.
func DefaultLapseWeights() LapseWeights {
	return LapseWeights{
		Recency:   0.35,
		Frequency: 0.25,
		Monetary:  0.20,
		Contact:   0.20,
	}
}

// Sum returns the total of all weights.
func (w LapseWeights) Sum() float64 {
	return w.Recency + w.Frequency + w.Monetary + w.Contact
}

// Validate checks the weight-sum invariant.
func (w LapseWeights) Validate() error {
	if math.Abs(w.Sum()-1.0) > WeightSumTolerance {
		return ErrWeightsUnbalanced
	}
	return nil
}

// LapseInput contains everything the lapse risk scorer needs.
type LapseInput struct {
	Gifts    []Gift
	Contacts []Contact

	// ReferenceDate is the explicit "now" for every age calculation.
	ReferenceDate time.Time

	// Weights overrides DefaultLapseWeights when set.
	Weights *LapseWeights
}

// LapseRiskResult is the composite lapse risk with its tier and the
// predicted window in which the donor is expected to lapse.
type LapseRiskResult struct {
	CompositeScore
	Tier RiskTier

	// PredictedWindow is a textual lapse estimate, empty for low risk.
	PredictedWindow string
}

// CalculateLapseRisk combines the four lapse factors into one composite
// risk score with the same explainability contract as the priority
// scorer. pure function of its input plus the reference date.
func CalculateLapseRisk(in LapseInput) LapseRiskResult {
	weights := DefaultLapseWeights()
	if in.Weights != nil {
		weights = *in.Weights
	}

	recency := CalculateLapseRecency(in.Gifts, in.ReferenceDate)
	frequency := CalculateLapseFrequency(in.Gifts, in.ReferenceDate)
	monetary := CalculateLapseMonetary(in.Gifts, in.ReferenceDate)
	contact := CalculateLapseContact(in.Contacts, in.ReferenceDate)

	score := recency.Factor.Score.Value()*weights.Recency +
		frequency.Factor.Score.Value()*weights.Frequency +
		monetary.Factor.Score.Value()*weights.Monetary +
		contact.Factor.Score.Value()*weights.Contact

	composite := NewScore(score)
	tier := RiskTierForScore(composite)

	// the dominant factor is the one contributing most weighted risk
	recencyDominant := recency.Factor.Score.Value()*weights.Recency >=
		math.Max(frequency.Factor.Score.Value()*weights.Frequency,
			math.Max(monetary.Factor.Score.Value()*weights.Monetary,
				contact.Factor.Score.Value()*weights.Contact))

	return LapseRiskResult{
		CompositeScore: CompositeScore{
			Score:      composite,
			Confidence: lapseConfidence(in),
			Factors:    []Factor{recency.Factor, frequency.Factor, monetary.Factor, contact.Factor},
		},
		Tier:            tier,
		PredictedWindow: predictLapseWindow(tier, recencyDominant),
	}
}

// lapseConfidence grows with the depth of gift and contact history; a
// constituent with no history at all sits at the 0.3 baseline.
func lapseConfidence(in LapseInput) float64 {
	confidence := 0.3

	giftDepth := float64(len(in.Gifts))
	if giftDepth > 10 {
		giftDepth = 10
	}
	confidence += 0.5 * giftDepth / 10

	contactDepth := float64(len(in.Contacts))
	if contactDepth > 5 {
		contactDepth = 5
	}
	confidence += 0.2 * contactDepth / 5

	return NewScore(confidence).Value()
}

// predictLapseWindow estimates when the donor is likely to lapse. a high
// risk driven by fast-decaying recency means the window is short.
func predictLapseWindow(tier RiskTier, recencyDominant bool) string {
	switch tier {
	case RiskTierHigh:
		if recencyDominant {
			return "within 6 months"
		}
		return "within 12 months"
	case RiskTierMedium:
		return "within 18 months"
	default:
		return ""
	}
}

// LapseBatchItem pairs a constituent id with its lapse scoring input.
type LapseBatchItem struct {
	ID    ConstituentID
	Input LapseInput
}

// LapseBatchResult pairs a constituent id with its lapse risk result.
type LapseBatchResult struct {
	ID     ConstituentID
	Result LapseRiskResult
}

// CalculateBatchLapseRisk scores every item using the shared reference
// date and returns results sorted descending by risk score, mirroring the
// priority batch contract. ties break on constituent id.
func CalculateBatchLapseRisk(items []LapseBatchItem, referenceDate time.Time) []LapseBatchResult {
	results := make([]LapseBatchResult, len(items))
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
				results[i] = LapseBatchResult{
					ID:     items[i].ID,
					Result: CalculateLapseRisk(input),
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
