package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestPriorityWeights_Validate(t *testing.T) {
	if err := DefaultPriorityWeights().Validate(); err != nil {
		t.Errorf("default weights must validate, got %v", err)
	}

	if sum := DefaultPriorityWeights().Sum(); math.Abs(sum-1.0) > WeightSumTolerance {
		t.Errorf("default weights must sum to 1.0, got %f", sum)
	}

	unbalanced := PriorityWeights{Capacity: 0.5, Likelihood: 0.2, Timing: 0.1, Recency: 0.1}
	if err := unbalanced.Validate(); !errors.Is(err, ErrWeightsUnbalanced) {
		t.Errorf("expected ErrWeightsUnbalanced, got %v", err)
	}

	// drift inside the tolerance is accepted
	nearOne := PriorityWeights{Capacity: 0.3, Likelihood: 0.3, Timing: 0.15, Recency: 0.255}
	if err := nearOne.Validate(); err != nil {
		t.Errorf("weights within tolerance must validate, got %v", err)
	}
}

func TestCalculatePriorityScore_FactorContract(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	result := CalculatePriorityScore(PriorityInput{
		Capacity:      CapacityInput{Estimated: floatPtr(300_000)},
		LapseRisk:     LikelihoodInput{LapseRisk: floatPtr(0.2)},
		Gifts:         []Gift{{Amount: 500, Date: ref.AddDate(0, -2, 0)}},
		Contacts:      []Contact{{Date: ref.AddDate(0, -1, 0), Type: ContactMeeting}},
		ReferenceDate: ref,
	})

	wantOrder := []string{FactorCapacity, FactorLikelihood, FactorTiming, FactorRecency}
	if len(result.Factors) != len(wantOrder) {
		t.Fatalf("expected %d factors, got %d", len(wantOrder), len(result.Factors))
	}
	for i, name := range wantOrder {
		if result.Factors[i].Name != name {
			t.Errorf("factor %d: expected %s, got %s", i, name, result.Factors[i].Name)
		}
	}

	// the composite must be exactly the weighted sum of its own factors
	w := DefaultPriorityWeights()
	want := result.Factors[0].Score.Value()*w.Capacity +
		result.Factors[1].Score.Value()*w.Likelihood +
		result.Factors[2].Score.Value()*w.Timing +
		result.Factors[3].Score.Value()*w.Recency
	if math.Abs(result.Score.Value()-want) > 0.0001 {
		t.Errorf("composite %f does not match weighted factor sum %f", result.Score.Value(), want)
	}
}

func TestCalculatePriorityScore_CustomWeights(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	weights := PriorityWeights{Capacity: 1.0}

	result := CalculatePriorityScore(PriorityInput{
		Capacity:      CapacityInput{Estimated: floatPtr(2_000_000)},
		ReferenceDate: ref,
		Weights:       &weights,
	})

	// all weight on capacity, so the composite is the capacity score
	if result.Score.Value() != 1.0 {
		t.Errorf("expected composite 1.0 under capacity-only weights, got %f", result.Score.Value())
	}
}

func TestPriorityConfidence(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sparse := CalculatePriorityScore(PriorityInput{ReferenceDate: ref})
	if math.Abs(sparse.Confidence-0.3) > 0.0001 {
		t.Errorf("expected baseline confidence 0.3 with no data, got %f", sparse.Confidence)
	}

	var gifts []Gift
	for i := 0; i < 12; i++ {
		gifts = append(gifts, Gift{Amount: 100, Date: ref.AddDate(0, -i, 0)})
	}
	var contacts []Contact
	for i := 0; i < 6; i++ {
		contacts = append(contacts, Contact{Date: ref.AddDate(0, -i, 0), Type: ContactCall})
	}

	rich := CalculatePriorityScore(PriorityInput{
		Capacity:      CapacityInput{Estimated: floatPtr(500_000)},
		LapseRisk:     LikelihoodInput{LapseRisk: floatPtr(0.2), LapseRiskConfidence: floatPtr(1.0)},
		Gifts:         gifts,
		Contacts:      contacts,
		ReferenceDate: ref,
	})

	if rich.Confidence <= sparse.Confidence {
		t.Errorf("deep history must raise confidence: rich %f, sparse %f", rich.Confidence, sparse.Confidence)
	}
	if math.Abs(rich.Confidence-1.0) > 0.0001 {
		t.Errorf("fully known input should reach confidence 1.0, got %f", rich.Confidence)
	}
}

func TestRecommendedAction(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		input      PriorityInput
		wantAction string
	}{
		{
			name: "high_lapse_risk_wins",
			input: PriorityInput{
				Capacity:  CapacityInput{Estimated: floatPtr(2_000_000)},
				LapseRisk: LikelihoodInput{LapseRisk: floatPtr(0.8)},
				Contacts:  []Contact{{Date: ref.AddDate(0, 0, -10), Type: ContactMeeting}},
			},
			wantAction: "re_engagement_outreach",
		},
		{
			name: "high_priority_no_recent_contact",
			input: PriorityInput{
				Capacity:  CapacityInput{Estimated: floatPtr(2_000_000)},
				LapseRisk: LikelihoodInput{LapseRisk: floatPtr(0.1)},
			},
			wantAction: "schedule_meeting",
		},
		{
			name: "top_priority_recently_contacted",
			input: PriorityInput{
				Capacity:  CapacityInput{Estimated: floatPtr(2_000_000)},
				LapseRisk: LikelihoodInput{LapseRisk: floatPtr(0.05)},
				Timing:    TimingInput{Campaigns: []string{"Annual Fund"}},
				Gifts:     []Gift{{Amount: 1000, Date: ref.AddDate(0, 0, -10)}},
				Contacts:  []Contact{{Date: ref.AddDate(0, 0, -10), Type: ContactMeeting}},
			},
			wantAction: "prepare_proposal",
		},
		{
			name: "modest_prospect_stays_in_stewardship",
			input: PriorityInput{
				Gifts: []Gift{{Amount: 50, Date: ref.AddDate(0, 0, -400)}},
			},
			wantAction: "continue_stewardship",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.ReferenceDate = ref
			result := CalculatePriorityScore(tt.input)

			if result.RecommendedAction == nil {
				t.Fatal("expected a recommended action")
			}
			if result.RecommendedAction.Action != tt.wantAction {
				t.Errorf("expected action %s, got %s (score %f)",
					tt.wantAction, result.RecommendedAction.Action, result.Score.Value())
			}
		})
	}
}

func TestCalculateBatchPriorityScores(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	items := []PriorityBatchItem{
		{ID: NewConstituentID(), Input: PriorityInput{Capacity: CapacityInput{Estimated: floatPtr(5_000)}}},
		{ID: NewConstituentID(), Input: PriorityInput{Capacity: CapacityInput{Estimated: floatPtr(2_000_000)}}},
		{ID: NewConstituentID(), Input: PriorityInput{}},
	}

	results := CalculateBatchPriorityScores(items, ref)

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Result.Score.Value() > results[i-1].Result.Score.Value() {
			t.Errorf("results must be sorted descending: position %d (%f) above %d (%f)",
				i, results[i].Result.Score.Value(), i-1, results[i-1].Result.Score.Value())
		}
	}
	if results[0].ID != items[1].ID {
		t.Error("highest capacity constituent must rank first")
	}
}

func TestCalculateBatchPriorityScores_DeterministicTies(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	a, err := ParseConstituentID("00000000-0000-0000-0000-000000000002")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseConstituentID("00000000-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatal(err)
	}

	// identical inputs tie on score, so order falls back to id
	items := []PriorityBatchItem{{ID: a}, {ID: b}}

	for run := 0; run < 5; run++ {
		results := CalculateBatchPriorityScores(items, ref)
		if results[0].ID != b || results[1].ID != a {
			t.Fatalf("tied scores must order by id: got %s before %s",
				results[0].ID.String(), results[1].ID.String())
		}
	}
}

func TestCalculateBatchPriorityScores_Empty(t *testing.T) {
	results := CalculateBatchPriorityScores(nil, time.Now())
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}
