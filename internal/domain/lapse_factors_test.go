package domain

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestCalculateLapseRecency_Buckets(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		monthsAgo    int
		wantCategory GiftRecencyCategory
		wantScore    float64
	}{
		{"three_months", 3, RecencyRecent, 0.1},
		{"nine_months", 9, RecencyActive, 0.3},
		{"fifteen_months", 15, RecencyLapsed, 0.6},
		{"twenty_one_months", 21, RecencyAtRisk, 0.8},
		{"thirty_months", 30, RecencyDormant, 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gifts := []Gift{{Amount: 100, Date: ref.AddDate(0, -tt.monthsAgo, 0)}}
			result := CalculateLapseRecency(gifts, ref)

			if result.Category != tt.wantCategory {
				t.Errorf("expected category %s, got %s", tt.wantCategory, result.Category)
			}
			if result.Factor.Score.Value() != tt.wantScore {
				t.Errorf("expected score %f, got %f", tt.wantScore, result.Factor.Score.Value())
			}
			if result.DaysSinceLastGift == nil {
				t.Error("expected days since last gift to be set")
			}
		})
	}
}

func TestCalculateLapseRecency_NoGifts(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	result := CalculateLapseRecency(nil, ref)

	if result.Category != RecencyNoGifts {
		t.Errorf("expected no_gifts category, got %s", result.Category)
	}
	if result.Factor.Score.Value() != 1.0 {
		t.Errorf("expected maximal risk 1.0, got %f", result.Factor.Score.Value())
	}
	if result.DaysSinceLastGift != nil {
		t.Error("expected nil days since last gift")
	}
}

func TestCalculateLapseFrequency_NoGifts(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	result := CalculateLapseFrequency(nil, ref)

	if result.Trend != TrendStopped {
		t.Errorf("expected stopped trend, got %s", result.Trend)
	}
	if result.Factor.Score.Value() != 0.95 {
		t.Errorf("expected score 0.95, got %f", result.Factor.Score.Value())
	}
}

func TestCalculateLapseFrequency_SingleGift(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	gifts := []Gift{{Amount: 100, Date: ref.AddDate(0, -2, 0)}}

	result := CalculateLapseFrequency(gifts, ref)

	if result.Trend != TrendStable {
		t.Errorf("expected stable trend for single gift, got %s", result.Trend)
	}
	if !strings.Contains(result.Factor.Value, "Single gift") {
		t.Errorf("expected single gift explanation, got %q", result.Factor.Value)
	}
}

func TestCalculateLapseFrequency_Trends(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("increasing", func(t *testing.T) {
		// one gift two years ago, three in the trailing year
		gifts := []Gift{
			{Amount: 100, Date: ref.AddDate(-2, 0, 0)},
			{Amount: 100, Date: ref.AddDate(0, -2, 0)},
			{Amount: 100, Date: ref.AddDate(0, -5, 0)},
			{Amount: 100, Date: ref.AddDate(0, -8, 0)},
		}
		result := CalculateLapseFrequency(gifts, ref)
		if result.Trend != TrendIncreasing {
			t.Errorf("expected increasing trend, got %s", result.Trend)
		}
	})

	t.Run("decreasing", func(t *testing.T) {
		// monthly giving that collapsed to a single gift this year
		gifts := []Gift{{Amount: 50, Date: ref.AddDate(0, -2, 0)}}
		for m := 13; m <= 24; m++ {
			gifts = append(gifts, Gift{Amount: 50, Date: ref.AddDate(0, -m, 0)})
		}
		result := CalculateLapseFrequency(gifts, ref)
		if result.Trend != TrendDecreasing {
			t.Errorf("expected decreasing trend, got %s", result.Trend)
		}
	})

	t.Run("stopped", func(t *testing.T) {
		gifts := []Gift{
			{Amount: 100, Date: ref.AddDate(-2, 0, 0)},
			{Amount: 100, Date: ref.AddDate(-3, 0, 0)},
		}
		result := CalculateLapseFrequency(gifts, ref)
		if result.Trend != TrendStopped {
			t.Errorf("expected stopped trend, got %s", result.Trend)
		}
		if result.RecentRate != 0 {
			t.Errorf("expected zero recent rate, got %f", result.RecentRate)
		}
	})
}

func TestAnalyzeGiftGaps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("perfectly_regular", func(t *testing.T) {
		var gifts []Gift
		for i := 0; i < 5; i++ {
			gifts = append(gifts, Gift{Amount: 100, Date: base.AddDate(0, 0, i*30)})
		}
		analysis := AnalyzeGiftGaps(gifts)

		if analysis.AverageGapDays != 30 {
			t.Errorf("expected 30 day average gap, got %f", analysis.AverageGapDays)
		}
		if analysis.Consistency != 1.0 {
			t.Errorf("expected consistency 1.0 for regular spacing, got %f", analysis.Consistency)
		}
		if analysis.GapCount != 4 {
			t.Errorf("expected 4 gaps, got %d", analysis.GapCount)
		}
	})

	t.Run("irregular_scores_lower", func(t *testing.T) {
		irregular := AnalyzeGiftGaps([]Gift{
			{Amount: 100, Date: base},
			{Amount: 100, Date: base.AddDate(0, 0, 10)},
			{Amount: 100, Date: base.AddDate(0, 0, 110)},
			{Amount: 100, Date: base.AddDate(0, 0, 130)},
		})
		if irregular.Consistency >= 1.0 {
			t.Errorf("expected irregular spacing below 1.0, got %f", irregular.Consistency)
		}
	})

	t.Run("too_few_gifts", func(t *testing.T) {
		analysis := AnalyzeGiftGaps([]Gift{{Amount: 100, Date: base}})
		if analysis.GapCount != 0 {
			t.Errorf("expected empty analysis, got %+v", analysis)
		}
	})
}

func TestCalculateLapseMonetary(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	giftsAt := func(amounts ...float64) []Gift {
		gifts := make([]Gift, len(amounts))
		for i, a := range amounts {
			gifts[i] = Gift{Amount: a, Date: ref.AddDate(0, -(len(amounts) - i), 0)}
		}
		return gifts
	}

	tests := []struct {
		name      string
		gifts     []Gift
		wantTrend Trend
		wantScore float64
	}{
		{"no_history", nil, TrendStable, 0.5},
		{"short_history_no_trend", giftsAt(100, 120), TrendStable, 0.35},
		{"growing_amounts", giftsAt(100, 100, 100, 200, 250, 300), TrendIncreasing, 0.2},
		{"shrinking_amounts", giftsAt(300, 300, 300, 100, 80, 50), TrendDecreasing, 0.75},
		{"flat_amounts", giftsAt(100, 100, 100, 100, 100, 100), TrendStable, 0.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateLapseMonetary(tt.gifts, ref)

			if result.Trend != tt.wantTrend {
				t.Errorf("expected trend %s, got %s", tt.wantTrend, result.Trend)
			}
			if result.Factor.Score.Value() != tt.wantScore {
				t.Errorf("expected score %f, got %f", tt.wantScore, result.Factor.Score.Value())
			}
		})
	}
}

func TestCalculateLapseMonetary_Totals(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	gifts := []Gift{
		{Amount: 100, Date: ref.AddDate(0, -6, 0)},
		{Amount: 250, Date: ref.AddDate(0, -1, 0)},
	}

	result := CalculateLapseMonetary(gifts, ref)

	if result.LifetimeTotal != 350 {
		t.Errorf("expected lifetime total 350, got %f", result.LifetimeTotal)
	}
	if result.LastAmount != 250 {
		t.Errorf("expected last amount 250, got %f", result.LastAmount)
	}
}

func TestCalculateLapseContact_NoContacts(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	result := CalculateLapseContact(nil, ref)

	if result.Factor.Score.Value() != 0.85 {
		t.Errorf("expected high risk 0.85, got %f", result.Factor.Score.Value())
	}
	if result.DaysSinceLastContact != nil {
		t.Error("expected nil days since last contact")
	}
}

func TestCalculateLapseContact_ChannelAndOutcome(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	when := ref.AddDate(0, 0, -45)

	score := func(c Contact) float64 {
		return CalculateLapseContact([]Contact{c}, ref).Factor.Score.Value()
	}

	meeting := score(Contact{Date: when, Type: ContactMeeting})
	email := score(Contact{Date: when, Type: ContactEmail})
	positive := score(Contact{Date: when, Type: ContactMeeting, Outcome: OutcomePositive})
	noResponse := score(Contact{Date: when, Type: ContactMeeting, Outcome: OutcomeNoResponse})

	if meeting >= email {
		t.Errorf("personal contact (%f) must carry less risk than email (%f)", meeting, email)
	}
	if positive >= meeting {
		t.Errorf("positive outcome (%f) must carry less risk than unrecorded (%f)", positive, meeting)
	}
	if noResponse <= meeting {
		t.Errorf("no response (%f) must carry more risk than unrecorded (%f)", noResponse, meeting)
	}

	// 45 days base risk 0.25, personal channel and positive outcome stack
	if math.Abs(positive-0.1) > 0.001 {
		t.Errorf("expected positive personal contact at 0.1, got %f", positive)
	}
}

func TestCalculateLapseContact_RecentCount(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	contacts := []Contact{
		{Date: ref.AddDate(0, -1, 0), Type: ContactCall},
		{Date: ref.AddDate(0, -6, 0), Type: ContactEmail},
		{Date: ref.AddDate(0, -20, 0), Type: ContactMeeting}, // outside trailing year
	}

	result := CalculateLapseContact(contacts, ref)

	if result.RecentContactCount != 2 {
		t.Errorf("expected 2 contacts in trailing year, got %d", result.RecentContactCount)
	}
}
