package domain

import (
	"fmt"
	"math"
	"time"
)

// factor names emitted by the lapse factor library.
const (
	FactorGiftRecency   = "gift_recency"
	FactorGiftFrequency = "gift_frequency"
	FactorMonetary      = "monetary"
	FactorContactHealth = "contact_health"
)

// GiftRecencyCategory names the bucket a donor's most recent gift falls in.
type GiftRecencyCategory string

const (
	RecencyRecent  GiftRecencyCategory = "recent"
	RecencyActive  GiftRecencyCategory = "active"
	RecencyLapsed  GiftRecencyCategory = "lapsed"
	RecencyAtRisk  GiftRecencyCategory = "at_risk"
	RecencyDormant GiftRecencyCategory = "dormant"
	RecencyNoGifts GiftRecencyCategory = "no_gifts"
)

// String returns the string representation of the GiftRecencyCategory.
func (c GiftRecencyCategory) String() string {
	return string(c)
}

// recencyBucket maps an upper bound on days since the last gift to a
// category and risk score. evaluated top-down; score rises monotonically
// with bucket severity.
type recencyBucket struct {
	maxDays  int
	category GiftRecencyCategory
	score    float64
}

var recencyBuckets = []recencyBucket{
	{183, RecencyRecent, 0.1},  // ~6 months
	{365, RecencyActive, 0.3},  // ~12 months
	{548, RecencyLapsed, 0.6},  // ~18 months
	{730, RecencyAtRisk, 0.8},  // ~24 months
}

// LapseRecencyResult carries the gift recency factor with its bucket.
type LapseRecencyResult struct {
	Factor   Factor
	Category GiftRecencyCategory

	// DaysSinceLastGift is nil when there are no gifts on record.
	DaysSinceLastGift *int
}

// CalculateLapseRecency maps the age of the most recent gift to a lapse
// risk score through named buckets. no gifts at all is maximal risk.
func CalculateLapseRecency(gifts []Gift, referenceDate time.Time) LapseRecencyResult {
	last := MostRecentGift(gifts)
	if last == nil {
		return LapseRecencyResult{
			Factor:   NewFactor(FactorGiftRecency, 1.0, "No gifts on record"),
			Category: RecencyNoGifts,
		}
	}

	days := DaysBetween(last.Date, referenceDate)
	for _, bucket := range recencyBuckets {
		if days <= bucket.maxDays {
			value := fmt.Sprintf("Last gift %d days ago (%s)", days, bucket.category)
			return LapseRecencyResult{
				Factor:            NewFactor(FactorGiftRecency, bucket.score, value),
				Category:          bucket.category,
				DaysSinceLastGift: &days,
			}
		}
	}

	value := fmt.Sprintf("Last gift %d days ago (%s)", days, RecencyDormant)
	return LapseRecencyResult{
		Factor:            NewFactor(FactorGiftRecency, 0.95, value),
		Category:          RecencyDormant,
		DaysSinceLastGift: &days,
	}
}

// LapseFrequencyResult carries the gift frequency factor with its trend.
type LapseFrequencyResult struct {
	Factor Factor
	Trend  Trend

	// RecentRate is gifts per year over the trailing twelve months.
	RecentRate float64

	// HistoricalRate is gifts per year over the preceding history.
	HistoricalRate float64
}

// frequency trend thresholds on the recent/historical rate ratio.
const (
	frequencyIncreasingRatio = 1.25
	frequencyDecreasingRatio = 0.75
)

// CalculateLapseFrequency compares the annualized gift count in the
// trailing year against the historical baseline rate.
func CalculateLapseFrequency(gifts []Gift, referenceDate time.Time) LapseFrequencyResult {
	if len(gifts) == 0 {
		return LapseFrequencyResult{
			Factor: NewFactor(FactorGiftFrequency, 0.95, "No gifts on record, giving stopped"),
			Trend:  TrendStopped,
		}
	}

	if len(gifts) == 1 {
		return LapseFrequencyResult{
			Factor:     NewFactor(FactorGiftFrequency, 0.5, "Single gift on record, no frequency trend yet"),
			Trend:      TrendStable,
			RecentRate: annualizedRecentRate(gifts, referenceDate),
		}
	}

	windowStart := referenceDate.AddDate(-1, 0, 0)
	recentCount := len(GiftsBetween(gifts, windowStart, referenceDate))
	recentRate := float64(recentCount)

	historical := GiftsBetween(gifts, time.Time{}, windowStart)
	historicalRate := 0.0
	if len(historical) > 0 {
		earliest := SortGiftsByDate(historical)[0]
		spanYears := float64(DaysBetween(earliest.Date, windowStart)) / 365
		if spanYears < 1 {
			spanYears = 1
		}
		historicalRate = float64(len(historical)) / spanYears
	}

	trend, score := classifyFrequency(recentRate, historicalRate)
	value := fmt.Sprintf("%.1f gifts/year recently vs %.1f historically, %s", recentRate, historicalRate, trend)

	return LapseFrequencyResult{
		Factor:         NewFactor(FactorGiftFrequency, score, value),
		Trend:          trend,
		RecentRate:     recentRate,
		HistoricalRate: historicalRate,
	}
}

// classifyFrequency maps the recent/historical rate comparison to a trend
// and risk score.
func classifyFrequency(recentRate, historicalRate float64) (Trend, float64) {
	switch {
	case recentRate == 0:
		return TrendStopped, 0.9
	case historicalRate == 0:
		// all giving happened inside the trailing year
		return TrendIncreasing, 0.2
	case recentRate >= historicalRate*frequencyIncreasingRatio:
		return TrendIncreasing, 0.2
	case recentRate <= historicalRate*frequencyDecreasingRatio:
		return TrendDecreasing, 0.7
	default:
		return TrendStable, 0.35
	}
}

// annualizedRecentRate counts gifts in the trailing year.
func annualizedRecentRate(gifts []Gift, referenceDate time.Time) float64 {
	return float64(len(GiftsBetween(gifts, referenceDate.AddDate(-1, 0, 0), referenceDate)))
}

// GiftGapAnalysis summarizes the spacing between successive gifts.
type GiftGapAnalysis struct {
	// AverageGapDays is the mean interval between successive gifts.
	AverageGapDays float64

	// Consistency is 1.0 for perfectly regular spacing, falling toward 0
	// as gap variance grows.
	Consistency float64

	// GapCount is the number of intervals measured.
	GapCount int
}

// AnalyzeGiftGaps measures the average interval between gifts and how
// consistent that interval is. fewer than two gifts yields a zero result.
func AnalyzeGiftGaps(gifts []Gift) GiftGapAnalysis {
	if len(gifts) < 2 {
		return GiftGapAnalysis{}
	}

	sorted := SortGiftsByDate(gifts)
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, float64(DaysBetween(sorted[i-1].Date, sorted[i].Date)))
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))

	consistency := 1.0
	if mean > 0 {
		var variance float64
		for _, g := range gaps {
			variance += (g - mean) * (g - mean)
		}
		variance /= float64(len(gaps))
		cv := math.Sqrt(variance) / mean
		consistency = 1 - cv
		if consistency < 0 {
			consistency = 0
		}
	}

	return GiftGapAnalysis{
		AverageGapDays: mean,
		Consistency:    consistency,
		GapCount:       len(gaps),
	}
}

// LapseMonetaryResult carries the monetary factor with its trend.
type LapseMonetaryResult struct {
	Factor Factor
	Trend  Trend

	// LifetimeTotal is the sum of all gift amounts.
	LifetimeTotal float64

	// LastAmount is the amount of the most recent gift.
	LastAmount float64
}

// monetary trend thresholds on the recent/historical average ratio.
const (
	monetaryIncreasingRatio = 1.1
	monetaryDecreasingRatio = 0.9
)

// recentMonetaryGifts is how many of the latest gifts form the recent
// average for trend comparison.
const recentMonetaryGifts = 3

// CalculateLapseMonetary compares the average amount of the most recent
// gifts against the historical average. shrinking gifts raise risk.
func CalculateLapseMonetary(gifts []Gift, referenceDate time.Time) LapseMonetaryResult {
	if len(gifts) == 0 {
		return LapseMonetaryResult{
			Factor: NewFactor(FactorMonetary, neutralScore, "No gift history"),
			Trend:  TrendStable,
		}
	}

	sorted := SortGiftsByDate(gifts)
	lifetime := TotalGiftAmount(sorted)
	last := sorted[len(sorted)-1].Amount

	split := len(sorted) - recentMonetaryGifts
	if split < 1 {
		// too little history for a baseline, report without a trend call
		value := fmt.Sprintf("Lifetime $%.0f across %d gifts, last gift $%.0f", lifetime, len(sorted), last)
		return LapseMonetaryResult{
			Factor:        NewFactor(FactorMonetary, 0.35, value),
			Trend:         TrendStable,
			LifetimeTotal: lifetime,
			LastAmount:    last,
		}
	}

	historicalAvg := AverageGiftAmount(sorted[:split])
	recentAvg := AverageGiftAmount(sorted[split:])

	var trend Trend
	var score float64
	switch {
	case historicalAvg > 0 && recentAvg >= historicalAvg*monetaryIncreasingRatio:
		trend, score = TrendIncreasing, 0.2
	case historicalAvg > 0 && recentAvg <= historicalAvg*monetaryDecreasingRatio:
		trend, score = TrendDecreasing, 0.75
	default:
		trend, score = TrendStable, 0.35
	}

	value := fmt.Sprintf("Lifetime $%.0f across %d gifts, last gift $%.0f, amounts %s",
		lifetime, len(sorted), last, trend)

	return LapseMonetaryResult{
		Factor:        NewFactor(FactorMonetary, score, value),
		Trend:         trend,
		LifetimeTotal: lifetime,
		LastAmount:    last,
	}
}

// LapseContactResult carries the contact health factor.
type LapseContactResult struct {
	Factor Factor

	// DaysSinceLastContact is nil when there are no contacts on record.
	DaysSinceLastContact *int

	// RecentContactCount is the number of contacts in the trailing twelve
	// months.
	RecentContactCount int
}

// contact risk adjustments. personal channels and positive outcomes lower
// risk relative to a neutral touch at the same recency.
const (
	contactPersonalAdjustment = -0.05
	contactLowTouchAdjustment = 0.05
	contactPositiveAdjustment = -0.1
	contactNegativeAdjustment = 0.1
)

// CalculateLapseContact scores contact health: a recent, personal,
// positive contact means low risk; no contact at all means high risk.
func CalculateLapseContact(contacts []Contact, referenceDate time.Time) LapseContactResult {
	last := MostRecentContact(contacts)
	if last == nil {
		return LapseContactResult{
			Factor: NewFactor(FactorContactHealth, 0.85, "No contacts recorded"),
		}
	}

	days := DaysBetween(last.Date, referenceDate)
	score := contactAgeRisk(days)

	if last.Type.IsPersonal() {
		score += contactPersonalAdjustment
	} else if last.Type == ContactEmail || last.Type == ContactPhonathon {
		score += contactLowTouchAdjustment
	}

	switch last.Outcome {
	case OutcomePositive:
		score += contactPositiveAdjustment
	case OutcomeNegative, OutcomeNoResponse:
		score += contactNegativeAdjustment
	}

	recentCount := len(ContactsBetween(contacts, referenceDate.AddDate(-1, 0, 0), referenceDate))

	value := fmt.Sprintf("Last contact %d days ago (%s", days, last.Type)
	if last.Outcome != OutcomeUnrecorded {
		value += fmt.Sprintf(", %s", last.Outcome)
	}
	value += fmt.Sprintf("), %d contacts in last 12 months", recentCount)

	return LapseContactResult{
		Factor:               NewFactor(FactorContactHealth, score, value),
		DaysSinceLastContact: &days,
		RecentContactCount:   recentCount,
	}
}

// contactAgeRisk maps days since the last contact to a base risk score
// through an ordered threshold table.
func contactAgeRisk(days int) float64 {
	steps := []struct {
		maxDays int
		score   float64
	}{
		{30, 0.1},
		{90, 0.25},
		{180, 0.45},
		{365, 0.65},
	}
	for _, step := range steps {
		if days <= step.maxDays {
			return step.score
		}
	}
	return 0.85
}
