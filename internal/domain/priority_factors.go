package domain

import (
	"fmt"
	"time"
)

// factor names emitted by the priority factor library.
const (
	FactorCapacity   = "capacity"
	FactorLikelihood = "likelihood"
	FactorTiming     = "timing"
	FactorRecency    = "engagement_recency"
)

// neutralScore is the fallback when a dimension has no data to score.
const neutralScore = 0.5

// CapacityInput holds the wealth estimate for the capacity factor.
type CapacityInput struct {
	// Estimated is the screened wealth estimate in dollars. nil means the
	// constituent has never been screened.
	Estimated *float64

	// Source optionally names where the estimate came from.
	Source string
}

// capacityBand maps a lower bound on estimated capacity to a score.
type capacityBand struct {
	min   float64
	score float64
	label string
}

// capacityBands is evaluated top-down; the first band whose lower bound
// the estimate meets (>=) wins.
var capacityBands = []capacityBand{
	{1_000_000, 1.0, "$1M+"},
	{500_000, 0.9, "$500K+"},
	{250_000, 0.8, "$250K+"},
	{100_000, 0.7, "$100K+"},
	{50_000, 0.6, "$50K+"},
	{25_000, 0.5, "$25K+"},
	{10_000, 0.4, "$10K+"},
}

// CalculateCapacityScore bands an estimated wealth figure into a normalized
// score. unknown capacity scores neutral, a screened zero scores at the
// bottom band rather than neutral.
func CalculateCapacityScore(in CapacityInput) Factor {
	if in.Estimated == nil {
		return NewFactor(FactorCapacity, neutralScore, withSource("Unknown capacity", in.Source))
	}

	estimate := *in.Estimated
	for _, band := range capacityBands {
		if estimate >= band.min {
			value := fmt.Sprintf("%s estimated capacity", band.label)
			return NewFactor(FactorCapacity, band.score, withSource(value, in.Source))
		}
	}

	// screened but below every band, including an explicit zero
	return NewFactor(FactorCapacity, 0.3, withSource("Under $10K estimated capacity", in.Source))
}

// withSource appends the screening source to a capacity explanation.
func withSource(value, source string) string {
	if source == "" {
		return value
	}
	return fmt.Sprintf("%s (%s)", value, source)
}

// LikelihoodInput carries the lapse risk signal for the likelihood factor.
type LikelihoodInput struct {
	// LapseRisk is the composite lapse risk score, nil when never computed.
	LapseRisk *float64

	// LapseRiskConfidence optionally carries the risk score's confidence
	// through to the likelihood factor.
	LapseRiskConfidence *float64
}

// CalculateLikelihoodScore derives giving likelihood as the inverse of
// lapse risk: a donor unlikely to lapse is likely to give again.
func CalculateLikelihoodScore(in LikelihoodInput) Factor {
	if in.LapseRisk == nil {
		return NewFactor(FactorLikelihood, neutralScore, "Unknown likelihood")
	}

	score := NewScore(1 - *in.LapseRisk)

	var label string
	switch {
	case score.Value() >= 0.7:
		label = "High"
	case score.Value() >= 0.4:
		label = "Moderate"
	default:
		label = "Low"
	}

	factor := NewFactor(FactorLikelihood, score.Value(), fmt.Sprintf("%s likelihood of giving", label))
	if in.LapseRiskConfidence != nil {
		factor = factor.WithConfidence(*in.LapseRiskConfidence)
	}
	return factor
}

// TimingInput holds the calendar context for the timing factor.
type TimingInput struct {
	// FiscalYearEnd is any date falling on the organization's fiscal
	// year-end; only its month and day are used. zero value defaults to
	// June 30.
	FiscalYearEnd time.Time

	// Campaigns lists the names of currently active campaigns.
	Campaigns []string
}

// timing sub-signal weights, summing to 1.0.
const (
	timingWeightFiscalYearEnd = 0.5
	timingWeightCampaign      = 0.3
	timingWeightSeason        = 0.2
)

// CalculateTimingScore blends fiscal-year-end proximity, active campaigns,
// and the Q4 giving season into one timing score. the explanation leads
// with whichever sub-signal contributed most.
func CalculateTimingScore(in TimingInput, referenceDate time.Time) Factor {
	fye := in.FiscalYearEnd
	if fye.IsZero() {
		fye = time.Date(referenceDate.Year(), time.June, 30, 0, 0, 0, 0, time.UTC)
	}

	daysUntil := daysUntilFiscalYearEnd(fye, referenceDate)
	fyeScore := fiscalYearEndProximity(daysUntil)

	campaignScore := 0.0
	if len(in.Campaigns) > 0 {
		campaignScore = 1.0
	}

	seasonScore := 0.0
	if month := referenceDate.Month(); month >= time.October && month <= time.December {
		seasonScore = 1.0
	}

	score := fyeScore*timingWeightFiscalYearEnd +
		campaignScore*timingWeightCampaign +
		seasonScore*timingWeightSeason

	// rank sub-signals by weighted contribution so the dominant one leads
	type signal struct {
		contribution float64
		text         string
	}
	signals := []signal{
		{fyeScore * timingWeightFiscalYearEnd, fmt.Sprintf("Fiscal year-end in %d days", daysUntil)},
	}
	if campaignScore > 0 {
		signals = append(signals, signal{campaignScore * timingWeightCampaign, fmt.Sprintf("Campaign active: %s", in.Campaigns[0])})
	}
	if seasonScore > 0 {
		signals = append(signals, signal{seasonScore * timingWeightSeason, "Q4 giving season"})
	}

	dominant := 0
	for i := range signals {
		if signals[i].contribution > signals[dominant].contribution {
			dominant = i
		}
	}

	value := signals[dominant].text
	for i, s := range signals {
		if i != dominant {
			value += "; " + s.text
		}
	}

	return NewFactor(FactorTiming, score, value)
}

// daysUntilFiscalYearEnd counts days from the reference date to the next
// occurrence of the fiscal year-end's month and day.
func daysUntilFiscalYearEnd(fiscalYearEnd, referenceDate time.Time) int {
	next := time.Date(referenceDate.Year(), fiscalYearEnd.Month(), fiscalYearEnd.Day(), 0, 0, 0, 0, time.UTC)
	ref := time.Date(referenceDate.Year(), referenceDate.Month(), referenceDate.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(ref) {
		next = next.AddDate(1, 0, 0)
	}
	return DaysBetween(ref, next)
}

// fiscalYearEndProximity scores how close the fiscal year-end is. the last
// 90 days score at least 0.85, rising to 1.0 on the final day; beyond 90
// days the score decays linearly toward zero at the far side of the year.
func fiscalYearEndProximity(daysUntil int) float64 {
	if daysUntil <= 0 {
		return 1.0
	}
	if daysUntil <= 90 {
		return 0.85 + 0.15*(1-float64(daysUntil)/90)
	}
	decayed := 0.85 * (1 - float64(daysUntil-90)/275)
	if decayed < 0 {
		return 0
	}
	return decayed
}

// engagement recency blend weights. the gift signal outweighs the contact
// signal so a donor who gave recently always outranks one who was merely
// contacted at the same time.
const (
	recencyWeightGift    = 0.6
	recencyWeightContact = 0.4
)

// CalculateEngagementRecency blends most-recent-gift age and
// most-recent-contact age into one recency score.
func CalculateEngagementRecency(gifts []Gift, contacts []Contact, referenceDate time.Time) Factor {
	lastGift := MostRecentGift(gifts)
	lastContact := MostRecentContact(contacts)

	if lastGift == nil && lastContact == nil {
		return NewFactor(FactorRecency, 0.1, "No recorded activity")
	}

	var giftScore, contactScore float64
	var value string

	switch {
	case lastGift != nil && lastContact != nil:
		giftDays := DaysBetween(lastGift.Date, referenceDate)
		contactDays := DaysBetween(lastContact.Date, referenceDate)
		giftScore = recencyCurve(giftDays)
		contactScore = recencyCurve(contactDays)
		value = fmt.Sprintf("Last gift %d days ago, last contact %d days ago", giftDays, contactDays)
	case lastGift != nil:
		giftDays := DaysBetween(lastGift.Date, referenceDate)
		giftScore = recencyCurve(giftDays)
		value = fmt.Sprintf("Last gift %d days ago, no contacts recorded", giftDays)
	default:
		contactDays := DaysBetween(lastContact.Date, referenceDate)
		contactScore = recencyCurve(contactDays)
		value = fmt.Sprintf("Last contact %d days ago, no gifts recorded", contactDays)
	}

	score := giftScore*recencyWeightGift + contactScore*recencyWeightContact
	return NewFactor(FactorRecency, score, value)
}

// recencyCurve maps elapsed days to a recency score through an ordered
// threshold table evaluated top-down.
func recencyCurve(days int) float64 {
	steps := []struct {
		maxDays int
		score   float64
	}{
		{30, 1.0},
		{90, 0.9},
		{180, 0.75},
		{365, 0.6},
		{545, 0.4},
		{730, 0.2},
	}
	for _, step := range steps {
		if days <= step.maxDays {
			return step.score
		}
	}
	return 0.1
}
