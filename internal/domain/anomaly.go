package domain

import (
	"fmt"
	"time"
)

// AnomalyResult describes one detected engagement anomaly.
type AnomalyResult struct {
	ConstituentID ConstituentID
	Type          AnomalyType
	Severity      Severity
	Title         string
	Description   string
	Factors       []Factor
	DetectedAt    time.Time
}

// AnomalyInput is the per-constituent history the detectors scan.
type AnomalyInput struct {
	ConstituentID ConstituentID
	Gifts         []Gift
	Contacts      []Contact

	// ReferenceDate is the explicit "now" for all window math.
	ReferenceDate time.Time

	// EstimatedCapacity scales the contact gap threshold. nil is treated
	// as low capacity.
	EstimatedCapacity *float64
}

// DetectorConfig holds every anomaly threshold as named, overridable
// configuration rather than magic numbers scattered through the
// detectors.
type DetectorConfig struct {
	// SpikeWindowDays is the recent window compared against the baseline.
	SpikeWindowDays int

	// SpikeBaselineDays is the preceding, non-overlapping baseline window.
	SpikeBaselineDays int

	// SpikeCountRatio is the minimum recent/baseline gift count ratio
	// (baseline annualized to the recent window length) that counts as a
	// spike.
	SpikeCountRatio float64

	// SpikeAmountMultiple flags a single recent gift this many times the
	// historical average amount.
	SpikeAmountMultiple float64

	// SpikeMinBurst is the minimum recent gift count that counts as a
	// spike when there is no baseline activity at all.
	SpikeMinBurst int

	// RegularGivingMinYears is how many consecutive gift years make a
	// donor "regular" for lapse transition detection.
	RegularGivingMinYears int

	// LapsedGiftThresholdDays is how old a regular donor's last gift must
	// be before the pattern counts as a transition to lapsed.
	LapsedGiftThresholdDays int

	// DecliningTrendMinGifts is the minimum run of successive shrinking
	// gifts that counts as a declining pattern.
	DecliningTrendMinGifts int

	// DecliningStepRatio is the maximum successive amount ratio still
	// considered shrinking.
	DecliningStepRatio float64

	// HighCapacityThreshold and MidCapacityThreshold split constituents
	// into contact gap tiers.
	HighCapacityThreshold float64
	MidCapacityThreshold  float64

	// contact gap allowances per capacity tier. high capacity donors
	// tolerate a much shorter silence.
	HighCapacityGapDays int
	MidCapacityGapDays  int
	DefaultGapDays      int
}

// DefaultDetectorConfig returns the calibrated thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SpikeWindowDays:         90,
		SpikeBaselineDays:       360,
		SpikeCountRatio:         2.0,
		SpikeAmountMultiple:     10,
		SpikeMinBurst:           3,
		RegularGivingMinYears:   3,
		LapsedGiftThresholdDays: 548, // ~18 months
		DecliningTrendMinGifts:  3,
		DecliningStepRatio:      0.95,
		HighCapacityThreshold:   250_000,
		MidCapacityThreshold:    50_000,
		HighCapacityGapDays:     90,
		MidCapacityGapDays:      180,
		DefaultGapDays:          365,
	}
}

// DetectAnomalies runs all three detectors over one constituent's history
// and returns the non-nil subset.
func DetectAnomalies(in AnomalyInput, cfg DetectorConfig) []AnomalyResult {
	var anomalies []AnomalyResult

	if a := DetectEngagementSpike(in, cfg); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := DetectGivingPatternChange(in, cfg); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := DetectContactGap(in, cfg); a != nil {
		anomalies = append(anomalies, *a)
	}

	return anomalies
}

// DetectEngagementSpike compares recent gift activity against the
// preceding baseline window. a jump in gift count, a sudden burst from a
// silent donor, or one gift an order of magnitude above the historical
// average all flag; stable or declining patterns return nil.
func DetectEngagementSpike(in AnomalyInput, cfg DetectorConfig) *AnomalyResult {
	ref := in.ReferenceDate
	windowStart := ref.AddDate(0, 0, -cfg.SpikeWindowDays)
	baselineStart := windowStart.AddDate(0, 0, -cfg.SpikeBaselineDays)

	recent := GiftsBetween(in.Gifts, windowStart, ref)
	if len(recent) == 0 {
		return nil
	}

	baseline := GiftsBetween(in.Gifts, baselineStart, windowStart)
	// annualize the baseline count down to the recent window length
	expected := float64(len(baseline)) * float64(cfg.SpikeWindowDays) / float64(cfg.SpikeBaselineDays)

	// a single gift is never a count spike, it is just an annual donor
	// giving their annual gift
	countSpike := false
	switch {
	case expected > 0:
		countSpike = len(recent) >= 2 && float64(len(recent)) >= expected*cfg.SpikeCountRatio
	default:
		countSpike = len(recent) >= cfg.SpikeMinBurst
	}

	// amount path: one recent gift far above the lifetime average before
	// the recent window
	historical := GiftsBetween(in.Gifts, time.Time{}, windowStart)
	historicalAvg := AverageGiftAmount(historical)

	var largestRecent float64
	for _, g := range recent {
		if g.Amount > largestRecent {
			largestRecent = g.Amount
		}
	}
	amountSpike := historicalAvg > 0 && largestRecent >= historicalAvg*cfg.SpikeAmountMultiple

	if !countSpike && !amountSpike {
		return nil
	}

	factors := []Factor{
		NewFactor("recent_gift_count",
			NewScore(float64(len(recent))/float64(cfg.SpikeMinBurst*2)).Value(),
			fmt.Sprintf("%d gifts in the last %d days vs %.1f expected", len(recent), cfg.SpikeWindowDays, expected)),
	}
	description := fmt.Sprintf("Gift activity jumped to %d gifts in the last %d days", len(recent), cfg.SpikeWindowDays)

	if amountSpike {
		factors = append(factors, NewFactor("recent_gift_amount", 0.9,
			fmt.Sprintf("Gift of $%.0f vs historical average $%.0f", largestRecent, historicalAvg)))
		description = fmt.Sprintf("Recent gift of $%.0f is well above the historical average of $%.0f", largestRecent, historicalAvg)
	}

	return &AnomalyResult{
		ConstituentID: in.ConstituentID,
		Type:          AnomalyEngagementSpike,
		Severity:      SeverityMedium,
		Title:         "Engagement spike",
		Description:   description,
		Factors:       factors,
		DetectedAt:    ref,
	}
}

// DetectGivingPatternChange looks for two shifts in an established giving
// pattern: a multi-year regular donor whose last gift has aged past the
// lapse threshold, and a sustained slide in successive gift amounts.
func DetectGivingPatternChange(in AnomalyInput, cfg DetectorConfig) *AnomalyResult {
	if len(in.Gifts) == 0 {
		return nil
	}

	last := MostRecentGift(in.Gifts)
	daysSince := DaysBetween(last.Date, in.ReferenceDate)

	if ConsecutiveGiftYears(in.Gifts) >= cfg.RegularGivingMinYears && daysSince > cfg.LapsedGiftThresholdDays {
		recency := CalculateLapseRecency(in.Gifts, in.ReferenceDate)
		return &AnomalyResult{
			ConstituentID: in.ConstituentID,
			Type:          AnomalyGivingPatternShift,
			Severity:      SeverityHigh,
			Title:         "Regular donor transitioning to lapsed",
			Description: fmt.Sprintf("Gave in %d consecutive years but the last gift was %d days ago",
				ConsecutiveGiftYears(in.Gifts), daysSince),
			Factors:    []Factor{recency.Factor},
			DetectedAt: in.ReferenceDate,
		}
	}

	if declining, span := decliningAmountRun(in.Gifts, cfg); declining {
		monetary := CalculateLapseMonetary(in.Gifts, in.ReferenceDate)
		return &AnomalyResult{
			ConstituentID: in.ConstituentID,
			Type:          AnomalyGivingPatternShift,
			Severity:      SeverityMedium,
			Title:         "Declining gift amounts",
			Description:   fmt.Sprintf("Each of the last %d gifts was smaller than the one before", span),
			Factors:       []Factor{monetary.Factor},
			DetectedAt:    in.ReferenceDate,
		}
	}

	return nil
}

// decliningAmountRun reports whether the trailing gifts form a strictly
// shrinking sequence of the configured minimum length.
func decliningAmountRun(gifts []Gift, cfg DetectorConfig) (bool, int) {
	if len(gifts) < cfg.DecliningTrendMinGifts {
		return false, 0
	}

	sorted := SortGiftsByDate(gifts)
	span := cfg.DecliningTrendMinGifts
	if len(sorted) < span {
		span = len(sorted)
	}

	tail := sorted[len(sorted)-span:]
	for i := 1; i < len(tail); i++ {
		if tail[i].Amount > tail[i-1].Amount*cfg.DecliningStepRatio {
			return false, 0
		}
	}
	return true, span
}

// DetectContactGap flags constituents who have gone too long without a
// recorded contact. the allowed gap shrinks as estimated capacity grows,
// and a high-capacity constituent with no contact history at all always
// flags.
func DetectContactGap(in AnomalyInput, cfg DetectorConfig) *AnomalyResult {
	capacity := 0.0
	if in.EstimatedCapacity != nil {
		capacity = *in.EstimatedCapacity
	}

	var allowedGap int
	var severity Severity
	switch {
	case capacity >= cfg.HighCapacityThreshold:
		allowedGap = cfg.HighCapacityGapDays
		severity = SeverityHigh
	case capacity >= cfg.MidCapacityThreshold:
		allowedGap = cfg.MidCapacityGapDays
		severity = SeverityMedium
	default:
		allowedGap = cfg.DefaultGapDays
		severity = SeverityMedium
	}

	last := MostRecentContact(in.Contacts)
	if last == nil {
		if capacity < cfg.HighCapacityThreshold {
			return nil
		}
		return &AnomalyResult{
			ConstituentID: in.ConstituentID,
			Type:          AnomalyContactGap,
			Severity:      SeverityHigh,
			Title:         "High-capacity constituent never contacted",
			Description:   "No contact on record for a high-capacity constituent",
			Factors: []Factor{
				NewFactor("contact_gap", 1.0, "No contacts recorded"),
			},
			DetectedAt: in.ReferenceDate,
		}
	}

	days := DaysBetween(last.Date, in.ReferenceDate)
	if days <= allowedGap {
		return nil
	}

	gapScore := NewScore(float64(days) / float64(allowedGap*2)).Value()
	return &AnomalyResult{
		ConstituentID: in.ConstituentID,
		Type:          AnomalyContactGap,
		Severity:      severity,
		Title:         "Contact gap",
		Description:   fmt.Sprintf("Last contact was %d days ago, beyond the %d day expectation for this capacity tier", days, allowedGap),
		Factors: []Factor{
			NewFactor("contact_gap", gapScore, fmt.Sprintf("Last contact %d days ago", days)),
		},
		DetectedAt: in.ReferenceDate,
	}
}
