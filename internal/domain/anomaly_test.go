package domain

import (
	"strings"
	"testing"
	"time"
)

func TestDetectEngagementSpike_CountJump(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	// quarterly baseline, then two gifts inside the recent window
	gifts := []Gift{
		{Amount: 100, Date: ref.AddDate(0, 0, -120)},
		{Amount: 100, Date: ref.AddDate(0, 0, -180)},
		{Amount: 100, Date: ref.AddDate(0, 0, -270)},
		{Amount: 100, Date: ref.AddDate(0, 0, -360)},
		{Amount: 100, Date: ref.AddDate(0, 0, -10)},
		{Amount: 100, Date: ref.AddDate(0, 0, -40)},
	}

	anomaly := DetectEngagementSpike(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg)

	if anomaly == nil {
		t.Fatal("expected a count spike")
	}
	if anomaly.Type != AnomalyEngagementSpike {
		t.Errorf("expected engagement_spike, got %s", anomaly.Type)
	}
	if anomaly.Severity != SeverityMedium {
		t.Errorf("expected medium severity, got %s", anomaly.Severity)
	}
	if len(anomaly.Factors) == 0 {
		t.Error("expected explanatory factors")
	}
}

func TestDetectEngagementSpike_AnnualDonorIsNotASpike(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	// one gift a year, the latest falling in the recent window
	gifts := []Gift{
		{Amount: 100, Date: ref.AddDate(0, 0, -30)},
		{Amount: 100, Date: ref.AddDate(0, 0, -395)},
		{Amount: 100, Date: ref.AddDate(0, 0, -760)},
	}

	if anomaly := DetectEngagementSpike(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg); anomaly != nil {
		t.Errorf("annual giving must not flag as a spike: %+v", anomaly)
	}
}

func TestDetectEngagementSpike_BurstFromSilence(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	gifts := []Gift{
		{Amount: 50, Date: ref.AddDate(0, 0, -10)},
		{Amount: 50, Date: ref.AddDate(0, 0, -20)},
		{Amount: 50, Date: ref.AddDate(0, 0, -30)},
	}

	anomaly := DetectEngagementSpike(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg)

	if anomaly == nil {
		t.Fatal("expected a burst from a previously silent donor to flag")
	}
}

func TestDetectEngagementSpike_AmountJump(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	gifts := []Gift{
		{Amount: 100, Date: ref.AddDate(0, 0, -200)},
		{Amount: 100, Date: ref.AddDate(0, 0, -300)},
		{Amount: 100, Date: ref.AddDate(0, 0, -400)},
		{Amount: 5000, Date: ref.AddDate(0, 0, -30)},
	}

	anomaly := DetectEngagementSpike(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg)

	if anomaly == nil {
		t.Fatal("expected an amount spike")
	}
	if !strings.Contains(anomaly.Description, "above the historical average") {
		t.Errorf("expected amount explanation, got %q", anomaly.Description)
	}
}

func TestDetectEngagementSpike_NoRecentGifts(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	gifts := []Gift{{Amount: 100, Date: ref.AddDate(0, 0, -200)}}

	if anomaly := DetectEngagementSpike(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg); anomaly != nil {
		t.Errorf("no recent activity must not flag: %+v", anomaly)
	}
}

func TestDetectGivingPatternChange_RegularDonorLapsing(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	// four consecutive gift years, then silence well past the threshold
	gifts := []Gift{
		{Amount: 250, Date: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 250, Date: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 250, Date: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 250, Date: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	anomaly := DetectGivingPatternChange(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg)

	if anomaly == nil {
		t.Fatal("expected a lapse transition for a regular donor gone quiet")
	}
	if anomaly.Type != AnomalyGivingPatternShift {
		t.Errorf("expected giving_pattern_change, got %s", anomaly.Type)
	}
	if anomaly.Severity != SeverityHigh {
		t.Errorf("expected high severity, got %s", anomaly.Severity)
	}
	if !strings.Contains(anomaly.Title, "lapsed") {
		t.Errorf("expected lapse title, got %q", anomaly.Title)
	}
}

func TestDetectGivingPatternChange_DecliningAmounts(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	gifts := []Gift{
		{Amount: 500, Date: ref.AddDate(0, 0, -300)},
		{Amount: 400, Date: ref.AddDate(0, 0, -200)},
		{Amount: 300, Date: ref.AddDate(0, 0, -100)},
	}

	anomaly := DetectGivingPatternChange(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg)

	if anomaly == nil {
		t.Fatal("expected a declining amount pattern to flag")
	}
	if anomaly.Severity != SeverityMedium {
		t.Errorf("expected medium severity, got %s", anomaly.Severity)
	}
}

func TestDetectGivingPatternChange_StablePattern(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	gifts := []Gift{
		{Amount: 100, Date: ref.AddDate(0, 0, -300)},
		{Amount: 100, Date: ref.AddDate(0, 0, -200)},
		{Amount: 100, Date: ref.AddDate(0, 0, -100)},
	}

	if anomaly := DetectGivingPatternChange(AnomalyInput{Gifts: gifts, ReferenceDate: ref}, cfg); anomaly != nil {
		t.Errorf("steady giving must not flag: %+v", anomaly)
	}
}

func TestDetectGivingPatternChange_NoGifts(t *testing.T) {
	cfg := DefaultDetectorConfig()
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	if anomaly := DetectGivingPatternChange(AnomalyInput{ReferenceDate: ref}, cfg); anomaly != nil {
		t.Errorf("empty history must not flag: %+v", anomaly)
	}
}

func TestDetectContactGap_CapacityTiers(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()
	nineMonthsAgo := ref.AddDate(0, -9, 0)

	tests := []struct {
		name         string
		capacity     *float64
		lastContact  *time.Time
		wantFlag     bool
		wantSeverity Severity
	}{
		{"high_capacity_nine_month_gap", floatPtr(500_000), &nineMonthsAgo, true, SeverityHigh},
		{"mid_capacity_nine_month_gap", floatPtr(100_000), &nineMonthsAgo, true, SeverityMedium},
		{"low_capacity_nine_month_gap", floatPtr(1_000), &nineMonthsAgo, false, ""},
		{"high_capacity_never_contacted", floatPtr(300_000), nil, true, SeverityHigh},
		{"unknown_capacity_never_contacted", nil, nil, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := AnomalyInput{
				EstimatedCapacity: tt.capacity,
				ReferenceDate:     ref,
			}
			if tt.lastContact != nil {
				in.Contacts = []Contact{{Date: *tt.lastContact, Type: ContactCall}}
			}

			anomaly := DetectContactGap(in, cfg)

			if tt.wantFlag && anomaly == nil {
				t.Fatal("expected a contact gap anomaly")
			}
			if !tt.wantFlag {
				if anomaly != nil {
					t.Fatalf("expected no anomaly, got %+v", anomaly)
				}
				return
			}
			if anomaly.Type != AnomalyContactGap {
				t.Errorf("expected contact_gap, got %s", anomaly.Type)
			}
			if anomaly.Severity != tt.wantSeverity {
				t.Errorf("expected severity %s, got %s", tt.wantSeverity, anomaly.Severity)
			}
		})
	}
}

func TestDetectContactGap_RecentContactClears(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	in := AnomalyInput{
		EstimatedCapacity: floatPtr(500_000),
		Contacts:          []Contact{{Date: ref.AddDate(0, 0, -30), Type: ContactMeeting}},
		ReferenceDate:     ref,
	}

	if anomaly := DetectContactGap(in, cfg); anomaly != nil {
		t.Errorf("a recent contact must clear the gap check: %+v", anomaly)
	}
}

func TestDetectAnomalies_MultipleFindings(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultDetectorConfig()

	// a regular donor who went quiet and was never contacted: both the
	// pattern change and the contact gap should surface
	in := AnomalyInput{
		ConstituentID: NewConstituentID(),
		Gifts: []Gift{
			{Amount: 250, Date: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)},
			{Amount: 250, Date: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)},
			{Amount: 250, Date: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		EstimatedCapacity: floatPtr(400_000),
		ReferenceDate:     ref,
	}

	anomalies := DetectAnomalies(in, cfg)

	if len(anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %d", len(anomalies))
	}
	types := map[AnomalyType]bool{}
	for _, a := range anomalies {
		types[a.Type] = true
		if a.ConstituentID != in.ConstituentID {
			t.Error("anomaly must carry the constituent id")
		}
		if !a.DetectedAt.Equal(ref) {
			t.Error("anomaly must be stamped with the reference date")
		}
	}
	if !types[AnomalyGivingPatternShift] || !types[AnomalyContactGap] {
		t.Errorf("expected pattern change and contact gap, got %v", types)
	}
}
