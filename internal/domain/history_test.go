package domain

import (
	"testing"
	"time"
)

func TestGiftsBetween_HalfOpenInterval(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	gifts := []Gift{
		{Amount: 1, Date: start},                   // on the start boundary: excluded
		{Amount: 2, Date: start.AddDate(0, 1, 0)},  // inside
		{Amount: 3, Date: end},                     // on the end boundary: included
		{Amount: 4, Date: end.AddDate(0, 0, 1)},    // after
		{Amount: 5, Date: start.AddDate(0, 0, -1)}, // before
	}

	got := GiftsBetween(gifts, start, end)

	if len(got) != 2 {
		t.Fatalf("expected 2 gifts in window, got %d", len(got))
	}
	if got[0].Amount != 2 || got[1].Amount != 3 {
		t.Errorf("expected gifts 2 and 3, got %+v", got)
	}
}

func TestMostRecentGift(t *testing.T) {
	if MostRecentGift(nil) != nil {
		t.Error("expected nil for empty history")
	}

	gifts := []Gift{
		{Amount: 1, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 2, Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 3, Date: time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)},
	}

	latest := MostRecentGift(gifts)
	if latest == nil || latest.Amount != 2 {
		t.Errorf("expected the 2025 gift, got %+v", latest)
	}
}

func TestSortGiftsByDate_DoesNotMutate(t *testing.T) {
	gifts := []Gift{
		{Amount: 2, Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 1, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	sorted := SortGiftsByDate(gifts)

	if sorted[0].Amount != 1 || sorted[1].Amount != 2 {
		t.Errorf("expected oldest first, got %+v", sorted)
	}
	if gifts[0].Amount != 2 {
		t.Error("the input slice must not be reordered")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
	if got := DaysBetween(b, a); got != -30 {
		t.Errorf("expected -30 for reversed arguments, got %d", got)
	}
}

func TestConsecutiveGiftYears(t *testing.T) {
	giftIn := func(years ...int) []Gift {
		gifts := make([]Gift, len(years))
		for i, y := range years {
			gifts[i] = Gift{Amount: 100, Date: time.Date(y, 6, 1, 0, 0, 0, 0, time.UTC)}
		}
		return gifts
	}

	tests := []struct {
		name  string
		gifts []Gift
		want  int
	}{
		{"empty", nil, 0},
		{"single_year", giftIn(2024), 1},
		{"unbroken_run", giftIn(2019, 2020, 2021, 2022), 4},
		{"gap_resets_the_run", giftIn(2018, 2019, 2021, 2022), 2},
		{"multiple_gifts_same_year", giftIn(2023, 2023, 2024), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConsecutiveGiftYears(tt.gifts); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestGiftYears(t *testing.T) {
	gifts := []Gift{
		{Amount: 1, Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 2, Date: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: 3, Date: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)},
	}

	years := GiftYears(gifts)

	want := []int{2021, 2023}
	if len(years) != len(want) {
		t.Fatalf("expected %v, got %v", want, years)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, years)
		}
	}
}

func TestAverageGiftAmount(t *testing.T) {
	if got := AverageGiftAmount(nil); got != 0 {
		t.Errorf("expected 0 for empty history, got %f", got)
	}

	gifts := []Gift{{Amount: 100}, {Amount: 200}, {Amount: 300}}
	if got := AverageGiftAmount(gifts); got != 200 {
		t.Errorf("expected 200, got %f", got)
	}
}

func TestParseContactType(t *testing.T) {
	for _, valid := range []string{"meeting", "visit", "call", "email", "event", "phonathon"} {
		if _, err := ParseContactType(valid); err != nil {
			t.Errorf("expected %q to parse, got %v", valid, err)
		}
	}
	if _, err := ParseContactType("telegram"); err == nil {
		t.Error("expected an error for an unknown channel")
	}
}

func TestContactType_IsPersonal(t *testing.T) {
	if !ContactMeeting.IsPersonal() || !ContactVisit.IsPersonal() {
		t.Error("meetings and visits are personal contacts")
	}
	if ContactEmail.IsPersonal() || ContactPhonathon.IsPersonal() {
		t.Error("email and phonathon are not personal contacts")
	}
}

func TestParseContactOutcome_AcceptsUnrecorded(t *testing.T) {
	if _, err := ParseContactOutcome(""); err != nil {
		t.Errorf("an empty outcome is a valid unrecorded outcome, got %v", err)
	}
	if _, err := ParseContactOutcome("ecstatic"); err == nil {
		t.Error("expected an error for an unknown outcome")
	}
}
