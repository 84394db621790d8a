package domain

import (
	"errors"
	"sort"
	"time"
)

// Gift is a single gift record in a constituent's giving history.
// records are immutable, externally supplied inputs; nothing in this
// package mutates them.
type Gift struct {
	Amount float64
	Date   time.Time
}

// Contact is a single contact record in a constituent's engagement history.
type Contact struct {
	Date    time.Time
	Type    ContactType
	Outcome ContactOutcome // optional, zero value means unrecorded
}

// ContactType represents the channel of a recorded contact.
type ContactType string

const (
	ContactMeeting   ContactType = "meeting"
	ContactVisit     ContactType = "visit"
	ContactCall      ContactType = "call"
	ContactEmail     ContactType = "email"
	ContactEvent     ContactType = "event"
	ContactPhonathon ContactType = "phonathon"
)

var ErrInvalidContactType = errors.New("invalid contact type")

// validContactTypes for quick lookup.
var validContactTypes = map[ContactType]bool{
	ContactMeeting:   true,
	ContactVisit:     true,
	ContactCall:      true,
	ContactEmail:     true,
	ContactEvent:     true,
	ContactPhonathon: true,
}

// ParseContactType validates and returns a ContactType from a string.
func ParseContactType(s string) (ContactType, error) {
	ct := ContactType(s)
	if !validContactTypes[ct] {
		return "", ErrInvalidContactType
	}
	return ct, nil
}

// String returns the string representation of the ContactType.
func (c ContactType) String() string {
	return string(c)
}

// IsValid returns true if the contact type is valid.
func (c ContactType) IsValid() bool {
	return validContactTypes[c]
}

// IsPersonal returns true for high-touch channels where the officer and
// constituent interacted directly.
func (c ContactType) IsPersonal() bool {
	return c == ContactMeeting || c == ContactVisit
}

// ContactOutcome represents the recorded result of a contact.
type ContactOutcome string

const (
	OutcomeUnrecorded ContactOutcome = ""
	OutcomePositive   ContactOutcome = "positive"
	OutcomeNeutral    ContactOutcome = "neutral"
	OutcomeNegative   ContactOutcome = "negative"
	OutcomeNoResponse ContactOutcome = "no_response"
)

var ErrInvalidContactOutcome = errors.New("invalid contact outcome")

// validContactOutcomes for quick lookup. unrecorded is accepted because
// many imported contact rows carry no outcome.
var validContactOutcomes = map[ContactOutcome]bool{
	OutcomeUnrecorded: true,
	OutcomePositive:   true,
	OutcomeNeutral:    true,
	OutcomeNegative:   true,
	OutcomeNoResponse: true,
}

// ParseContactOutcome validates and returns a ContactOutcome from a string.
func ParseContactOutcome(s string) (ContactOutcome, error) {
	co := ContactOutcome(s)
	if !validContactOutcomes[co] {
		return "", ErrInvalidContactOutcome
	}
	return co, nil
}

// String returns the string representation of the ContactOutcome.
func (c ContactOutcome) String() string {
	return string(c)
}

// IsValid returns true if the contact outcome is valid.
func (c ContactOutcome) IsValid() bool {
	return validContactOutcomes[c]
}

// MostRecentGift returns the latest gift by date, or nil when the history
// is empty.
func MostRecentGift(gifts []Gift) *Gift {
	var latest *Gift
	for i := range gifts {
		if latest == nil || gifts[i].Date.After(latest.Date) {
			latest = &gifts[i]
		}
	}
	return latest
}

// MostRecentContact returns the latest contact by date, or nil when the
// history is empty.
func MostRecentContact(contacts []Contact) *Contact {
	var latest *Contact
	for i := range contacts {
		if latest == nil || contacts[i].Date.After(latest.Date) {
			latest = &contacts[i]
		}
	}
	return latest
}

// GiftsBetween returns gifts with start < date <= end.
// the half-open interval keeps adjacent windows non-overlapping.
func GiftsBetween(gifts []Gift, start, end time.Time) []Gift {
	var out []Gift
	for _, g := range gifts {
		if g.Date.After(start) && !g.Date.After(end) {
			out = append(out, g)
		}
	}
	return out
}

// ContactsBetween returns contacts with start < date <= end.
func ContactsBetween(contacts []Contact, start, end time.Time) []Contact {
	var out []Contact
	for _, c := range contacts {
		if c.Date.After(start) && !c.Date.After(end) {
			out = append(out, c)
		}
	}
	return out
}

// SortGiftsByDate returns a copy of gifts ordered oldest first.
// the input slice is never modified.
func SortGiftsByDate(gifts []Gift) []Gift {
	sorted := make([]Gift, len(gifts))
	copy(sorted, gifts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// DaysBetween returns whole days from earlier to later.
// negative when later precedes earlier.
func DaysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

// TotalGiftAmount sums the amounts of all gifts.
func TotalGiftAmount(gifts []Gift) float64 {
	var total float64
	for _, g := range gifts {
		total += g.Amount
	}
	return total
}

// AverageGiftAmount returns the mean gift amount, or 0 for an empty history.
func AverageGiftAmount(gifts []Gift) float64 {
	if len(gifts) == 0 {
		return 0
	}
	return TotalGiftAmount(gifts) / float64(len(gifts))
}

// GiftYears returns the distinct calendar years with at least one gift,
// ordered ascending.
func GiftYears(gifts []Gift) []int {
	seen := make(map[int]bool)
	for _, g := range gifts {
		seen[g.Date.Year()] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ConsecutiveGiftYears returns the length of the run of consecutive
// calendar years with gifts, ending at the most recent gift year.
func ConsecutiveGiftYears(gifts []Gift) int {
	years := GiftYears(gifts)
	if len(years) == 0 {
		return 0
	}

	run := 1
	for i := len(years) - 1; i > 0; i-- {
		if years[i]-years[i-1] != 1 {
			break
		}
		run++
	}
	return run
}
