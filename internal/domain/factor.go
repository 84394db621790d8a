package domain

// Factor is one explainable, normalized dimension of a composite score.
// every scoring function produces a Factor even when the underlying data
// is missing, falling back to a defined neutral score and an "Unknown"
// style value so downstream explanations never have holes.
type Factor struct {
	// Name identifies the dimension, e.g. "capacity" or "gift_recency".
	Name string

	// Score is the normalized contribution of this dimension.
	Score Score

	// Value is the human-readable explanation shown to officers.
	Value string

	// Impact tiers the raw score for at-a-glance display.
	Impact Impact

	// Confidence is an optional estimate of how reliable the score is.
	Confidence *float64
}

// NewFactor assembles a Factor, clamping the score and deriving the impact
// tier from it.
func NewFactor(name string, score float64, value string) Factor {
	s := NewScore(score)
	return Factor{
		Name:   name,
		Score:  s,
		Value:  value,
		Impact: ImpactForScore(s),
	}
}

// WithConfidence returns a copy of the factor carrying a confidence estimate.
func (f Factor) WithConfidence(confidence float64) Factor {
	c := confidence
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	f.Confidence = &c
	return f
}
