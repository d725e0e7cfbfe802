package radar

import "unicode/utf8"

// evidenceCheck is one ring-specific bonus rule: met() earns the bonus,
// otherwise gap describes what is still missing.
type evidenceCheck struct {
	bonus int
	gap   string
	met   func(b *BlipSubmission) bool
}

// ringEvidence encodes the evidence bar per ring. Adopt demands the most,
// Assess the least; bonuses stack on top of completeness, capped at 100.
var ringEvidence = map[Ring][]evidenceCheck{
	RingAdopt: {
		{20, "Adopt suggests at least 2 client references", func(b *BlipSubmission) bool {
			return len(b.ClientReferences) >= 2
		}},
		{15, "An Adopt description should run at least 200 characters", func(b *BlipSubmission) bool {
			return descriptionLength(b) >= 200
		}},
		{10, "Acknowledge known weaknesses to justify Adopt placement", func(b *BlipSubmission) bool {
			return len(b.Weaknesses) > 0
		}},
	},
	RingTrial: {
		{15, "Trial blips benefit from at least 1 client reference", func(b *BlipSubmission) bool {
			return len(b.ClientReferences) >= 1
		}},
		{15, "A Trial description should run at least 150 characters", func(b *BlipSubmission) bool {
			return descriptionLength(b) >= 150
		}},
		{10, "Describe alternatives you considered before recommending Trial", func(b *BlipSubmission) bool {
			return len(b.AlternativesConsidered) > 0
		}},
	},
	RingAssess: {
		{15, "An Assess description should run at least 100 characters", func(b *BlipSubmission) bool {
			return descriptionLength(b) >= 100
		}},
		{15, "Explain why this technology is worth assessing now", func(b *BlipSubmission) bool {
			return b.Filled("why_now")
		}},
	},
	RingHold: {
		{15, "A Hold description should run at least 100 characters", func(b *BlipSubmission) bool {
			return descriptionLength(b) >= 100
		}},
		{15, "Describe weaknesses that justify the Hold recommendation", func(b *BlipSubmission) bool {
			return len(b.Weaknesses) > 0
		}},
		{10, "Suggest alternatives teams should consider instead", func(b *BlipSubmission) bool {
			return len(b.AlternativesConsidered) > 0
		}},
	},
}

func descriptionLength(b *BlipSubmission) int {
	return utf8.RuneCountInString(b.Description)
}

// Completeness is the sum of weights of the filled weighted fields, 0-100.
func Completeness(b *BlipSubmission) float64 {
	earned := 0
	for _, fs := range fieldSpecs {
		if fs.weight > 0 && b.Filled(fs.name) {
			earned += fs.weight
		}
	}
	return float64(earned)
}

// Quality is completeness plus the ring-specific evidence bonus, capped at
// 100. An unset ring contributes no bonus.
func Quality(b *BlipSubmission) float64 {
	score := Completeness(b)
	for _, check := range ringEvidence[b.Ring] {
		if check.met(b) {
			score += float64(check.bonus)
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Scores returns (completeness, quality) in one pass for callers that
// report both.
func Scores(b *BlipSubmission) (float64, float64) {
	return Completeness(b), Quality(b)
}

// MissingFields lists the unfilled weighted fields, heaviest weight first;
// equal weights keep the canonical field order.
func MissingFields(b *BlipSubmission) []string {
	var missing []fieldSpec
	for _, fs := range fieldSpecs {
		if fs.weight > 0 && !b.Filled(fs.name) {
			missing = append(missing, fs)
		}
	}
	// Stable insertion sort by descending weight; fieldSpecs order breaks ties.
	for i := 1; i < len(missing); i++ {
		for j := i; j > 0 && missing[j].weight > missing[j-1].weight; j-- {
			missing[j], missing[j-1] = missing[j-1], missing[j]
		}
	}
	names := make([]string, len(missing))
	for i, fs := range missing {
		names[i] = fs.name
	}
	return names
}

// RingGaps lists the unmet evidence conditions for the current ring.
// Empty when the ring is unset.
func RingGaps(b *BlipSubmission) []string {
	var gaps []string
	for _, check := range ringEvidence[b.Ring] {
		if !check.met(b) {
			gaps = append(gaps, check.gap)
		}
	}
	return gaps
}
