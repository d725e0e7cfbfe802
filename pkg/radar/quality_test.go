package radar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullBlip() *BlipSubmission {
	return &BlipSubmission{
		Name:                   "Dapr",
		Quadrant:               QuadrantPlatforms,
		Ring:                   RingTrial,
		Description:            strings.Repeat("d", 160),
		WhyNow:                 "Sidecar runtimes went mainstream this year.",
		ClientReferences:       []string{"retail client"},
		AlternativesConsidered: []string{"plain SDKs"},
		SubmitterName:          "Sam",
		SubmitterContact:       "sam@example.com",
		Strengths:              []string{"language agnostic"},
		Weaknesses:             []string{"operational overhead"},
	}
}

func TestCompletenessBounds(t *testing.T) {
	assert.Equal(t, 0.0, Completeness(&BlipSubmission{}))
	assert.Equal(t, 100.0, Completeness(fullBlip()))
}

func TestAdoptBonusesCapAtOneHundred(t *testing.T) {
	// description + ring + 2 refs + weaknesses: completeness 45, every
	// Adopt bonus earned (+45)
	b := &BlipSubmission{
		Ring:             RingAdopt,
		Description:      strings.Repeat("d", 210),
		ClientReferences: []string{"client a", "client b"},
		Weaknesses:       []string{"steep learning curve"},
	}
	assert.Equal(t, 45.0, Completeness(b))
	assert.Equal(t, 90.0, Quality(b))

	full := fullBlip()
	full.Ring = RingAdopt
	full.Description = strings.Repeat("d", 210)
	full.ClientReferences = []string{"client a", "client b"}
	assert.Equal(t, 100.0, Quality(full))
}

func TestTrialScoringExample(t *testing.T) {
	b := &BlipSubmission{
		Ring:             RingTrial,
		Description:      strings.Repeat("d", 160),
		ClientReferences: []string{"one deployment"},
	}

	completeness, quality := Scores(b)
	assert.Equal(t, 40.0, completeness)
	// +15 description length, +15 client reference; alternatives bonus withheld
	assert.Equal(t, 70.0, quality)
}

func TestQualityWithoutRingEqualsCompleteness(t *testing.T) {
	b := &BlipSubmission{Name: "Dapr", Description: strings.Repeat("d", 300)}
	completeness, quality := Scores(b)
	assert.Equal(t, completeness, quality)
}

func TestMissingFieldsOrderedByWeight(t *testing.T) {
	assert.Equal(t, []string{
		"description",
		"why_now",
		"name",
		"client_references",
		"alternatives_considered",
		"quadrant",
		"ring",
		"submitter_name",
		"submitter_contact",
		"strengths",
		"weaknesses",
	}, MissingFields(&BlipSubmission{}))

	assert.Empty(t, MissingFields(fullBlip()))
}

func TestRingGaps(t *testing.T) {
	b := &BlipSubmission{Ring: RingHold}
	assert.Len(t, RingGaps(b), 3)

	b.Description = strings.Repeat("d", 120)
	b.Weaknesses = []string{"abandoned upstream"}
	b.AlternativesConsidered = []string{"anything else"}
	assert.Empty(t, RingGaps(b))

	// no ring, no gaps to report
	assert.Empty(t, RingGaps(&BlipSubmission{}))
}
