package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar-coach-be/pkg/radar"
)

func TestBuildCarriesStateAndScores(t *testing.T) {
	b := &radar.BlipSubmission{
		Name:             "Dapr",
		Ring:             radar.RingTrial,
		Description:      strings.Repeat("d", 160),
		ClientReferences: []string{"retail client"},
	}

	system := Build(b)

	assert.Contains(t, system, StateMarker)
	assert.Contains(t, system, ScoresMarker)
	assert.Contains(t, system, "TARGET RING: Trial")
	assert.Contains(t, system, "Completeness: 40%")
	assert.Contains(t, system, "Quality: 70%")
}

func TestBuildWithoutRing(t *testing.T) {
	system := Build(&radar.BlipSubmission{})
	assert.Contains(t, system, "TARGET RING: not chosen yet")
	assert.Contains(t, system, "Missing fields: ")
}

func TestExtractStateRoundTrip(t *testing.T) {
	b := &radar.BlipSubmission{
		Name:       "Dapr",
		Ring:       radar.RingAssess,
		Strengths:  []string{"language agnostic"},
		Weaknesses: []string{"operational overhead"},
	}

	state, ok := ExtractState(Build(b))
	require.True(t, ok)
	assert.Equal(t, b, state)
}

func TestExtractStateRejectsForeignText(t *testing.T) {
	_, ok := ExtractState("no markers here")
	assert.False(t, ok)
}
