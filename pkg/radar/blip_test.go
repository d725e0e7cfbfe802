package radar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, payload string) (*Patch, []string) {
	t.Helper()
	patch, rejected, err := ParsePatch(json.RawMessage(payload))
	require.NoError(t, err)
	return patch, rejected
}

func TestParsePatchRejectsUnknownFields(t *testing.T) {
	patch, rejected := mustParse(t, `{"name": "Dapr", "votes": 7, "color": "red"}`)

	assert.ElementsMatch(t, []string{"votes", "color"}, rejected)
	assert.Equal(t, []string{"name"}, patch.FieldNames())
}

func TestParsePatchRejectsInvalidEnumValues(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		rejected []string
	}{
		{
			name:     "unknown ring",
			payload:  `{"ring": "Maybe"}`,
			rejected: []string{"ring"},
		},
		{
			name:     "unknown quadrant",
			payload:  `{"quadrant": "Gadgets"}`,
			rejected: []string{"quadrant"},
		},
		{
			name:     "wrong type for list",
			payload:  `{"strengths": "fast"}`,
			rejected: []string{"strengths"},
		},
		{
			name:     "csv quadrant variant accepted",
			payload:  `{"quadrant": "languages-and-frameworks"}`,
			rejected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, rejected := mustParse(t, tt.payload)
			assert.Equal(t, tt.rejected, rejected)
			if tt.rejected == nil {
				assert.False(t, patch.IsEmpty())
			}
		})
	}
}

func TestParsePatchSkipsNullValues(t *testing.T) {
	patch, rejected := mustParse(t, `{"name": "Dapr", "description": null}`)

	assert.Empty(t, rejected)
	assert.Equal(t, []string{"name"}, patch.FieldNames())
}

func TestParsePatchMalformedPayload(t *testing.T) {
	_, _, err := ParsePatch(json.RawMessage(`{"name": `))
	assert.Error(t, err)
}

func TestApplyMergeIdempotence(t *testing.T) {
	patch, _ := mustParse(t, `{"name": "Dapr", "ring": "Trial", "strengths": ["sidecars"]}`)

	once := &BlipSubmission{}
	once.Apply(patch)

	twice := &BlipSubmission{}
	twice.Apply(patch)
	twice.Apply(patch)

	assert.Equal(t, once, twice)
}

func TestApplyMergeIsolation(t *testing.T) {
	b := &BlipSubmission{
		Name:             "Dapr",
		Ring:             RingTrial,
		Description:      "A portable runtime for building distributed applications.",
		ClientReferences: []string{"retail client"},
	}
	before := b.Clone()

	patch, _ := mustParse(t, `{"name": "Dapr v2"}`)
	echo := b.Apply(patch)

	assert.Equal(t, "Dapr v2", b.Name)
	assert.Equal(t, map[string]interface{}{"name": "Dapr v2"}, echo)

	b.Name = before.Name
	assert.Equal(t, before, b)
}

func TestApplyListReplaceAndAppend(t *testing.T) {
	b := &BlipSubmission{ClientReferences: []string{"alpha"}}

	replace, _ := mustParse(t, `{"client_references": ["beta"]}`)
	b.Apply(replace)
	assert.Equal(t, []string{"beta"}, b.ClientReferences)

	appendPatch, _ := mustParse(t, `{"client_references": ["gamma", "beta"], "append": true}`)
	echo := b.Apply(appendPatch)
	assert.Equal(t, []string{"beta", "gamma"}, b.ClientReferences)
	assert.Equal(t, []string{"beta", "gamma"}, echo["client_references"])
}

func TestFilled(t *testing.T) {
	b := &BlipSubmission{}
	assert.False(t, b.Filled("name"))
	assert.False(t, b.Filled("ring"))
	assert.False(t, b.Filled("client_references"))

	b.Name = "  "
	assert.False(t, b.Filled("name"))

	b.Name = "Dapr"
	b.Ring = RingAssess
	b.ClientReferences = []string{"one"}
	assert.True(t, b.Filled("name"))
	assert.True(t, b.Filled("ring"))
	assert.True(t, b.Filled("client_references"))
}

func TestWeightsSumToOneHundred(t *testing.T) {
	total := 0
	for _, fs := range fieldSpecs {
		total += fs.weight
	}
	assert.Equal(t, 100, total)
}
