package coach

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar-coach-be/pkg/llm"
	"radar-coach-be/pkg/radar"
)

func namePatch(t *testing.T, name string) *radar.Patch {
	t.Helper()
	patch, rejected, err := radar.ParsePatch(json.RawMessage(`{"name": "` + name + `"}`))
	require.NoError(t, err)
	require.Empty(t, rejected)
	return patch
}

func TestSessionSingleWriter(t *testing.T) {
	sess := NewSession("s1")

	_, err := sess.BeginTurn()
	require.NoError(t, err)

	_, err = sess.BeginTurn()
	assert.ErrorIs(t, err, ErrSessionBusy)

	sess.EndTurn()
	_, err = sess.BeginTurn()
	assert.NoError(t, err)
}

func TestSessionResetDiscardsInFlightWrites(t *testing.T) {
	sess := NewSession("s1")

	gen, err := sess.BeginTurn()
	require.NoError(t, err)

	// a reset lands while the turn is still running
	sess.Reset()

	_, err = sess.ApplyPatch(gen, namePatch(t, "Stale"))
	assert.ErrorIs(t, err, ErrStaleGeneration)

	err = sess.AppendTurn(gen, llm.Message{Role: llm.RoleUser, Content: "stale"})
	assert.ErrorIs(t, err, ErrStaleGeneration)

	_, err = sess.HistorySnapshot(gen)
	assert.ErrorIs(t, err, ErrStaleGeneration)

	assert.ErrorIs(t, sess.MarkSubmitted(gen), ErrStaleGeneration)

	// the post-reset draft survives untouched
	assert.Equal(t, &radar.BlipSubmission{}, sess.DraftSnapshot())
	assert.Equal(t, StatusOpen, sess.Status())
}

func TestSessionSubmissionFreeze(t *testing.T) {
	sess := NewSession("s1")
	gen, err := sess.BeginTurn()
	require.NoError(t, err)

	_, err = sess.ApplyPatch(gen, namePatch(t, "Dapr"))
	require.NoError(t, err)
	require.NoError(t, sess.MarkSubmitted(gen))
	assert.True(t, sess.Submitted())

	before := sess.DraftSnapshot()
	_, err = sess.ApplyPatch(gen, namePatch(t, "Changed"))
	assert.ErrorIs(t, err, ErrSubmitted)
	assert.Equal(t, before, sess.DraftSnapshot())

	// the transition is one-way and not repeatable
	assert.ErrorIs(t, sess.MarkSubmitted(gen), ErrSubmitted)
}

func TestSessionResetReopens(t *testing.T) {
	sess := NewSession("s1")
	gen, _ := sess.BeginTurn()
	_, err := sess.ApplyPatch(gen, namePatch(t, "Dapr"))
	require.NoError(t, err)
	require.NoError(t, sess.MarkSubmitted(gen))
	sess.EndTurn()

	sess.Reset()
	assert.Equal(t, StatusOpen, sess.Status())
	assert.Equal(t, &radar.BlipSubmission{}, sess.DraftSnapshot())

	gen2, err := sess.BeginTurn()
	require.NoError(t, err)
	history, err := sess.HistorySnapshot(gen2)
	require.NoError(t, err)
	assert.Empty(t, history)
}
