package coach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerEnsureIsStable(t *testing.T) {
	m := NewManager(time.Minute)

	a := m.Ensure("s1")
	b := m.Ensure("s1")
	assert.Same(t, a, b)

	other := m.Ensure("s2")
	assert.NotSame(t, a, other)
}

func TestManagerResetKeepsIdentity(t *testing.T) {
	m := NewManager(time.Minute)

	sess := m.Ensure("s1")
	gen, err := sess.BeginTurn()
	require.NoError(t, err)
	_, err = sess.ApplyPatch(gen, namePatch(t, "Dapr"))
	require.NoError(t, err)
	sess.EndTurn()

	same := m.Reset("s1")
	assert.Same(t, sess, same)
	assert.Empty(t, same.DraftSnapshot().Name)
}

func TestManagerDrop(t *testing.T) {
	m := NewManager(time.Minute)
	m.Ensure("s1")
	m.Drop("s1")

	_, ok := m.Get("s1")
	assert.False(t, ok)
}
