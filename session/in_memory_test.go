package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.History())
}

func TestInMemoryStore_AppendMessages(t *testing.T) {
	store := NewInMemoryStore()

	err := store.AppendMessages("s1",
		core.UserMessage("find open tickets"),
		core.AssistantMessage("Found 2 open tickets."),
	)
	require.NoError(t, err)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, core.RoleAssistant, history[1].Role)
}

func TestInMemoryStore_ReturnsClones(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.AppendMessages("s1", core.UserMessage("hello")))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	sess.Append(core.UserMessage("mutated externally"))

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, again.History(), 1)
}

func TestInMemoryStore_CreateOverwrites(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.AppendMessages("s1", core.UserMessage("old")))

	_, err := store.Create("s1")
	require.NoError(t, err)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.History())
}
