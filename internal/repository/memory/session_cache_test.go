package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood-journal-be/pkg/store"
)

func TestSessionCacheRoundTrip(t *testing.T) {
	c := NewSessionCache()
	id := uuid.NewString()

	c.Save(&store.SessionSnapshot{ID: id, UserID: uuid.NewString(), Title: "Rough morning", LastActivity: time.Now()})

	snap, found := c.Get(id)
	require.True(t, found)
	assert.Equal(t, "Rough morning", snap.Title)

	_, found = c.Get(uuid.NewString())
	assert.False(t, found)
}

func TestSessionCacheOverwriteAndDelete(t *testing.T) {
	c := NewSessionCache()
	id := uuid.NewString()

	c.Save(&store.SessionSnapshot{ID: id, Title: "New Journal"})
	c.Save(&store.SessionSnapshot{ID: id, Title: "Renamed"})

	snap, found := c.Get(id)
	require.True(t, found)
	assert.Equal(t, "Renamed", snap.Title)

	c.Delete(id)
	_, found = c.Get(id)
	assert.False(t, found)

	// Deleting an absent key is a no-op.
	c.Delete(id)
}
