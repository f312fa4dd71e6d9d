package memory

import (
	"time"

	"mood-journal-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache() *SessionCache {
	// Default expiration of 1 hour, expired snapshots purged every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionCache{
		cache: c,
	}
}

func (r *SessionCache) Save(snapshot *store.SessionSnapshot) {
	r.cache.Set(snapshot.ID, snapshot, cache.DefaultExpiration)
}

func (r *SessionCache) Get(sessionID string) (*store.SessionSnapshot, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.SessionSnapshot), true
	}
	return nil, false
}

func (r *SessionCache) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
