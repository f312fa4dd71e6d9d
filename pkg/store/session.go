package store

import "time"

// SessionSnapshot is the in-memory view of a journal session used to enrich
// change-event pushes without a database round trip. The database row stays
// authoritative; a missing snapshot only means a leaner push payload.
type SessionSnapshot struct {
	ID           string
	UserID       string
	Title        string
	LastActivity time.Time
}
