package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is one journal conversation. The title starts as a placeholder
// and is derived from the first user message.
type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
