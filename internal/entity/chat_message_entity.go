package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one turn of a journal conversation. Rows are append-only:
// a message is never edited or reordered after creation, and is removed only
// when its session is deleted.
type ChatMessage struct {
	Id        uuid.UUID
	ChatId    uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
