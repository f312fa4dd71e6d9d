package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Conversation Gateway DTOs ---

// TurnDTO is a single conversation turn supplied by the client. Role is the
// storage vocabulary, "user" or "ai".
type TurnDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ConverseRequest struct {
	Message string     `json:"message"`
	History []TurnDTO  `json:"history,omitempty"`
	ChatId  *uuid.UUID `json:"chatId,omitempty"`
}

type ConverseResponse struct {
	Reply string `json:"reply"`
}

type ConverseErrorResponse struct {
	Error string `json:"error"`
}

// --- Session DTOs ---

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type CreateSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=100"`
}

// --- Push DTOs ---

// SessionChangedMessage is the internal bus payload emitted whenever a
// user's session list changes.
type SessionChangedMessage struct {
	Event     string    `json:"event"`
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	Title     string    `json:"title,omitempty"`
}

// SessionEventDTO is the payload pushed to websocket clients when the
// session list changes.
type SessionEventDTO struct {
	Event     string    `json:"event"`
	SessionId uuid.UUID `json:"session_id"`
	Title     string    `json:"title,omitempty"`
	At        time.Time `json:"at"`
}
