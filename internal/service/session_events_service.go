package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"mood-journal-be/internal/dto"
	"mood-journal-be/internal/pkg/logger"
	"mood-journal-be/internal/repository/memory"
	"mood-journal-be/internal/websocket"
)

type ISessionEventsService interface {
	Consume(ctx context.Context) error
}

// sessionEventsService forwards session-change bus messages to the push hub.
// Titles are enriched from the snapshot cache so deliveries skip the database.
type sessionEventsService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	sessionCache *memory.SessionCache
	hub          *websocket.Hub
	logger       logger.ILogger
}

func NewSessionEventsService(
	pubSub *gochannel.GoChannel,
	topicName string,
	sessionCache *memory.SessionCache,
	hub *websocket.Hub,
	log logger.ILogger,
) ISessionEventsService {
	return &sessionEventsService{
		pubSub:       pubSub,
		topicName:    topicName,
		sessionCache: sessionCache,
		hub:          hub,
		logger:       log,
	}
}

func (ses *sessionEventsService) Consume(ctx context.Context) error {
	messages, err := ses.pubSub.Subscribe(ctx, ses.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ses.processMessage(msg)
		}
	}()

	return nil
}

func (ses *sessionEventsService) processMessage(msg *message.Message) {
	var payload dto.SessionChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		ses.logger.Error("SessionEvents", "Failed to unmarshal bus message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Malformed messages are never retriable
		return
	}

	title := payload.Title
	if title == "" {
		if snap, found := ses.sessionCache.Get(payload.SessionId.String()); found {
			title = snap.Title
		}
	}

	ses.hub.Send(payload.UserId, dto.SessionEventDTO{
		Event:     payload.Event,
		SessionId: payload.SessionId,
		Title:     title,
		At:        time.Now(),
	})

	msg.Ack()
}
