package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mood-journal-be/internal/constant"
	"mood-journal-be/internal/dto"
	"mood-journal-be/internal/entity"
	"mood-journal-be/internal/pkg/logger"
	"mood-journal-be/internal/repository/memory"
	"mood-journal-be/internal/repository/specification"
	"mood-journal-be/internal/repository/unitofwork"
	"mood-journal-be/pkg/events"
	"mood-journal-be/pkg/journal"
	"mood-journal-be/pkg/llm"
	pktNats "mood-journal-be/pkg/nats"
	"mood-journal-be/pkg/store"
)

var (
	ErrEmptyMessage    = errors.New("message must not be empty")
	ErrSessionNotFound = errors.New("session not found or access denied")
)

// IJournalService defines the journal service interface
type IJournalService interface {
	Converse(ctx context.Context, userId uuid.UUID, request *dto.ConverseRequest) (*dto.ConverseResponse, error)
	CreateSession(ctx context.Context, userId uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	RenameSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.RenameSessionRequest) error
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

type journalService struct {
	uowFactory       unitofwork.RepositoryFactory
	llmProvider      llm.LLMProvider
	sessionCache     *memory.SessionCache
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewJournalService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	sessionCache *memory.SessionCache,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IJournalService {
	return &journalService{
		uowFactory:       uowFactory,
		llmProvider:      llmProvider,
		sessionCache:     sessionCache,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// Converse generates a reply for the user's message. When a session id is
// supplied, the user turn and the reply are appended to that session in one
// transaction; without a session id the call is stateless and writes nothing.
func (js *journalService) Converse(ctx context.Context, userId uuid.UUID, request *dto.ConverseRequest) (*dto.ConverseResponse, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	uow := js.uowFactory.NewUnitOfWork(ctx)

	var chatSession *entity.ChatSession
	if request.ChatId != nil {
		found, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: *request.ChatId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, ErrSessionNotFound
		}
		chatSession = found
	}

	// Client-supplied history wins; otherwise fall back to the stored turns
	// of the target session. A nil history means "not supplied".
	turns := request.History
	if turns == nil && chatSession != nil {
		stored, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.ByChatID{ChatID: chatSession.Id},
			specification.OrderBy{Field: "created_at", Desc: false},
		)
		if err != nil {
			return nil, err
		}
		turns = make([]dto.TurnDTO, 0, len(stored))
		for _, m := range stored {
			turns = append(turns, dto.TurnDTO{Role: m.Role, Content: m.Content})
		}
	}
	firstExchange := len(turns) == 0

	// Map the storage role vocabulary onto the provider's before submission.
	llmMessages := make([]llm.Message, 0, len(turns)+1)
	for _, t := range turns {
		role := "user"
		if t.Role == constant.ChatMessageRoleAi {
			role = "assistant"
		}
		llmMessages = append(llmMessages, llm.Message{Role: role, Content: t.Content})
	}
	llmMessages = append(llmMessages, llm.Message{Role: "user", Content: message})

	reply, err := js.llmProvider.Chat(ctx, llmMessages)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	if chatSession == nil {
		return &dto.ConverseResponse{Reply: reply}, nil
	}

	now := time.Now()
	pair := []*entity.ChatMessage{
		{
			Id:        uuid.New(),
			ChatId:    chatSession.Id,
			Role:      constant.ChatMessageRoleUser,
			Content:   message,
			CreatedAt: now,
		},
		{
			Id:        uuid.New(),
			ChatId:    chatSession.Id,
			Role:      constant.ChatMessageRoleAi,
			Content:   reply,
			CreatedAt: now.Add(1 * time.Second),
		},
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().CreateBulk(ctx, pair); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// First exchange names the session. A failed rename never fails the
	// conversation; the pair is already committed.
	title := chatSession.Title
	if firstExchange {
		derived := journal.DeriveTitle(message)
		if err := js.renameAfterConverse(ctx, chatSession, derived, now); err != nil {
			js.logger.Warn("JournalService", "Title assignment failed", map[string]interface{}{
				"session_id": chatSession.Id,
				"error":      err.Error(),
			})
		} else {
			title = derived
		}
	}

	js.sessionCache.Save(&store.SessionSnapshot{
		ID:           chatSession.Id.String(),
		UserID:       userId.String(),
		Title:        title,
		LastActivity: now,
	})
	js.publishSessionChanged(ctx, constant.SessionEventActivity, chatSession.Id, userId, title)

	return &dto.ConverseResponse{Reply: reply}, nil
}

func (js *journalService) renameAfterConverse(ctx context.Context, chatSession *entity.ChatSession, title string, now time.Time) error {
	uow := js.uowFactory.NewUnitOfWork(ctx)
	renamed := *chatSession
	renamed.Title = title
	renamed.UpdatedAt = &now
	return uow.ChatSessionRepository().Update(ctx, &renamed)
}

// CreateSession creates an empty journal session with the placeholder title.
func (js *journalService) CreateSession(ctx context.Context, userId uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := js.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(request.Title)
	if title == "" {
		title = constant.DefaultSessionTitle
	}

	now := time.Now()
	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: now,
	}

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}

	js.sessionCache.Save(&store.SessionSnapshot{
		ID:           chatSession.Id.String(),
		UserID:       userId.String(),
		Title:        title,
		LastActivity: now,
	})
	js.publishSessionChanged(ctx, constant.SessionEventCreated, chatSession.Id, userId, title)

	return &dto.CreateSessionResponse{Id: chatSession.Id, Title: title}, nil
}

// GetAllSessions retrieves the user's sessions, newest first.
func (js *journalService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := js.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves a session's messages, oldest first.
func (js *journalService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := js.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// RenameSession sets a user-chosen title on an owned session.
func (js *journalService) RenameSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.RenameSessionRequest) error {
	uow := js.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}

	now := time.Now()
	sess.Title = strings.TrimSpace(request.Title)
	sess.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, sess); err != nil {
		return err
	}

	js.sessionCache.Save(&store.SessionSnapshot{
		ID:           sess.Id.String(),
		UserID:       userId.String(),
		Title:        sess.Title,
		LastActivity: now,
	})
	js.publishSessionChanged(ctx, constant.SessionEventRenamed, sess.Id, userId, sess.Title)

	return nil
}

// DeleteSession removes a session and its messages. Messages go first, then
// the session row; the affected count verifies the session existed.
func (js *journalService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := js.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if _, err := uow.ChatMessageRepository().DeleteByChatId(ctx, sessionId); err != nil {
		return err
	}

	affected, err := uow.ChatSessionRepository().Delete(ctx, sessionId)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	js.sessionCache.Delete(sessionId.String())
	js.publishSessionChanged(ctx, constant.SessionEventDeleted, sessionId, userId, "")

	return nil
}

// publishSessionChanged notifies the in-process bus and, best effort, the
// durable event log. Neither failure mode is allowed to fail the operation.
func (js *journalService) publishSessionChanged(ctx context.Context, event string, sessionId, userId uuid.UUID, title string) {
	msgPayload := dto.SessionChangedMessage{
		Event:     event,
		SessionId: sessionId,
		UserId:    userId,
		Title:     title,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err == nil {
		if err := js.publisherService.Publish(ctx, msgJson); err != nil {
			js.logger.Warn("JournalService", "Failed to publish session change", map[string]interface{}{
				"event": event,
				"error": err.Error(),
			})
		}
	}

	if js.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: event,
			Data: map[string]interface{}{
				"session_id": sessionId,
				"user_id":    userId,
				"title":      title,
			},
			OccurredAt: time.Now(),
		}
		if err := js.eventPublisher.Publish(ctx, evt); err != nil {
			js.logger.Warn("JournalService", "Failed to publish durable event", map[string]interface{}{
				"event": event,
				"error": err.Error(),
			})
		}
	}
}
