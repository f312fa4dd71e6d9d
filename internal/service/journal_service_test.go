package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood-journal-be/internal/constant"
	"mood-journal-be/internal/dto"
	"mood-journal-be/internal/entity"
	"mood-journal-be/internal/repository/contract"
	"mood-journal-be/internal/repository/memory"
	"mood-journal-be/internal/repository/specification"
	"mood-journal-be/internal/repository/unitofwork"
	"mood-journal-be/pkg/llm"
	"mood-journal-be/pkg/store"
)

// --- Fakes ---

type fakeLLM struct {
	reply    string
	err      error
	received [][]llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.received = append(f.received, history)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type fakeBusPublisher struct {
	payloads []dto.SessionChangedMessage
	err      error
}

func (f *fakeBusPublisher) Publish(ctx context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	var msg dto.SessionChangedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	f.payloads = append(f.payloads, msg)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{}) {}
func (nopLogger) Warn(module, message string, details map[string]interface{}) {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error { return nil }

// fakeStore backs the fake repositories. Writes inside an open transaction
// are staged and only become visible after Commit.
type fakeStore struct {
	sessions map[uuid.UUID]*entity.ChatSession
	messages []*entity.ChatMessage

	failSessionUpdate bool
	failBulkCreate    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[uuid.UUID]*entity.ChatSession)}
}

type fakeUow struct {
	store *fakeStore

	inTx            bool
	stagedMessages  []*entity.ChatMessage
	commitCount     int
	rollbackCount   int
	deletedMessages map[uuid.UUID]bool
	deletedSessions map[uuid.UUID]bool
}

func newFakeUow(store *fakeStore) *fakeUow {
	return &fakeUow{
		store:           store,
		deletedMessages: make(map[uuid.UUID]bool),
		deletedSessions: make(map[uuid.UUID]bool),
	}
}

func (u *fakeUow) Begin(ctx context.Context) error { u.inTx = true; return nil }

func (u *fakeUow) Commit() error {
	u.store.messages = append(u.store.messages, u.stagedMessages...)
	for chatId := range u.deletedMessages {
		kept := u.store.messages[:0]
		for _, m := range u.store.messages {
			if m.ChatId != chatId {
				kept = append(kept, m)
			}
		}
		u.store.messages = kept
	}
	for id := range u.deletedSessions {
		delete(u.store.sessions, id)
	}
	u.stagedMessages = nil
	u.inTx = false
	u.commitCount++
	return nil
}

func (u *fakeUow) Rollback() error {
	if u.inTx {
		u.stagedMessages = nil
		u.deletedMessages = make(map[uuid.UUID]bool)
		u.deletedSessions = make(map[uuid.UUID]bool)
		u.inTx = false
		u.rollbackCount++
	}
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository { return nil }
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{uow: u}
}
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{uow: u}
}

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeSessionRepo struct {
	uow *fakeUow
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	r.uow.store.sessions[s.Id] = s
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error {
	if r.uow.store.failSessionUpdate {
		return errors.New("update rejected")
	}
	r.uow.store.sessions[s.Id] = s
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := r.uow.store.sessions[id]; !ok {
		return 0, nil
	}
	if r.uow.inTx {
		r.uow.deletedSessions[id] = true
	} else {
		delete(r.uow.store.sessions, id)
	}
	return 1, nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var wantId *uuid.UUID
	var wantUser *uuid.UUID
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			id := s.ID
			wantId = &id
		case specification.UserOwnedBy:
			uid := s.UserID
			wantUser = &uid
		}
	}
	for _, sess := range r.uow.store.sessions {
		if wantId != nil && sess.Id != *wantId {
			continue
		}
		if wantUser != nil && sess.UserId != *wantUser {
			continue
		}
		copied := *sess
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var wantUser *uuid.UUID
	desc := false
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.UserOwnedBy:
			uid := s.UserID
			wantUser = &uid
		case specification.OrderBy:
			desc = s.Desc
		}
	}
	var out []*entity.ChatSession
	for _, sess := range r.uow.store.sessions {
		if wantUser != nil && sess.UserId != *wantUser {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.uow.store.sessions)), nil
}

type fakeMessageRepo struct {
	uow *fakeUow
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	return r.CreateBulk(ctx, []*entity.ChatMessage{m})
}

func (r *fakeMessageRepo) CreateBulk(ctx context.Context, msgs []*entity.ChatMessage) error {
	if r.uow.store.failBulkCreate {
		return errors.New("insert rejected")
	}
	if r.uow.inTx {
		r.uow.stagedMessages = append(r.uow.stagedMessages, msgs...)
	} else {
		r.uow.store.messages = append(r.uow.store.messages, msgs...)
	}
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var wantChat *uuid.UUID
	for _, spec := range specs {
		if s, ok := spec.(specification.ByChatID); ok {
			id := s.ChatID
			wantChat = &id
		}
	}
	var out []*entity.ChatMessage
	for _, m := range r.uow.store.messages {
		if wantChat != nil && m.ChatId != *wantChat {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) DeleteByChatId(ctx context.Context, chatId uuid.UUID) (int64, error) {
	var count int64
	for _, m := range r.uow.store.messages {
		if m.ChatId == chatId {
			count++
		}
	}
	if r.uow.inTx {
		r.uow.deletedMessages[chatId] = true
	} else {
		kept := r.uow.store.messages[:0]
		for _, m := range r.uow.store.messages {
			if m.ChatId != chatId {
				kept = append(kept, m)
			}
		}
		r.uow.store.messages = kept
	}
	return count, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.uow.store.messages)), nil
}

// --- Harness ---

type harness struct {
	store   *fakeStore
	llm     *fakeLLM
	bus     *fakeBusPublisher
	cache   *memory.SessionCache
	service IJournalService
}

func newHarness() *harness {
	store := newFakeStore()
	llmFake := &fakeLLM{reply: "That sounds like a lot. What helped you get through it?"}
	bus := &fakeBusPublisher{}
	cache := memory.NewSessionCache()
	svc := NewJournalService(
		&fakeFactory{uow: newFakeUow(store)},
		llmFake,
		cache,
		bus,
		nil, // no durable event log in unit tests
		nopLogger{},
	)
	return &harness{store: store, llm: llmFake, bus: bus, cache: cache, service: svc}
}

func (h *harness) seedSession(userId uuid.UUID, title string) *entity.ChatSession {
	sess := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	h.store.sessions[sess.Id] = sess
	return sess
}

// --- Tests ---

func TestConverseRejectsEmptyMessage(t *testing.T) {
	h := newHarness()
	userId := uuid.New()

	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{Message: input})
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	assert.Empty(t, h.llm.received, "provider must not be called for empty input")
	assert.Empty(t, h.store.messages)
}

func TestConverseStatelessWritesNothing(t *testing.T) {
	h := newHarness()
	userId := uuid.New()

	res, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "Today was quiet.",
		History: []dto.TurnDTO{
			{Role: constant.ChatMessageRoleUser, Content: "Hi"},
			{Role: constant.ChatMessageRoleAi, Content: "Hello, how was your day?"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, h.llm.reply, res.Reply)

	assert.Empty(t, h.store.messages, "no chatId means no writes")
	assert.Empty(t, h.store.sessions)
	assert.Empty(t, h.bus.payloads)
}

func TestConverseMapsRolesForProvider(t *testing.T) {
	h := newHarness()
	userId := uuid.New()

	_, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "And today?",
		History: []dto.TurnDTO{
			{Role: constant.ChatMessageRoleUser, Content: "Yesterday was rough."},
			{Role: constant.ChatMessageRoleAi, Content: "I'm sorry to hear that."},
		},
	})
	require.NoError(t, err)

	require.Len(t, h.llm.received, 1)
	sent := h.llm.received[0]
	require.Len(t, sent, 3)
	assert.Equal(t, "user", sent[0].Role)
	assert.Equal(t, "assistant", sent[1].Role)
	assert.Equal(t, "user", sent[2].Role)
	assert.Equal(t, "And today?", sent[2].Content)
}

func TestConversePersistsPairAndDerivesTitle(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, constant.DefaultSessionTitle)

	message := "Work was stressful today and I could not focus at all, my mind kept racing."
	res, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: message,
		ChatId:  &sess.Id,
	})
	require.NoError(t, err)
	assert.Equal(t, h.llm.reply, res.Reply)

	require.Len(t, h.store.messages, 2)
	userMsg, aiMsg := h.store.messages[0], h.store.messages[1]
	assert.Equal(t, constant.ChatMessageRoleUser, userMsg.Role)
	assert.Equal(t, message, userMsg.Content)
	assert.Equal(t, constant.ChatMessageRoleAi, aiMsg.Role)
	assert.Equal(t, h.llm.reply, aiMsg.Content)
	assert.Equal(t, userMsg.CreatedAt.Add(time.Second), aiMsg.CreatedAt, "ai row is ordered after the user row")

	// First exchange names the session from the message.
	updated := h.store.sessions[sess.Id]
	assert.Equal(t, string([]rune(message)[:constant.SessionTitleMaxRunes])+"...", updated.Title)

	// Activity is announced on the bus.
	require.NotEmpty(t, h.bus.payloads)
	last := h.bus.payloads[len(h.bus.payloads)-1]
	assert.Equal(t, constant.SessionEventActivity, last.Event)
	assert.Equal(t, sess.Id, last.SessionId)
}

func TestConverseShortFirstMessageKeptAsTitle(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, constant.DefaultSessionTitle)

	_, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "  Rough morning  ",
		ChatId:  &sess.Id,
	})
	require.NoError(t, err)

	assert.Equal(t, "Rough morning", h.store.sessions[sess.Id].Title)
}

func TestConverseKeepsTitleWhenHistoryExists(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, "Rough morning")

	_, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "It got better in the afternoon.",
		History: []dto.TurnDTO{
			{Role: constant.ChatMessageRoleUser, Content: "Rough morning"},
			{Role: constant.ChatMessageRoleAi, Content: "What made it rough?"},
		},
		ChatId: &sess.Id,
	})
	require.NoError(t, err)

	assert.Equal(t, "Rough morning", h.store.sessions[sess.Id].Title, "title only set on the first exchange")
	assert.Len(t, h.store.messages, 2)
}

func TestConverseLoadsStoredHistoryWhenOmitted(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, "Rough morning")
	h.store.messages = append(h.store.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatId: sess.Id, Role: constant.ChatMessageRoleUser, Content: "Rough morning", CreatedAt: time.Now().Add(-time.Minute)},
		&entity.ChatMessage{Id: uuid.New(), ChatId: sess.Id, Role: constant.ChatMessageRoleAi, Content: "What made it rough?", CreatedAt: time.Now().Add(-time.Minute + time.Second)},
	)

	_, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "Mostly the commute.",
		ChatId:  &sess.Id,
	})
	require.NoError(t, err)

	require.Len(t, h.llm.received, 1)
	sent := h.llm.received[0]
	require.Len(t, sent, 3, "stored turns are loaded as context")
	assert.Equal(t, "Rough morning", sent[0].Content)
	assert.Equal(t, "assistant", sent[1].Role)

	// Stored history was non-empty, so the title stays.
	assert.Equal(t, "Rough morning", h.store.sessions[sess.Id].Title)
}

func TestConverseTitleFailureDoesNotFailCall(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, constant.DefaultSessionTitle)
	h.store.failSessionUpdate = true

	res, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "First entry",
		ChatId:  &sess.Id,
	})
	require.NoError(t, err, "a failed title assignment is swallowed")
	assert.NotEmpty(t, res.Reply)

	assert.Len(t, h.store.messages, 2, "message pair is already committed")
	assert.Equal(t, constant.DefaultSessionTitle, h.store.sessions[sess.Id].Title)
}

func TestConverseProviderFailureWritesNothing(t *testing.T) {
	h := newHarness()
	h.llm.err = errors.New("upstream unavailable")
	userId := uuid.New()
	sess := h.seedSession(userId, constant.DefaultSessionTitle)

	_, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "Hello?",
		ChatId:  &sess.Id,
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "generate reply"))

	assert.Empty(t, h.store.messages, "downstream failure must leave zero rows")
	assert.Equal(t, constant.DefaultSessionTitle, h.store.sessions[sess.Id].Title)
}

func TestConversePersistFailureReturnsError(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, constant.DefaultSessionTitle)
	h.store.failBulkCreate = true

	_, err := h.service.Converse(context.Background(), userId, &dto.ConverseRequest{
		Message: "First entry",
		ChatId:  &sess.Id,
	})
	require.Error(t, err)
	assert.Empty(t, h.store.messages)
	assert.Equal(t, constant.DefaultSessionTitle, h.store.sessions[sess.Id].Title, "no partial side effects")
}

func TestConverseUnknownSession(t *testing.T) {
	h := newHarness()
	unknown := uuid.New()

	_, err := h.service.Converse(context.Background(), uuid.New(), &dto.ConverseRequest{
		Message: "Hello",
		ChatId:  &unknown,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, h.llm.received)
}

func TestConverseForeignSessionDenied(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	sess := h.seedSession(owner, "Private")

	_, err := h.service.Converse(context.Background(), uuid.New(), &dto.ConverseRequest{
		Message: "Hello",
		ChatId:  &sess.Id,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateSessionDefaults(t *testing.T) {
	h := newHarness()
	userId := uuid.New()

	res, err := h.service.CreateSession(context.Background(), userId, &dto.CreateSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultSessionTitle, res.Title)

	stored := h.store.sessions[res.Id]
	require.NotNil(t, stored)
	assert.Equal(t, userId, stored.UserId)

	require.Len(t, h.bus.payloads, 1)
	assert.Equal(t, constant.SessionEventCreated, h.bus.payloads[0].Event)

	snap, found := h.cache.Get(res.Id.String())
	require.True(t, found)
	assert.Equal(t, constant.DefaultSessionTitle, snap.Title)
}

func TestGetAllSessionsNewestFirst(t *testing.T) {
	h := newHarness()
	userId := uuid.New()

	older := h.seedSession(userId, "Older")
	newer := &entity.ChatSession{Id: uuid.New(), UserId: userId, Title: "Newer", CreatedAt: time.Now()}
	h.store.sessions[newer.Id] = newer
	h.seedSession(uuid.New(), "Foreign")

	res, err := h.service.GetAllSessions(context.Background(), userId)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, newer.Id, res[0].Id)
	assert.Equal(t, older.Id, res[1].Id)
}

func TestGetChatHistoryOwnershipChecked(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	sess := h.seedSession(owner, "Mine")
	h.store.messages = append(h.store.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatId: sess.Id, Role: constant.ChatMessageRoleUser, Content: "Entry", CreatedAt: time.Now()},
	)

	_, err := h.service.GetChatHistory(context.Background(), uuid.New(), sess.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	res, err := h.service.GetChatHistory(context.Background(), owner, sess.Id)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Entry", res[0].Content)
}

func TestDeleteSessionRemovesMessagesFirst(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, "Doomed")
	h.store.messages = append(h.store.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatId: sess.Id, Role: constant.ChatMessageRoleUser, Content: "a", CreatedAt: time.Now()},
		&entity.ChatMessage{Id: uuid.New(), ChatId: sess.Id, Role: constant.ChatMessageRoleAi, Content: "b", CreatedAt: time.Now()},
	)
	h.cache.Save(&store.SessionSnapshot{ID: sess.Id.String(), UserID: userId.String(), Title: sess.Title, LastActivity: time.Now()})

	err := h.service.DeleteSession(context.Background(), userId, sess.Id)
	require.NoError(t, err)

	assert.Empty(t, h.store.messages)
	assert.NotContains(t, h.store.sessions, sess.Id)

	_, found := h.cache.Get(sess.Id.String())
	assert.False(t, found)

	require.NotEmpty(t, h.bus.payloads)
	assert.Equal(t, constant.SessionEventDeleted, h.bus.payloads[len(h.bus.payloads)-1].Event)
}

func TestDeleteSessionUnknownOrForeign(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	sess := h.seedSession(owner, "Private")

	assert.ErrorIs(t, h.service.DeleteSession(context.Background(), uuid.New(), sess.Id), ErrSessionNotFound)
	assert.ErrorIs(t, h.service.DeleteSession(context.Background(), owner, uuid.New()), ErrSessionNotFound)
	assert.Contains(t, h.store.sessions, sess.Id)
}

func TestRenameSessionPublishesEvent(t *testing.T) {
	h := newHarness()
	userId := uuid.New()
	sess := h.seedSession(userId, "Old name")

	err := h.service.RenameSession(context.Background(), userId, sess.Id, &dto.RenameSessionRequest{Title: "  New name  "})
	require.NoError(t, err)

	assert.Equal(t, "New name", h.store.sessions[sess.Id].Title)
	require.NotEmpty(t, h.bus.payloads)
	last := h.bus.payloads[len(h.bus.payloads)-1]
	assert.Equal(t, constant.SessionEventRenamed, last.Event)
	assert.Equal(t, "New name", last.Title)
}
