package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood-journal-be/internal/dto"
	"mood-journal-be/internal/service"
)

type stubJournalService struct {
	converseRes *dto.ConverseResponse
	converseErr error
	converseReq *dto.ConverseRequest

	sessions   []*dto.GetAllSessionsResponse
	history    []*dto.GetChatHistoryResponse
	historyErr error
	renameErr  error
	deleteErr  error
}

func (s *stubJournalService) Converse(ctx context.Context, userId uuid.UUID, request *dto.ConverseRequest) (*dto.ConverseResponse, error) {
	s.converseReq = request
	if s.converseErr != nil {
		return nil, s.converseErr
	}
	return s.converseRes, nil
}

func (s *stubJournalService) CreateSession(ctx context.Context, userId uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	return &dto.CreateSessionResponse{Id: uuid.New(), Title: "New Journal"}, nil
}

func (s *stubJournalService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	return s.sessions, nil
}

func (s *stubJournalService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func (s *stubJournalService) RenameSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.RenameSessionRequest) error {
	return s.renameErr
}

func (s *stubJournalService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	return s.deleteErr
}

// newTestApp mirrors the real route layout but swaps the JWT middleware for a
// stub that injects a fixed authenticated user.
func newTestApp(svc service.IJournalService, userId uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userId.String())
		return c.Next()
	})
	c := NewJournalController(svc)
	api := app.Group("/api")
	api.Post("/chat", c.Converse)
	h := api.Group("/journal/v1")
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions", c.GetAllSessions)
	h.Get("/sessions/:id/messages", c.GetChatHistory)
	h.Put("/sessions/:id", c.RenameSession)
	h.Delete("/sessions/:id", c.DeleteSession)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

func TestConverseHandlerSuccess(t *testing.T) {
	svc := &stubJournalService{converseRes: &dto.ConverseResponse{Reply: "Tell me more."}}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "POST", "/api/chat", `{"message":"Today was hard"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Tell me more.", body["reply"])
	_, hasError := body["error"]
	assert.False(t, hasError)

	require.NotNil(t, svc.converseReq)
	assert.Equal(t, "Today was hard", svc.converseReq.Message)
	assert.Nil(t, svc.converseReq.History)
	assert.Nil(t, svc.converseReq.ChatId)
}

func TestConverseHandlerForwardsSessionAndHistory(t *testing.T) {
	svc := &stubJournalService{converseRes: &dto.ConverseResponse{Reply: "ok"}}
	app := newTestApp(svc, uuid.New())
	chatId := uuid.New()

	payload := `{"message":"And today?","chatId":"` + chatId.String() + `","history":[{"role":"user","content":"hi"},{"role":"ai","content":"hello"}]}`
	status, _ := doJSON(t, app, "POST", "/api/chat", payload)
	assert.Equal(t, fiber.StatusOK, status)

	require.NotNil(t, svc.converseReq.ChatId)
	assert.Equal(t, chatId, *svc.converseReq.ChatId)
	require.Len(t, svc.converseReq.History, 2)
	assert.Equal(t, "ai", svc.converseReq.History[1].Role)
}

func TestConverseHandlerEmptyMessage(t *testing.T) {
	svc := &stubJournalService{converseErr: service.ErrEmptyMessage}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "POST", "/api/chat", `{"message":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Message is required", body["error"])
}

func TestConverseHandlerMalformedBody(t *testing.T) {
	svc := &stubJournalService{converseRes: &dto.ConverseResponse{Reply: "unused"}}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "POST", "/api/chat", `{"message":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["error"])
	assert.Nil(t, svc.converseReq, "service is not reached on a parse failure")
}

func TestConverseHandlerUnknownSession(t *testing.T) {
	svc := &stubJournalService{converseErr: service.ErrSessionNotFound}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "POST", "/api/chat", `{"message":"hi","chatId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Session not found", body["error"])
}

func TestConverseHandlerDownstreamFailure(t *testing.T) {
	svc := &stubJournalService{converseErr: context.DeadlineExceeded}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "POST", "/api/chat", `{"message":"hi"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to generate a reply", body["error"])
}

func TestCreateSessionHandlerEnvelope(t *testing.T) {
	svc := &stubJournalService{}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "POST", "/api/journal/v1/sessions", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "New Journal", data["title"])
}

func TestGetAllSessionsHandler(t *testing.T) {
	now := time.Now()
	svc := &stubJournalService{sessions: []*dto.GetAllSessionsResponse{
		{Id: uuid.New(), Title: "Newer", CreatedAt: now},
		{Id: uuid.New(), Title: "Older", CreatedAt: now.Add(-time.Hour)},
	}}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "GET", "/api/journal/v1/sessions", "")
	assert.Equal(t, fiber.StatusOK, status)
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "Newer", first["title"])
}

func TestGetChatHistoryHandlerErrors(t *testing.T) {
	svc := &stubJournalService{historyErr: service.ErrSessionNotFound}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "GET", "/api/journal/v1/sessions/"+uuid.NewString()+"/messages", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	status, _ = doJSON(t, app, "GET", "/api/journal/v1/sessions/not-a-uuid/messages", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRenameSessionHandlerValidation(t *testing.T) {
	svc := &stubJournalService{}
	app := newTestApp(svc, uuid.New())
	target := "/api/journal/v1/sessions/" + uuid.NewString()

	status, _ := doJSON(t, app, "PUT", target, `{"title":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status, "an empty title fails validation")

	status, body := doJSON(t, app, "PUT", target, `{"title":"Renamed"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestDeleteSessionHandler(t *testing.T) {
	svc := &stubJournalService{}
	app := newTestApp(svc, uuid.New())

	status, body := doJSON(t, app, "DELETE", "/api/journal/v1/sessions/"+uuid.NewString(), "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	svc.deleteErr = service.ErrSessionNotFound
	status, _ = doJSON(t, app, "DELETE", "/api/journal/v1/sessions/"+uuid.NewString(), "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
