package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"mood-journal-be/internal/constant"
	"mood-journal-be/internal/entity"
	"mood-journal-be/internal/repository/specification"
	"mood-journal-be/internal/repository/unitofwork"
	"mood-journal-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.ChatSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Check Transactional Session Write", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		user := &entity.User{
			Id:       userId,
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     entity.UserRoleUser,
			Status:   entity.UserStatusActive,
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)

		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:        sessionId,
			UserId:    userId,
			Title:     constant.DefaultSessionTitle,
			CreatedAt: time.Now(),
		}
		err = uow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		// Message pair lands atomically, exactly how Converse writes it.
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		now := time.Now()
		pair := []*entity.ChatMessage{
			{Id: uuid.New(), ChatId: sessionId, Role: constant.ChatMessageRoleUser, Content: "integration entry", CreatedAt: now},
			{Id: uuid.New(), ChatId: sessionId, Role: constant.ChatMessageRoleAi, Content: "integration reply", CreatedAt: now.Add(time.Second)},
		}
		err = uow.ChatMessageRepository().CreateBulk(ctx, pair)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		stored, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.ByChatID{ChatID: sessionId},
			specification.OrderBy{Field: "created_at", Desc: false},
		)
		assert.NoError(t, err)
		if assert.Len(t, stored, 2) {
			assert.Equal(t, constant.ChatMessageRoleUser, stored[0].Role)
			assert.Equal(t, constant.ChatMessageRoleAi, stored[1].Role)
		}

		// Cleanup in dependency order
		_, err = uow.ChatMessageRepository().DeleteByChatId(ctx, sessionId)
		assert.NoError(t, err)
		affected, err := uow.ChatSessionRepository().Delete(ctx, sessionId)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, affected)

		t.Log("Successfully wrote and removed a session with its message pair")
	})
}
