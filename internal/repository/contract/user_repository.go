package contract

import (
	"context"

	"mood-journal-be/internal/entity"
	"mood-journal-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	ActivateUser(ctx context.Context, userId uuid.UUID) error
	UpdatePreferences(ctx context.Context, userId uuid.UUID, prefs map[string]interface{}) error

	// Token management kept on the user repo for cohesion
	CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error
	FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error)
	DeleteEmailVerificationToken(ctx context.Context, id uuid.UUID) error

	CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error

	FindProvider(ctx context.Context, providerName, providerUserId string) (*entity.UserProvider, error)
	CreateProvider(ctx context.Context, provider *entity.UserProvider) error
}
