package mapper

import (
	"encoding/json"
	"time"

	"mood-journal-be/internal/entity"
	"mood-journal-be/internal/model"

	"gorm.io/datatypes"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}

	prefs := map[string]interface{}{}
	if len(u.Preferences) > 0 {
		// Malformed JSON leaves preferences empty rather than failing the read
		_ = json.Unmarshal(u.Preferences, &prefs)
	}

	return &entity.User{
		Id:            u.Id,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FullName:      u.FullName,
		IsAnonymous:   u.IsAnonymous,
		Role:          entity.UserRole(u.Role),
		Status:        entity.UserStatus(u.Status),
		EmailVerified: u.EmailVerified,
		Preferences:   prefs,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}

	var prefs datatypes.JSON
	if u.Preferences != nil {
		if b, err := json.Marshal(u.Preferences); err == nil {
			prefs = datatypes.JSON(b)
		}
	}

	updatedAt := u.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	return &model.User{
		Id:            u.Id,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FullName:      u.FullName,
		IsAnonymous:   u.IsAnonymous,
		Role:          string(u.Role),
		Status:        string(u.Status),
		EmailVerified: u.EmailVerified,
		Preferences:   prefs,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}
