package users

import (
	"context"

	"github.com/udisondev/codenames/internal/model"
)

// Repository определяет интерфейс для работы с учётными записями.
// Используется для dependency injection в тестах.
type Repository interface {
	// GetByID возвращает пользователя по логину.
	// Возвращает nil, nil если пользователь не найден.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByNickname возвращает пользователя по нику.
	// Возвращает nil, nil если пользователь не найден.
	GetByNickname(ctx context.Context, nick string) (*model.User, error)

	// Create создаёт нового пользователя.
	// Возвращает ErrDuplicate при конфликте id или ника.
	Create(ctx context.Context, u *model.User) error

	// UpdateNickname меняет ник пользователя.
	UpdateNickname(ctx context.Context, id, nick string) error

	// UpdateReports записывает счётчик жалоб и флаг блокировки.
	UpdateReports(ctx context.Context, id string, count int, suspended bool) error

	// AddResult инкрементирует wins либо losses.
	AddResult(ctx context.Context, id string, win bool) error
}
