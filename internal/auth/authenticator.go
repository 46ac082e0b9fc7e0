package auth

import (
	"context"
	"errors"
	"fmt"
)

// Authenticator проверяет пару email/пароль по справочнику.
type Authenticator struct {
	dir Directory
}

// NewAuthenticator создает аутентификатор поверх справочника.
func NewAuthenticator(dir Directory) *Authenticator {
	return &Authenticator{dir: dir}
}

// Authenticate возвращает Identity при точном совпадении email и пароля.
// Неизвестный email и неверный пароль неразличимы для вызывающего: ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	acc, err := a.dir.Lookup(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup %s: %w", email, err)
	}

	if !CheckPassword(acc.PasswordHash, password) {
		return Identity{}, ErrInvalidCredentials
	}
	return acc.Identity(), nil
}
