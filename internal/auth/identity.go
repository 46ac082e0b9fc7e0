package auth

import (
	"errors"
	"fmt"
)

// Role — роль пользователя на сайте.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Identity — запись об аутентифицированном пользователе.
// Хранится в cookie "user" и в клиентском кеше под ключом "user".
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
}

// IsAdmin возвращает true для администраторов.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Validate проверяет, что запись имеет ожидаемую форму.
func (i Identity) Validate() error {
	if i.Email == "" {
		return errors.New("identity: empty email")
	}
	if !i.Role.Valid() {
		return fmt.Errorf("identity: unknown role %q", i.Role)
	}
	return nil
}

// Account — учётная запись в справочнике логинов.
type Account struct {
	Email        string
	PasswordHash string // bcrypt
	Role         Role
	Name         string
}

// Identity строит запись сессии из учётной записи.
func (a *Account) Identity() Identity {
	return Identity{Email: a.Email, Role: a.Role, Name: a.Name}
}

// Domain-level errors.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMalformedIdentity  = errors.New("malformed identity record")
)
