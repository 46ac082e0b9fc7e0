package auth

import "context"

// Directory defines the credential lookup used by the login flow.
// The in-memory implementation carries the fixed demo table; database-backed
// implementations allow swapping storage without touching the session layer.
type Directory interface {
	// Lookup returns an account by exact (case-sensitive) email. If the
	// account is not found, (nil, ErrAccountNotFound) should be returned.
	Lookup(ctx context.Context, email string) (*Account, error)

	// Create stores a new account. Caller passes a bcrypt-hashed password.
	// Implementations must return ErrAccountExists on conflict.
	Create(ctx context.Context, account Account) error

	// Close releases underlying connections.
	Close() error
}

// SeedAccount — строка фиксированной таблицы логинов (пароль в открытом виде).
type SeedAccount struct {
	Email    string
	Password string
	Role     Role
	Name     string
}

// DefaultAccounts — демо-таблица логинов сайта.
var DefaultAccounts = []SeedAccount{
	{Email: "admin@bookit.com", Password: "admin123", Role: RoleAdmin, Name: "Admin User"},
	{Email: "user@bookit.com", Password: "user123", Role: RoleUser, Name: "Regular User"},
}

// Seed хеширует пароли и добавляет учётные записи, пропуская уже существующие.
func Seed(ctx context.Context, dir Directory, seeds []SeedAccount) error {
	for _, s := range seeds {
		hash, err := HashPassword(s.Password)
		if err != nil {
			return err
		}
		err = dir.Create(ctx, Account{
			Email:        s.Email,
			PasswordHash: hash,
			Role:         s.Role,
			Name:         s.Name,
		})
		if err != nil && err != ErrAccountExists {
			return err
		}
	}
	return nil
}
