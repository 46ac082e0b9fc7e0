package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MariaConfig содержит настройки подключения к MariaDB
type MariaConfig struct {
	Host     string // например, localhost
	Port     int    // например, 3306
	Database string // например, bookit
	Username string // пользователь БД
	Password string // пароль БД
}

// MariaDirectory реализует Directory для MariaDB/MySQL
type MariaDirectory struct {
	db *sql.DB
}

// NewMariaDirectory открывает подключение, создаёт таблицу и заносит демо-логины.
func NewMariaDirectory(cfg MariaConfig, seeds []SeedAccount) (*MariaDirectory, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.Database == "" {
		cfg.Database = "bookit"
	}

	dsn := mysql.Config{
		User:                 cfg.Username,
		Passwd:               cfg.Password,
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DBName:               cfg.Database,
		ParseTime:            true,
		AllowNativePasswords: true,
		Params:               map[string]string{"charset": "utf8mb4"},
	}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть подключение к MariaDB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	d := &MariaDirectory{db: db}
	if err := d.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицы: %w", err)
	}
	if err := Seed(ctx, d, seeds); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать учётные записи по умолчанию: %w", err)
	}

	return d, nil
}

// createTables создает таблицу учётных записей, если её нет.
// email сравнивается побайтно (utf8mb4_bin), как и в in-memory справочнике.
func (d *MariaDirectory) createTables(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS accounts (
		email VARCHAR(255) NOT NULL PRIMARY KEY,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;`)
	return err
}

// Lookup implements Directory.
func (d *MariaDirectory) Lookup(ctx context.Context, email string) (*Account, error) {
	var acc Account
	var role string
	err := d.db.QueryRowContext(ctx,
		`SELECT email, password_hash, role, name FROM accounts WHERE email = ?`, email,
	).Scan(&acc.Email, &acc.PasswordHash, &role, &acc.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении учётной записи: %w", err)
	}
	acc.Role = Role(role)
	return &acc, nil
}

// Create implements Directory.
func (d *MariaDirectory) Create(ctx context.Context, account Account) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO accounts (email, password_hash, role, name) VALUES (?, ?, ?, ?)`,
		account.Email, account.PasswordHash, string(account.Role), account.Name,
	)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("ошибка при создании учётной записи: %w", err)
	}
	return nil
}

// Close закрывает подключение к БД
func (d *MariaDirectory) Close() error {
	return d.db.Close()
}
