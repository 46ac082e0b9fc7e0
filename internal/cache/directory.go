package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/logging"
)

// cachedAccount — сериализуемая форма auth.Account.
type cachedAccount struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         auth.Role `json:"role"`
	Name         string    `json:"name"`
}

func accountKey(email string) string { return "account:" + email }

// Directory — read-through кеш поверх auth.Directory. Каждый логин
// делает Lookup, поэтому MariaDB/MongoDB разгружается на время TTL.
// Ошибки кеша не ломают логин: запрос уходит в исходный каталог.
type Directory struct {
	inner       auth.Directory
	repo        Repo
	invalidator Invalidator
	ttl         time.Duration
	log         *logging.Logger
	cancel      context.CancelFunc
}

// NewDirectory оборачивает inner. invalidator может быть nil.
func NewDirectory(inner auth.Directory, repo Repo, invalidator Invalidator, ttl time.Duration) (*Directory, error) {
	d := &Directory{
		inner:       inner,
		repo:        repo,
		invalidator: invalidator,
		ttl:         ttl,
		log:         logging.GetComponentLogger("cache"),
	}
	if invalidator != nil {
		ctx, cancel := context.WithCancel(context.Background())
		d.cancel = cancel
		err := invalidator.SubscribeInvalidations(ctx, func(key string) error {
			return repo.Delete(context.Background(), key)
		})
		if err != nil {
			cancel()
			return nil, err
		}
	}
	return d, nil
}

// Lookup implements auth.Directory.
func (d *Directory) Lookup(ctx context.Context, email string) (*auth.Account, error) {
	key := accountKey(email)

	data, err := d.repo.Get(ctx, key)
	if err == nil {
		var ca cachedAccount
		if jsonErr := json.Unmarshal(data, &ca); jsonErr == nil {
			return &auth.Account{Email: ca.Email, PasswordHash: ca.PasswordHash, Role: ca.Role, Name: ca.Name}, nil
		}
		_ = d.repo.Delete(ctx, key)
	} else if !IsCacheMiss(err) {
		d.log.Warn("account cache get %s: %v", email, err)
	}

	acc, err := d.inner.Lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(cachedAccount{Email: acc.Email, PasswordHash: acc.PasswordHash, Role: acc.Role, Name: acc.Name})
	if err == nil {
		err = d.repo.Set(ctx, key, data, d.ttl)
	}
	if err != nil {
		d.log.Warn("account cache set %s: %v", email, err)
	}
	return acc, nil
}

// Create implements auth.Directory. Кешированная запись сбрасывается
// локально и на остальных инстансах.
func (d *Directory) Create(ctx context.Context, account auth.Account) error {
	if err := d.inner.Create(ctx, account); err != nil {
		return err
	}
	d.Invalidate(ctx, account.Email)
	return nil
}

// Invalidate сбрасывает запись по email.
func (d *Directory) Invalidate(ctx context.Context, email string) {
	key := accountKey(email)
	if err := d.repo.Delete(ctx, key); err != nil {
		d.log.Warn("account cache delete %s: %v", email, err)
	}
	if d.invalidator != nil {
		if err := d.invalidator.PublishInvalidation(ctx, key); err != nil {
			d.log.Warn("account cache invalidation %s: %v", email, err)
		}
	}
}

// Metrics возвращает метрики кеша.
func (d *Directory) Metrics() *Metrics { return d.repo.GetMetrics() }

// Close implements auth.Directory.
func (d *Directory) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	var errs []error
	if d.invalidator != nil {
		errs = append(errs, d.invalidator.Close())
	}
	errs = append(errs, d.repo.Close(), d.inner.Close())
	return errors.Join(errs...)
}
