package auth

import (
	"context"
	"sync"
)

// MemoryDirectory is a threadsafe in-memory credential table.
// Emails are matched exactly, without case folding.
type MemoryDirectory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryDirectory returns a directory pre-populated with the given seeds.
func NewMemoryDirectory(seeds []SeedAccount) (*MemoryDirectory, error) {
	dir := &MemoryDirectory{accounts: make(map[string]*Account)}
	if err := Seed(context.Background(), dir, seeds); err != nil {
		return nil, err
	}
	return dir, nil
}

// Lookup implements Directory.
func (d *MemoryDirectory) Lookup(_ context.Context, email string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc, ok := d.accounts[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

// Create implements Directory.
func (d *MemoryDirectory) Create(_ context.Context, account Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.accounts[account.Email]; exists {
		return ErrAccountExists
	}
	d.accounts[account.Email] = &account
	return nil
}

// Close implements Directory.
func (d *MemoryDirectory) Close() error { return nil }
