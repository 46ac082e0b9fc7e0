package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore — встроенное хранилище на BadgerDB для одиночного инстанса.
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore открывает (или создаёт) базу в dataPath/clients.
func NewBadgerStore(dataPath string) (*BadgerStore, error) {
	dbPath := filepath.Join(dataPath, "clients")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

func badgerKey(clientID, key string) []byte {
	return []byte("client:" + clientID + ":" + key)
}

// Get implements Store.
func (bs *BadgerStore) Get(_ context.Context, clientID, key string) ([]byte, error) {
	if err := validate(clientID, key); err != nil {
		return nil, err
	}

	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if !bs.isReady {
		return nil, fmt.Errorf("%w: хранилище закрыто", ErrUnavailable)
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(clientID, key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения из BadgerDB: %v", ErrUnavailable, err)
	}
	return data, nil
}

// Set implements Store.
func (bs *BadgerStore) Set(_ context.Context, clientID, key string, value []byte) error {
	if err := validate(clientID, key); err != nil {
		return err
	}

	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if !bs.isReady {
		return fmt.Errorf("%w: хранилище закрыто", ErrUnavailable)
	}

	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(clientID, key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: ошибка сохранения в BadgerDB: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete implements Store.
func (bs *BadgerStore) Delete(_ context.Context, clientID, key string) error {
	if err := validate(clientID, key); err != nil {
		return err
	}

	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if !bs.isReady {
		return fmt.Errorf("%w: хранилище закрыто", ErrUnavailable)
	}

	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(clientID, key))
	})
	if err != nil {
		return fmt.Errorf("%w: ошибка удаления из BadgerDB: %v", ErrUnavailable, err)
	}
	return nil
}

// Close закрывает хранилище данных
func (bs *BadgerStore) Close() error {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if !bs.isReady {
		return nil
	}

	bs.isReady = false
	return bs.db.Close()
}
