package storage

import (
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type InmemoryStore struct {
	mu     sync.RWMutex
	values []byte
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{
		values: []byte(""),
	}
}

func (i *InmemoryStore) Set(path string, value interface{}) (err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.values, err = sjson.SetBytes(i.values, path, value)
	return err
}

func (i *InmemoryStore) Get(path string) gjson.Result {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return gjson.GetBytes(i.values, path)
}

func (i *InmemoryStore) Restore(values []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.values = values
	return nil
}

func (i *InmemoryStore) Backup() ([]byte, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.values) == 0 {
		return []byte("{}"), nil
	}

	return i.values, nil
}

var _ Store = (*InmemoryStore)(nil)
