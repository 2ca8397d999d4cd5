package dashboard

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultStoreSize = 1024

// Store keeps sessions in memory. When it is full the least recently used
// session is evicted and its state is lost.
type Store struct {
	cache *lru.Cache[string, *Session]
}

func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultStoreSize
	}
	cache, err := lru.New[string, *Session](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Store{cache: cache}, nil
}

// Get returns the session for id, if it is still held.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return s.cache.Get(id)
}

// GetOrCreate returns the session for id, or a new idle session under a
// fresh id when id is unknown or evicted.
func (s *Store) GetOrCreate(id string) *Session {
	if sess, ok := s.Get(id); ok {
		return sess
	}
	sess := NewSession(uuid.NewString())
	s.cache.Add(sess.ID(), sess)
	return sess
}

func (s *Store) Remove(id string) {
	s.cache.Remove(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}
