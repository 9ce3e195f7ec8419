// Package cache provides a bounded LRU cache for server-side prepared
// statement handles, keyed by a hash of the statement text.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/typeq/query"
)

// EvictFunc is invoked when a handle falls out of the cache, giving the
// owner a chance to deallocate the server-side statement.
type EvictFunc func(key uint64, stmt query.PreparedStatement)

// StatementCache is a bounded cache of prepared-statement handles.
// golang-lru is already safe for concurrent use.
type StatementCache struct {
	cache *lru.Cache[uint64, query.PreparedStatement]
}

// NewStatementCache creates a cache holding at most size handles.
func NewStatementCache(size int, onEvict EvictFunc) *StatementCache {
	cache, _ := lru.NewWithEvict(size, func(key uint64, stmt query.PreparedStatement) {
		if onEvict != nil {
			onEvict(key, stmt)
		}
	})
	return &StatementCache{cache: cache}
}

// Get returns the cached handle for a statement key.
func (s *StatementCache) Get(key uint64) (query.PreparedStatement, bool) {
	return s.cache.Get(key)
}

// Set stores a handle under a statement key.
func (s *StatementCache) Set(key uint64, stmt query.PreparedStatement) {
	s.cache.Add(key, stmt)
}

// GetOrPrepare returns the cached handle or prepares and caches a new
// one.
func (s *StatementCache) GetOrPrepare(key uint64, prepare func() (query.PreparedStatement, error)) (query.PreparedStatement, error) {
	if stmt, ok := s.cache.Get(key); ok {
		return stmt, nil
	}
	stmt, err := prepare()
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, stmt)
	return stmt, nil
}

// Purge evicts every cached handle, triggering the eviction callback
// for each.
func (s *StatementCache) Purge() {
	s.cache.Purge()
}
