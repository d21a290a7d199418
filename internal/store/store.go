// Package store owns the process-wide database handle and serialises units
// of work against it.
package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"institute-service/internal/db"
	"institute-service/internal/metrics"

	"github.com/uptrace/bun"
)

// Store is created once at startup and shared by every service. Write units
// are exclusive; reads may run concurrently with each other but never
// observe a write unit half-applied.
type Store struct {
	db      *bun.DB
	mu      sync.RWMutex
	metrics *metrics.Metrics
}

func New(database *bun.DB, m *metrics.Metrics) *Store {
	return &Store{db: database, metrics: m}
}

// DB returns the underlying handle. Use it only outside units of work
// (migrations, health checks).
func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Metrics() *metrics.Metrics {
	return s.metrics
}

// Write runs fn inside one transaction. Inside fn only tx may touch the
// database. Any error rolls the whole unit back.
func (s *Store) Write(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, fn)
	s.metrics.DB().RecordUnitOfWork(ctx, time.Since(start), err)

	return db.TranslateError(err, "")
}

// Read runs fn against a consistent view of the store.
func (s *Store) Read(ctx context.Context, fn func(ctx context.Context, idb bun.IDB) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return db.TranslateError(fn(ctx, s.db), "")
}

func (s *Store) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.db)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
