// Package dao defines the storage interfaces internal/compilesvc depends
// on: a repository of bcrypt-hashed API keys used to authenticate compile
// requests, and a repository of cached Compile outcomes keyed by the key
// that requested them.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("the requested entity could not be found")
	ErrAlreadyExists       = errors.New("resource with same identifying information already exists")
	ErrConstraintViolation = errors.New("a database constraint was violated")
	ErrDecodingFailure     = errors.New("stored data could not be decoded")
)

// APIKey is one issued credential. The plaintext key is handed to the
// caller exactly once, at issuance; only Hash is ever persisted.
type APIKey struct {
	ID        uuid.UUID
	Label     string
	Hash      []byte
	CreatedAt time.Time
	Revoked   bool
}

// CompileRecord is one cached Compile outcome.
type CompileRecord struct {
	ID          uuid.UUID
	KeyID       uuid.UUID
	Target      string
	Source      string
	Success     bool
	Summary     string
	Diagnostics []string
	IRDump      string
	CreatedAt   time.Time
}

// KeyRepository manages API-key credentials. Create takes a fully
// populated key (including its ID) rather than generating one
// internally, since the plaintext key handed back to the caller embeds
// the ID so a later login request can look up the matching hash
// directly instead of scanning every stored key.
type KeyRepository interface {
	Create(ctx context.Context, key APIKey) (APIKey, error)
	GetAll(ctx context.Context) ([]APIKey, error)
	GetByID(ctx context.Context, id uuid.UUID) (APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

// HistoryRepository manages cached compile results.
type HistoryRepository interface {
	Create(ctx context.Context, rec CompileRecord) (CompileRecord, error)
	GetAll(ctx context.Context, keyID uuid.UUID) ([]CompileRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (CompileRecord, error)
}

// Store aggregates every repository the service needs.
type Store interface {
	Keys() KeyRepository
	History() HistoryRepository
	Close() error
}
