package store

import "docuchat/internal/domain"

// Store is the authoritative record of sessions, messages, documents and
// document chunks. All components read and write through it; nothing else
// holds shared mutable state.
//
// Lookups on unknown ids return (nil, nil) rather than an error, and
// DeleteSession reports a miss as (false, nil). Structural validation is the
// caller's job, not the Store's.
type Store interface {
	// Sessions
	CreateSession(spec domain.SessionSpec) (*domain.Session, error)
	GetSession(id string) (*domain.Session, error)
	// GetSessions returns sessions ordered by UpdatedAt descending.
	GetSessions() ([]*domain.Session, error)
	// UpdateSession merges non-nil fields and bumps UpdatedAt even when
	// nothing changed.
	UpdateSession(id string, upd domain.SessionUpdate) (*domain.Session, error)
	// DeleteSession removes the session together with its messages and
	// documents. Chunk cleanup belongs to the indexer, not the Store.
	DeleteSession(id string) (bool, error)

	// Messages (append-only). CreateMessage refreshes the owning session's
	// UpdatedAt. GetMessagesBySession returns chronological order.
	CreateMessage(spec domain.MessageSpec) (*domain.Message, error)
	GetMessagesBySession(sessionID string) ([]*domain.Message, error)

	// Documents (create-and-list). GetDocumentsBySession returns newest first.
	CreateDocument(spec domain.DocumentSpec) (*domain.Document, error)
	GetDocumentsBySession(sessionID string) ([]*domain.Document, error)

	// Chunks (append-only, produced by the indexer).
	CreateChunk(spec domain.ChunkSpec) (*domain.DocumentChunk, error)
	// GetChunksByDocument returns chunks ordered by chunk index ascending.
	GetChunksByDocument(documentID string) ([]*domain.DocumentChunk, error)
	// DeleteChunksByDocument is idempotent.
	DeleteChunksByDocument(documentID string) error

	Close() error
}
