package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docuchat/internal/domain"
)

// MemoryStore keeps everything in process memory. It is the default backend;
// the sqlite backend implements the same interface for deployments that need
// data to survive a restart.
//
// Sessions are mutated in place (UpdateSession, the UpdatedAt bump in
// CreateMessage), so every method returns a copy of the stored struct.
// Callers get stable snapshots, never aliases into the store.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.Session
	messages  map[string][]*domain.Message       // by session id, append order
	documents map[string][]*domain.Document      // by session id, append order
	chunks    map[string][]*domain.DocumentChunk // by document id
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*domain.Session),
		messages:  make(map[string][]*domain.Message),
		documents: make(map[string][]*domain.Document),
		chunks:    make(map[string][]*domain.DocumentChunk),
	}
}

// CreateSession assigns identity and both timestamps
func (s *MemoryStore) CreateSession(spec domain.SessionSpec) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.New().String(),
		Title:     spec.Title,
		ToolType:  spec.ToolType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[session.ID] = session
	return copySession(session), nil
}

// GetSession retrieves a session by ID
func (s *MemoryStore) GetSession(id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.sessions[id]), nil
}

// GetSessions returns all sessions, most recently updated first
func (s *MemoryStore) GetSessions() ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, copySession(session))
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// UpdateSession merges the update and always bumps UpdatedAt
func (s *MemoryStore) UpdateSession(id string, upd domain.SessionUpdate) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if upd.Title != nil {
		session.Title = *upd.Title
	}
	if upd.ToolType != nil {
		session.ToolType = *upd.ToolType
	}
	session.UpdatedAt = time.Now()
	return copySession(session), nil
}

// DeleteSession removes the session and cascades to its messages and documents
func (s *MemoryStore) DeleteSession(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	delete(s.documents, id)
	return true, nil
}

// CreateMessage appends a message and refreshes the session's UpdatedAt
func (s *MemoryStore) CreateMessage(spec domain.MessageSpec) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	message := &domain.Message{
		ID:        uuid.New().String(),
		SessionID: spec.SessionID,
		Role:      spec.Role,
		Content:   spec.Content,
		Metadata:  spec.Metadata,
		CreatedAt: now,
	}
	s.messages[spec.SessionID] = append(s.messages[spec.SessionID], message)
	if session, ok := s.sessions[spec.SessionID]; ok {
		session.UpdatedAt = now
	}
	return message, nil
}

// GetMessagesBySession returns a session's messages in chronological order
func (s *MemoryStore) GetMessagesBySession(sessionID string) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]*domain.Message, len(s.messages[sessionID]))
	copy(messages, s.messages[sessionID])
	return messages, nil
}

// CreateDocument stores a new document record
func (s *MemoryStore) CreateDocument(spec domain.DocumentSpec) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	document := &domain.Document{
		ID:        uuid.New().String(),
		SessionID: spec.SessionID,
		Filename:  spec.Filename,
		Content:   spec.Content,
		Size:      spec.Size,
		MimeType:  spec.MimeType,
		CreatedAt: time.Now(),
	}
	s.documents[spec.SessionID] = append(s.documents[spec.SessionID], document)
	return document, nil
}

// GetDocumentsBySession returns a session's documents, newest first
func (s *MemoryStore) GetDocumentsBySession(sessionID string) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.documents[sessionID]
	documents := make([]*domain.Document, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		documents = append(documents, stored[i])
	}
	return documents, nil
}

// CreateChunk persists a document chunk produced by the indexer
func (s *MemoryStore) CreateChunk(spec domain.ChunkSpec) (*domain.DocumentChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk := &domain.DocumentChunk{
		ID:         uuid.New().String(),
		DocumentID: spec.DocumentID,
		ChunkIndex: spec.ChunkIndex,
		Content:    spec.Content,
		Embedding:  spec.Embedding,
		CreatedAt:  time.Now(),
	}
	s.chunks[spec.DocumentID] = append(s.chunks[spec.DocumentID], chunk)
	return chunk, nil
}

// GetChunksByDocument returns a document's chunks ordered by chunk index
func (s *MemoryStore) GetChunksByDocument(documentID string) ([]*domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]*domain.DocumentChunk, len(s.chunks[documentID]))
	copy(chunks, s.chunks[documentID])
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	return chunks, nil
}

// DeleteChunksByDocument removes all chunks for a document
func (s *MemoryStore) DeleteChunksByDocument(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

func copySession(session *domain.Session) *domain.Session {
	if session == nil {
		return nil
	}
	c := *session
	return &c
}
