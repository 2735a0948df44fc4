package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docuchat/internal/domain"
)

// SQLiteStore is the durable Store backend. It keeps the exact contract of
// MemoryStore, including the no-chunk-cascade on session delete.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			tool_type TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			content TEXT NOT NULL,
			size TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS document_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_session ON documents(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON document_chunks(document_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// CreateSession assigns identity and both timestamps
func (s *SQLiteStore) CreateSession(spec domain.SessionSpec) (*domain.Session, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.New().String(),
		Title:     spec.Title,
		ToolType:  spec.ToolType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, title, tool_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, session.Title, string(session.ToolType), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession retrieves a session by ID
func (s *SQLiteStore) GetSession(id string) (*domain.Session, error) {
	session := &domain.Session{}
	var toolType string

	err := s.db.QueryRow(`
		SELECT id, title, tool_type, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.Title, &toolType, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	session.ToolType = domain.ToolType(toolType)
	return session, nil
}

// GetSessions returns all sessions, most recently updated first
func (s *SQLiteStore) GetSessions() ([]*domain.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, title, tool_type, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		session := &domain.Session{}
		var toolType string
		if err := rows.Scan(&session.ID, &session.Title, &toolType,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, err
		}
		session.ToolType = domain.ToolType(toolType)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UpdateSession merges the update and always bumps updated_at
func (s *SQLiteStore) UpdateSession(id string, upd domain.SessionUpdate) (*domain.Session, error) {
	session, err := s.GetSession(id)
	if err != nil || session == nil {
		return nil, err
	}

	if upd.Title != nil {
		session.Title = *upd.Title
	}
	if upd.ToolType != nil {
		session.ToolType = *upd.ToolType
	}
	session.UpdatedAt = time.Now()

	_, err = s.db.Exec(`
		UPDATE sessions SET title = ?, tool_type = ?, updated_at = ? WHERE id = ?
	`, session.Title, string(session.ToolType), session.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the session and cascades to its messages and documents
func (s *SQLiteStore) DeleteSession(id string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE session_id = ?`, id); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// CreateMessage appends a message and refreshes the session's updated_at
func (s *SQLiteStore) CreateMessage(spec domain.MessageSpec) (*domain.Message, error) {
	now := time.Now()
	message := &domain.Message{
		ID:        uuid.New().String(),
		SessionID: spec.SessionID,
		Role:      spec.Role,
		Content:   spec.Content,
		Metadata:  spec.Metadata,
		CreatedAt: now,
	}

	var metadataJSON sql.NullString
	if message.Metadata != nil {
		raw, err := json.Marshal(message.Metadata)
		if err != nil {
			return nil, err
		}
		metadataJSON = sql.NullString{String: string(raw), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO messages (id, session_id, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, message.ID, message.SessionID, message.Role, message.Content, metadataJSON, message.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, now, message.SessionID)
	if err != nil {
		return nil, err
	}

	return message, tx.Commit()
}

// GetMessagesBySession returns a session's messages in chronological order
func (s *SQLiteStore) GetMessagesBySession(sessionID string) ([]*domain.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, role, content, metadata, created_at
		FROM messages WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		var metadataJSON sql.NullString
		if err := rows.Scan(&message.ID, &message.SessionID, &message.Role,
			&message.Content, &metadataJSON, &message.CreatedAt); err != nil {
			return nil, err
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			meta := &domain.MessageMetadata{}
			if err := json.Unmarshal([]byte(metadataJSON.String), meta); err == nil {
				message.Metadata = meta
			}
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// CreateDocument stores a new document record
func (s *SQLiteStore) CreateDocument(spec domain.DocumentSpec) (*domain.Document, error) {
	document := &domain.Document{
		ID:        uuid.New().String(),
		SessionID: spec.SessionID,
		Filename:  spec.Filename,
		Content:   spec.Content,
		Size:      spec.Size,
		MimeType:  spec.MimeType,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO documents (id, session_id, filename, content, size, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, document.ID, document.SessionID, document.Filename, document.Content,
		document.Size, document.MimeType, document.CreatedAt)
	if err != nil {
		return nil, err
	}
	return document, nil
}

// GetDocumentsBySession returns a session's documents, newest first
func (s *SQLiteStore) GetDocumentsBySession(sessionID string) ([]*domain.Document, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, filename, content, size, mime_type, created_at
		FROM documents WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*domain.Document
	for rows.Next() {
		document := &domain.Document{}
		if err := rows.Scan(&document.ID, &document.SessionID, &document.Filename,
			&document.Content, &document.Size, &document.MimeType, &document.CreatedAt); err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	return documents, rows.Err()
}

// CreateChunk persists a document chunk produced by the indexer
func (s *SQLiteStore) CreateChunk(spec domain.ChunkSpec) (*domain.DocumentChunk, error) {
	chunk := &domain.DocumentChunk{
		ID:         uuid.New().String(),
		DocumentID: spec.DocumentID,
		ChunkIndex: spec.ChunkIndex,
		Content:    spec.Content,
		Embedding:  spec.Embedding,
		CreatedAt:  time.Now(),
	}

	var embeddingJSON sql.NullString
	if chunk.Embedding != nil {
		raw, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return nil, err
		}
		embeddingJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Content, embeddingJSON, chunk.CreatedAt)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetChunksByDocument returns a document's chunks ordered by chunk index
func (s *SQLiteStore) GetChunksByDocument(documentID string) ([]*domain.DocumentChunk, error) {
	rows, err := s.db.Query(`
		SELECT id, document_id, chunk_index, content, embedding, created_at
		FROM document_chunks WHERE document_id = ?
		ORDER BY chunk_index ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.DocumentChunk
	for rows.Next() {
		chunk := &domain.DocumentChunk{}
		var embeddingJSON sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex,
			&chunk.Content, &embeddingJSON, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		if embeddingJSON.Valid && embeddingJSON.String != "" {
			json.Unmarshal([]byte(embeddingJSON.String), &chunk.Embedding)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// DeleteChunksByDocument removes all chunks for a document
func (s *SQLiteStore) DeleteChunksByDocument(documentID string) error {
	_, err := s.db.Exec(`DELETE FROM document_chunks WHERE document_id = ?`, documentID)
	return err
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
