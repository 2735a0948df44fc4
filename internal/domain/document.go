package domain

import "time"

// Document represents an uploaded file with its extracted text.
// Immutable once created; a re-upload always creates a new Document.
type Document struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	Size      string    `json:"size"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentSpec is the request to create a document
type DocumentSpec struct {
	SessionID string `json:"sessionId"`
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	Size      string `json:"size"`
	MimeType  string `json:"mimeType"`
}

// DocumentChunk is a contiguous slice of a document's text, indexed for
// retrieval. Chunk indices are contiguous per document starting at 0.
type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	Embedding  []float64 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChunkSpec is the request to persist a document chunk
type ChunkSpec struct {
	DocumentID string    `json:"documentId"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	Embedding  []float64 `json:"embedding,omitempty"`
}
