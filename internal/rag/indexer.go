package rag

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"docuchat/internal/domain"
	"docuchat/internal/store"
	"docuchat/internal/worker"
)

// indexRequest is the wire request to the chunking worker
type indexRequest struct {
	Action     string `json:"action"`
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
}

// indexResponse is the chunking worker's reply
type indexResponse struct {
	Status        string         `json:"status"`
	Chunks        []indexedChunk `json:"chunks,omitempty"`
	ChunksCreated int            `json:"chunks_created,omitempty"`
	Message       string         `json:"message,omitempty"`
}

type indexedChunk struct {
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
}

// Indexer turns a document's raw text into stored chunks by delegating the
// chunking to a worker process. Indexing is fire-and-forget: Enqueue never
// blocks the upload path, and failures are logged with the document identity
// but never surfaced to the caller that triggered them.
type Indexer struct {
	invoker worker.Invoker
	store   store.Store
	logger  *zap.Logger

	jobs chan *domain.Document
	wg   sync.WaitGroup
}

// NewIndexer creates an indexer with a queue of the given size serviced by
// workers goroutines. Call Close to drain the queue and stop them.
func NewIndexer(invoker worker.Invoker, st store.Store, logger *zap.Logger, queueSize, workers int) *Indexer {
	if queueSize <= 0 {
		queueSize = 16
	}
	if workers <= 0 {
		workers = 1
	}

	idx := &Indexer{
		invoker: invoker,
		store:   st,
		logger:  logger,
		jobs:    make(chan *domain.Document, queueSize),
	}

	idx.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go idx.run()
	}
	return idx
}

func (idx *Indexer) run() {
	defer idx.wg.Done()
	for doc := range idx.jobs {
		if err := idx.IndexDocument(context.Background(), doc); err != nil {
			idx.logger.Error("document indexing failed",
				zap.String("document_id", doc.ID),
				zap.String("filename", doc.Filename),
				zap.Error(err),
			)
		}
	}
}

// Enqueue schedules a document for background indexing. If the queue is full
// the document is dropped with a log line; it stays queryable with zero
// chunks, the same state as any document whose indexing failed.
func (idx *Indexer) Enqueue(doc *domain.Document) {
	select {
	case idx.jobs <- doc:
	default:
		idx.logger.Warn("indexing queue full, dropping document",
			zap.String("document_id", doc.ID),
			zap.String("filename", doc.Filename),
		)
	}
}

// Close stops accepting work, waits for queued documents to finish
func (idx *Indexer) Close() {
	close(idx.jobs)
	idx.wg.Wait()
}

// IndexDocument invokes the chunking worker and persists the returned chunks
// with their worker-assigned indices. Embeddings are left unset; retrieval
// operates over raw chunk text.
func (idx *Indexer) IndexDocument(ctx context.Context, doc *domain.Document) error {
	raw, err := idx.invoker.Invoke(ctx, indexRequest{
		Action:     actionIndexDocument,
		DocumentID: doc.ID,
		Content:    doc.Content,
	})
	if err != nil {
		return err
	}

	var resp indexResponse
	if err := worker.Decode(raw, &resp); err != nil {
		return err
	}
	if resp.Status != statusSuccess {
		return fmt.Errorf("indexing failed: %s", resp.Message)
	}

	for _, chunk := range resp.Chunks {
		if _, err := idx.store.CreateChunk(domain.ChunkSpec{
			DocumentID: doc.ID,
			ChunkIndex: chunk.ChunkIndex,
			Content:    chunk.Content,
		}); err != nil {
			return fmt.Errorf("persist chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	idx.logger.Info("document indexed",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", len(resp.Chunks)),
	)
	return nil
}

// ClearDocumentIndex deletes all chunks for a document. Idempotent: clearing
// an already-empty index is not an error.
func (idx *Indexer) ClearDocumentIndex(documentID string) error {
	return idx.store.DeleteChunksByDocument(documentID)
}
