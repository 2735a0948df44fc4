// Package rag holds the retrieval side of the system: turning uploaded
// documents into chunks (Indexer) and assembling query context from them
// (Retriever). Both delegate the actual matching to worker processes; this
// package owns the wire shapes and the failure policy.
package rag

import (
	"context"

	"go.uber.org/zap"

	"docuchat/internal/domain"
	"docuchat/internal/worker"
)

const (
	actionIndexDocument   = "index_document"
	actionRetrieveContext = "retrieve_context"

	statusSuccess = "success"
)

// retrieveRequest is the wire request to the retrieval worker
type retrieveRequest struct {
	Action    string              `json:"action"`
	Query     string              `json:"query"`
	Documents []retrievalDocument `json:"documents"`
}

type retrievalDocument struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// retrieveResponse is the retrieval worker's reply
type retrieveResponse struct {
	Status         string           `json:"status"`
	Context        string           `json:"context,omitempty"`
	RelevantChunks []RetrievedChunk `json:"relevant_chunks,omitempty"`
	ChunksFound    int              `json:"chunks_found,omitempty"`
	Message        string           `json:"message,omitempty"`
}

// RetrievedChunk is one chunk the retrieval worker judged relevant to a query
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index,omitempty"`
	Content    string  `json:"content"`
	Score      float64 `json:"score,omitempty"`
}

// RetrievalResult is the context assembled for a query, plus the chunks that
// justify it.
type RetrievalResult struct {
	Context        string           `json:"context"`
	RelevantChunks []RetrievedChunk `json:"relevantChunks"`
	ChunksFound    int              `json:"chunksFound"`
}

// Retriever packages documents for the retrieval worker and unpacks its
// verdict. Ranking, embedding and selection all live inside the worker.
type Retriever struct {
	invoker worker.Invoker
	logger  *zap.Logger
}

// NewRetriever creates a retriever backed by the given worker invoker
func NewRetriever(invoker worker.Invoker, logger *zap.Logger) *Retriever {
	return &Retriever{invoker: invoker, logger: logger}
}

// RetrieveContext asks the retrieval worker for context relevant to query
// within the candidate documents. Retrieval is an enhancement, never a
// precondition: every failure degrades to the empty result instead of
// propagating, so a RAG failure can never block a chat response.
func (r *Retriever) RetrieveContext(ctx context.Context, query string, documents []*domain.Document) RetrievalResult {
	empty := RetrievalResult{RelevantChunks: []RetrievedChunk{}}
	if len(documents) == 0 {
		return empty
	}

	req := retrieveRequest{
		Action:    actionRetrieveContext,
		Query:     query,
		Documents: make([]retrievalDocument, 0, len(documents)),
	}
	for _, doc := range documents {
		req.Documents = append(req.Documents, retrievalDocument{ID: doc.ID, Content: doc.Content})
	}

	raw, err := r.invoker.Invoke(ctx, req)
	if err != nil {
		r.logger.Warn("retrieval degraded", zap.String("query", query), zap.Error(err))
		return empty
	}

	var resp retrieveResponse
	if err := worker.Decode(raw, &resp); err != nil {
		r.logger.Warn("retrieval degraded", zap.String("query", query), zap.Error(err))
		return empty
	}
	if resp.Status != statusSuccess {
		r.logger.Warn("retrieval degraded",
			zap.String("query", query),
			zap.String("status", resp.Status),
			zap.String("message", resp.Message),
		)
		return empty
	}

	result := RetrievalResult{
		Context:        resp.Context,
		RelevantChunks: resp.RelevantChunks,
		ChunksFound:    resp.ChunksFound,
	}
	if result.RelevantChunks == nil {
		result.RelevantChunks = []RetrievedChunk{}
	}
	return result
}
