// Package ai is the single point of contact with conversational AI
// capability. Nothing else in the system knows how inference happens.
package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docuchat/internal/domain"
	"docuchat/internal/rag"
	"docuchat/internal/store"
	"docuchat/internal/worker"
)

// Runner dispatches AI requests to a worker process, enriching them first
// with the session's stored documents so the worker can ground its answer.
type Runner struct {
	invoker   worker.Invoker
	store     store.Store
	retriever *rag.Retriever
	logger    *zap.Logger
}

// NewRunner creates a runner. retriever may be nil, in which case requests
// carry the session's documents but no pre-assembled context string.
func NewRunner(invoker worker.Invoker, st store.Store, retriever *rag.Retriever, logger *zap.Logger) *Runner {
	return &Runner{invoker: invoker, store: st, retriever: retriever, logger: logger}
}

// Run enriches req in place, dispatches it to a fresh worker process and
// parses the response envelope. Absence of session documents is silently
// fine. Failures come back typed: worker.ErrUnavailable when the process
// could not start, *worker.ExitError on non-zero exit, *worker.MalformedError
// when exit was clean but the output is not a response envelope. None are
// retried here; retry policy belongs to the caller.
func (r *Runner) Run(ctx context.Context, req *domain.AIRequest) (*domain.AIResponse, error) {
	if err := r.enrich(ctx, req); err != nil {
		return nil, err
	}

	raw, err := r.invoker.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &domain.AIResponse{}
	if err := worker.Decode(raw, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *Runner) enrich(ctx context.Context, req *domain.AIRequest) error {
	if req.SessionID == "" || req.Action != "" {
		return nil
	}

	documents, err := r.store.GetDocumentsBySession(req.SessionID)
	if err != nil {
		return fmt.Errorf("load session documents: %w", err)
	}
	if len(documents) == 0 {
		return nil
	}

	req.SessionDocuments = documents

	if r.retriever != nil && req.DocumentContent == "" {
		result := r.retriever.RetrieveContext(ctx, req.Query, documents)
		if result.ChunksFound > 0 {
			req.DocumentContent = result.Context
			r.logger.Debug("request enriched with retrieved context",
				zap.String("session_id", req.SessionID),
				zap.Int("chunks_found", result.ChunksFound),
			)
		}
	}
	return nil
}

// ProcessFile extracts text content from a file by framing extraction as a
// dedicated request kind on the same worker protocol, so one process
// management path serves both inference and extraction. The action field
// keeps extraction out of the user-visible query namespace.
func (r *Runner) ProcessFile(ctx context.Context, path, mimeType string) (string, error) {
	req := &domain.AIRequest{
		Query:     "extract file content",
		ToolType:  domain.ToolChat,
		SessionID: "file-processing",
		Action:    domain.ActionProcessFile,
		FilePath:  path,
		MimeType:  mimeType,
	}

	resp, err := r.Run(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to process file: %w", err)
	}
	return resp.Response, nil
}
