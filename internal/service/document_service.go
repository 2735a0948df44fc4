package service

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/domain"
	"docuchat/internal/rag"
	"docuchat/internal/store"
)

// Supported upload MIME types
const (
	MimeTypePDF  = "application/pdf"
	MimeTypeText = "text/plain"
)

// DocumentService turns an uploaded file into a stored, queryable document
// and schedules it for background indexing.
type DocumentService struct {
	store     store.Store
	runner    *ai.Runner
	indexer   *rag.Indexer
	logger    *zap.Logger
	uploadDir string
}

// NewDocumentService creates a new document service
func NewDocumentService(st store.Store, runner *ai.Runner, indexer *rag.Indexer, logger *zap.Logger, uploadDir string) *DocumentService {
	return &DocumentService{
		store:     st,
		runner:    runner,
		indexer:   indexer,
		logger:    logger,
		uploadDir: uploadDir,
	}
}

// Upload extracts text from the uploaded file, stores the document and
// enqueues it for indexing. The upload succeeds as soon as the document is
// stored; indexing happens in the background and its failure never fails the
// upload. Until indexing completes the document is queryable with zero
// chunks.
func (s *DocumentService) Upload(ctx context.Context, sessionID, filename, mimeType string, data []byte) (*domain.Document, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}

	content, err := s.extractContent(ctx, filename, mimeType, data)
	if err != nil {
		return nil, err
	}

	document, err := s.store.CreateDocument(domain.DocumentSpec{
		SessionID: sessionID,
		Filename:  filename,
		Content:   content,
		Size:      humanize.Bytes(uint64(len(data))),
		MimeType:  mimeType,
	})
	if err != nil {
		return nil, err
	}

	s.indexer.Enqueue(document)

	s.logger.Info("document uploaded",
		zap.String("document_id", document.ID),
		zap.String("session_id", sessionID),
		zap.String("filename", filename),
		zap.String("size", document.Size),
	)
	return document, nil
}

// extractContent reads plain text directly and routes PDFs through the
// extraction worker via a temporary on-disk copy.
func (s *DocumentService) extractContent(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	switch mimeType {
	case MimeTypeText:
		return string(data), nil
	case MimeTypePDF:
		if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
			return "", fmt.Errorf("create upload directory: %w", err)
		}
		tmp, err := os.CreateTemp(s.uploadDir, "upload-*.pdf")
		if err != nil {
			return "", fmt.Errorf("create temp file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write temp file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return "", err
		}
		return s.runner.ProcessFile(ctx, tmp.Name(), mimeType)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, mimeType)
	}
}

// ClearIndex removes a document's chunks from the index. Document records
// themselves are immutable and only disappear with their session; clearing
// the index is what actually frees retrieval state.
func (s *DocumentService) ClearIndex(documentID string) error {
	return s.indexer.ClearDocumentIndex(documentID)
}
