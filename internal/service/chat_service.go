package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/domain"
	"docuchat/internal/store"
)

// ChatService handles a chat turn end to end: persist the user message,
// invoke the AI runner, persist the assistant message.
type ChatService struct {
	store  store.Store
	runner *ai.Runner
	logger *zap.Logger

	// Chat turns for the same session are serialized so message order in the
	// store matches completion order; different sessions run concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewChatService creates a new chat service
func NewChatService(st store.Store, runner *ai.Runner, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:  st,
		runner: runner,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// ChatResult is the outcome of one chat turn
type ChatResult struct {
	UserMessage      *domain.Message    `json:"userMessage"`
	AssistantMessage *domain.Message    `json:"assistantMessage"`
	AIResponse       *domain.AIResponse `json:"aiResponse"`
}

// Chat runs one conversational turn. When the runner fails, the user message
// stays persisted but no assistant message is written; the typed worker error
// propagates for the caller to translate.
func (s *ChatService) Chat(ctx context.Context, req *domain.AIRequest) (*ChatResult, error) {
	session, err := s.store.GetSession(req.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}

	lock := s.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	userMessage, err := s.store.CreateMessage(domain.MessageSpec{
		SessionID: req.SessionID,
		Role:      domain.RoleUser,
		Content:   req.Query,
		Metadata:  &domain.MessageMetadata{ToolType: req.ToolType},
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.runner.Run(ctx, req)
	if err != nil {
		s.logger.Error("ai invocation failed",
			zap.String("session_id", req.SessionID),
			zap.String("tool_type", string(req.ToolType)),
			zap.Error(err),
		)
		return nil, err
	}

	assistantMessage, err := s.store.CreateMessage(domain.MessageSpec{
		SessionID: req.SessionID,
		Role:      domain.RoleAssistant,
		Content:   resp.Response,
		Metadata: &domain.MessageMetadata{
			Model:          resp.Metadata.Model,
			ProcessingTime: resp.Metadata.ProcessingTime,
			TokenCount:     resp.Metadata.TokenCount,
			ToolType:       req.ToolType,
			RAGEnhanced:    len(req.SessionDocuments) > 0,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		AIResponse:       resp,
	}, nil
}

func (s *ChatService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// ForgetSession drops the serialization lock for a deleted session so the
// lock map does not grow with every session ever chatted in. An in-flight
// turn keeps its own reference to the mutex; a late Chat on the deleted id
// fails the session lookup before locking.
func (s *ChatService) ForgetSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, sessionID)
}
