package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuchat/internal/domain"
	"docuchat/internal/service"
	"docuchat/internal/store"
	"docuchat/internal/worker"
)

// Handler exposes the core over HTTP. Envelope validation happens here, at
// the boundary: requests that fail binding never reach the services.
type Handler struct {
	store           store.Store
	chatService     *service.ChatService
	documentService *service.DocumentService
	maxUploadBytes  int64
}

// NewHandler creates a new API handler
func NewHandler(st store.Store, chatService *service.ChatService, documentService *service.DocumentService, maxUploadBytes int64) *Handler {
	return &Handler{
		store:           st,
		chatService:     chatService,
		documentService: documentService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	{
		sessions.GET("", h.ListSessions)
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.PATCH("/:id", h.UpdateSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.GET("/:id/messages", h.ListMessages)
		sessions.GET("/:id/documents", h.ListDocuments)
		sessions.POST("/:id/upload", h.UploadDocument)
	}

	r.POST("/ai/chat", h.Chat)
}

func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.store.GetSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var spec domain.SessionSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid session data", "error": err.Error()})
		return
	}
	if !spec.ToolType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid tool type"})
		return
	}

	session, err := h.store.CreateSession(spec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.store.GetSession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch session"})
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "session not found"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) UpdateSession(c *gin.Context) {
	var upd domain.SessionUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid update data", "error": err.Error()})
		return
	}
	if upd.ToolType != nil && !upd.ToolType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid tool type"})
		return
	}

	session, err := h.store.UpdateSession(c.Param("id"), upd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to update session"})
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "session not found"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	deleted, err := h.store.DeleteSession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete session"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"message": "session not found"})
		return
	}
	h.chatService.ForgetSession(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListMessages(c *gin.Context) {
	messages, err := h.store.GetMessagesBySession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	documents, err := h.store.GetDocumentsBySession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch documents"})
		return
	}
	c.JSON(http.StatusOK, documents)
}

func (h *Handler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no file uploaded"})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file too large"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType != service.MimeTypePDF && mimeType != service.MimeTypeText {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid file type, only PDF and TXT files are allowed"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to read file"})
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file too large"})
		return
	}

	document, err := h.documentService.Upload(c.Request.Context(), c.Param("id"), fileHeader.Filename, mimeType, data)
	if err != nil {
		h.writeError(c, err, "failed to upload file")
		return
	}
	c.JSON(http.StatusCreated, document)
}

func (h *Handler) Chat(c *gin.Context) {
	var req domain.AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid AI request", "error": err.Error()})
		return
	}
	if !req.ToolType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid tool type"})
		return
	}
	if req.Action != "" {
		// Extraction requests are internal; the public chat endpoint only
		// accepts conversational queries.
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid AI request"})
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "failed to process AI request")
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeError translates core errors into HTTP responses. Worker failures
// surface as 502 so callers can tell "the AI backend broke" apart from "the
// service broke".
func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	var exitErr *worker.ExitError
	var malformedErr *worker.MalformedError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "session not found"})
	case errors.Is(err, domain.ErrUnsupportedFileType):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, worker.ErrUnavailable),
		errors.As(err, &exitErr),
		errors.As(err, &malformedErr):
		c.JSON(http.StatusBadGateway, gin.H{"message": fallback, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback, "error": err.Error()})
	}
}
