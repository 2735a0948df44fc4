package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/api"
	"docuchat/internal/domain"
	"docuchat/internal/rag"
	"docuchat/internal/service"
	"docuchat/internal/store"
	"docuchat/internal/testutil"
)

func newTestRouter(t *testing.T, st store.Store, agentScript string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	runner := ai.NewRunner(testutil.StubWorker(t, agentScript), st, nil, zap.NewNop())
	indexer := rag.NewIndexer(testutil.StubWorker(t, `cat >/dev/null
echo '{"status":"success","chunks":[],"chunks_created":0}'
`), st, zap.NewNop(), 4, 1)
	t.Cleanup(indexer.Close)

	chatService := service.NewChatService(st, runner, zap.NewNop())
	documentService := service.NewDocumentService(st, runner, indexer, zap.NewNop(), t.TempDir())

	handler := api.NewHandler(st, chatService, documentService, 1024*1024)
	return api.SetupRouter(handler, api.RouterConfig{AllowOrigins: []string{"*"}})
}

const stubAgent = `cat >/dev/null
echo '{"response":"Paris","metadata":{"model":"stub","processingTime":0.1}}'
`

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), stubAgent)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", gin.H{"title": "geography", "toolType": "qa"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, domain.ToolQA, created.ToolType)

	w = doJSON(t, router, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []domain.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)

	w = doJSON(t, router, http.MethodPatch, "/api/sessions/"+created.ID, gin.H{"title": "renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "renamed", updated.Title)

	w = doJSON(t, router, http.MethodDelete, "/api/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionValidation(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), stubAgent)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", gin.H{"title": "no tool"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/sessions", gin.H{"title": "bad tool", "toolType": "telepathy"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpointPersistsBothMessages(t *testing.T) {
	st := store.NewMemoryStore()
	router := newTestRouter(t, st, stubAgent)

	session, err := st.CreateSession(domain.SessionSpec{Title: "geo", ToolType: domain.ToolQA})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/ai/chat", gin.H{
		"query":     "What is the capital of France?",
		"toolType":  "qa",
		"sessionId": session.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result service.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, "Paris", result.AssistantMessage.Content)
	require.Equal(t, domain.RoleUser, result.UserMessage.Role)

	messages, err := st.GetMessagesBySession(session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}

func TestChatEndpointWorkerFailureIsBadGateway(t *testing.T) {
	st := store.NewMemoryStore()
	router := newTestRouter(t, st, `cat >/dev/null
echo "OOM" >&2
exit 1
`)

	session, err := st.CreateSession(domain.SessionSpec{Title: "doomed", ToolType: domain.ToolChat})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/ai/chat", gin.H{
		"query":     "hi",
		"toolType":  "chat",
		"sessionId": session.ID,
	})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "OOM")

	messages, err := st.GetMessagesBySession(session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1) // user message only
}

func TestChatEndpointUnknownSessionIsNotFound(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), stubAgent)

	w := doJSON(t, router, http.MethodPost, "/api/ai/chat", gin.H{
		"query":     "hi",
		"toolType":  "chat",
		"sessionId": "missing",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	router := newTestRouter(t, st, stubAgent)

	session, err := st.CreateSession(domain.SessionSpec{Title: "docs", ToolType: domain.ToolQA})
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="notes.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("Paris is the capital of France."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var document domain.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &document))
	require.Equal(t, "notes.txt", document.Filename)
	require.Contains(t, document.Content, "Paris")

	documents, err := st.GetDocumentsBySession(session.ID)
	require.NoError(t, err)
	require.Len(t, documents, 1)
}

func TestUploadEndpointRejectsDisallowedTypes(t *testing.T) {
	st := store.NewMemoryStore()
	router := newTestRouter(t, st, stubAgent)

	session, err := st.CreateSession(domain.SessionSpec{Title: "docs", ToolType: domain.ToolChat})
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="pic.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := store.NewMemoryStore()
	runner := ai.NewRunner(testutil.StubWorker(t, stubAgent), st, nil, zap.NewNop())
	indexer := rag.NewIndexer(testutil.StubWorker(t, stubAgent), st, zap.NewNop(), 1, 1)
	t.Cleanup(indexer.Close)
	handler := api.NewHandler(st,
		service.NewChatService(st, runner, zap.NewNop()),
		service.NewDocumentService(st, runner, indexer, zap.NewNop(), t.TempDir()),
		1024)
	router := api.SetupRouter(handler, api.RouterConfig{APIKey: "secret", AllowOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/health", strings.NewReader(""))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
