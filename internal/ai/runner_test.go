package ai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/domain"
	"docuchat/internal/rag"
	"docuchat/internal/store"
	"docuchat/internal/testutil"
	"docuchat/internal/worker"
)

// Answers "grounded" when the request carries session documents, "blind"
// otherwise. Lets tests observe whether enrichment happened on the wire.
const enrichmentProbe = `INPUT=$(cat)
case "$INPUT" in
*sessionDocuments*) echo '{"response":"grounded","metadata":{"model":"stub","processingTime":0.1}}' ;;
*) echo '{"response":"blind","metadata":{"model":"stub","processingTime":0.1}}' ;;
esac
`

func sessionWithDocument(t *testing.T, st store.Store) *domain.Session {
	t.Helper()
	session, err := st.CreateSession(domain.SessionSpec{Title: "qa", ToolType: domain.ToolQA})
	require.NoError(t, err)
	_, err = st.CreateDocument(domain.DocumentSpec{
		SessionID: session.ID,
		Filename:  "france.txt",
		Content:   "Paris is the capital of France.",
		Size:      "31 B",
		MimeType:  "text/plain",
	})
	require.NoError(t, err)
	return session
}

func TestRunAttachesSessionDocuments(t *testing.T) {
	st := store.NewMemoryStore()
	session := sessionWithDocument(t, st)

	runner := ai.NewRunner(testutil.StubWorker(t, enrichmentProbe), st, nil, zap.NewNop())

	req := &domain.AIRequest{Query: "capital?", ToolType: domain.ToolQA, SessionID: session.ID}
	resp, err := runner.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "grounded", resp.Response)
	require.Len(t, req.SessionDocuments, 1)
	require.Equal(t, "france.txt", req.SessionDocuments[0].Filename)
}

func TestRunWithoutDocumentsIsSilentlyUnenriched(t *testing.T) {
	st := store.NewMemoryStore()
	session, err := st.CreateSession(domain.SessionSpec{Title: "bare", ToolType: domain.ToolChat})
	require.NoError(t, err)

	runner := ai.NewRunner(testutil.StubWorker(t, enrichmentProbe), st, nil, zap.NewNop())

	req := &domain.AIRequest{Query: "hi", ToolType: domain.ToolChat, SessionID: session.ID}
	resp, err := runner.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "blind", resp.Response)
	require.Empty(t, req.SessionDocuments)
}

func TestRunParsesResponseMetadata(t *testing.T) {
	st := store.NewMemoryStore()
	runner := ai.NewRunner(testutil.StubWorker(t, `cat >/dev/null
echo '{"response":"Paris","metadata":{"model":"stub","processingTime":0.1,"tokenCount":3}}'
`), st, nil, zap.NewNop())

	resp, err := runner.Run(context.Background(), &domain.AIRequest{
		Query: "q", ToolType: domain.ToolChat, SessionID: "none",
	})
	require.NoError(t, err)
	require.Equal(t, "Paris", resp.Response)
	require.Equal(t, "stub", resp.Metadata.Model)
	require.InDelta(t, 0.1, resp.Metadata.ProcessingTime, 1e-9)
	require.Equal(t, 3, resp.Metadata.TokenCount)
}

func TestRunCleanExitWithGarbageIsMalformed(t *testing.T) {
	st := store.NewMemoryStore()
	runner := ai.NewRunner(testutil.StubWorker(t, `cat >/dev/null
echo 'I am not an envelope'
`), st, nil, zap.NewNop())

	_, err := runner.Run(context.Background(), &domain.AIRequest{
		Query: "q", ToolType: domain.ToolChat, SessionID: "none",
	})
	require.Error(t, err)

	var malformed *worker.MalformedError
	require.ErrorAs(t, err, &malformed)
	require.Contains(t, string(malformed.Raw), "not an envelope")
}

func TestRunUsesRetrievedContextWhenAvailable(t *testing.T) {
	st := store.NewMemoryStore()
	session := sessionWithDocument(t, st)

	// The agent reports whether a documentContent field reached it.
	agent := testutil.StubWorker(t, `INPUT=$(cat)
case "$INPUT" in
*documentContent*) echo '{"response":"with context","metadata":{"model":"stub","processingTime":0.1}}' ;;
*) echo '{"response":"without context","metadata":{"model":"stub","processingTime":0.1}}' ;;
esac
`)
	retriever := rag.NewRetriever(testutil.StubWorker(t, `cat >/dev/null
echo '{"status":"success","context":"Paris is the capital of France.","relevant_chunks":[{"document_id":"d","content":"Paris"}],"chunks_found":1}'
`), zap.NewNop())

	runner := ai.NewRunner(agent, st, retriever, zap.NewNop())

	req := &domain.AIRequest{Query: "capital?", ToolType: domain.ToolQA, SessionID: session.ID}
	resp, err := runner.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "with context", resp.Response)
	require.Equal(t, "Paris is the capital of France.", req.DocumentContent)
}

func TestRunDegradedRetrievalStillAnswers(t *testing.T) {
	st := store.NewMemoryStore()
	session := sessionWithDocument(t, st)

	retriever := rag.NewRetriever(testutil.StubWorker(t, `cat >/dev/null
exit 1
`), zap.NewNop())
	runner := ai.NewRunner(testutil.StubWorker(t, enrichmentProbe), st, retriever, zap.NewNop())

	req := &domain.AIRequest{Query: "capital?", ToolType: domain.ToolQA, SessionID: session.ID}
	resp, err := runner.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "grounded", resp.Response)
	require.Empty(t, req.DocumentContent)
}

func TestProcessFileUsesDedicatedAction(t *testing.T) {
	st := store.NewMemoryStore()
	runner := ai.NewRunner(testutil.StubWorker(t, `INPUT=$(cat)
case "$INPUT" in
*process_file*) echo '{"response":"extracted text","metadata":{"model":"extractor","processingTime":0.2}}' ;;
*) echo '{"response":"wrong path","metadata":{"model":"extractor","processingTime":0.2}}' ;;
esac
`), st, nil, zap.NewNop())

	content, err := runner.ProcessFile(context.Background(), "/tmp/doc.pdf", "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "extracted text", content)
}
