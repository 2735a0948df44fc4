package domain

// Actions routed through the conversational worker. A plain chat request
// leaves Action empty; file extraction uses a dedicated action instead of
// overloading the query text with a command.
const (
	ActionProcessFile = "process_file"
)

// AIRequest is the wire contract sent to a conversational worker process.
// Not a persisted entity.
type AIRequest struct {
	Query            string      `json:"query" binding:"required"`
	ToolType         ToolType    `json:"toolType" binding:"required"`
	SessionID        string      `json:"sessionId" binding:"required"`
	DocumentContent  string      `json:"documentContent,omitempty"`
	SessionDocuments []*Document `json:"sessionDocuments,omitempty"`

	Action   string `json:"action,omitempty"`
	FilePath string `json:"filePath,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// AIResponse is the worker's reply to an AIRequest.
type AIResponse struct {
	Response string             `json:"response"`
	Metadata AIResponseMetadata `json:"metadata"`
}

// AIResponseMetadata describes how the worker produced its response
type AIResponseMetadata struct {
	Model          string  `json:"model"`
	ProcessingTime float64 `json:"processingTime"`
	TokenCount     int     `json:"tokenCount,omitempty"`
}
