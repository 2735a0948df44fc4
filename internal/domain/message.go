package domain

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a session. Immutable once created.
type Message struct {
	ID        string           `json:"id"`
	SessionID string           `json:"sessionId"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// MessageMetadata carries optional bookkeeping about how a message was produced
type MessageMetadata struct {
	Model          string   `json:"model,omitempty"`
	ProcessingTime float64  `json:"processingTime,omitempty"`
	TokenCount     int      `json:"tokenCount,omitempty"`
	ToolType       ToolType `json:"toolType,omitempty"`
	RAGEnhanced    bool     `json:"ragEnhanced,omitempty"`
}

// MessageSpec is the request to append a message to a session
type MessageSpec struct {
	SessionID string           `json:"sessionId" binding:"required"`
	Role      string           `json:"role" binding:"required"`
	Content   string           `json:"content" binding:"required"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}
