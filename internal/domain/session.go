package domain

import "time"

// ToolType selects which AI tool a session is routed through.
type ToolType string

const (
	ToolChat    ToolType = "chat"
	ToolSummary ToolType = "summary"
	ToolSearch  ToolType = "search"
	ToolQA      ToolType = "qa"
)

// Valid reports whether t is one of the known tool types.
func (t ToolType) Valid() bool {
	switch t {
	case ToolChat, ToolSummary, ToolSearch, ToolQA:
		return true
	}
	return false
}

// Session represents a chat session
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ToolType  ToolType  `json:"toolType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionSpec is the request to create a session
type SessionSpec struct {
	Title    string   `json:"title" binding:"required"`
	ToolType ToolType `json:"toolType" binding:"required"`
}

// SessionUpdate is a partial session update; nil fields are left unchanged
type SessionUpdate struct {
	Title    *string   `json:"title,omitempty"`
	ToolType *ToolType `json:"toolType,omitempty"`
}
