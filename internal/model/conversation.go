package model

import (
	"time"

	"gorm.io/gorm"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn stores one ordered turn of the real-time conversation.
// Persisted rows are the source of truth for reconnection: socket state is
// never authoritative.
type ConversationTurn struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	RoundID   uint   `json:"round_id" gorm:"not null;index"`
	TurnOrder int    `json:"turn_order" gorm:"not null"`
	Role      string `json:"role" gorm:"not null"`
	Content   string `json:"content" gorm:"type:text;not null"`
	Metadata  string `json:"metadata,omitempty"`

	Timestamp time.Time      `json:"timestamp" gorm:"autoCreateTime"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
