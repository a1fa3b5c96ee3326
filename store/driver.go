package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	DeleteMessage(ctx context.Context, delete *DeleteMessage) error

	// ChunkEmbedding model related methods. PostgreSQL only; SQLite returns
	// an unsupported error and callers treat the mirror as unavailable.
	UpsertChunkEmbedding(ctx context.Context, upsert *ChunkEmbedding) (*ChunkEmbedding, error)
	ListChunkEmbeddings(ctx context.Context, find *FindChunkEmbedding) ([]*ChunkEmbedding, error)
	DeleteChunkEmbeddings(ctx context.Context, delete *DeleteChunkEmbedding) error

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error)
}
