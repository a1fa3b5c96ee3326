// Package store provides database access to all raw objects.
package store

import (
	"context"

	"github.com/wonderai/wonderchat/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new Store with the given driver and profile.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		profile: profile,
		driver:  driver,
	}
}

// GetDriver returns the underlying driver.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the first conversation matching find, or nil.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) DeleteMessage(ctx context.Context, delete *DeleteMessage) error {
	return s.driver.DeleteMessage(ctx, delete)
}

func (s *Store) UpsertChunkEmbedding(ctx context.Context, upsert *ChunkEmbedding) (*ChunkEmbedding, error) {
	return s.driver.UpsertChunkEmbedding(ctx, upsert)
}

func (s *Store) ListChunkEmbeddings(ctx context.Context, find *FindChunkEmbedding) ([]*ChunkEmbedding, error) {
	return s.driver.ListChunkEmbeddings(ctx, find)
}

func (s *Store) DeleteChunkEmbeddings(ctx context.Context, delete *DeleteChunkEmbedding) error {
	return s.driver.DeleteChunkEmbeddings(ctx, delete)
}

// SaveRetrievalSnapshot stores the serialized retrieval state blob.
func (s *Store) SaveRetrievalSnapshot(ctx context.Context, data []byte) error {
	_, err := s.driver.UpsertSystemSetting(ctx, &SystemSetting{
		Name:  SystemSettingRetrievalSnapshot,
		Value: string(data),
	})
	return err
}

// LoadRetrievalSnapshot returns the stored retrieval state blob, or nil if
// none was saved.
func (s *Store) LoadRetrievalSnapshot(ctx context.Context) ([]byte, error) {
	setting, err := s.driver.GetSystemSetting(ctx, SystemSettingRetrievalSnapshot)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return []byte(setting.Value), nil
}
