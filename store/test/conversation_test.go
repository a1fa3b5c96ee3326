package test

import (
	"context"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/wonderai/wonderchat/store"
)

func TestConversationCRUD(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	created, err := ts.CreateConversation(ctx, &store.Conversation{
		UID:       shortuuid.New(),
		UserID:    "alice",
		Title:     "First chat",
		CreatedTs: now,
		UpdatedTs: now,
		RowStatus: store.Normal,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := ts.GetConversation(ctx, &store.FindConversation{ID: &created.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "First chat", found.Title)
	require.Equal(t, "alice", found.UserID)
	require.Equal(t, store.Normal, found.RowStatus)

	// Update title and pin.
	newTitle := "Renamed chat"
	pinned := true
	updatedTs := now + 10
	updated, err := ts.UpdateConversation(ctx, &store.UpdateConversation{
		ID:        created.ID,
		Title:     &newTitle,
		Pinned:    &pinned,
		UpdatedTs: &updatedTs,
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed chat", updated.Title)
	require.True(t, updated.Pinned)

	// List scoped by user.
	userID := "alice"
	list, err := ts.ListConversations(ctx, &store.FindConversation{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	otherUser := "bob"
	list, err = ts.ListConversations(ctx, &store.FindConversation{UserID: &otherUser})
	require.NoError(t, err)
	require.Empty(t, list)

	// Delete cascades to messages.
	_, err = ts.CreateMessage(ctx, &store.Message{
		UID:            shortuuid.New(),
		ConversationID: created.ID,
		Role:           store.MessageRoleUser,
		Content:        "hello",
		Metadata:       "{}",
		CreatedTs:      now,
	})
	require.NoError(t, err)

	require.NoError(t, ts.DeleteConversation(ctx, &store.DeleteConversation{ID: created.ID}))

	messages, err := ts.ListMessages(ctx, &store.FindMessage{ConversationID: &created.ID})
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestMessageOrdering(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	conv, err := ts.CreateConversation(ctx, &store.Conversation{
		UID:       shortuuid.New(),
		UserID:    "alice",
		Title:     "Ordered",
		CreatedTs: now,
		UpdatedTs: now,
		RowStatus: store.Normal,
	})
	require.NoError(t, err)

	contents := []string{"first", "second", "third"}
	for i, content := range contents {
		role := store.MessageRoleUser
		if i%2 == 1 {
			role = store.MessageRoleAssistant
		}
		_, err := ts.CreateMessage(ctx, &store.Message{
			UID:            shortuuid.New(),
			ConversationID: conv.ID,
			Role:           role,
			Content:        content,
			Metadata:       "{}",
			CreatedTs:      now + int64(i),
		})
		require.NoError(t, err)
	}

	messages, err := ts.ListMessages(ctx, &store.FindMessage{ConversationID: &conv.ID})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, m := range messages {
		require.Equal(t, contents[i], m.Content)
	}
}

func TestChunkEmbeddingUnsupportedOnSQLite(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.UpsertChunkEmbedding(ctx, &store.ChunkEmbedding{
		ChunkID:    "doc_0",
		DocumentID: "doc",
		Embedding:  []float32{0.1, 0.2},
	})
	require.Error(t, err)
}

func TestRetrievalSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	// Nothing stored yet.
	blob, err := ts.LoadRetrievalSnapshot(ctx)
	require.NoError(t, err)
	require.Nil(t, blob)

	require.NoError(t, ts.SaveRetrievalSnapshot(ctx, []byte(`{"documents":{}}`)))

	blob, err = ts.LoadRetrievalSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, `{"documents":{}}`, string(blob))

	// Overwrite replaces the blob.
	require.NoError(t, ts.SaveRetrievalSnapshot(ctx, []byte(`{"v":2}`)))
	blob, err = ts.LoadRetrievalSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, `{"v":2}`, string(blob))
}
