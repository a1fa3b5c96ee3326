package store

type Conversation struct {
	ID        int32
	UID       string
	UserID    string
	Title     string
	Pinned    bool
	CreatedTs int64
	UpdatedTs int64
	RowStatus RowStatus
}

type FindConversation struct {
	ID        *int32
	UID       *string
	UserID    *string
	Pinned    *bool
	RowStatus *RowStatus
}

type UpdateConversation struct {
	ID        int32
	Title     *string
	Pinned    *bool
	RowStatus *RowStatus
	UpdatedTs *int64
}

type DeleteConversation struct {
	ID int32
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
	MessageRoleSystem    MessageRole = "SYSTEM"
)

type Message struct {
	ID             int32
	UID            string
	ConversationID int32
	Role           MessageRole
	Content        string
	Metadata       string // JSON string
	CreatedTs      int64
}

type FindMessage struct {
	ID             *int32
	UID            *string
	ConversationID *int32
}

type DeleteMessage struct {
	ID             *int32
	ConversationID *int32
}
