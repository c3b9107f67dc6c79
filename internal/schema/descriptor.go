// internal/schema/descriptor.go
// The schema descriptor is a portable, engine-independent description of the
// canonical relational schema. It is fixed and versioned, not derived from
// runtime data, and is published alongside the encrypted artifact so that
// consumers can interpret the rows without access to the storage engine.
package schema

// Descriptor describes the canonical relational schema.
type Descriptor struct {
	Name        string            `json:"name"`        // Schema name
	Version     string            `json:"version"`     // Schema version
	Description string            `json:"description"` // Human-readable description
	Dialect     string            `json:"dialect"`     // Target storage dialect, informational
	Tables      []TableDescriptor `json:"tables"`      // Table descriptions
}

// TableDescriptor describes one table of the canonical schema.
type TableDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Columns     []ColumnDescriptor `json:"columns"`
}

// ColumnDescriptor describes one column of a canonical table.
type ColumnDescriptor struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Nullable    bool   `json:"nullable"`
	PrimaryKey  bool   `json:"primaryKey,omitempty"`
	References  string `json:"references,omitempty"` // "table.column" for foreign keys
	Description string `json:"description,omitempty"`
}

// NewDescriptor builds the descriptor for the current canonical schema.
// The identity fields (name, version, description, dialect) come from
// configuration; the structure is fixed in code and versioned with it.
func NewDescriptor(name, version, description, dialect string) Descriptor {
	return Descriptor{
		Name:        name,
		Version:     version,
		Description: description,
		Dialect:     dialect,
		Tables: []TableDescriptor{
			{
				Name:        "users",
				Description: "Data subjects, one per processed input document",
				Columns: []ColumnDescriptor{
					{Name: "user_id", Type: "text", PrimaryKey: true, Description: "Generated unique identifier"},
					{Name: "source", Type: "text", Description: "Source platform name"},
					{Name: "source_user_id", Type: "text", Description: "Source-native user identifier"},
					{Name: "status", Type: "text", Description: "Lifecycle status, active at creation"},
					{Name: "datetime_created", Type: "timestamp", Description: "Record creation time"},
				},
			},
			{
				Name:        "submissions",
				Description: "Ingestion events, one per input document",
				Columns: []ColumnDescriptor{
					{Name: "submission_id", Type: "text", PrimaryKey: true},
					{Name: "user_id", Type: "text", References: "users.user_id"},
					{Name: "submission_date", Type: "timestamp"},
					{Name: "submission_reference", Type: "text", Description: "Source reference, synthetic if absent"},
				},
			},
			{
				Name:        "submission_chats",
				Description: "Chats of a submission with derived aggregates",
				Columns: []ColumnDescriptor{
					{Name: "submission_chat_id", Type: "text", PrimaryKey: true},
					{Name: "submission_id", Type: "text", References: "submissions.submission_id"},
					{Name: "source_chat_id", Type: "text", Description: "Source-native chat id as string"},
					{Name: "first_message_date", Type: "timestamp", Description: "Derived, min of message dates"},
					{Name: "last_message_date", Type: "timestamp", Description: "Derived, max of message dates"},
					{Name: "participant_count", Type: "integer", Description: "Derived, distinct resolved senders"},
					{Name: "message_count", Type: "integer", Description: "Derived, number of messages"},
				},
			},
			{
				Name:        "chat_messages",
				Description: "Normalized messages of a chat",
				Columns: []ColumnDescriptor{
					{Name: "message_id", Type: "text", PrimaryKey: true},
					{Name: "submission_chat_id", Type: "text", References: "submission_chats.submission_chat_id"},
					{Name: "source_message_id", Type: "text"},
					{Name: "sender_id", Type: "text", Description: "Resolved sender or the unknown sentinel"},
					{Name: "message_date", Type: "timestamp"},
					{Name: "content_type", Type: "text", Description: "text, photo, video, document, media, service, unknown"},
					{Name: "content", Type: "text", Nullable: true},
					{Name: "content_data", Type: "blob", Nullable: true, Description: "Thumbnail/file bytes or metadata fallback"},
				},
			},
			{
				Name:        "account_profiles",
				Description: "Masked account profile captured from the legacy shape",
				Columns: []ColumnDescriptor{
					{Name: "profile_id", Type: "text", PrimaryKey: true},
					{Name: "user_id", Type: "text", References: "users.user_id"},
					{Name: "username", Type: "text"},
					{Name: "email_masked", Type: "text", Description: "Hashed local part, verbatim domain"},
					{Name: "phone_masked", Type: "text", Nullable: true, Description: "Hashed prefix, verbatim last four"},
					{Name: "is_bot", Type: "boolean"},
					{Name: "is_premium", Type: "boolean"},
					{Name: "join_date", Type: "timestamp"},
				},
			},
		},
	}
}
