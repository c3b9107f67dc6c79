// internal/model/records.go
// Package model defines the canonical entities produced by the refinement pipeline.
// These structures represent the normalized record set for users, submissions, chats,
// and messages, and correspond one-to-one with the relational tables in storage.
package model

import (
	"time"
)

// ContentType enumerates the normalized message content categories.
type ContentType string

const (
	ContentText     ContentType = "text"     // Plain text message
	ContentPhoto    ContentType = "photo"    // Photo with optional caption/thumbnail
	ContentVideo    ContentType = "video"    // Video with optional caption/thumbnail
	ContentDocument ContentType = "document" // File attachment
	ContentMedia    ContentType = "media"    // Media of an unrecognized variant
	ContentService  ContentType = "service"  // Service/system event
	ContentUnknown  ContentType = "unknown"  // Nothing resolvable
)

// UserStatusActive is the lifecycle status assigned at creation.
// Deletion is out of scope, so no other status is produced by the pipeline.
const UserStatusActive = "active"

// SenderUnknown is the sentinel sender identifier used when the polymorphic
// sender reference of a source message cannot be resolved.
const SenderUnknown = "unknown"

// User identifies the data subject of one submission.
// This corresponds to the users table in storage.
type User struct {
	UserID          string    `json:"userId" db:"user_id"`                   // Generated unique identifier
	Source          string    `json:"source" db:"source"`                    // Source platform name (e.g. Telegram)
	SourceUserID    string    `json:"sourceUserId" db:"source_user_id"`      // Source-native user identifier, unmasked
	Status          string    `json:"status" db:"status"`                    // Lifecycle status, always "active" at creation
	DateTimeCreated time.Time `json:"dateTimeCreated" db:"datetime_created"` // When the record was created
}

// Submission represents one ingestion event tied to a single input document.
// This corresponds to the submissions table in storage.
type Submission struct {
	SubmissionID        string    `json:"submissionId" db:"submission_id"`               // Generated unique identifier
	UserID              string    `json:"userId" db:"user_id"`                           // Owning user
	SubmissionDate      time.Time `json:"submissionDate" db:"submission_date"`           // When the submission was ingested
	SubmissionReference string    `json:"submissionReference" db:"submission_reference"` // Opaque source reference, synthetic if absent
}

// Chat is a submission-scoped chat with derived aggregates.
// Participant count and both message timestamps are computed by the assembler,
// never taken verbatim from the source.
// This corresponds to the submission_chats table in storage.
type Chat struct {
	SubmissionChatID string    `json:"submissionChatId" db:"submission_chat_id"`  // Generated unique identifier
	SubmissionID     string    `json:"submissionId" db:"submission_id"`           // Owning submission
	SourceChatID     string    `json:"sourceChatId" db:"source_chat_id"`          // Source-native chat id (string, may be negative/large)
	FirstMessageDate time.Time `json:"firstMessageDate" db:"first_message_date"`  // Earliest message timestamp in the chat
	LastMessageDate  time.Time `json:"lastMessageDate" db:"last_message_date"`    // Latest message timestamp in the chat
	ParticipantCount int       `json:"participantCount" db:"participant_count"`   // Distinct resolved senders
	MessageCount     int       `json:"messageCount" db:"message_count"`           // Number of messages in the chat
}

// Message is a chat-scoped normalized message.
// This corresponds to the chat_messages table in storage.
type Message struct {
	MessageID        string      `json:"messageId" db:"message_id"`                // Generated unique identifier
	SubmissionChatID string      `json:"submissionChatId" db:"submission_chat_id"` // Owning chat
	SourceMessageID  string      `json:"sourceMessageId" db:"source_message_id"`   // Source-native message identifier
	SenderID         string      `json:"senderId" db:"sender_id"`                  // Resolved sender, "unknown" sentinel if unresolvable
	MessageDate      time.Time   `json:"messageDate" db:"message_date"`            // Message timestamp
	ContentType      ContentType `json:"contentType" db:"content_type"`            // Normalized content category
	Content          *string     `json:"content,omitempty" db:"content"`           // Text content, nil when none
	ContentData      []byte      `json:"contentData,omitempty" db:"content_data"`  // Extracted binary (thumbnail/file) or metadata fallback
}

// Profile holds the masked account profile captured from the legacy shape.
// Email and phone are stored masked only; the unmasked values never leave the
// extractor. This corresponds to the account_profiles table in storage.
type Profile struct {
	ProfileID   string    `json:"profileId" db:"profile_id"`     // Generated unique identifier
	UserID      string    `json:"userId" db:"user_id"`           // Owning user (one profile per user)
	Username    string    `json:"username" db:"username"`        // Source account username
	EmailMasked string    `json:"emailMasked" db:"email_masked"` // Masked email (hashed local part, verbatim domain)
	PhoneMasked string    `json:"phoneMasked" db:"phone_masked"` // Masked phone (hashed prefix, verbatim last 4)
	IsBot       bool      `json:"isBot" db:"is_bot"`             // Whether the account is a bot
	IsPremium   bool      `json:"isPremium" db:"is_premium"`     // Whether the account has premium status
	JoinDate    time.Time `json:"joinDate" db:"join_date"`       // When the account joined the platform
}

// RecordSet is the fully assembled, referentially consistent output of one
// input document: one user owning one submission owning its chats and messages.
// Chats carry their messages so that persistence can walk parent-before-child.
type RecordSet struct {
	User       User         `json:"user"`
	Profile    *Profile     `json:"profile,omitempty"` // Present for the legacy shape only
	Submission Submission   `json:"submission"`
	Chats      []ChatRecords `json:"chats"`
}

// ChatRecords pairs a chat with its owned messages.
type ChatRecords struct {
	Chat     Chat      `json:"chat"`
	Messages []Message `json:"messages"`
}

// MessageCount returns the total number of messages across all chats.
func (rs *RecordSet) MessageCount() int {
	n := 0
	for _, c := range rs.Chats {
		n += len(c.Messages)
	}
	return n
}
