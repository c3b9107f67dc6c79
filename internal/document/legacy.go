// internal/document/legacy.go
// Typed tree for the legacy flat-profile shape. This format predates the
// discriminator field: a top-level user profile with an embedded Telegram
// data block of flat chats and messages.
package document

import (
	"encoding/json"
	"fmt"
)

// LegacyDocument is the typed form of a legacy-profile export.
type LegacyDocument struct {
	UserID       string          `json:"userId"`
	Email        string          `json:"email"`
	Timestamp    int64           `json:"timestamp"` // Unix seconds
	Profile      LegacyProfile   `json:"profile"`
	Metadata     *LegacyMetadata `json:"metadata,omitempty"`
	TelegramData *TelegramData   `json:"telegramData,omitempty"`
}

// LegacyProfile is the profile block of a legacy export.
type LegacyProfile struct {
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

// LegacyMetadata describes how the legacy export was collected.
type LegacyMetadata struct {
	Source         string `json:"source"`
	CollectionDate string `json:"collectionDate"`
	DataType       string `json:"dataType"`
}

// TelegramData is the embedded account block of a legacy export.
type TelegramData struct {
	Username    string          `json:"username"`
	PhoneNumber string          `json:"phoneNumber"`
	IsBot       bool            `json:"isBot"`
	IsPremium   bool            `json:"isPremium"`
	JoinDate    int64           `json:"joinDate"` // Unix seconds
	Messages    []LegacyMessage `json:"messages"`
	Chats       []LegacyChat    `json:"chats"`
}

// LegacyChat is one chat summary of a legacy export. Aggregates carried here
// are recomputed by the assembler rather than trusted.
type LegacyChat struct {
	ChatID       int64   `json:"chatId"`
	Type         string  `json:"type"` // private, group, channel
	Title        string  `json:"title"`
	Username     *string `json:"username,omitempty"`
	MemberCount  *int    `json:"memberCount,omitempty"`
	MessageCount int     `json:"messageCount"`
	LastActivity int64   `json:"lastActivity"`
}

// LegacyMessage is one flat message of a legacy export.
type LegacyMessage struct {
	MessageID        int64          `json:"messageId"`
	ChatID           int64          `json:"chatId"`
	ChatType         string         `json:"chatType"`
	ChatTitle        string         `json:"chatTitle"`
	Timestamp        int64          `json:"timestamp"` // Unix seconds
	Text             string         `json:"text"`
	IsOutgoing       bool           `json:"isOutgoing"`
	ReplyToMessageID *int64         `json:"replyToMessageId,omitempty"`
	ForwardInfo      *LegacyForward `json:"forwardInfo,omitempty"`
	HasMedia         bool           `json:"hasMedia"`
	Media            *LegacyMedia   `json:"media,omitempty"`
}

// LegacyForward describes the origin of a forwarded legacy message.
type LegacyForward struct {
	OriginalSender string `json:"originalSender"`
	OriginalDate   int64  `json:"originalDate"`
}

// LegacyMedia describes the media attachment of a legacy message.
type LegacyMedia struct {
	Type     string  `json:"type"` // photo, video, document, ...
	Caption  *string `json:"caption,omitempty"`
	FileSize *int64  `json:"fileSize,omitempty"`
}

// DecodeLegacy parses raw JSON into a typed legacy document.
func DecodeLegacy(raw []byte) (*LegacyDocument, error) {
	var doc LegacyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode legacy document: %w", err)
	}
	return &doc, nil
}
