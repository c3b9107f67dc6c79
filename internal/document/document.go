// internal/document/document.go
// Package document defines the strongly-typed trees that validated input
// documents are decoded into. No field is trusted to be present: optional
// fields are pointers throughout and the polymorphic sub-objects (sender
// references, message content) are tagged unions keyed by their type
// discriminator. Unrecognized tags never fail decoding; they simply leave
// the sub-field unresolved for the extractor to default.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sender reference discriminator values.
const (
	SenderTypeUser = "messageSenderUser"
	SenderTypeChat = "messageSenderChat"
)

// Message content discriminator values recognized by the extractors.
const (
	ContentTypeText     = "messageText"
	ContentTypePhoto    = "messagePhoto"
	ContentTypeVideo    = "messageVideo"
	ContentTypeDocument = "messageDocument"
)

// MessageTypeService marks a service/system event at the message level.
const MessageTypeService = "messageService"

// Document is the typed form of a miner- or webapp-shape export.
// Both producers emit the same TDLib-flavored structure; they differ only in
// the top-level discriminator value and in how loosely some leaves are typed.
type Document struct {
	Source          string  `json:"source"`                     // Shape discriminator, informational here
	User            FlexID  `json:"user"`                       // Source-native user identifier
	SubmissionToken *string `json:"submission_token,omitempty"` // Opaque submission reference, may be absent
	Chats           []Chat  `json:"chats"`                      // Chats carried by this submission
}

// Chat is one chat subtree of a miner/webapp document.
type Chat struct {
	ChatID   int64     `json:"chat_id"`  // Source-native chat id, may be negative for groups/channels
	Contents []Message `json:"contents"` // Messages in source order
}

// Message is one message node. Sender and Content are polymorphic and may be
// nil when the producer omitted them or used an unrecognized variant.
type Message struct {
	ID      int64           `json:"id"`
	Type    string          `json:"type,omitempty"` // "message" (default) or a service marker
	Date    int64           `json:"date"`           // Unix seconds
	Sender  *SenderRef      `json:"sender_id,omitempty"`
	Content *MessageContent `json:"content,omitempty"`
}

// SenderRef is the tagged union of message sender variants. Exactly one of
// UserID/ChatID is set for the recognized variants; both are nil for an
// unrecognized tag.
type SenderRef struct {
	Type   string // Discriminator, e.g. messageSenderUser
	UserID *int64 // Set for messageSenderUser
	ChatID *int64 // Set for messageSenderChat
}

// senderRefWire mirrors the producer JSON for SenderRef.
type senderRefWire struct {
	Type  string `json:"type"`
	AtType string `json:"@type"`
	UserID *int64 `json:"user_id"`
	ChatID *int64 `json:"chat_id"`
}

// UnmarshalJSON decodes a sender reference, accepting both the "type" and the
// raw TDLib "@type" discriminator spellings seen across producer revisions.
func (s *SenderRef) UnmarshalJSON(data []byte) error {
	var wire senderRefWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("sender reference: %w", err)
	}
	s.Type = wire.Type
	if s.Type == "" {
		s.Type = wire.AtType
	}
	s.UserID = wire.UserID
	s.ChatID = wire.ChatID
	return nil
}

// MessageContent is the tagged union of message content variants. The payload
// pointers for variants other than the discriminated one stay nil; an
// unrecognized Type leaves all payloads nil.
type MessageContent struct {
	Type     string    // Discriminator, e.g. messageText, messagePhoto
	Text     *FlexText // messageText payload
	Caption  *FlexText // Caption for media variants
	Photo    *MediaPayload
	Video    *MediaPayload
	Document *DocumentPayload
}

type messageContentWire struct {
	Type     string           `json:"type"`
	AtType   string           `json:"@type"`
	Text     *FlexText        `json:"text"`
	Caption  *FlexText        `json:"caption"`
	Photo    *MediaPayload    `json:"photo"`
	Video    *MediaPayload    `json:"video"`
	Document *DocumentPayload `json:"document"`
}

// UnmarshalJSON decodes message content, normalizing the discriminator field
// spelling the same way SenderRef does.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var wire messageContentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("message content: %w", err)
	}
	c.Type = wire.Type
	if c.Type == "" {
		c.Type = wire.AtType
	}
	c.Text = wire.Text
	c.Caption = wire.Caption
	c.Photo = wire.Photo
	c.Video = wire.Video
	c.Document = wire.Document
	return nil
}

// MediaPayload carries the fields of photo/video content the pipeline uses.
type MediaPayload struct {
	Minithumbnail *Minithumbnail `json:"minithumbnail,omitempty"`
}

// DocumentPayload carries the fields of document content the pipeline uses.
type DocumentPayload struct {
	FileName      *string        `json:"file_name,omitempty"`
	Minithumbnail *Minithumbnail `json:"minithumbnail,omitempty"`
}

// Minithumbnail is an inline low-resolution preview with base64-encoded bytes.
type Minithumbnail struct {
	Data string `json:"data"`
}

// FlexText accepts either a plain JSON string or a TDLib FormattedText object
// of the form {"text": "..."}. Producers emitted both over time.
type FlexText struct {
	Text string
}

func (t *FlexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Text)
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("formatted text: %w", err)
	}
	t.Text = obj.Text
	return nil
}

func (t FlexText) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Text)
}

// FlexID accepts either a JSON number or a JSON string and normalizes both to
// the decimal string form used by the canonical schema.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// Decode parses raw JSON into a typed miner/webapp document.
// Structural validation is assumed to have run already; Decode only fails on
// JSON that cannot be mapped onto the tree at all.
func Decode(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
