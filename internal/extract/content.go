// internal/extract/content.go
// Shared TDLib content and sender resolution used by the miner and webapp
// extractors.
package extract

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/chatdlp/telegram-refiner-go/internal/document"
	"github.com/chatdlp/telegram-refiner-go/internal/model"
)

// serviceActions lists TDLib content constructors that describe chat events
// rather than user content. Messages carrying one of these are normalized to
// the service content type with a human-readable label.
var serviceActions = map[string]string{
	"messageChatAddMembers":       "Members added to the chat",
	"messageChatDeleteMember":     "Member removed from the chat",
	"messageChatJoinByLink":       "Member joined via invite link",
	"messageChatChangeTitle":      "Chat title changed",
	"messageChatChangePhoto":      "Chat photo changed",
	"messageChatDeletePhoto":      "Chat photo removed",
	"messagePinMessage":           "Message pinned",
	"messageBasicGroupChatCreate": "Group chat created",
	"messageSupergroupChatCreate": "Supergroup created",
	"messageChatSetTheme":         "Chat theme changed",
	"messageContactRegistered":    "Contact joined Telegram",
	"messageVideoChatStarted":     "Video chat started",
	"messageVideoChatEnded":       "Video chat ended",
}

// resolved is the normalized outcome of content resolution for one message.
type resolved struct {
	ContentType model.ContentType
	Content     *string
	ContentData []byte
}

// resolveSender maps a TDLib sender union onto a source-native sender id.
// Unresolvable senders degrade to the unknown sentinel instead of failing
// the message.
func resolveSender(s *document.SenderRef) string {
	if s == nil {
		return model.SenderUnknown
	}
	switch s.Type {
	case document.SenderTypeUser:
		if s.UserID != nil {
			return strconv.FormatInt(*s.UserID, 10)
		}
	case document.SenderTypeChat:
		if s.ChatID != nil {
			return strconv.FormatInt(*s.ChatID, 10)
		}
	}
	return model.SenderUnknown
}

// resolveContent maps a message and its TDLib content union onto the
// canonical content tuple. The dispatch order is fixed:
//
//  1. a message-level service marker wins over the content constructor,
//  2. absent content is unknown,
//  3. known constructors map to their canonical types,
//  4. known service actions become labeled service entries,
//  5. everything else is media with an explanatory placeholder.
func resolveContent(msg *document.Message, log *slog.Logger) resolved {
	if msg.Type == document.MessageTypeService || msg.Type == "service" {
		return resolved{
			ContentType: model.ContentService,
			Content:     ptr(serviceLabel(msg.Content)),
		}
	}

	c := msg.Content
	if c == nil {
		log.Warn("message has no content block", "message_id", msg.ID)
		return resolved{ContentType: model.ContentUnknown}
	}

	switch c.Type {
	case document.ContentTypeText:
		// Text is the one type whose content column is always populated,
		// even when the source text is empty.
		text := ""
		if c.Text != nil {
			text = c.Text.Text
		}
		return resolved{ContentType: model.ContentText, Content: ptr(text)}

	case document.ContentTypePhoto:
		out := resolved{ContentType: model.ContentPhoto, Content: ptr("Photo")}
		if c.Caption != nil && c.Caption.Text != "" {
			out.Content = ptr(c.Caption.Text)
		}
		if c.Photo != nil {
			out.ContentData = decodeThumbnail(c.Photo.Minithumbnail, msg.ID, log)
		}
		return out

	case document.ContentTypeVideo:
		out := resolved{ContentType: model.ContentVideo}
		if c.Caption != nil && c.Caption.Text != "" {
			out.Content = ptr(c.Caption.Text)
		}
		if c.Video != nil {
			out.ContentData = decodeThumbnail(c.Video.Minithumbnail, msg.ID, log)
		}
		return out

	case document.ContentTypeDocument:
		out := resolved{ContentType: model.ContentDocument, Content: ptr("Document")}
		if c.Document != nil {
			if c.Document.FileName != nil && *c.Document.FileName != "" {
				out.Content = ptr(*c.Document.FileName)
			}
			out.ContentData = decodeThumbnail(c.Document.Minithumbnail, msg.ID, log)
		}
		return out
	}

	if label, ok := serviceActions[c.Type]; ok {
		return resolved{ContentType: model.ContentService, Content: ptr(label)}
	}

	log.Debug("unsupported content constructor", "message_id", msg.ID, "constructor", c.Type)
	return resolved{
		ContentType: model.ContentMedia,
		Content:     ptr(fmt.Sprintf("Unsupported media: %s", c.Type)),
	}
}

// serviceLabel picks a label for an explicit service message: the known
// action label when the constructor is recognized, a generic one otherwise.
func serviceLabel(c *document.MessageContent) string {
	if c != nil {
		if label, ok := serviceActions[c.Type]; ok {
			return label
		}
	}
	return "Service message"
}

// decodeThumbnail decodes a base64 minithumbnail. A corrupt payload is
// logged and dropped; the message itself survives.
func decodeThumbnail(t *document.Minithumbnail, msgID int64, log *slog.Logger) []byte {
	if t == nil || t.Data == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(t.Data)
	if err != nil {
		log.Warn("discarding undecodable minithumbnail", "message_id", msgID, "error", err)
		return nil
	}
	return data
}

func ptr(s string) *string { return &s }
