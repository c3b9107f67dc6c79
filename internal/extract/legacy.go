// internal/extract/legacy.go
// Extractor for the legacy flat-profile shape. Legacy exports carry direct
// identifiers (email, phone number), so this is the one extractor that runs
// masking; the canonical record set never sees the raw values.
package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/chatdlp/telegram-refiner-go/internal/assemble"
	"github.com/chatdlp/telegram-refiner-go/internal/document"
	"github.com/chatdlp/telegram-refiner-go/internal/model"
	"github.com/chatdlp/telegram-refiner-go/internal/pii"
)

type legacyExtractor struct {
	log *slog.Logger
}

func (e *legacyExtractor) Extract(raw []byte) (*assemble.Seed, error) {
	doc, err := document.DecodeLegacy(raw)
	if err != nil {
		return nil, fmt.Errorf("extract legacy document: %w", err)
	}
	if doc.UserID == "" {
		return nil, fmt.Errorf("extract legacy document: missing user identifier")
	}

	seed := &assemble.Seed{
		SourcePlatform: PlatformTelegram,
		SourceUserID:   doc.UserID,
	}

	td := doc.TelegramData
	if td == nil {
		e.log.Warn("legacy document has no telegram data block", "user_id", doc.UserID)
		return seed, nil
	}

	seed.Profile = &assemble.ProfileSeed{
		Username:    td.Username,
		EmailMasked: pii.MaskEmail(doc.Email),
		PhoneMasked: pii.MaskPhone(td.PhoneNumber),
		IsBot:       td.IsBot,
		IsPremium:   td.IsPremium,
		JoinDate:    time.Unix(td.JoinDate, 0).UTC(),
	}

	// Legacy messages arrive flat; group them by chat id, keeping the order
	// in which chats first appear so the output is stable across runs.
	byChat := make(map[int64][]assemble.MessageSeed)
	var order []int64
	for i := range td.Messages {
		msg := &td.Messages[i]
		if _, ok := byChat[msg.ChatID]; !ok {
			order = append(order, msg.ChatID)
		}
		byChat[msg.ChatID] = append(byChat[msg.ChatID], e.messageSeed(msg, td))
	}

	// Chats declared without any messages still become (empty) chat records.
	for _, chat := range td.Chats {
		if _, ok := byChat[chat.ChatID]; !ok {
			order = append(order, chat.ChatID)
			byChat[chat.ChatID] = nil
		}
	}

	for _, chatID := range order {
		seed.Chats = append(seed.Chats, assemble.ChatSeed{
			SourceChatID: strconv.FormatInt(chatID, 10),
			Messages:     byChat[chatID],
		})
	}
	return seed, nil
}

// messageSeed resolves one flat legacy message. Outgoing messages are
// attributed to the account itself; incoming ones only carry the chat as a
// sender, the format never recorded the peer's own id.
func (e *legacyExtractor) messageSeed(msg *document.LegacyMessage, td *document.TelegramData) assemble.MessageSeed {
	sender := strconv.FormatInt(msg.ChatID, 10)
	if msg.IsOutgoing {
		sender = td.Username
		if sender == "" {
			sender = model.SenderUnknown
		}
	}

	seed := assemble.MessageSeed{
		SourceMessageID: strconv.FormatInt(msg.MessageID, 10),
		SenderID:        sender,
		Date:            time.Unix(msg.Timestamp, 0).UTC(),
		ContentType:     model.ContentText,
		Content:         ptr(msg.Text),
	}

	if msg.Media == nil {
		return seed
	}

	switch msg.Media.Type {
	case "photo":
		seed.ContentType = model.ContentPhoto
	case "video":
		seed.ContentType = model.ContentVideo
	case "document":
		seed.ContentType = model.ContentDocument
	default:
		seed.ContentType = model.ContentMedia
	}
	if msg.Media.Caption != nil && *msg.Media.Caption != "" {
		seed.Content = ptr(*msg.Media.Caption)
	} else if msg.Text != "" {
		seed.Content = ptr(msg.Text)
	} else {
		seed.Content = ptr("Media: " + msg.Media.Type)
	}

	// The legacy format has no inline thumbnails; keep the media descriptor
	// itself as the binary sidecar instead.
	data, err := json.Marshal(msg.Media)
	if err != nil {
		e.log.Warn("discarding unencodable media descriptor", "message_id", msg.MessageID, "error", err)
	} else {
		seed.ContentData = data
	}
	return seed
}
