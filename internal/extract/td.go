// internal/extract/td.go
// Extractor for the TDLib-flavored miner and webapp shapes.
package extract

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/chatdlp/telegram-refiner-go/internal/assemble"
	"github.com/chatdlp/telegram-refiner-go/internal/document"
	"github.com/chatdlp/telegram-refiner-go/internal/shape"
)

// tdExtractor handles both the miner and webapp shapes. The shape is retained
// only for logging; the structural handling is identical.
type tdExtractor struct {
	shape shape.Shape
	log   *slog.Logger
}

func (e *tdExtractor) Extract(raw []byte) (*assemble.Seed, error) {
	doc, err := document.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s document: %w", e.shape, err)
	}
	if doc.User.String() == "" {
		return nil, fmt.Errorf("extract %s document: missing user identifier", e.shape)
	}

	seed := &assemble.Seed{
		SourcePlatform:  PlatformTelegram,
		SourceUserID:    doc.User.String(),
		SubmissionToken: doc.SubmissionToken,
	}

	for _, chat := range doc.Chats {
		cs := assemble.ChatSeed{
			SourceChatID: strconv.FormatInt(chat.ChatID, 10),
			Messages:     make([]assemble.MessageSeed, 0, len(chat.Contents)),
		}
		for i := range chat.Contents {
			msg := &chat.Contents[i]
			res := resolveContent(msg, e.log)
			cs.Messages = append(cs.Messages, assemble.MessageSeed{
				SourceMessageID: strconv.FormatInt(msg.ID, 10),
				SenderID:        resolveSender(msg.Sender),
				Date:            time.Unix(msg.Date, 0).UTC(),
				ContentType:     res.ContentType,
				Content:         res.Content,
				ContentData:     res.ContentData,
			})
		}
		seed.Chats = append(seed.Chats, cs)
	}
	return seed, nil
}
