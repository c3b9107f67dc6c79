package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocument(t *testing.T) {
	raw := []byte(`{
		"source": "telegramMiner",
		"user": 44556677,
		"submission_token": "tok-123",
		"chats": [
			{
				"chat_id": -1001234567890,
				"contents": [
					{
						"id": 10,
						"date": 1700000000,
						"sender_id": {"type": "messageSenderUser", "user_id": 111},
						"content": {"type": "messageText", "text": {"text": "hello"}}
					}
				]
			}
		]
	}`)

	doc, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "telegramMiner", doc.Source)
	assert.Equal(t, "44556677", doc.User.String(), "numeric user id is coerced to its decimal string")
	require.NotNil(t, doc.SubmissionToken)
	assert.Equal(t, "tok-123", *doc.SubmissionToken)

	require.Len(t, doc.Chats, 1)
	assert.Equal(t, int64(-1001234567890), doc.Chats[0].ChatID)

	require.Len(t, doc.Chats[0].Contents, 1)
	msg := doc.Chats[0].Contents[0]
	require.NotNil(t, msg.Sender)
	assert.Equal(t, SenderTypeUser, msg.Sender.Type)
	require.NotNil(t, msg.Sender.UserID)
	assert.Equal(t, int64(111), *msg.Sender.UserID)

	require.NotNil(t, msg.Content)
	assert.Equal(t, ContentTypeText, msg.Content.Type)
	require.NotNil(t, msg.Content.Text)
	assert.Equal(t, "hello", msg.Content.Text.Text)
}

func TestDecodePlainStringText(t *testing.T) {
	// Some producer revisions emit text as a bare string instead of FormattedText.
	raw := []byte(`{"user": "u9", "chats": [{"chat_id": 1, "contents": [
		{"id": 1, "date": 1700000000, "content": {"type": "messageText", "text": "plain"}}
	]}]}`)

	doc, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "plain", doc.Chats[0].Contents[0].Content.Text.Text)
}

func TestDecodeAtTypeDiscriminator(t *testing.T) {
	// Raw TDLib spelling of the discriminator.
	raw := []byte(`{"user": 1, "chats": [{"chat_id": 2, "contents": [
		{"id": 1, "date": 1700000000,
		 "sender_id": {"@type": "messageSenderChat", "chat_id": -5},
		 "content": {"@type": "messagePhoto", "photo": {"minithumbnail": {"data": "aGVsbG8="}}}}
	]}]}`)

	doc, err := Decode(raw)
	require.NoError(t, err)

	msg := doc.Chats[0].Contents[0]
	assert.Equal(t, SenderTypeChat, msg.Sender.Type)
	require.NotNil(t, msg.Sender.ChatID)
	assert.Equal(t, int64(-5), *msg.Sender.ChatID)
	assert.Equal(t, ContentTypePhoto, msg.Content.Type)
	require.NotNil(t, msg.Content.Photo)
	require.NotNil(t, msg.Content.Photo.Minithumbnail)
	assert.Equal(t, "aGVsbG8=", msg.Content.Photo.Minithumbnail.Data)
}

func TestDecodeUnrecognizedVariants(t *testing.T) {
	// Unknown sender and content tags must decode without error and leave the
	// payload pointers unresolved.
	raw := []byte(`{"user": 1, "chats": [{"chat_id": 2, "contents": [
		{"id": 1, "date": 1700000000,
		 "sender_id": {"type": "messageSenderSecretChat", "secret_chat_id": 9},
		 "content": {"type": "messageSticker", "sticker": {"emoji": "x"}}}
	]}]}`)

	doc, err := Decode(raw)
	require.NoError(t, err)

	msg := doc.Chats[0].Contents[0]
	assert.Equal(t, "messageSenderSecretChat", msg.Sender.Type)
	assert.Nil(t, msg.Sender.UserID)
	assert.Nil(t, msg.Sender.ChatID)
	assert.Equal(t, "messageSticker", msg.Content.Type)
	assert.Nil(t, msg.Content.Text)
	assert.Nil(t, msg.Content.Photo)
}

func TestDecodeLegacy(t *testing.T) {
	raw := []byte(`{
		"userId": "user-1",
		"email": "someone@example.com",
		"timestamp": 1690000000,
		"profile": {"name": "Someone", "locale": "en"},
		"telegramData": {
			"username": "someone_tg",
			"phoneNumber": "15551234567",
			"isBot": false,
			"isPremium": true,
			"joinDate": 1500000000,
			"chats": [{"chatId": 7, "type": "private", "title": "A", "messageCount": 1, "lastActivity": 1690000100}],
			"messages": [{"messageId": 1, "chatId": 7, "chatType": "private", "chatTitle": "A",
				"timestamp": 1690000100, "text": "hi", "isOutgoing": true, "hasMedia": false}]
		}
	}`)

	doc, err := DecodeLegacy(raw)
	require.NoError(t, err)

	assert.Equal(t, "user-1", doc.UserID)
	require.NotNil(t, doc.TelegramData)
	assert.True(t, doc.TelegramData.IsPremium)
	require.Len(t, doc.TelegramData.Messages, 1)
	assert.True(t, doc.TelegramData.Messages[0].IsOutgoing)
	assert.Nil(t, doc.TelegramData.Messages[0].Media)
}
