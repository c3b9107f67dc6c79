// internal/schema/validator.go
// Package schema provides JSON schema validation for input documents and the
// portable descriptor of the canonical relational schema.
// Validation ensures a document structurally matches its detected source shape
// before any transformation begins; a failure here is fatal for that document
// only, because a shape mismatch means the wrong extractor would run.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/chatdlp/telegram-refiner-go/internal/shape"
)

// Validator validates raw input documents against the schema of their
// detected source shape.
type Validator struct {
	schemas map[shape.Shape]*gojsonschema.Schema // Compiled schema per shape
}

// NewValidator creates a new structural validator with all shape schemas
// compiled and ready.
func NewValidator() (*Validator, error) {
	v := &Validator{
		schemas: make(map[shape.Shape]*gojsonschema.Schema),
	}

	if err := v.loadSchemas(); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	return v, nil
}

// loadSchemas compiles the JSON schemas for all supported source shapes.
// The miner and webapp producers share one TDLib-flavored structure, so they
// share one schema; only the discriminator value differs and that is the
// detector's concern, not the validator's.
//
// Polymorphic sub-objects (sender references, message content) are left as
// loose objects here on purpose: unrecognized variant tags must not fail the
// document, they only leave the sub-field unresolved at the typed layer.
func (v *Validator) loadSchemas() error {
	// Miner/webapp schema: user id (string or integer) plus the chat tree.
	tdSchema := `{
		"type": "object",
		"required": ["user", "chats"],
		"properties": {
			"source": {"type": "string"},
			"user": {"type": ["string", "integer"]},
			"submission_token": {"type": ["string", "null"]},
			"chats": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["chat_id", "contents"],
					"properties": {
						"chat_id": {"type": "integer"},
						"contents": {
							"type": "array",
							"items": {
								"type": "object",
								"required": ["id", "date"],
								"properties": {
									"id": {"type": "integer"},
									"type": {"type": "string"},
									"date": {"type": "integer"},
									"sender_id": {"type": ["object", "null"]},
									"content": {"type": ["object", "null"]}
								}
							}
						}
					}
				}
			}
		}
	}`
	if err := v.loadSchema(shape.Miner, tdSchema); err != nil {
		return fmt.Errorf("failed to load miner schema: %w", err)
	}
	if err := v.loadSchema(shape.Webapp, tdSchema); err != nil {
		return fmt.Errorf("failed to load webapp schema: %w", err)
	}

	// Legacy schema: flat profile with an optional embedded Telegram block.
	legacySchema := `{
		"type": "object",
		"required": ["userId", "email", "timestamp", "profile"],
		"properties": {
			"userId": {"type": "string"},
			"email": {"type": "string"},
			"timestamp": {"type": "integer"},
			"profile": {
				"type": "object",
				"required": ["name", "locale"],
				"properties": {
					"name": {"type": "string"},
					"locale": {"type": "string"}
				}
			},
			"metadata": {
				"type": ["object", "null"],
				"properties": {
					"source": {"type": "string"},
					"collectionDate": {"type": "string"},
					"dataType": {"type": "string"}
				}
			},
			"telegramData": {
				"type": ["object", "null"],
				"required": ["username", "phoneNumber", "messages", "chats"],
				"properties": {
					"username": {"type": "string"},
					"phoneNumber": {"type": "string"},
					"isBot": {"type": "boolean"},
					"isPremium": {"type": "boolean"},
					"joinDate": {"type": "integer"},
					"messages": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["messageId", "chatId", "timestamp", "isOutgoing"],
							"properties": {
								"messageId": {"type": "integer"},
								"chatId": {"type": "integer"},
								"timestamp": {"type": "integer"},
								"text": {"type": "string"},
								"isOutgoing": {"type": "boolean"},
								"replyToMessageId": {"type": ["integer", "null"]},
								"hasMedia": {"type": "boolean"},
								"media": {"type": ["object", "null"]}
							}
						}
					},
					"chats": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["chatId", "type", "title"],
							"properties": {
								"chatId": {"type": "integer"},
								"type": {"type": "string"},
								"title": {"type": "string"}
							}
						}
					}
				}
			}
		}
	}`
	if err := v.loadSchema(shape.Legacy, legacySchema); err != nil {
		return fmt.Errorf("failed to load legacy schema: %w", err)
	}

	return nil
}

// loadSchema compiles a single schema and stores it for the given shape.
func (v *Validator) loadSchema(s shape.Shape, schemaJSON string) error {
	loader := gojsonschema.NewStringLoader(schemaJSON)

	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", s, err)
	}

	v.schemas[s] = compiled
	return nil
}

// Validate checks a raw document against the schema for its detected shape.
// Returns nil if the document is structurally valid, otherwise an error
// listing every violated constraint.
func (v *Validator) Validate(s shape.Shape, raw []byte) error {
	compiled, exists := v.schemas[s]
	if !exists {
		return fmt.Errorf("no schema for shape: %s", s)
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("document does not match %s shape: %s", s, strings.Join(errs, "; "))
	}

	return nil
}
