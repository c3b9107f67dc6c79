// internal/extract/extract.go
// Package extract walks validated input documents and resolves each message
// into the normalized (content type, content, binary, sender, timestamp)
// tuple. One extractor exists per source shape, all sharing a single content
// resolver; the aggregation and id wiring live in the assemble package.
//
// Failure policy: anything below document granularity is recovered locally.
// A malformed sub-field defaults to a placeholder or sentinel, is logged as a
// non-fatal anomaly, and the message is still emitted. One bad message never
// drops or corrupts its siblings.
package extract

import (
	"log/slog"

	"github.com/chatdlp/telegram-refiner-go/internal/assemble"
	"github.com/chatdlp/telegram-refiner-go/internal/shape"
)

// PlatformTelegram is the platform name recorded on every user produced by
// the current extractors; all known producers export Telegram data.
const PlatformTelegram = "Telegram"

// Extractor resolves a raw, already-validated document of one source shape
// into a shape-agnostic assembly seed.
type Extractor interface {
	Extract(raw []byte) (*assemble.Seed, error)
}

// ForShape returns the extractor for a detected source shape.
// The miner and webapp shapes share one implementation: their documents
// carry the same TDLib-flavored tree and differ only in the discriminator,
// which has already been consumed by the detector.
func ForShape(s shape.Shape, log *slog.Logger) Extractor {
	if log == nil {
		log = slog.Default()
	}
	switch s {
	case shape.Legacy:
		return &legacyExtractor{log: log}
	default:
		return &tdExtractor{shape: s, log: log}
	}
}
