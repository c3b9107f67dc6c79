// internal/shape/shape.go
// Package shape classifies parsed input documents into one of the known
// source shapes. Detection never fails hard: an absent or unrecognized
// discriminator falls back to the miner shape so that unknown producers
// still get a best-effort ingestion.
package shape

// Shape identifies the upstream export format of an input document.
type Shape string

const (
	Legacy Shape = "legacy" // Flat profile export with an embedded Telegram data block
	Miner  Shape = "miner"  // Miner-produced TDLib-style export
	Webapp Shape = "webapp" // Webapp-produced TDLib-style export
)

// Discriminator values carried in the top-level "source" field.
const (
	sourceWebapp = "telegram"
	sourceMiner  = "telegramMiner"
)

// Detect classifies a decoded document. The returned bool reports whether the
// shape was positively recognized; false means the miner fallback was applied
// and the caller should log a warning.
//
// The legacy shape predates the discriminator field and is probed structurally
// by its signature top-level fields before the discriminator path runs.
func Detect(doc map[string]any) (Shape, bool) {
	if _, ok := doc["userId"]; ok {
		if _, ok := doc["profile"]; ok {
			return Legacy, true
		}
	}

	source, _ := doc["source"].(string)
	switch source {
	case sourceWebapp:
		return Webapp, true
	case sourceMiner:
		return Miner, true
	default:
		return Miner, false
	}
}
