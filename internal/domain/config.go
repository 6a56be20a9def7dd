package domain

// KeyPrefix namespaces every key docqa writes to the key-value store.
const KeyPrefix = "docqa:"

// Pipeline defaults.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
	DefaultTopK      = 3
)

// ChunkingConfig controls how document text is split into segments.
type ChunkingConfig struct {
	ChunkSize int
	Overlap   int
}

// DefaultChunkingConfig returns 500-rune windows overlapping by 50 runes.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{ChunkSize: DefaultChunkSize, Overlap: DefaultOverlap}
}
