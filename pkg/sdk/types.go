package docqa

import "time"

// State is the pipeline lifecycle stage.
type State string

// State constants.
const (
	StateIdle       State = "idle"
	StateSegmenting State = "segmenting"
	StateEmbedding  State = "embedding"
	StateIndexed    State = "indexed"
	StateQuerying   State = "querying"
	StateFailed     State = "failed"
)

// Status describes the loaded document.
type Status struct {
	State      State
	Reason     string // why the last Load failed
	DocumentID string
	Segments   int
	IndexedAt  time.Time
}

// Source is one retrieved segment, with its position in the document in runes.
type Source struct {
	SegmentID string
	Offset    int
	Length    int
	Text      string
	Score     float64
}

// Answer is the model's reply and the segments it was given, best first.
type Answer struct {
	Text             string
	Model            string
	Sources          []Source
	PromptTokens     int
	CompletionTokens int
	EmbeddingTokens  int
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}
