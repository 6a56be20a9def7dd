package pipeline

import "time"

// State is a pipeline controller lifecycle stage.
type State int

// Controller states.
const (
	Idle State = iota
	Segmenting
	Embedding
	Indexed
	Querying
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Segmenting:
		return "segmenting"
	case Embedding:
		return "embedding"
	case Indexed:
		return "indexed"
	case Querying:
		return "querying"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of a controller. DocumentID, Segments and
// IndexedAt describe the published index, not a build in progress.
type Status struct {
	State      State
	Reason     string
	DocumentID string
	Segments   int
	IndexedAt  time.Time
}
