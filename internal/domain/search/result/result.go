package result

import "github.com/kailas-cloud/docqa/internal/domain/segment"

// Result is a single retrieval hit.
type Result struct {
	segment segment.Segment
	score   float64
	rank    int
}

// New creates a retrieval result.
func New(seg segment.Segment, score float64, rank int) Result {
	return Result{segment: seg, score: score, rank: rank}
}

// Segment returns the matched segment.
func (r *Result) Segment() segment.Segment { return r.segment }

// Score returns the cosine similarity to the query.
func (r *Result) Score() float64 { return r.score }

// Rank returns the zero-based position in the ranking.
func (r *Result) Rank() int { return r.rank }

// Segments extracts the segments of results, preserving order.
func Segments(results []Result) []segment.Segment {
	out := make([]segment.Segment, len(results))
	for i := range results {
		out[i] = results[i].segment
	}
	return out
}
