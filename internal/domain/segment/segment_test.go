package segment

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func mustDoc(t *testing.T, text string) domain.Document {
	t.Helper()
	d, err := domain.NewDocument("doc", "doc.txt", text)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return d
}

func TestSplit_StrideOffsets(t *testing.T) {
	segs, err := Split(mustDoc(t, strings.Repeat("A", 1200)), 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOffsets := []int{0, 450, 900}
	wantLengths := []int{500, 500, 300}
	if len(segs) != len(wantOffsets) {
		t.Fatalf("expected %d segments, got %d", len(wantOffsets), len(segs))
	}
	for i, s := range segs {
		if s.Offset() != wantOffsets[i] || s.Length() != wantLengths[i] {
			t.Errorf("segment %d: offset=%d length=%d, want %d/%d",
				i, s.Offset(), s.Length(), wantOffsets[i], wantLengths[i])
		}
		if s.Seq() != i {
			t.Errorf("segment %d: seq=%d", i, s.Seq())
		}
	}
}

func TestSplit_ShortTextSingleTrimmedSegment(t *testing.T) {
	// Longer than the stride but within one window.
	text := "  " + strings.Repeat("b", 470) + "\n"
	segs, err := Split(mustDoc(t, text), 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text() != strings.TrimSpace(text) {
		t.Errorf("segment text not equal to trimmed input")
	}
	if segs[0].Offset() != 2 || segs[0].Length() != 470 {
		t.Errorf("offset=%d length=%d", segs[0].Offset(), segs[0].Length())
	}
}

func TestSplit_TextMatchesSpan(t *testing.T) {
	text := "Refunds are issued within 30 days. Ünïcödé text survives slicing.\n\nShipping takes a week."
	segs, err := Split(mustDoc(t, text), 20, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runes := []rune(text)
	covered := make([]bool, len(runes))
	for _, s := range segs {
		if got := string(runes[s.Offset() : s.Offset()+s.Length()]); got != s.Text() {
			t.Errorf("segment %d: span %q != text %q", s.Seq(), got, s.Text())
		}
		if s.Length() > 20 {
			t.Errorf("segment %d longer than chunk size: %d", s.Seq(), s.Length())
		}
		for i := s.Offset(); i < s.Offset()+s.Length(); i++ {
			covered[i] = true
		}
	}
	for i, r := range runes {
		if !covered[i] && !strings.ContainsRune(" \n", r) {
			t.Errorf("rune %d (%q) not covered by any segment", i, r)
		}
	}
}

func TestSplit_SkipsBlankWindows(t *testing.T) {
	text := strings.Repeat("x", 10) + strings.Repeat(" ", 30) + strings.Repeat("y", 10)
	segs, err := Split(mustDoc(t, text), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Text() != strings.Repeat("x", 10) || segs[1].Text() != strings.Repeat("y", 10) {
		t.Errorf("unexpected texts: %q, %q", segs[0].Text(), segs[1].Text())
	}
	if segs[1].Seq() != 1 {
		t.Errorf("expected dense seq numbering, got %d", segs[1].Seq())
	}
}

func TestSplit_Deterministic(t *testing.T) {
	doc := mustDoc(t, strings.Repeat("lorem ipsum dolor sit amet ", 80))
	a, err := Split(doc, 120, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := Split(doc, 120, 30)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("segment %d differs", i)
		}
	}
}

func TestSplit_InvalidChunking(t *testing.T) {
	doc := mustDoc(t, "hello")
	tests := []struct {
		name             string
		chunkSize, overl int
	}{
		{"zero chunk", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals chunk", 10, 10},
		{"overlap exceeds chunk", 10, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split(doc, tc.chunkSize, tc.overl)
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestSplit_BlankDocument(t *testing.T) {
	_, err := domain.NewDocument("doc", "blank.txt", " \n\t ")
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("ErrEmptyInput should match ErrInvalidInput")
	}
}

func TestTexts(t *testing.T) {
	segs := []Segment{
		Reconstruct("d", 0, 0, 1, "a"),
		Reconstruct("d", 1, 1, 1, "b"),
	}
	got := Texts(segs)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Texts() = %v", got)
	}
	if segs[1].ID() != "d:1" {
		t.Errorf("ID() = %q", segs[1].ID())
	}
}
