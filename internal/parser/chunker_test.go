package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"policy-rag/internal/models"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short text", 1000, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "short text" {
		t.Fatalf("unexpected chunk content: %q", chunks[0])
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	if chunks := SplitText("", 1000, 100); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}

func TestSplitTextChunkSizeAndOverlap(t *testing.T) {
	content := strings.Repeat("abcdefghij", 50) // 500 chars
	size, overlap := 100, 20

	chunks := SplitText(content, size, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if len(c) > size {
			t.Fatalf("chunk %d exceeds max size: %d > %d", i, len(c), size)
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if prev[len(prev)-overlap:] != cur[:overlap] {
			t.Fatalf("chunks %d and %d do not share %d overlap characters", i-1, i, overlap)
		}
	}
}

func TestSplitTextKeepsTrailingText(t *testing.T) {
	content := strings.Repeat("x", 250)
	chunks := SplitText(content, 100, 10)

	last := chunks[len(chunks)-1]
	if len(last) == 0 {
		t.Fatal("trailing chunk was dropped")
	}

	var total int
	for i, c := range chunks {
		total += len(c)
		if i > 0 {
			total -= 10
		}
	}
	if total != len(content) {
		t.Fatalf("chunks cover %d characters, want %d", total, len(content))
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	content := strings.Repeat("the quick brown fox ", 100)
	a := SplitText(content, 300, 50)
	b := SplitText(content, 300, 50)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestJoinPassagesReassemblesOriginal(t *testing.T) {
	content := strings.Repeat("abcdefghijklmnopqrstuvwxyz", 40)
	size, overlap := 120, 30

	passages := SplitPassages("doc.pdf", []Page{{Number: 1, Text: content}}, size, overlap)
	joined := JoinPassages(passages, overlap)
	if joined != content {
		t.Fatalf("reassembled text differs from original (%d vs %d chars)", len(joined), len(content))
	}
}

func TestSplitPassagesMetadata(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: strings.Repeat("a", 150)},
		{Number: 2, Text: strings.Repeat("b", 150)},
	}
	passages := SplitPassages("policy.pdf", pages, 100, 10)

	if len(passages) < 3 {
		t.Fatalf("expected at least 3 passages, got %d", len(passages))
	}
	seen := map[int]bool{}
	for i, p := range passages {
		if p.SourceFilename != "policy.pdf" {
			t.Fatalf("passage %d has source %q", i, p.SourceFilename)
		}
		if p.ChunkID != i+1 {
			t.Fatalf("passage %d has chunk id %d, want sequential numbering", i, p.ChunkID)
		}
		seen[p.PageNumber] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("expected passages from both pages, got pages %v", seen)
	}

	var last models.Passage
	for _, p := range passages {
		if p.PageNumber < last.PageNumber {
			t.Fatal("passages out of page order")
		}
		last = p
	}
}

func TestSplitTextMultibyteRunes(t *testing.T) {
	content := strings.Repeat("héllo wörld ünïcode ", 20)
	size, overlap := 15, 4

	chunks := SplitText(content, size, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if utf8.RuneCountInString(c) > size {
			t.Fatalf("chunk %d exceeds max size: %d runes", i, utf8.RuneCountInString(c))
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := []rune(chunks[i-1]), []rune(chunks[i])
		if string(prev[len(prev)-overlap:]) != string(cur[:overlap]) {
			t.Fatalf("chunks %d and %d do not share %d overlap characters", i-1, i, overlap)
		}
	}

	passages := SplitPassages("doc.pdf", []Page{{Number: 1, Text: content}}, size, overlap)
	if joined := JoinPassages(passages, overlap); joined != content {
		t.Fatalf("reassembled text differs from original (%d vs %d bytes)", len(joined), len(content))
	}
}

func TestSplitTextOverlapLargerThanSize(t *testing.T) {
	content := strings.Repeat("z", 300)
	// Overlap must be clamped rather than looping forever.
	chunks := SplitText(content, 100, 150)
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite oversized overlap")
	}
}
