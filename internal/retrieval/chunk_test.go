package retrieval

import (
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w"
	}
	return strings.Join(parts, " ")
}

func TestChunkWords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		text      string
		size      int
		overlap   int
		wantCount int
		wantLast  int
	}{
		{name: "empty", text: "   ", size: 500, overlap: 50, wantCount: 0},
		{name: "single short chunk", text: words(10), size: 500, overlap: 50, wantCount: 1, wantLast: 10},
		{name: "exact fit", text: words(500), size: 500, overlap: 50, wantCount: 1, wantLast: 500},
		{name: "overlapping windows", text: words(1000), size: 500, overlap: 50, wantCount: 3, wantLast: 100},
		{name: "bad overlap ignored", text: words(10), size: 4, overlap: 4, wantCount: 3, wantLast: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := ChunkWords(tc.text, tc.size, tc.overlap)
			if len(chunks) != tc.wantCount {
				t.Fatalf("chunks = %d, want %d", len(chunks), tc.wantCount)
			}
			if tc.wantCount == 0 {
				return
			}
			if got := len(strings.Fields(chunks[len(chunks)-1])); got != tc.wantLast {
				t.Fatalf("last chunk words = %d, want %d", got, tc.wantLast)
			}
		})
	}
}

func TestChunkWordsOverlapCarriesContext(t *testing.T) {
	t.Parallel()

	chunks := ChunkWords("a b c d e f g", 4, 2)
	want := []string{"a b c d", "c d e f", "e f g"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunks = %v, want %v", chunks, want)
		}
	}
}
