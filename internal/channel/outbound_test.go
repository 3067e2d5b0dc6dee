package channel

import (
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "blank", text: "   ", limit: 10, want: nil},
		{name: "fits", text: " hello ", limit: 10, want: []string{"hello"}},
		{name: "no limit", text: "hello world", limit: 0, want: []string{"hello world"}},
		{name: "splits on newline", text: "aaaa\nbbbb\ncc", limit: 9, want: []string{"aaaa\nbbbb", "cc"}},
		{name: "long line", text: "abcdefghij", limit: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "counts runes", text: "ééééé", limit: 5, want: []string{"ééééé"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ChunkText(tt.text, tt.limit)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Fatalf("ChunkText(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
		})
	}
}

func TestChunkTextRespectsMessengerLimit(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("word ", 1000)
	for _, chunk := range ChunkText(text, DefaultTextChunkLimit) {
		if runeLen(chunk) > DefaultTextChunkLimit {
			t.Fatalf("chunk exceeds limit: %d", runeLen(chunk))
		}
	}
}

func TestNormalizeOutboundPolicy(t *testing.T) {
	t.Parallel()

	policy := NormalizeOutboundPolicy(OutboundPolicy{})
	if policy.TextChunkLimit != DefaultTextChunkLimit {
		t.Fatalf("unexpected limit: %d", policy.TextChunkLimit)
	}
	if policy.Chunker == nil {
		t.Fatalf("expected default chunker")
	}
	custom := NormalizeOutboundPolicy(OutboundPolicy{TextChunkLimit: 640})
	if custom.TextChunkLimit != 640 {
		t.Fatalf("custom limit overwritten: %d", custom.TextChunkLimit)
	}
}
