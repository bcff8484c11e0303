package security

import (
	"strings"
	"testing"
)

// scriptタグと中身が除去されることを検証
func TestSanitizeText_RemovesScript(t *testing.T) {
	s := NewContentSanitizer()

	got := s.SanitizeText(`Great program!<script>alert("xss")</script>`)
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("script content not removed: %q", got)
	}
	if !strings.Contains(got, "Great program!") {
		t.Errorf("plain text lost: %q", got)
	}
}

// 全てのHTMLタグが除去されテキストのみ残ることを検証
func TestSanitizeText_StripsAllTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text", input: "パリでの半年は最高でした", want: "パリでの半年は最高でした"},
		{name: "bold", input: "<b>amazing</b> food", want: "amazing food"},
		{name: "link", input: `see <a href="https://evil.example">here</a>`, want: "see here"},
		{name: "img onerror", input: `<img src=x onerror=alert(1)>nice view`, want: "nice view"},
		{name: "entities decoded", input: "fish &amp; chips", want: "fish & chips"},
		{name: "surrounding whitespace", input: "  cozy dorm  ", want: "cozy dorm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 同一入力に対して常に同一出力を返すこと（冪等性）を検証
func TestSanitizeText_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>Loved the <strong>museum</strong> trip &amp; the food</p>`
	once := s.SanitizeText(input)
	twice := s.SanitizeText(once)
	if once != twice {
		t.Errorf("not idempotent: first %q, second %q", once, twice)
	}
}
