package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"accents and punctuation", "Café, 2024!", "cafe 2024"},
		{"portuguese diacritics", "Transferência de cartão", "transferencia de cartao"},
		{"collapses whitespace", "  gastei   50\tno mercado ", "gastei 50 no mercado"},
		{"currency symbols removed", "R$ 1.234,56", "r 1 234 56"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Café, 2024!", "gastei 50 no Pão de Açúcar", "", "já normalizado"}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"mercado", "mercado", 0},
		{"mercado", "mercados", 1},
		{"cartao", "cartão", 1},
	}

	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("Similarity of two empty strings = %f, want 1.0", got)
	}
	if got := Similarity("mercado", "mercado"); got != 1.0 {
		t.Errorf("Similarity of identical strings = %f, want 1.0", got)
	}
	if got := Similarity("abcd", "wxyz"); got != 0.0 {
		t.Errorf("Similarity of disjoint strings = %f, want 0.0", got)
	}

	// "mercado" vs "mercados": distance 1, maxLen 8 → 7/8
	if got := Similarity("mercado", "mercados"); got != 7.0/8.0 {
		t.Errorf("Similarity(mercado, mercados) = %f, want %f", got, 7.0/8.0)
	}
}
