package money

import (
	"math"
	"testing"
)

func TestParseBRL(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"123", 123},
		{"R$ 50,00", 50.0},
		{"r$ 50", 50.0},
		{"0,99", 0.99},
		{"1.000.000,01", 1000000.01},
		{"45.9", 45.9},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBRL(tt.input)
			if err != nil {
				t.Fatalf("ParseBRL(%q) error = %v", tt.input, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseBRL(%q) = %f, want %f", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBRL_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "R$"} {
		if _, err := ParseBRL(input); err == nil {
			t.Errorf("ParseBRL(%q) expected error, got nil", input)
		}
	}
}

func TestAmountPattern(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"gastei 50 no mercado", "50"},
		{"gastei R$ 1.234,56 no mercado", "R$ 1.234,56"},
		{"paguei 45,90 de luz", "45,90"},
		{"sem valor nenhum", ""},
	}

	for _, tt := range tests {
		got := AmountPattern.FindString(tt.message)
		if got != tt.want {
			t.Errorf("AmountPattern.FindString(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{50, "R$ 50,00"},
		{1234.56, "R$ 1.234,56"},
		{1000000.01, "R$ 1.000.000,01"},
		{-12.5, "-R$ 12,50"},
	}

	for _, tt := range tests {
		if got := FormatBRL(tt.value); got != tt.want {
			t.Errorf("FormatBRL(%f) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
