// Package money parses and formats monetary values in Brazilian locale
// conventions, where "." and "," may each act as thousands or decimal
// separator depending on position.
package money

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AmountPattern matches the first monetary value in a message, tolerating an
// optional R$ prefix and mixed "."/"," separators. Exported so the
// interpreter can remove the matched span from the description.
var AmountPattern = regexp.MustCompile(`(?i)(?:r\$\s*)?(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`)

// ParseBRL parses a string like "1.234,56", "1,234.56", "R$ 50,00" or "123"
// into a float64. Separator roles are decided by position: if the last comma
// occurs after the last dot, the comma is the decimal separator and dots are
// thousands separators; otherwise the reverse. A bare digit string parses
// directly.
func ParseBRL(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.TrimPrefix(cleaned, "r$")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma > lastDot:
		// Brazilian style: 1.234,56
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case lastDot > lastComma:
		// US style: 1,234.56
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return value, nil
}

// FormatBRL renders a value as "R$ 1.234,56" for chat replies.
func FormatBRL(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	whole := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(whole, ".", 2)
	intPart, decPart := parts[0], parts[1]

	// Insert thousands separators right-to-left
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, strings.Join(groups, "."), decPart)
}
