package billing

import (
	"testing"
	"time"

	"github.com/brenocwb02/contasbot/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueDateForPurchase_StandardPolicy(t *testing.T) {
	card := &domain.Account{
		Kind:          domain.AccountCreditCard,
		ClosingDay:    10,
		DueDay:        20,
		ClosingPolicy: domain.ClosingStandard,
	}

	tests := []struct {
		name     string
		purchase time.Time
		want     time.Time
	}{
		{"before closing day closes this month", date(2025, time.March, 5), date(2025, time.April, 20)},
		{"on closing day closes this month", date(2025, time.March, 10), date(2025, time.April, 20)},
		{"after closing day rolls to next statement", date(2025, time.March, 15), date(2025, time.May, 20)},
		{"december rollover crosses the year", date(2025, time.December, 15), date(2026, time.February, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DueDateForPurchase(card, tt.purchase)
			if !got.Equal(tt.want) {
				t.Errorf("DueDateForPurchase(%v) = %v, want %v", tt.purchase, got, tt.want)
			}
		})
	}
}

func TestDueDateForPurchase_ClosePreviousMonth(t *testing.T) {
	card := &domain.Account{
		Kind:          domain.AccountCreditCard,
		ClosingDay:    10,
		DueDay:        20,
		ClosingPolicy: domain.ClosingPreviousMonth,
	}

	// A purchase after the closing day still closes in its own month.
	got := DueDateForPurchase(card, date(2025, time.March, 25))
	want := date(2025, time.April, 20)
	if !got.Equal(want) {
		t.Errorf("DueDateForPurchase = %v, want %v", got, want)
	}
}

func TestDueDateForPurchase_UnknownPolicyFallsBackToStandard(t *testing.T) {
	card := &domain.Account{ClosingDay: 10, DueDay: 20, ClosingPolicy: "whatever"}
	got := DueDateForPurchase(card, date(2025, time.March, 15))
	want := date(2025, time.May, 20)
	if !got.Equal(want) {
		t.Errorf("DueDateForPurchase = %v, want %v", got, want)
	}
}

func TestDueDateForPurchase_DueDayClamped(t *testing.T) {
	// Due day 31 with a statement closing in January: due in February, which
	// has no day 31, so clamp to the last day instead of rolling into March.
	card := &domain.Account{ClosingDay: 25, DueDay: 31, ClosingPolicy: domain.ClosingStandard}
	got := DueDateForPurchase(card, date(2025, time.January, 10))
	want := date(2025, time.February, 28)
	if !got.Equal(want) {
		t.Errorf("DueDateForPurchase = %v, want %v", got, want)
	}
}

func TestDueDateForInstallment(t *testing.T) {
	first := date(2025, time.January, 31)

	tests := []struct {
		index int
		want  time.Time
	}{
		{1, date(2025, time.January, 31)},
		{2, date(2025, time.February, 28)}, // clamped, not rolled into March
		{3, date(2025, time.March, 31)},    // back to 31, derived from the first date
		{4, date(2025, time.April, 30)},
		{13, date(2026, time.January, 31)},
	}

	for _, tt := range tests {
		got := DueDateForInstallment(first, tt.index)
		if !got.Equal(tt.want) {
			t.Errorf("DueDateForInstallment(index=%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestDueDateForInstallment_StrictlyIncreasingMonthly(t *testing.T) {
	first := date(2024, time.January, 31) // leap year February ahead
	prev := DueDateForInstallment(first, 1)
	for i := 2; i <= 12; i++ {
		next := DueDateForInstallment(first, i)
		if !next.After(prev) {
			t.Fatalf("installment %d due %v is not after installment %d due %v", i, next, i-1, prev)
		}
		monthsApart := int(next.Month()) - int(prev.Month())
		if monthsApart < 0 {
			monthsApart += 12
		}
		if monthsApart != 1 {
			t.Fatalf("installments %d and %d are %d months apart, want 1", i-1, i, monthsApart)
		}
		prev = next
	}
}

func TestDueDateForInstallment_LeapFebruary(t *testing.T) {
	got := DueDateForInstallment(date(2024, time.January, 31), 2)
	want := date(2024, time.February, 29)
	if !got.Equal(want) {
		t.Errorf("leap-year February clamp = %v, want %v", got, want)
	}
}
