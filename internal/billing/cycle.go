// Package billing computes credit-card invoice due dates: which statement a
// purchase closes into and how installment due dates advance month by month.
//
// All functions are pure so the same due dates can be re-derived identically
// from persisted data on every replay.
package billing

import (
	"time"

	"github.com/brenocwb02/contasbot/internal/domain"
)

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateClamped builds a date clamping day to the last valid day of the month,
// so a dueDay of 31 lands on Feb 28/29 instead of rolling into March.
func dateClamped(year int, month time.Month, day int) time.Time {
	// Normalize month overflow first (month 13 → January next year)
	normalized := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := lastDayOfMonth(normalized.Year(), normalized.Month()); day > last {
		day = last
	}
	return time.Date(normalized.Year(), normalized.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DueDateForPurchase computes the invoice due date for a purchase on a credit
// card account.
//
// The statement closing month is the purchase month when the purchase day is
// on or before the closing day; later purchases roll into next month's
// statement. The close-previous-month policy treats every purchase as already
// rolled, closing it in its own calendar month regardless of day. Unknown
// policies fall back to the standard rule. The due date is the account's due
// day in the month after the closing month, clamped to that month's last day.
func DueDateForPurchase(account *domain.Account, purchaseDate time.Time) time.Time {
	closingYear, closingMonth := purchaseDate.Year(), purchaseDate.Month()

	switch account.ClosingPolicy {
	case domain.ClosingPreviousMonth:
		// Already rolled: closes in the purchase's own calendar month.
	default:
		// standard / close-this-month / unknown
		if purchaseDate.Day() > account.ClosingDay {
			closingMonth++
		}
	}

	return dateClamped(closingYear, closingMonth+1, account.DueDay)
}

// DueDateForInstallment advances the first due date by installmentIndex-1
// months, clamping the day-of-month when the literal day does not exist in
// the target month. Installment 1 returns firstDueDate unchanged.
//
// Clamping is always computed from the first due date's day, not the previous
// installment's, so a Jan 31 start yields Feb 28 then Mar 31 rather than
// drifting down to Mar 28.
func DueDateForInstallment(firstDueDate time.Time, installmentIndex int) time.Time {
	if installmentIndex <= 1 {
		return firstDueDate
	}
	return dateClamped(firstDueDate.Year(), firstDueDate.Month()+time.Month(installmentIndex-1), firstDueDate.Day())
}
