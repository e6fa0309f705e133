package telegram

import (
	"fmt"
	"strings"

	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/money"
)

const dateLayout = "02/01/2006"

var kindLabels = map[domain.TransactionKind]string{
	domain.KindExpense: "Despesa",
	domain.KindIncome:  "Receita",
}

// FormatConfirmation renders the prompt shown with the confirm/cancel
// keyboard, echoing back every interpreted field so the user can verify
// before anything is written.
func FormatConfirmation(candidate *domain.Candidate) string {
	var b strings.Builder

	if candidate.IsTransfer() {
		expense, income := candidate.Legs[0], candidate.Legs[1]
		b.WriteString("🔁 *Confirmar transferência?*\n\n")
		fmt.Fprintf(&b, "💰 Valor: %s\n", money.FormatBRL(expense.Amount))
		fmt.Fprintf(&b, "📤 De: %s\n", expense.AccountKey)
		fmt.Fprintf(&b, "📥 Para: %s\n", income.AccountKey)
		return b.String()
	}

	leg := candidate.Legs[0]
	b.WriteString("📝 *Confirmar lançamento?*\n\n")
	fmt.Fprintf(&b, "📌 %s: %s\n", kindLabels[leg.Kind], leg.Description)
	fmt.Fprintf(&b, "💰 Valor: %s\n", money.FormatBRL(leg.Amount))
	fmt.Fprintf(&b, "🏦 Conta: %s\n", leg.AccountKey)
	fmt.Fprintf(&b, "🏷️ Categoria: %s", leg.Category)
	if leg.Subcategory != "" {
		fmt.Fprintf(&b, " > %s", leg.Subcategory)
	}
	b.WriteString("\n")
	if leg.InstallmentCount > 1 {
		fmt.Fprintf(&b, "💳 Parcelas: %dx de %s\n",
			leg.InstallmentCount, money.FormatBRL(leg.Amount/float64(leg.InstallmentCount)))
	}
	return b.String()
}

// FormatBalances renders the /saldo reply. accounts fixes the display order;
// accounts absent from the snapshot map are shown with their opening balance.
func FormatBalances(accounts []*domain.Account, snapshots map[string]domain.Snapshot) string {
	var b strings.Builder
	b.WriteString("💰 *Saldos*\n\n")

	for _, acc := range accounts {
		snapshot, ok := snapshots[acc.NormalizedName]
		if !ok {
			snapshot = domain.Snapshot{Kind: acc.Kind, RunningBalance: acc.OpeningBalance}
		}

		switch acc.Kind {
		case domain.AccountCreditCard, domain.AccountConsolidated:
			fmt.Fprintf(&b, "💳 %s: %s em aberto (fatura atual %s)\n",
				acc.Name, money.FormatBRL(snapshot.Balance()), money.FormatBRL(snapshot.CurrentCycleInvoice))
		default:
			fmt.Fprintf(&b, "🏦 %s: %s\n", acc.Name, money.FormatBRL(snapshot.Balance()))
		}
	}
	return b.String()
}

// FormatStatement renders the /extrato reply, newest row last.
func FormatStatement(transactions []*domain.Transaction) string {
	if len(transactions) == 0 {
		return "📭 Nenhum lançamento encontrado."
	}

	var b strings.Builder
	b.WriteString("📋 *Últimos lançamentos*\n\n")
	for _, tx := range transactions {
		sign := "-"
		if tx.Kind == domain.KindIncome {
			sign = "+"
		}
		fmt.Fprintf(&b, "`%s` %s %s%s | %s (%s)\n",
			tx.ID, tx.PostedDate.Format(dateLayout), sign, money.FormatBRL(tx.Amount),
			tx.Description, tx.AccountKey)
	}
	return b.String()
}
