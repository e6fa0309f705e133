package interpret

import (
	"errors"
	"testing"
	"time"

	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/keyword"
)

func testInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	engine, err := keyword.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}
	in := New(engine)
	in.now = func() time.Time { return time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC) }
	in.newID = func() string { return "fixed-id" }
	return in
}

func testAccounts() []*domain.Account {
	return []*domain.Account{
		{
			Name:           "Cartao X",
			NormalizedName: "cartao x",
			Kind:           domain.AccountCreditCard,
			ClosingDay:     10,
			DueDay:         20,
			ClosingPolicy:  domain.ClosingStandard,
		},
		{Name: "Carteira", NormalizedName: "carteira", Kind: domain.AccountCash},
		{Name: "Banco Azul", NormalizedName: "banco azul", Kind: domain.AccountChecking, Aliases: []string{"azul"}},
	}
}

func TestInterpret_ExpenseEndToEnd(t *testing.T) {
	in := testInterpreter(t)

	candidate, err := in.Interpret(7, "gastei 50 no mercado com Cartao X", testAccounts())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	if candidate.IsTransfer() {
		t.Fatal("plain expense should have one leg")
	}
	leg := candidate.Legs[0]

	if leg.Kind != domain.KindExpense {
		t.Errorf("kind = %q, want expense", leg.Kind)
	}
	if leg.Amount != 50 {
		t.Errorf("amount = %f, want 50", leg.Amount)
	}
	if leg.AccountKey != "cartao x" {
		t.Errorf("account = %q, want cartao x", leg.AccountKey)
	}
	if leg.Category != "Alimentação" || leg.Subcategory != "Supermercado" {
		t.Errorf("category = %q>%q, want Alimentação>Supermercado", leg.Category, leg.Subcategory)
	}
	if leg.Description != "mercado" {
		t.Errorf("description = %q, want mercado", leg.Description)
	}
	if leg.PaymentMethod != "credit" {
		t.Errorf("payment method = %q, want credit (card account)", leg.PaymentMethod)
	}

	// March 5 with closing day 10: closes in March, due April 20.
	wantDue := time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC)
	if !leg.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", leg.DueDate, wantDue)
	}
}

func TestInterpret_Income(t *testing.T) {
	in := testInterpreter(t)

	candidate, err := in.Interpret(7, "recebi 1.200,50 de salario no Banco Azul", testAccounts())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	leg := candidate.Legs[0]
	if leg.Kind != domain.KindIncome {
		t.Errorf("kind = %q, want income", leg.Kind)
	}
	if leg.Amount != 1200.50 {
		t.Errorf("amount = %f, want 1200.50", leg.Amount)
	}
	if leg.AccountKey != "banco azul" {
		t.Errorf("account = %q, want banco azul", leg.AccountKey)
	}
	if leg.Category != "Renda" || leg.Subcategory != "Salário" {
		t.Errorf("category = %q>%q, want Renda>Salário", leg.Category, leg.Subcategory)
	}
	// Non-card account: settles on the posted date.
	if !leg.DueDate.Equal(leg.PostedDate) {
		t.Errorf("due date = %v, want posted date %v", leg.DueDate, leg.PostedDate)
	}
}

func TestInterpret_Installments(t *testing.T) {
	in := testInterpreter(t)

	candidate, err := in.Interpret(7, "comprei um notebook de 3000 em 10x no Cartao X", testAccounts())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	leg := candidate.Legs[0]
	if leg.InstallmentCount != 10 {
		t.Errorf("installments = %d, want 10", leg.InstallmentCount)
	}
	if leg.InstallmentIndex != 1 {
		t.Errorf("installment index = %d, want 1", leg.InstallmentIndex)
	}
	if leg.Amount != 3000 {
		t.Errorf("amount = %f, want the undivided total 3000", leg.Amount)
	}
	if leg.Description != "notebook" {
		t.Errorf("description = %q, want notebook (installment phrasing stripped)", leg.Description)
	}
}

func TestInterpret_VezesPhrasing(t *testing.T) {
	in := testInterpreter(t)

	candidate, err := in.Interpret(7, "gastei 300 no mercado em 3 vezes com Cartao X", testAccounts())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if got := candidate.Legs[0].InstallmentCount; got != 3 {
		t.Errorf("installments = %d, want 3", got)
	}
}

func TestInterpret_UnknownAccountAndPayment(t *testing.T) {
	in := testInterpreter(t)

	candidate, err := in.Interpret(7, "gastei 25 no uber", testAccounts())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	leg := candidate.Legs[0]
	if leg.AccountKey != AccountUnknown {
		t.Errorf("account = %q, want sentinel %q", leg.AccountKey, AccountUnknown)
	}
	if leg.PaymentMethod != PaymentUnknown {
		t.Errorf("payment = %q, want sentinel %q", leg.PaymentMethod, PaymentUnknown)
	}
	if leg.Category != "Transporte" {
		t.Errorf("category = %q, want Transporte", leg.Category)
	}
}

func TestInterpret_ShortDescriptionPlaceholder(t *testing.T) {
	in := testInterpreter(t)

	candidate, err := in.Interpret(7, "gastei 10", testAccounts())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if got := candidate.Legs[0].Description; got != DescriptionPlaceholder {
		t.Errorf("description = %q, want placeholder %q", got, DescriptionPlaceholder)
	}
	if got := candidate.Legs[0].Category; got != CategoryFallback {
		t.Errorf("category = %q, want fallback %q", got, CategoryFallback)
	}
}

func TestInterpret_Errors(t *testing.T) {
	in := testInterpreter(t)

	_, err := in.Interpret(7, "bom dia, tudo bem?", testAccounts())
	if !errors.Is(err, ErrAmbiguousType) {
		t.Errorf("unrecognized type: err = %v, want ErrAmbiguousType", err)
	}

	_, err = in.Interpret(7, "gastei muito no mercado", testAccounts())
	if !errors.Is(err, ErrAmountNotFound) {
		t.Errorf("missing amount: err = %v, want ErrAmountNotFound", err)
	}
}

func TestInterpret_Transfer(t *testing.T) {
	in := testInterpreter(t)

	candidate, err := in.Interpret(7, "transferi 100 da Carteira para o Banco Azul", testAccounts())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if !candidate.IsTransfer() {
		t.Fatal("expected a two-leg transfer pair")
	}

	expense, income := candidate.Legs[0], candidate.Legs[1]

	if expense.Kind != domain.KindExpense || expense.AccountKey != "carteira" {
		t.Errorf("source leg = %q on %q, want expense on carteira", expense.Kind, expense.AccountKey)
	}
	if income.Kind != domain.KindIncome || income.AccountKey != "banco azul" {
		t.Errorf("destination leg = %q on %q, want income on banco azul", income.Kind, income.AccountKey)
	}
	if expense.Amount != 100 || income.Amount != 100 {
		t.Errorf("leg amounts = %f, %f; want both 100", expense.Amount, income.Amount)
	}
	if expense.ID != income.ID {
		t.Errorf("legs do not share a base id: %q vs %q", expense.ID, income.ID)
	}
	if expense.PaymentMethod != domain.PaymentMethodTransfer {
		t.Errorf("payment method = %q, want transfer", expense.PaymentMethod)
	}
	if expense.Category != domain.TransferCategory {
		t.Errorf("category = %q, want %q", expense.Category, domain.TransferCategory)
	}
}

func TestInterpret_TransferErrors(t *testing.T) {
	in := testInterpreter(t)

	_, err := in.Interpret(7, "transferi 100 pro banco", testAccounts())
	if !errors.Is(err, ErrTransferFormat) {
		t.Errorf("malformed phrase: err = %v, want ErrTransferFormat", err)
	}

	_, err = in.Interpret(7, "transferi 100 da conta fantasma para a carteira", testAccounts())
	if !errors.Is(err, ErrTransferSource) {
		t.Errorf("unknown source: err = %v, want ErrTransferSource", err)
	}

	_, err = in.Interpret(7, "transferi 100 da carteira para a conta fantasma", testAccounts())
	if !errors.Is(err, ErrTransferDestination) {
		t.Errorf("unknown destination: err = %v, want ErrTransferDestination", err)
	}
}
