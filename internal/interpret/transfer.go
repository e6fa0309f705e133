package interpret

import (
	"errors"
	"regexp"

	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/keyword"
)

// Transfer-specific user-input errors, each naming which part of the phrase
// failed so the retry prompt can be precise.
var (
	ErrTransferFormat      = errors.New(`transfer message must follow "de <origem> para <destino>"`)
	ErrTransferSource      = errors.New("could not identify the source account of the transfer")
	ErrTransferDestination = errors.New("could not identify the destination account of the transfer")
)

// transferPattern captures the source and destination fragments of
// "de <X> para <Y>" (or "pra"), accepting the contracted articles
// da/do/das/dos. Applied to the normalized message.
var transferPattern = regexp.MustCompile(`\bd[aeo]s?\s+(.+?)\s+(?:para|pra)\s+(.+)$`)

// interpretTransfer handles the dedicated transfer sub-flow: both sides
// resolve independently through account lookup and the candidate carries the
// two legs of the pair sharing one base id.
func (in *Interpreter) interpretTransfer(chatID int64, normalized string, amount float64, accounts []*domain.Account) (*domain.Candidate, error) {
	m := transferPattern.FindStringSubmatch(normalized)
	if m == nil {
		return nil, ErrTransferFormat
	}
	sourceText, destText := m[1], m[2]

	source, _, ok := keyword.MatchAccount(sourceText, accounts)
	if !ok {
		return nil, ErrTransferSource
	}
	dest, _, ok := keyword.MatchAccount(destText, accounts)
	if !ok {
		return nil, ErrTransferDestination
	}

	baseID := in.newID()
	today := in.now()

	leg := domain.Transaction{
		ID:               baseID,
		PostedDate:       today,
		Description:      "Transferência " + source.Name + " → " + dest.Name,
		Category:         domain.TransferCategory,
		Subcategory:      domain.TransferSubcategory,
		Amount:           amount,
		PaymentMethod:    domain.PaymentMethodTransfer,
		InstallmentCount: 1,
		InstallmentIndex: 1,
		DueDate:          today,
		Status:           domain.StatusActive,
	}

	expense := leg
	expense.Kind = domain.KindExpense
	expense.AccountKey = source.NormalizedName

	income := leg
	income.Kind = domain.KindIncome
	income.AccountKey = dest.NormalizedName

	return &domain.Candidate{
		ChatID:    chatID,
		CreatedAt: today,
		Legs:      []domain.Transaction{expense, income},
	}, nil
}
