// Package interpret turns one free-form chat message into a candidate
// transaction: type, amount, account, payment method, category, description,
// and installment plan, all via deterministic keyword and regex extraction.
package interpret

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brenocwb02/contasbot/internal/billing"
	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/keyword"
	"github.com/brenocwb02/contasbot/internal/money"
	"github.com/brenocwb02/contasbot/internal/textnorm"
	"github.com/google/uuid"
)

// User-input errors. All are recovered locally by the bot layer as retry
// prompts, never escalated.
var (
	ErrAmbiguousType  = errors.New("could not identify the transaction type")
	ErrAmountNotFound = errors.New("could not find a positive amount in the message")
)

// Sentinels for fields the message did not identify.
const (
	AccountUnknown = "nao identificado"
	PaymentUnknown = "nao identificado"
)

// Fallbacks when the message carries no category and almost no free text.
const (
	CategoryFallback       = "Outros"
	DescriptionPlaceholder = "Lançamento"
)

var (
	installmentPattern = regexp.MustCompile(`(\d+)\s*(?:x|vezes)`)
	// installment phrasing removed from descriptions: "em 3x", "3x", "3 vezes"
	installmentPhrase = regexp.MustCompile(`\b(?:em\s+)?\d+\s*(?:x|vezes)\b`)
)

// strayWords are prepositions/conjunctions stripped from the edges of a
// derived description.
var strayWords = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "no": {}, "na": {}, "em": {}, "com": {},
	"para": {}, "pra": {}, "o": {}, "a": {}, "e": {}, "um": {}, "uma": {},
	"reais": {}, "r": {},
}

// Interpreter builds candidate transactions from messages. It is stateless
// apart from the keyword engine and an injectable clock.
type Interpreter struct {
	engine *keyword.Engine
	now    func() time.Time
	newID  func() string
}

// New creates an interpreter over a loaded keyword engine.
func New(engine *keyword.Engine) *Interpreter {
	return &Interpreter{
		engine: engine,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Interpret runs the full pipeline over one message. The returned candidate
// is unconfirmed: the caller stores it pending explicit user approval.
// Returns a user-input error when the message cannot be understood.
func (in *Interpreter) Interpret(chatID int64, message string, accounts []*domain.Account) (*domain.Candidate, error) {
	normalized := textnorm.Normalize(message)

	typeMatch, ok := in.engine.DetectType(normalized)
	if !ok {
		return nil, ErrAmbiguousType
	}

	// Amount comes from the raw message so separators survive, then parses
	// through the locale-aware float rules.
	rawAmount := money.AmountPattern.FindString(message)
	if rawAmount == "" {
		return nil, ErrAmountNotFound
	}
	amount, err := money.ParseBRL(rawAmount)
	if err != nil || amount <= 0 {
		return nil, ErrAmountNotFound
	}

	if typeMatch.Value == keyword.TypeTransfer {
		return in.interpretTransfer(chatID, normalized, amount, accounts)
	}

	account, accountMatch, accountFound := keyword.MatchAccount(normalized, accounts)
	paymentMatch, paymentFound := in.engine.DetectPaymentMethod(normalized)

	accountKey := AccountUnknown
	if accountFound {
		accountKey = account.NormalizedName
	}
	paymentMethod := PaymentUnknown
	if paymentFound {
		paymentMethod = paymentMatch.Value
	}
	// A credit-card account cannot be paid by debit; force credit when the
	// method is missing or contradicts the account.
	if accountFound && account.Kind == domain.AccountCreditCard {
		if !paymentFound || paymentMethod == "debit" {
			paymentMethod = "credit"
		}
	}

	category, subcategory := CategoryFallback, ""
	if cat, sub, ok := in.engine.DetectCategory(normalized, typeMatch.Value); ok {
		category, subcategory = cat, sub
	}

	description := in.deriveDescription(normalized, rawAmount, typeMatch.Keyword, accountMatch.Keyword, paymentMatch.Keyword)

	installments := 1
	if m := installmentPattern.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
			installments = n
		}
	}

	today := in.now()
	dueDate := today
	if accountFound && account.Kind == domain.AccountCreditCard {
		dueDate = billing.DueDateForPurchase(account, today)
	}

	kind := domain.KindExpense
	if typeMatch.Value == keyword.TypeIncome {
		kind = domain.KindIncome
	}

	return &domain.Candidate{
		ChatID:    chatID,
		CreatedAt: today,
		Legs: []domain.Transaction{{
			ID:               in.newID(),
			PostedDate:       today,
			Description:      description,
			Category:         category,
			Subcategory:      subcategory,
			Kind:             kind,
			Amount:           amount,
			PaymentMethod:    paymentMethod,
			AccountKey:       accountKey,
			InstallmentCount: installments,
			InstallmentIndex: 1,
			DueDate:          dueDate,
			Status:           domain.StatusActive,
		}},
	}, nil
}

// deriveDescription strips the matched spans from the normalized message and
// returns what remains as the free-text description. The category keyword is
// deliberately kept: it is frequently the description itself.
func (in *Interpreter) deriveDescription(normalized, rawAmount string, matchedKeywords ...string) string {
	text := normalized

	if amountSpan := textnorm.Normalize(rawAmount); amountSpan != "" {
		text = strings.Replace(text, amountSpan, " ", 1)
	}
	for _, kw := range matchedKeywords {
		if kw != "" {
			text = strings.Replace(text, kw, " ", 1)
		}
	}
	text = installmentPhrase.ReplaceAllString(text, " ")

	words := strings.Fields(text)
	for len(words) > 0 {
		if _, stray := strayWords[words[0]]; !stray {
			break
		}
		words = words[1:]
	}
	for len(words) > 0 {
		if _, stray := strayWords[words[len(words)-1]]; !stray {
			break
		}
		words = words[:len(words)-1]
	}

	description := strings.Join(words, " ")
	if len([]rune(description)) < 3 {
		return DescriptionPlaceholder
	}
	return description
}
