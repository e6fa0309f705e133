// Package keyword classifies normalized message fragments against configured
// keyword tables: transaction type, payment method, account, and
// category/subcategory. Matching is deterministic substring + Levenshtein
// similarity; there is no learned model.
package keyword

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/textnorm"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var embeddedRules []byte

// RuleType defines which dictionary a rule belongs to.
type RuleType string

const (
	RuleTransactionType RuleType = "type"
	RulePaymentMethod   RuleType = "payment"
	RuleCategory        RuleType = "category"
)

// Transaction type values produced by type detection.
const (
	TypeExpense  = "expense"
	TypeIncome   = "income"
	TypeTransfer = "transfer"
)

// Rule is one configured keyword mapping. For category rules the value is
// encoded as "Category>Subcategory" and WhenType optionally constrains the
// rule to an already-detected transaction type.
type Rule struct {
	Type     RuleType `yaml:"type"`
	Keyword  string   `yaml:"keyword"`
	Value    string   `yaml:"value"`
	WhenType string   `yaml:"when_type,omitempty"`
}

// RuleSet is the top-level YAML structure.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Match is the best rule found for a message fragment.
type Match struct {
	Value   string  // interpreted value of the winning rule
	Keyword string  // the keyword text that matched, for span removal
	Score   float64 // similarity score that won
}

// typeLiterals short-circuit type detection before the configurable table is
// consulted. They take precedence over any table-driven rule.
var typeLiterals = []struct {
	literal string
	value   string
}{
	{"recebi", TypeIncome},
	{"ganhei", TypeIncome},
	{"gastei", TypeExpense},
	{"paguei", TypeExpense},
	{"comprei", TypeExpense},
	{"transferi", TypeTransfer},
	{"transferencia", TypeTransfer},
}

// Engine performs keyword lookups over merged rule tables.
type Engine struct {
	byType map[RuleType][]Rule
}

// NewEngine builds an engine from YAML rule data, validating every rule.
func NewEngine(data []byte) (*Engine, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(data, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse YAML keyword rules (check syntax, indentation, and field names): %w", err)
	}

	e := &Engine{byType: make(map[RuleType][]Rule)}
	for i, rule := range ruleSet.Rules {
		if err := validateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Keyword, err)
		}
		e.add(rule)
	}
	return e, nil
}

// LoadEmbedded loads the built-in default rules.
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded keyword rules (possible binary corruption): %w", err)
	}
	return engine, nil
}

// LoadFromFile loads rules from a filesystem path.
func LoadFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword rules file: %w", err)
	}
	engine, err := NewEngine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword rules from %q: %w", path, err)
	}
	return engine, nil
}

func validateRule(rule Rule) error {
	switch rule.Type {
	case RuleTransactionType, RulePaymentMethod, RuleCategory:
	default:
		return fmt.Errorf("invalid rule type %q", rule.Type)
	}
	if strings.TrimSpace(rule.Keyword) == "" {
		return fmt.Errorf("keyword cannot be empty")
	}
	if strings.TrimSpace(rule.Value) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	if rule.Type == RuleCategory && !strings.Contains(rule.Value, ">") {
		return fmt.Errorf("category value %q must be encoded as \"Category>Subcategory\"", rule.Value)
	}
	return nil
}

func (e *Engine) add(rule Rule) {
	rule.Keyword = textnorm.Normalize(rule.Keyword)
	e.byType[rule.Type] = append(e.byType[rule.Type], rule)
}

// AddRules merges user-configured rules (e.g. loaded from the keyword-rules
// table) on top of the defaults. Invalid rules are rejected individually so
// one bad row does not discard the whole table.
func (e *Engine) AddRules(rules []Rule) []error {
	var errs []error
	for i, rule := range rules {
		if err := validateRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, rule.Keyword, err))
			continue
		}
		e.add(rule)
	}
	return errs
}

// DetectType resolves the transaction type of a normalized message. Hard-coded
// literals win over the configurable table. Returns false when nothing
// matched.
func (e *Engine) DetectType(message string) (Match, bool) {
	for _, lit := range typeLiterals {
		if containsWord(message, lit.literal) {
			return Match{Value: lit.value, Keyword: lit.literal, Score: 1.0}, true
		}
	}
	return e.match(message, RuleTransactionType, "")
}

// DetectPaymentMethod resolves the payment method mentioned in a message.
func (e *Engine) DetectPaymentMethod(message string) (Match, bool) {
	return e.match(message, RulePaymentMethod, "")
}

// DetectCategory resolves "Category>Subcategory" for a message, honoring each
// rule's optional type constraint against the already-detected transaction
// type. Returns the decoded pair.
func (e *Engine) DetectCategory(message, detectedType string) (category, subcategory string, ok bool) {
	m, ok := e.match(message, RuleCategory, detectedType)
	if !ok {
		return "", "", false
	}
	category, subcategory = SplitCategoryValue(m.Value)
	return category, subcategory, true
}

// match scans one rule table for keywords literally contained in the message
// and keeps the highest similarity score.
func (e *Engine) match(message string, rt RuleType, detectedType string) (Match, bool) {
	var best Match
	found := false

	for _, rule := range e.byType[rt] {
		if rule.Keyword == "" || !strings.Contains(message, rule.Keyword) {
			continue
		}
		// Category rules may be constrained to one transaction type; a
		// constrained rule is skipped even if its keyword matched the text.
		if rt == RuleCategory && rule.WhenType != "" {
			if textnorm.Normalize(rule.WhenType) != textnorm.Normalize(detectedType) {
				continue
			}
		}

		score := textnorm.Similarity(message, rule.Keyword)
		if !found || score > best.Score {
			best = Match{Value: rule.Value, Keyword: rule.Keyword, Score: score}
			found = true
		}
	}

	return best, found
}

// accountCanonicalWeight biases account resolution toward the canonical name
// when both the name and an alias occur in the message.
const accountCanonicalWeight = 1.5

// MatchAccount resolves which configured account a message refers to. Every
// account contributes its canonical name plus its aliases as keywords; a
// canonical-name match is weighted over an alias match with the same raw
// similarity. Returns false when no account keyword occurs in the message.
func MatchAccount(message string, accounts []*domain.Account) (*domain.Account, Match, bool) {
	var (
		bestAccount *domain.Account
		best        Match
		found       bool
	)

	consider := func(acc *domain.Account, keyword string, canonical bool) {
		keyword = textnorm.Normalize(keyword)
		if keyword == "" || !strings.Contains(message, keyword) {
			return
		}
		score := textnorm.Similarity(message, keyword)
		if canonical {
			score *= accountCanonicalWeight
		}
		if !found || score > best.Score {
			bestAccount = acc
			best = Match{Value: acc.NormalizedName, Keyword: keyword, Score: score}
			found = true
		}
	}

	for _, acc := range accounts {
		consider(acc, acc.Name, true)
		for _, alias := range acc.Aliases {
			consider(acc, alias, false)
		}
	}

	return bestAccount, best, found
}

// SplitCategoryValue decodes the "Category>Subcategory" encoding. A value
// without ">" is a bare category with no subcategory.
func SplitCategoryValue(value string) (category, subcategory string) {
	parts := strings.SplitN(value, ">", 2)
	category = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		subcategory = strings.TrimSpace(parts[1])
	}
	return category, subcategory
}

// containsWord reports whether the literal occurs at the start of a word in
// the message. Prefix matches are allowed ("recebi" matches "recebido") since
// Portuguese verb inflections share the stem.
func containsWord(message, literal string) bool {
	idx := strings.Index(message, literal)
	if idx < 0 {
		return false
	}
	if idx > 0 && message[idx-1] != ' ' {
		return false
	}
	return true
}
