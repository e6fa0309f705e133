// Package config loads the daemon configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration wraps every startup misconfiguration so callers can treat
// the whole family uniformly.
var ErrConfiguration = errors.New("configuration error")

// Duration decodes Go duration strings ("15m", "30s") from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Store backend names accepted in the config file.
const (
	StoreSheets = "sheets"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Telegram holds bot transport settings. The token never lives in the file:
// it comes from TELEGRAM_BOT_TOKEN.
type Telegram struct {
	Token         string `yaml:"-"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// StoreConfig selects and parameterizes the row-store backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	SpreadsheetID string `yaml:"spreadsheet_id"` // sheets
	Path          string `yaml:"path"`           // sqlite
}

// TablesConfig overrides the default table names.
type TablesConfig struct {
	Accounts     string `yaml:"accounts"`
	Transactions string `yaml:"transactions"`
	Keywords     string `yaml:"keywords"`
	Bills        string `yaml:"bills"`
}

// FirestoreConfig parameterizes the snapshot mirror and API auth. An empty
// project id disables both.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Config is the full daemon configuration.
type Config struct {
	ListenAddr string          `yaml:"listen_addr"`
	LogLevel   string          `yaml:"log_level"`
	Telegram   Telegram        `yaml:"telegram"`
	Store      StoreConfig     `yaml:"store"`
	Tables     TablesConfig    `yaml:"tables"`
	Firestore  FirestoreConfig `yaml:"firestore"`

	CandidateTTL Duration `yaml:"candidate_ttl"`
	DedupTTL     Duration `yaml:"dedup_ttl"`
	LockTimeout  Duration `yaml:"lock_timeout"`

	// KeywordRulesFile optionally replaces the embedded default rules.
	KeywordRulesFile string `yaml:"keyword_rules_file"`
}

// Default returns the configuration used when the file omits a field.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		Store:      StoreConfig{Backend: StoreSQLite, Path: "contasbot.db"},
		Tables: TablesConfig{
			Accounts:     "Contas",
			Transactions: "Transacoes",
			Keywords:     "PalavrasChave",
			Bills:        "ContasAPagar",
		},
		CandidateTTL: Duration(15 * time.Minute),
		DedupTTL:     Duration(60 * time.Second),
		LockTimeout:  Duration(30 * time.Second),
	}
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result. An empty path loads defaults plus
// environment only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parsing %s: %v", ErrConfiguration, path, err)
		}
	}

	cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	if secret := os.Getenv("TELEGRAM_WEBHOOK_SECRET"); secret != "" {
		cfg.Telegram.WebhookSecret = secret
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreSheets:
		if c.Store.SpreadsheetID == "" {
			return fmt.Errorf("%w: sheets backend requires store.spreadsheet_id", ErrConfiguration)
		}
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: sqlite backend requires store.path", ErrConfiguration)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrConfiguration, c.Store.Backend)
	}

	if c.CandidateTTL <= 0 || c.DedupTTL <= 0 || c.LockTimeout <= 0 {
		return fmt.Errorf("%w: ttls and lock timeout must be positive", ErrConfiguration)
	}
	return nil
}
