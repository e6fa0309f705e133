package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok-123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "Transacoes", cfg.Tables.Transactions)
	assert.Equal(t, 15*time.Minute, cfg.CandidateTTL.Std())
	assert.Equal(t, 60*time.Second, cfg.DedupTTL.Std())
	assert.Equal(t, 30*time.Second, cfg.LockTimeout.Std())
	assert.Equal(t, "tok-123", cfg.Telegram.Token)
}

func TestLoad_FileOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok-123")
	path := writeConfig(t, `
listen_addr: ":9090"
log_level: debug
store:
  backend: sheets
  spreadsheet_id: sheet-abc
tables:
  transactions: Lancamentos
candidate_ttl: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StoreSheets, cfg.Store.Backend)
	assert.Equal(t, "sheet-abc", cfg.Store.SpreadsheetID)
	assert.Equal(t, "Lancamentos", cfg.Tables.Transactions)
	assert.Equal(t, "Contas", cfg.Tables.Accounts, "unset table names keep defaults")
	assert.Equal(t, 5*time.Minute, cfg.CandidateTTL.Std())
}

func TestLoad_EnvSecretOverridesFile(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok-123")
	t.Setenv("TELEGRAM_WEBHOOK_SECRET", "env-secret")
	path := writeConfig(t, `
telegram:
  webhook_secret: file-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Telegram.WebhookSecret)
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok-123")

	tests := []struct {
		name    string
		content string
	}{
		{"sheets without spreadsheet", "store:\n  backend: sheets\n"},
		{"unknown backend", "store:\n  backend: redis\n"},
		{"negative ttl", "candidate_ttl: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.ErrorIs(t, err, ErrConfiguration)
}
