package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/brenocwb02/contasbot/internal/ledger"
	"github.com/brenocwb02/contasbot/internal/telegram"
)

const startReply = `👋 *Olá! Eu sou o seu assistente financeiro.*

Me conte seus gastos em linguagem natural:
• "gastei 50 no mercado com cartão X"
• "recebi 1.200 de salário"
• "transferi 100 da carteira para o banco"

Comandos:
/saldo — saldos de todas as contas
/extrato [n] — últimos lançamentos
/editar <id> <campo> <valor> — corrigir um lançamento
/apagar <id> — remover um lançamento
/recalcular — recalcular os saldos`

// defaultStatementLimit caps /extrato when no count is given.
const defaultStatementLimit = 10

func (b *Bot) handleCommand(ctx context.Context, msg *telegram.Message, text string) error {
	fields := strings.Fields(text)
	command := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	switch command {
	case "/start", "/ajuda", "/help":
		return b.sender.SendMessage(ctx, msg.Chat.ID, startReply, nil)
	case "/saldo":
		return b.commandBalances(ctx, msg.Chat.ID)
	case "/extrato":
		return b.commandStatement(ctx, msg, fields[1:])
	case "/editar":
		return b.commandEdit(ctx, msg.Chat.ID, fields[1:])
	case "/apagar":
		return b.commandDelete(ctx, msg.Chat.ID, fields[1:])
	case "/recalcular":
		return b.commandRecompute(ctx, msg.Chat.ID)
	}
	return b.sender.SendMessage(ctx, msg.Chat.ID, "🤔 Comando desconhecido. Use /ajuda.", nil)
}

// commandBalances replies with a fresh read-path snapshot. It does not
// persist: /saldo never takes the write lock.
func (b *Bot) commandBalances(ctx context.Context, chatID int64) error {
	accounts, err := b.repo.Accounts(ctx)
	if err != nil {
		return b.replyInternalError(ctx, chatID, err)
	}
	snapshots, err := b.reconciler.Recompute(ctx)
	if err != nil {
		return b.replyInternalError(ctx, chatID, err)
	}
	return b.sender.SendMessage(ctx, chatID, telegram.FormatBalances(accounts, snapshots), nil)
}

func (b *Bot) commandStatement(ctx context.Context, msg *telegram.Message, args []string) error {
	limit := defaultStatementLimit
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	owner := strconv.FormatInt(msg.Chat.ID, 10)
	if msg.From != nil {
		owner = strconv.FormatInt(msg.From.ID, 10)
	}
	transactions, err := b.repo.TransactionsByOwner(ctx, owner, limit)
	if err != nil {
		return b.replyInternalError(ctx, msg.Chat.ID, err)
	}
	return b.sender.SendMessage(ctx, msg.Chat.ID, telegram.FormatStatement(transactions), nil)
}

func (b *Bot) commandEdit(ctx context.Context, chatID int64, args []string) error {
	if len(args) < 3 {
		return b.sender.SendMessage(ctx, chatID,
			"Uso: /editar <id> <campo> <valor>\nCampos: descricao, categoria, subcategoria, valor, data, vencimento, conta, status.", nil)
	}
	id, field := args[0], args[1]
	value := strings.Join(args[2:], " ")

	err := b.writer.EditField(ctx, id, field, value)
	switch {
	case err == nil:
		return b.sender.SendMessage(ctx, chatID, "✏️ Lançamento atualizado.", nil)
	case errors.Is(err, ledger.ErrNotFound):
		return b.sender.SendMessage(ctx, chatID, "🤔 Não encontrei um lançamento com esse id.", nil)
	case errors.Is(err, ledger.ErrUnknownField):
		return b.sender.SendMessage(ctx, chatID, "🤔 Campo desconhecido. Campos: descricao, categoria, subcategoria, valor, data, vencimento, conta, status.", nil)
	case errors.Is(err, ledger.ErrInvalidValue):
		return b.sender.SendMessage(ctx, chatID, "🤔 Valor inválido para esse campo.", nil)
	case errors.Is(err, ledger.ErrLockTimeout):
		return b.sender.SendMessage(ctx, chatID, commitFailureReply(err), nil)
	}
	return b.replyInternalError(ctx, chatID, err)
}

func (b *Bot) commandDelete(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 1 {
		return b.sender.SendMessage(ctx, chatID, "Uso: /apagar <id>", nil)
	}

	err := b.writer.Delete(ctx, args[0])
	switch {
	case err == nil:
		return b.sender.SendMessage(ctx, chatID, "🗑️ Lançamento removido.", nil)
	case errors.Is(err, ledger.ErrNotFound):
		return b.sender.SendMessage(ctx, chatID, "🤔 Não encontrei um lançamento com esse id.", nil)
	case errors.Is(err, ledger.ErrLockTimeout):
		return b.sender.SendMessage(ctx, chatID, commitFailureReply(err), nil)
	}
	return b.replyInternalError(ctx, chatID, err)
}

func (b *Bot) commandRecompute(ctx context.Context, chatID int64) error {
	if _, err := b.reconciler.RecomputeAndPersist(ctx); err != nil {
		if errors.Is(err, ledger.ErrLockTimeout) {
			return b.sender.SendMessage(ctx, chatID, commitFailureReply(err), nil)
		}
		return b.replyInternalError(ctx, chatID, err)
	}
	return b.sender.SendMessage(ctx, chatID, "🔄 Saldos recalculados.", nil)
}
