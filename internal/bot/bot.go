// Package bot routes inbound Telegram updates: free text through the
// interpreter into the pending store, commands to their handlers, and
// keyboard callbacks into the transaction writer.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/interpret"
	"github.com/brenocwb02/contasbot/internal/ledger"
	"github.com/brenocwb02/contasbot/internal/pending"
	"github.com/brenocwb02/contasbot/internal/reconcile"
	"github.com/brenocwb02/contasbot/internal/telegram"
)

var interpretOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contasbot_interpret_outcomes_total",
	Help: "Interpretation attempts by outcome.",
}, []string{"outcome"})

// Bot wires the conversational flow together.
type Bot struct {
	interpreter *interpret.Interpreter
	candidates  *pending.Store
	deduper     *pending.Deduper
	repo        *ledger.Repo
	writer      *ledger.Writer
	reconciler  *reconcile.Engine
	sender      telegram.Sender
	logger      zerolog.Logger
}

// New creates the bot over its collaborators.
func New(
	interpreter *interpret.Interpreter,
	candidates *pending.Store,
	deduper *pending.Deduper,
	repo *ledger.Repo,
	writer *ledger.Writer,
	reconciler *reconcile.Engine,
	sender telegram.Sender,
	logger zerolog.Logger,
) *Bot {
	return &Bot{
		interpreter: interpreter,
		candidates:  candidates,
		deduper:     deduper,
		repo:        repo,
		writer:      writer,
		reconciler:  reconciler,
		sender:      sender,
		logger:      logger,
	}
}

// HandleUpdate processes one webhook update. Errors are handled internally
// with user-facing replies; the returned error only reports transport
// failures so the webhook handler can log them.
func (b *Bot) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	if b.deduper.Seen(update.UpdateID) {
		b.logger.Debug().Int64("update_id", update.UpdateID).Msg("duplicate update suppressed")
		return nil
	}

	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && strings.TrimSpace(update.Message.Text) != "":
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		return b.handleCommand(ctx, msg, text)
	}
	return b.handleFreeText(ctx, msg, text)
}

func (b *Bot) handleFreeText(ctx context.Context, msg *telegram.Message, text string) error {
	accounts, err := b.repo.Accounts(ctx)
	if err != nil {
		return b.replyInternalError(ctx, msg.Chat.ID, err)
	}

	candidate, err := b.interpreter.Interpret(msg.Chat.ID, text, accounts)
	if err != nil {
		interpretOutcomes.WithLabelValues("rejected").Inc()
		return b.sender.SendMessage(ctx, msg.Chat.ID, userInputReply(err), nil)
	}
	interpretOutcomes.WithLabelValues("candidate").Inc()

	if err := b.candidates.Put(msg.Chat.ID, candidate.BaseID(), candidate); err != nil {
		return b.replyInternalError(ctx, msg.Chat.ID, err)
	}

	prompt := telegram.FormatConfirmation(candidate)
	return b.sender.SendMessage(ctx, msg.Chat.ID, prompt, telegram.ConfirmKeyboard(candidate.BaseID()))
}

// handleCallback resolves a confirm/cancel press. The candidate is consumed
// atomically, so a second press on either button finds nothing and answers
// with the expired notice.
func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	confirm, candidateID, ok := telegram.ParseCallback(cb.Data)
	if !ok || cb.Message == nil {
		return b.sender.AnswerCallback(ctx, cb.ID, "")
	}
	chatID := cb.Message.Chat.ID

	candidate, found := b.candidates.Consume(chatID, candidateID)
	if !found {
		return b.sender.AnswerCallback(ctx, cb.ID, "Expirado ou já processado.")
	}

	if !confirm {
		if err := b.sender.AnswerCallback(ctx, cb.ID, "Cancelado."); err != nil {
			return err
		}
		return b.sender.SendMessage(ctx, chatID, "🚫 Lançamento cancelado.", nil)
	}

	user := strconv.FormatInt(chatID, 10)
	if cb.From != nil {
		user = strconv.FormatInt(cb.From.ID, 10)
	}
	if err := b.writer.Commit(ctx, candidate, user); err != nil {
		interpretOutcomes.WithLabelValues("commit_failed").Inc()
		b.logger.Error().Err(err).Str("candidate", candidateID).Msg("commit failed")
		if answerErr := b.sender.AnswerCallback(ctx, cb.ID, ""); answerErr != nil {
			return answerErr
		}
		return b.sender.SendMessage(ctx, chatID, commitFailureReply(err), nil)
	}
	interpretOutcomes.WithLabelValues("committed").Inc()

	if err := b.sender.AnswerCallback(ctx, cb.ID, "Registrado!"); err != nil {
		return err
	}
	return b.sender.SendMessage(ctx, chatID, confirmedReply(candidate), nil)
}

func confirmedReply(candidate *domain.Candidate) string {
	if candidate.IsTransfer() {
		return "✅ Transferência registrada."
	}
	leg := candidate.Legs[0]
	if leg.InstallmentCount > 1 {
		return fmt.Sprintf("✅ Lançamento registrado em %d parcelas.", leg.InstallmentCount)
	}
	return "✅ Lançamento registrado."
}

// userInputReply maps the interpreter's error taxonomy onto retry prompts.
func userInputReply(err error) string {
	switch {
	case errors.Is(err, interpret.ErrAmbiguousType):
		return "🤔 Não entendi se é gasto, receita ou transferência. Tente algo como \"gastei 50 no mercado\"."
	case errors.Is(err, interpret.ErrAmountNotFound):
		return "🤔 Não encontrei o valor. Inclua um número, por exemplo \"gastei 50 no mercado\"."
	case errors.Is(err, interpret.ErrTransferFormat):
		return "🤔 Para transferências use \"transferi 100 da conta A para conta B\"."
	case errors.Is(err, interpret.ErrTransferSource):
		return "🤔 Não reconheci a conta de origem da transferência."
	case errors.Is(err, interpret.ErrTransferDestination):
		return "🤔 Não reconheci a conta de destino da transferência."
	}
	return "🤔 Não consegui interpretar a mensagem. Tente novamente."
}

func commitFailureReply(err error) string {
	if errors.Is(err, ledger.ErrLockTimeout) {
		return "⏳ O sistema está ocupado no momento. Tente novamente em instantes."
	}
	return "❌ Não consegui registrar o lançamento. Tente novamente."
}

func (b *Bot) replyInternalError(ctx context.Context, chatID int64, err error) error {
	b.logger.Error().Err(err).Msg("internal failure handling message")
	return b.sender.SendMessage(ctx, chatID, "❌ Ocorreu um erro interno. Tente novamente.", nil)
}
