package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/brenocwb02/contasbot/internal/telegram"
)

var (
	webhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contasbot_webhook_requests_total",
		Help: "Webhook deliveries by result.",
	}, []string{"result"})

	webhookDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contasbot_webhook_duration_seconds",
		Help:    "Time spent handling one webhook delivery.",
		Buckets: prometheus.DefBuckets,
	})
)

// maxWebhookBody bounds the accepted update payload.
const maxWebhookBody = 1 << 20

// handleWebhook receives one Telegram update. Telegram retries non-2xx
// responses, so processing failures still return 200 once the update has
// been decoded; the dedup layer absorbs redeliveries either way.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(webhookDuration)
	defer timer.ObserveDuration()

	if s.webhookSecret != "" {
		got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			webhookRequests.WithLabelValues("unauthorized").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	var update telegram.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&update); err != nil {
		webhookRequests.WithLabelValues("malformed").Inc()
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := s.bot.HandleUpdate(r.Context(), &update); err != nil {
		webhookRequests.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Int64("update_id", update.UpdateID).Msg("update handling failed")
	} else {
		webhookRequests.WithLabelValues("ok").Inc()
	}

	w.WriteHeader(http.StatusOK)
}
