package bot

import (
	"context"
	"time"

	"github.com/lojasmm/lista/internal/logging"
	"github.com/lojasmm/lista/internal/metrics"
	"github.com/lojasmm/lista/internal/session"
	"github.com/lojasmm/lista/internal/store"
	"github.com/rs/zerolog"
)

// Sender delivers a text reply to a WhatsApp user.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Dialog turns one inbound message into the replies to send.
type Dialog interface {
	Handle(ctx context.Context, userID, text string) []string
}

type Handler struct {
	wa      Sender
	store   store.Store
	dialog  Dialog
	queue   *session.Manager
	limiter *Limiter
	log     zerolog.Logger
}

func NewHandler(wa Sender, s store.Store, d Dialog, queue *session.Manager, limiter *Limiter, log zerolog.Logger) *Handler {
	return &Handler{wa: wa, store: s, dialog: d, queue: queue, limiter: limiter, log: log}
}

// HandleMessage is the webhook callback. It filters redelivered and flooding
// messages and queues the rest behind earlier messages of the same phone.
func (h *Handler) HandleMessage(phone, messageID, text string) {
	log := logging.WithTrace(h.log, phone)

	first, err := h.store.MarkDelivered(store.Delivery{
		MessageID:  messageID,
		Phone:      phone,
		ReceivedAt: time.Now(),
	})
	switch {
	case err != nil:
		// ledger trouble must not silence the bot
		log.Error().Err(err).Str("message_id", messageID).Msg("bot: delivery ledger error")
	case !first:
		metrics.IncInbound("duplicate")
		log.Debug().Str("message_id", messageID).Msg("bot: duplicate delivery skipped")
		return
	}

	if !h.limiter.Allow(phone) {
		metrics.IncInbound("rate_limited")
		log.Warn().Msg("bot: rate limit exceeded, message dropped")
		return
	}

	h.queue.Submit(phone, func() {
		h.process(log, phone, text)
	})
}

func (h *Handler) process(log zerolog.Logger, phone, text string) {
	ctx := log.WithContext(context.Background())

	replies := h.dialog.Handle(ctx, phone, text)
	if len(replies) == 0 {
		metrics.IncInbound("ignored")
		return
	}
	metrics.IncInbound("handled")

	for _, r := range replies {
		if err := h.wa.SendText(ctx, phone, r); err != nil {
			metrics.IncOutboundFailure()
			// later replies would arrive out of context without this one
			log.Error().Err(err).Msg("bot: failed to send reply")
			return
		}
	}
}
