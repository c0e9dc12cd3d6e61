package whatsapp

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// MessageHandler is called for each incoming text message with (senderPhone, messageID, body).
// It must return quickly; Meta expects the webhook to answer within seconds.
type MessageHandler func(phone, messageID, text string)

type WebhookHandler struct {
	verifyToken string
	onMessage   MessageHandler
	log         zerolog.Logger
}

func NewWebhookHandler(verifyToken string, onMessage MessageHandler, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		onMessage:   onMessage,
		log:         log,
	}
}

// HandleVerify handles the GET webhook verification from Meta.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/get-started#webhook-verification
func (h *WebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleIncoming processes incoming webhook POST notifications.
// Non-text messages (media, reactions, locations) are not part of the menu and are skipped.
func (h *WebhookHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	var payload WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.log.Warn().Err(err).Msg("webhook: failed to decode payload")
		// Meta redelivers on non-2xx responses.
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					h.log.Debug().Str("type", msg.Type).Msg("webhook: skipping non-text message")
					continue
				}
				h.onMessage(msg.From, msg.ID, msg.Text.Body)
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}
