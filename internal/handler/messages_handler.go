package handler

import (
	"net/http"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// POST /v1/messages
// ============================================================

func sendMessageHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/messages")
		defer span.End()

		var req domain.SendRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("wecom.msgtype", req.MsgType))

		result, err := notifier.SendDirect(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status := "sent"
		if result.HasInvalidRecipients() {
			status = "partial"
		}
		writeJSON(w, http.StatusOK, domain.MessageSent{Status: status, Result: result})
	}
}

// ============================================================
// POST /v1/chats/{chatId}/messages
// ============================================================

func sendChatMessageHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chats/{chatId}/messages")
		defer span.End()

		chatID := chi.URLParam(r, "chatId")
		span.SetAttributes(attribute.String("wecom.chatid", chatID))

		var req domain.SendRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := notifier.SendToChat(ctx, chatID, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.MessageSent{Status: "sent"})
	}
}
