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
// Chats
// ============================================================

func createChatHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chats")
		defer span.End()

		var req domain.CreateChatRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		chatID, err := notifier.CreateChat(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, domain.ChatCreated{ChatID: chatID})
	}
}

func getChatHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chats/{chatId}")
		defer span.End()

		chatID := chi.URLParam(r, "chatId")
		span.SetAttributes(attribute.String("wecom.chatid", chatID))

		info, err := notifier.GetChat(ctx, chatID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func modifyChatHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/chats/{chatId}")
		defer span.End()

		chatID := chi.URLParam(r, "chatId")
		span.SetAttributes(attribute.String("wecom.chatid", chatID))

		var update domain.ChatUpdate
		if err := decodeJSON(r, &update); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := notifier.ModifyChat(ctx, chatID, update); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "chat updated", ID: chatID})
	}
}
