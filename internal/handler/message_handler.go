package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
)

// MessageServiceInterface はメッセージハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	Send(ctx context.Context, senderID int64, message *model.Message) (*model.MessageDetail, error)
	Inbox(ctx context.Context, userID int64, unreadOnly bool) ([]model.MessageDetail, error)
	Sent(ctx context.Context, userID int64) ([]model.MessageDetail, error)
	Get(ctx context.Context, userID, messageID int64) (*model.MessageDetail, error)
	MarkRead(ctx context.Context, userID, messageID int64) error
	Delete(ctx context.Context, userID, messageID int64) error
	Conversation(ctx context.Context, userID, otherID int64) ([]model.MessageDetail, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
}

// MessageHandler はユーザー間メッセージのHTTPハンドラー。
type MessageHandler struct {
	service MessageServiceInterface
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(service MessageServiceInterface) *MessageHandler {
	return &MessageHandler{service: service}
}

// sendMessageRequest はメッセージ送信リクエストのボディ。
type sendMessageRequest struct {
	RecipientID      int64  `json:"recipient_id"`
	Subject          string `json:"subject"`
	Content          string `json:"content"`
	RelatedProgramID *int64 `json:"related_program_id"`
	RelatedPlaceID   *int64 `json:"related_place_id"`
	RelatedTripID    *int64 `json:"related_trip_id"`
	ParentMessageID  *int64 `json:"parent_message_id"`
}

// Send はメッセージ送信を処理する。
// POST /messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.RecipientID <= 0 || req.Content == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("recipient_idとcontentは必須です。"))
		return
	}

	sent, err := h.service.Send(r.Context(), current.ID, &model.Message{
		RecipientID:      req.RecipientID,
		Subject:          req.Subject,
		Content:          req.Content,
		RelatedProgramID: req.RelatedProgramID,
		RelatedPlaceID:   req.RelatedPlaceID,
		RelatedTripID:    req.RelatedTripID,
		ParentMessageID:  req.ParentMessageID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(sent))
}

// Inbox は受信メッセージ一覧を返す。unread_only=trueで未読のみに絞る。
// GET /messages/inbox
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	messages, err := h.service.Inbox(r.Context(), current.ID, unreadOnly)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

// Sent は送信済みメッセージ一覧を返す。
// GET /messages/sent
func (h *MessageHandler) Sent(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	messages, err := h.service.Sent(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

// UnreadCount は未読メッセージ数を返す。
// GET /messages/unread-count
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	count, err := h.service.UnreadCount(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"unread_count": count})
}

// Get はメッセージ詳細を返す。当事者以外にはNotFoundを返す。
// GET /messages/{id}
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewMessageNotFoundError())
		return
	}

	message, err := h.service.Get(r.Context(), current.ID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(message))
}

// MarkRead はメッセージを既読にする。受信者のみ可能。
// PUT /messages/{id}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewMessageNotFoundError())
		return
	}

	if err := h.service.MarkRead(r.Context(), current.ID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Delete はメッセージを削除する。当事者のみ可能。
// DELETE /messages/{id}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewMessageNotFoundError())
		return
	}

	if err := h.service.Delete(r.Context(), current.ID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Conversation は相手ユーザーとの全メッセージを時系列で返す。
// GET /messages/conversation/{other}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	otherID, ok := parseIDParam(r, "other")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	messages, err := h.service.Conversation(r.Context(), current.ID, otherID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponses(messages))
}
