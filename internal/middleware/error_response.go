package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/abroadly/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// statusForCode はエラーコードからHTTPステータスコードを決定する。
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidToken,
		model.ErrCodeDomainNotAllowed,
		model.ErrCodeAlreadyBookmarked,
		model.ErrCodeSelfMessage,
		model.ErrCodeInvalidRating,
		model.ErrCodeInvalidReviewType,
		model.ErrCodeNoBookmarks:
		return http.StatusBadRequest
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound,
		model.ErrCodeProgramNotFound,
		model.ErrCodePlaceNotFound,
		model.ErrCodeTripNotFound,
		model.ErrCodeReviewNotFound,
		model.ErrCodeMessageNotFound,
		model.ErrCodeBookmarkNotFound:
		return http.StatusNotFound
	case model.ErrCodeAINotConfigured:
		return http.StatusServiceUnavailable
	case model.ErrCodeDeliveryFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIErrorはコードに応じたステータスで返し、
// それ以外のエラーは詳細を伏せて500を返す。
func WriteServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteErrorResponse(w, statusForCode(apiErr.Code), apiErr)
		return
	}
	logger.Error("リクエスト処理に失敗しました",
		slog.String("error", err.Error()),
	)
	WriteInternalServerError(w)
}
