package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/abroadly/internal/model"
)

func TestWriteErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadRequest, model.NewDomainNotAllowedError([]string{"vanderbilt.edu"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのJSONパースに失敗: %v", err)
	}
	if body.Code != model.ErrCodeDomainNotAllowed {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeDomainNotAllowed)
	}
	if body.Category != "validation" {
		t.Errorf("category = %q, want %q", body.Category, "validation")
	}
}

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "未認証は401",
			err:        model.NewUnauthenticatedError(),
			wantStatus: http.StatusUnauthorized,
			wantCode:   model.ErrCodeUnauthenticated,
		},
		{
			name:       "不正トークンは400",
			err:        model.NewInvalidTokenError(),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeInvalidToken,
		},
		{
			name:       "NotFound系は404",
			err:        model.NewProgramNotFoundError(42),
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeProgramNotFound,
		},
		{
			name:       "重複ブックマークは400",
			err:        model.NewAlreadyBookmarkedError(),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeAlreadyBookmarked,
		},
		{
			name:       "他人のメッセージ操作は403",
			err:        model.NewForbiddenError(),
			wantStatus: http.StatusForbidden,
			wantCode:   model.ErrCodeForbidden,
		},
		{
			name:       "AI未設定は503",
			err:        model.NewAINotConfiguredError(),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   model.ErrCodeAINotConfigured,
		},
		{
			name:       "ブックマーク未登録は400",
			err:        model.NewNoBookmarksError(),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeNoBookmarks,
		},
		{
			name:       "メール送信失敗は500",
			err:        model.NewDeliveryFailureError("smtp down"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   model.ErrCodeDeliveryFailure,
		},
		{
			name:       "想定外のエラーは詳細を伏せて500",
			err:        fmt.Errorf("sql: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteServiceError(w, logger, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body ErrorResponseBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("レスポンスのJSONパースに失敗: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if tt.wantCode == "INTERNAL_ERROR" && body.Message == tt.err.Error() {
				t.Error("内部エラーの詳細がレスポンスに漏れている")
			}
		})
	}
}
