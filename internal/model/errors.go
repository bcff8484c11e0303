// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDomainNotAllowed  = "DOMAIN_NOT_ALLOWED"
	ErrCodeInvalidToken      = "INVALID_TOKEN"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeDeliveryFailure   = "DELIVERY_FAILURE"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeProgramNotFound   = "PROGRAM_NOT_FOUND"
	ErrCodePlaceNotFound     = "PLACE_NOT_FOUND"
	ErrCodeTripNotFound      = "TRIP_NOT_FOUND"
	ErrCodeReviewNotFound    = "REVIEW_NOT_FOUND"
	ErrCodeMessageNotFound   = "MESSAGE_NOT_FOUND"
	ErrCodeBookmarkNotFound  = "BOOKMARK_NOT_FOUND"
	ErrCodeAlreadyBookmarked = "ALREADY_BOOKMARKED"
	ErrCodeSelfMessage       = "SELF_MESSAGE"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInvalidRating     = "INVALID_RATING"
	ErrCodeInvalidReviewType = "INVALID_REVIEW_TYPE"
	ErrCodeAINotConfigured   = "AI_NOT_CONFIGURED"
	ErrCodeNoBookmarks       = "NO_BOOKMARKS"
)

// NewDomainNotAllowedError は許可外メールドメインのエラーを生成する。
// メッセージには利用可能なドメインの一覧を含める。
func NewDomainNotAllowedError(allowedDomains []string) *APIError {
	return &APIError{
		Code:     ErrCodeDomainNotAllowed,
		Message:  fmt.Sprintf("このメールドメインは利用できません。利用可能なドメイン: %s", strings.Join(allowedDomains, ", ")),
		Category: "validation",
		Action:   "許可されたドメインのメールアドレスを使用してください。",
	}
}

// NewInvalidTokenError はマジックリンクトークンの検証失敗エラーを生成する。
// 署名不正と期限切れを区別せず、常に同一メッセージを返す。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "リンクが無効または期限切れです。",
		Category: "auth",
		Action:   "再度ログインリンクをリクエストしてください。",
	}
}

// NewUnauthenticatedError は認証失敗エラーを生成する。
// 資格情報の欠落・不正・期限切れ・ユーザー不在を区別せず、常に同一メッセージを返す。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewDeliveryFailureError はメール送信失敗エラーを生成する。
func NewDeliveryFailureError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeDeliveryFailure,
		Message:  fmt.Sprintf("メールの送信に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "content",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewProgramNotFoundError はプログラムが見つからない場合のエラーを生成する。
func NewProgramNotFoundError(programID int64) *APIError {
	return &APIError{
		Code:     ErrCodeProgramNotFound,
		Message:  fmt.Sprintf("指定されたプログラムが見つかりません: %d", programID),
		Category: "content",
		Action:   "プログラムIDを確認してください。",
	}
}

// NewPlaceNotFoundError はスポットが見つからない場合のエラーを生成する。
func NewPlaceNotFoundError(placeID int64) *APIError {
	return &APIError{
		Code:     ErrCodePlaceNotFound,
		Message:  fmt.Sprintf("指定されたスポットが見つかりません: %d", placeID),
		Category: "content",
		Action:   "スポットIDを確認してください。",
	}
}

// NewTripNotFoundError は旅行が見つからない場合のエラーを生成する。
func NewTripNotFoundError(tripID int64) *APIError {
	return &APIError{
		Code:     ErrCodeTripNotFound,
		Message:  fmt.Sprintf("指定された旅行が見つかりません: %d", tripID),
		Category: "content",
		Action:   "旅行IDを確認してください。",
	}
}

// NewReviewNotFoundError はレビューが見つからない場合のエラーを生成する。
func NewReviewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeReviewNotFound,
		Message:  "指定されたレビューが見つかりません。",
		Category: "content",
		Action:   "レビューIDを確認してください。",
	}
}

// NewMessageNotFoundError はメッセージが見つからない場合のエラーを生成する。
func NewMessageNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeMessageNotFound,
		Message:  "指定されたメッセージが見つかりません。",
		Category: "content",
		Action:   "メッセージIDを確認してください。",
	}
}

// NewBookmarkNotFoundError はブックマークが見つからない場合のエラーを生成する。
func NewBookmarkNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBookmarkNotFound,
		Message:  "ブックマークが見つかりません。",
		Category: "content",
		Action:   "ブックマーク済みのアイテムか確認してください。",
	}
}

// NewAlreadyBookmarkedError は重複ブックマークのエラーを生成する。
func NewAlreadyBookmarkedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyBookmarked,
		Message:  "このアイテムは既にブックマーク済みです。",
		Category: "validation",
		Action:   "ブックマーク一覧から該当アイテムを確認してください。",
	}
}

// NewSelfMessageError は自分自身へのメッセージ送信エラーを生成する。
func NewSelfMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfMessage,
		Message:  "自分自身にメッセージを送ることはできません。",
		Category: "validation",
		Action:   "別のユーザーを宛先に指定してください。",
	}
}

// NewForbiddenError は権限のない操作のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が作成したコンテンツにのみ操作できます。",
	}
}

// NewInvalidRatingError は評価値のバリデーションエラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   "評価は1から5の整数で指定してください。",
	}
}

// NewInvalidReviewTypeError はレビュー種別のバリデーションエラーを生成する。
func NewInvalidReviewTypeError(reviewType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidReviewType,
		Message:  fmt.Sprintf("無効なレビュー種別です: %s", reviewType),
		Category: "validation",
		Action:   "レビュー種別には program、course、housing、place、trip のいずれかを指定してください。",
	}
}

// NewAINotConfiguredError はAIサービス未設定のエラーを生成する。
func NewAINotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeAINotConfigured,
		Message:  "AIサービスが設定されていません。",
		Category: "system",
		Action:   "管理者にOPENAI_API_KEYの設定を依頼してください。",
	}
}

// NewNoBookmarksError はブックマーク未登録のエラーを生成する。
func NewNoBookmarksError() *APIError {
	return &APIError{
		Code:     ErrCodeNoBookmarks,
		Message:  "ブックマークが登録されていません。",
		Category: "validation",
		Action:   "先にプログラム・スポット・旅行をブックマークしてください。",
	}
}
