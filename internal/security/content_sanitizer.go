// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はレビュー本文やメッセージなどユーザー投稿テキストを
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの厳格ポリシーで全てのHTMLタグを除去し、
// プレーンテキストのみを保存する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー投稿テキストのサニタイズ機能のインターフェースを定義する。
// レビュー・メッセージ・説明文の保存前に使用される。
type ContentSanitizerService interface {
	// SanitizeText は入力から全てのHTMLタグを除去したプレーンテキストを返す。
	// scriptタグの中身やon*イベント属性を含む全てのマークアップが除去される。
	// HTMLエンティティはデコードされ、前後の空白は取り除かれる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayの厳格ポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 許可タグを一切持たない厳格ポリシーを使用する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText は入力から全てのHTMLタグを除去したプレーンテキストを返す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicyはタグ除去後にエンティティエンコードするため、
	// プレーンテキストとして保存できるようデコードし直す
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
