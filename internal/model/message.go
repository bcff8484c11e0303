// Package model はドメインモデルを定義する。
package model

import "time"

// Message はユーザー間のダイレクトメッセージを表す。
// related_*_id でプログラム・スポット・旅行に文脈を紐付けられる。
// parent_message_id によりスレッド形式の返信が可能。
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Subject     string
	Content     string
	Read        bool
	CreatedAt   time.Time

	RelatedProgramID *int64
	RelatedPlaceID   *int64
	RelatedTripID    *int64
	ParentMessageID  *int64
}

// MessageDetail はメッセージと送受信者・関連アイテムの表示名を結合したモデル。
// 一覧・詳細のAPIレスポンス生成に使用する。
type MessageDetail struct {
	Message
	SenderName         *string
	SenderEmail        string
	RecipientName      *string
	RecipientEmail     string
	RelatedProgramName *string
	RelatedPlaceName   *string
	RelatedTripName    *string
}
