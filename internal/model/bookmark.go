// Package model はドメインモデルを定義する。
package model

import "time"

// BookmarkKind はブックマーク対象の種別を表す。
type BookmarkKind string

const (
	// BookmarkProgram はプログラムのブックマーク。
	BookmarkProgram BookmarkKind = "program"
	// BookmarkPlace はスポットのブックマーク。
	BookmarkPlace BookmarkKind = "place"
	// BookmarkTrip は旅行のブックマーク。
	BookmarkTrip BookmarkKind = "trip"
)

// Bookmark はユーザーによるアイテムの保存を表す。
// (user_id, item_id) の組はアイテム種別ごとに一意。
type Bookmark struct {
	ID        int64
	UserID    int64
	ItemID    int64
	CreatedAt time.Time
}

// BookmarkedProgram はブックマークとプログラム本体を結合したモデル。
type BookmarkedProgram struct {
	Program
	BookmarkedAt time.Time
}

// BookmarkedPlace はブックマークとスポット本体を結合したモデル。
type BookmarkedPlace struct {
	Place
	BookmarkedAt time.Time
}

// BookmarkedTrip はブックマークと旅行本体を結合したモデル。
type BookmarkedTrip struct {
	Trip
	BookmarkedAt time.Time
}
