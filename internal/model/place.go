// Package model はドメインモデルを定義する。
package model

import "time"

// Place は留学先で訪れるスポット（レストラン、美術館、住居等）を表す。
type Place struct {
	ID          int64
	UserID      *int64
	Name        string
	Category    string // restaurant, activity, museum, housing, nightlife 等
	City        string
	Country     string
	Latitude    *float64
	Longitude   *float64
	Address     *string
	Description *string
	CreatedAt   time.Time
}

// PlaceWithRating はスポットと評価サマリを結合したモデル。
type PlaceWithRating struct {
	Place
	AverageRating *float64
	ReviewCount   int
}

// PlaceReview はスポットに対する星評価レビューを表す。
type PlaceReview struct {
	ID         int64
	UserID     int64
	PlaceID    int64
	Rating     int
	ReviewText string
	Date       time.Time
}

// PlaceReviewWithReviewer はレビューと投稿者情報を結合したモデル。
type PlaceReviewWithReviewer struct {
	PlaceReview
	Reviewer *Reviewer
}
