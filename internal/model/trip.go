// Package model はドメインモデルを定義する。
package model

import "time"

// Trip は留学中の小旅行プランを表す。
type Trip struct {
	ID          int64
	UserID      *int64
	Destination string
	Country     string
	Description *string
	TripType    *string // weekend, spring break, summer 等
	CreatedAt   time.Time
}

// TripWithRating は旅行と評価サマリを結合したモデル。
type TripWithRating struct {
	Trip
	AverageRating *float64
	ReviewCount   int
}

// TripReview は旅行に対する星評価レビューを表す。
type TripReview struct {
	ID         int64
	UserID     int64
	TripID     int64
	Rating     int
	ReviewText string
	Date       time.Time
}

// TripReviewWithReviewer はレビューと投稿者情報を結合したモデル。
type TripReviewWithReviewer struct {
	TripReview
	Reviewer *Reviewer
}
