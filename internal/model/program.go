// Package model はドメインモデルを定義する。
package model

import "time"

// Program は留学プログラムを表す。
type Program struct {
	ID          int64
	UserID      *int64 // 投稿者。NULLの場合はシードデータ等
	ProgramName string
	Institution string
	City        string
	Country     string
	Cost        *float64
	HousingType *string
	Location    *string
	Duration    *string
	Description *string
	CreatedAt   time.Time
}

// ProgramWithRating はプログラムと評価サマリを結合したモデル。
// program_reviewテーブルとLEFT JOINして取得される。
type ProgramWithRating struct {
	Program
	AverageRating *float64
	ReviewCount   int
}

// ProgramReview はプログラムに対する星評価レビューを表す。
type ProgramReview struct {
	ID         int64
	UserID     int64
	ProgramID  int64
	Rating     int // 1-5
	ReviewText string
	Date       time.Time
}

// CourseReview はプログラム内の授業に対するレビューを表す。
type CourseReview struct {
	ID             int64
	UserID         int64
	ProgramID      int64
	CourseName     string
	InstructorName *string
	Rating         int
	ReviewText     string
	Date           time.Time
}

// HousingReview はプログラムの住居に対するレビューを表す。
type HousingReview struct {
	ID                 int64
	UserID             int64
	ProgramID          int64
	HousingDescription string
	Rating             int
	ReviewText         string
	Date               time.Time
}

// Reviewer はレビュー一覧に添付するレビュー投稿者の公開情報。
type Reviewer struct {
	ID                int64
	FirstName         *string
	LastName          *string
	Institution       *string
	StudyAbroadStatus *string
	ProgramName       *string
	ProgramCity       *string
	ProgramCountry    *string
	ProgramTerm       *string
}

// ProgramReviewWithReviewer はレビューと投稿者情報を結合したモデル。
type ProgramReviewWithReviewer struct {
	ProgramReview
	Reviewer *Reviewer
}

// CourseReviewWithReviewer は授業レビューと投稿者情報を結合したモデル。
type CourseReviewWithReviewer struct {
	CourseReview
	Reviewer *Reviewer
}

// HousingReviewWithReviewer は住居レビューと投稿者情報を結合したモデル。
type HousingReviewWithReviewer struct {
	HousingReview
	Reviewer *Reviewer
}
