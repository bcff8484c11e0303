// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/abroadly/internal/model"
)

var (
	// ErrNotFound は対象レコードが存在しないことを表す。
	// Find系はnilを返すが、更新・削除系はこのエラーで存在しないことを通知する。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("record already exists")
	// ErrForbidden は対象レコードが別ユーザーの所有であることを表す。
	ErrForbidden = errors.New("record owned by another user")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByIDAndEmail はIDとメールアドレスの両方が一致するユーザーを取得する。
	// セッション検証で使用する。見つからない場合はnilを返す。
	FindByIDAndEmail(ctx context.Context, id int64, email string) (*model.User, error)

	// FindOrCreateByEmail はメールアドレスでユーザーを取得し、存在しなければ作成する。
	// 同時実行でINSERTが一意制約違反になった場合は既存行を読み直して返す。
	FindOrCreateByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile はプロフィールを部分更新し、更新後のユーザーを返す。
	// updateのnilフィールドは変更しない。対象が存在しない場合はErrNotFound。
	UpdateProfile(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error)
}

// ProgramFilter はプログラム一覧の検索条件。
// 空文字列のフィールドは条件として使用しない。
type ProgramFilter struct {
	City    string
	Country string
	Search  string
	Limit   int
	Offset  int
}

// ProgramRepository はプログラムとそのレビューの永続化インターフェース。
type ProgramRepository interface {
	// Create はプログラムを作成し、IDと作成日時を設定する。
	Create(ctx context.Context, program *model.Program) error

	// FindByID は指定IDのプログラムを評価サマリ付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.ProgramWithRating, error)

	// List は検索条件に合致するプログラム一覧を評価サマリ付きで返す。
	List(ctx context.Context, filter ProgramFilter) ([]model.ProgramWithRating, error)

	// ListByUser は指定ユーザーが投稿したプログラム一覧を返す。
	ListByUser(ctx context.Context, userID int64) ([]model.ProgramWithRating, error)

	// Update はプログラム情報を更新する。対象が存在しない場合はErrNotFound。
	Update(ctx context.Context, program *model.Program) error

	// Delete は指定IDのプログラムを削除する。対象が存在しない場合はErrNotFound。
	Delete(ctx context.Context, id int64) error

	// CreateProgramReview はプログラムレビューを作成し、IDと日時を設定する。
	CreateProgramReview(ctx context.Context, review *model.ProgramReview) error

	// ListProgramReviews はプログラムのレビュー一覧を投稿者情報付きで日時降順に返す。
	ListProgramReviews(ctx context.Context, programID int64) ([]model.ProgramReviewWithReviewer, error)

	// ListProgramReviewsByUser は指定ユーザーが投稿したプログラムレビュー一覧を返す。
	ListProgramReviewsByUser(ctx context.Context, userID int64) ([]model.ProgramReview, error)

	// DeleteProgramReview は本人投稿のプログラムレビューを削除する。
	// 対象が存在しない場合はErrNotFound、投稿者が異なる場合はErrForbidden。
	DeleteProgramReview(ctx context.Context, id, userID int64) error

	// CreateCourseReview は授業レビューを作成し、IDと日時を設定する。
	CreateCourseReview(ctx context.Context, review *model.CourseReview) error

	// ListCourseReviews はプログラムの授業レビュー一覧を投稿者情報付きで返す。
	ListCourseReviews(ctx context.Context, programID int64) ([]model.CourseReviewWithReviewer, error)

	// ListCourseReviewsByUser は指定ユーザーが投稿した授業レビュー一覧を返す。
	ListCourseReviewsByUser(ctx context.Context, userID int64) ([]model.CourseReview, error)

	// DeleteCourseReview は本人投稿の授業レビューを削除する。
	// 対象が存在しない場合はErrNotFound、投稿者が異なる場合はErrForbidden。
	DeleteCourseReview(ctx context.Context, id, userID int64) error

	// CreateHousingReview は住居レビューを作成し、IDと日時を設定する。
	CreateHousingReview(ctx context.Context, review *model.HousingReview) error

	// ListHousingReviews はプログラムの住居レビュー一覧を投稿者情報付きで返す。
	ListHousingReviews(ctx context.Context, programID int64) ([]model.HousingReviewWithReviewer, error)

	// ListHousingReviewsByUser は指定ユーザーが投稿した住居レビュー一覧を返す。
	ListHousingReviewsByUser(ctx context.Context, userID int64) ([]model.HousingReview, error)

	// DeleteHousingReview は本人投稿の住居レビューを削除する。
	// 対象が存在しない場合はErrNotFound、投稿者が異なる場合はErrForbidden。
	DeleteHousingReview(ctx context.Context, id, userID int64) error
}

// PlaceFilter はスポット一覧の検索条件。
type PlaceFilter struct {
	Category string
	City     string
	Country  string
	Search   string
	Limit    int
	Offset   int
}

// PlaceRepository はスポットとそのレビューの永続化インターフェース。
type PlaceRepository interface {
	// Create はスポットを作成し、IDと作成日時を設定する。
	Create(ctx context.Context, place *model.Place) error

	// FindByID は指定IDのスポットを評価サマリ付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.PlaceWithRating, error)

	// List は検索条件に合致するスポット一覧を評価サマリ付きで返す。
	List(ctx context.Context, filter PlaceFilter) ([]model.PlaceWithRating, error)

	// ListByUser は指定ユーザーが投稿したスポット一覧を返す。
	ListByUser(ctx context.Context, userID int64) ([]model.PlaceWithRating, error)

	// Update はスポット情報を更新する。対象が存在しない場合はErrNotFound。
	Update(ctx context.Context, place *model.Place) error

	// Delete は指定IDのスポットを削除する。対象が存在しない場合はErrNotFound。
	Delete(ctx context.Context, id int64) error

	// CreateReview はスポットレビューを作成し、IDと日時を設定する。
	CreateReview(ctx context.Context, review *model.PlaceReview) error

	// ListReviews はスポットのレビュー一覧を投稿者情報付きで日時降順に返す。
	ListReviews(ctx context.Context, placeID int64) ([]model.PlaceReviewWithReviewer, error)

	// ListReviewsByUser は指定ユーザーが投稿したスポットレビュー一覧を返す。
	ListReviewsByUser(ctx context.Context, userID int64) ([]model.PlaceReview, error)

	// DeleteReview は本人投稿のスポットレビューを削除する。
	// 対象が存在しない場合はErrNotFound、投稿者が異なる場合はErrForbidden。
	DeleteReview(ctx context.Context, id, userID int64) error
}

// TripFilter は旅行一覧の検索条件。
type TripFilter struct {
	Country  string
	TripType string
	Search   string
	Limit    int
	Offset   int
}

// TripRepository は旅行とそのレビューの永続化インターフェース。
type TripRepository interface {
	// Create は旅行を作成し、IDと作成日時を設定する。
	Create(ctx context.Context, trip *model.Trip) error

	// FindByID は指定IDの旅行を評価サマリ付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.TripWithRating, error)

	// List は検索条件に合致する旅行一覧を評価サマリ付きで返す。
	List(ctx context.Context, filter TripFilter) ([]model.TripWithRating, error)

	// ListByUser は指定ユーザーが投稿した旅行一覧を返す。
	ListByUser(ctx context.Context, userID int64) ([]model.TripWithRating, error)

	// Update は旅行情報を更新する。対象が存在しない場合はErrNotFound。
	Update(ctx context.Context, trip *model.Trip) error

	// Delete は指定IDの旅行を削除する。対象が存在しない場合はErrNotFound。
	Delete(ctx context.Context, id int64) error

	// CreateReview は旅行レビューを作成し、IDと日時を設定する。
	CreateReview(ctx context.Context, review *model.TripReview) error

	// ListReviews は旅行のレビュー一覧を投稿者情報付きで日時降順に返す。
	ListReviews(ctx context.Context, tripID int64) ([]model.TripReviewWithReviewer, error)

	// ListReviewsByUser は指定ユーザーが投稿した旅行レビュー一覧を返す。
	ListReviewsByUser(ctx context.Context, userID int64) ([]model.TripReview, error)

	// DeleteReview は本人投稿の旅行レビューを削除する。
	// 対象が存在しない場合はErrNotFound、投稿者が異なる場合はErrForbidden。
	DeleteReview(ctx context.Context, id, userID int64) error
}

// BookmarkRepository はブックマークの永続化インターフェース。
// 同一アイテムの重複ブックマークはErrDuplicateを返す。
type BookmarkRepository interface {
	// CreateProgramBookmark はプログラムのブックマークを作成する。
	CreateProgramBookmark(ctx context.Context, userID, programID int64) error

	// DeleteProgramBookmark はプログラムのブックマークを削除する。
	// 存在しない場合はErrNotFound。
	DeleteProgramBookmark(ctx context.Context, userID, programID int64) error

	// ListProgramBookmarks はユーザーのプログラムブックマーク一覧を
	// プログラム本体と結合して保存日時降順に返す。
	ListProgramBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error)

	// CreatePlaceBookmark はスポットのブックマークを作成する。
	CreatePlaceBookmark(ctx context.Context, userID, placeID int64) error

	// DeletePlaceBookmark はスポットのブックマークを削除する。
	DeletePlaceBookmark(ctx context.Context, userID, placeID int64) error

	// ListPlaceBookmarks はユーザーのスポットブックマーク一覧を返す。
	ListPlaceBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error)

	// CreateTripBookmark は旅行のブックマークを作成する。
	CreateTripBookmark(ctx context.Context, userID, tripID int64) error

	// DeleteTripBookmark は旅行のブックマークを削除する。
	DeleteTripBookmark(ctx context.Context, userID, tripID int64) error

	// ListTripBookmarks はユーザーの旅行ブックマーク一覧を返す。
	ListTripBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error)
}

// MessageRepository はダイレクトメッセージの永続化インターフェース。
type MessageRepository interface {
	// Create はメッセージを作成し、IDと作成日時を設定する。
	Create(ctx context.Context, message *model.Message) error

	// FindByID は指定IDのメッセージを表示名付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.MessageDetail, error)

	// ListInbox は受信メッセージ一覧を作成日時降順に返す。
	// unreadOnlyがtrueの場合は未読のみ返す。
	ListInbox(ctx context.Context, userID int64, unreadOnly bool) ([]model.MessageDetail, error)

	// ListSent は送信メッセージ一覧を作成日時降順に返す。
	ListSent(ctx context.Context, userID int64) ([]model.MessageDetail, error)

	// ListConversation は2ユーザー間の全メッセージを作成日時昇順に返す。
	ListConversation(ctx context.Context, userID, otherID int64) ([]model.MessageDetail, error)

	// CountUnread は未読受信メッセージ数を返す。
	CountUnread(ctx context.Context, userID int64) (int, error)

	// MarkRead は指定メッセージを既読にする。
	MarkRead(ctx context.Context, id int64) error

	// MarkConversationRead は指定ユーザーが相手から受信した未読メッセージを全て既読にする。
	MarkConversationRead(ctx context.Context, userID, otherID int64) error

	// Delete は指定IDのメッセージを削除する。対象が存在しない場合はErrNotFound。
	Delete(ctx context.Context, id int64) error
}
