package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/abroadly/internal/model"
)

// PostgresBookmarkRepo はPostgreSQLを使用したブックマークリポジトリ。
// 各種別のブックマークテーブルは(user_id, item_id)の一意制約を持ち、
// 重複INSERTはErrDuplicateとして報告する。
type PostgresBookmarkRepo struct {
	db *sql.DB
}

// NewPostgresBookmarkRepo はPostgresBookmarkRepoを生成する。
func NewPostgresBookmarkRepo(db *sql.DB) *PostgresBookmarkRepo {
	return &PostgresBookmarkRepo{db: db}
}

// CreateProgramBookmark はプログラムのブックマークを作成する。
func (r *PostgresBookmarkRepo) CreateProgramBookmark(ctx context.Context, userID, programID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO program_bookmarks (user_id, program_id) VALUES ($1, $2)`,
		userID, programID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("プログラムブックマークの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteProgramBookmark はプログラムのブックマークを削除する。存在しない場合はErrNotFound。
func (r *PostgresBookmarkRepo) DeleteProgramBookmark(ctx context.Context, userID, programID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM program_bookmarks WHERE user_id = $1 AND program_id = $2`,
		userID, programID,
	)
	if err != nil {
		return fmt.Errorf("プログラムブックマークの削除に失敗しました: %w", err)
	}
	return requireRowAffected(result)
}

// ListProgramBookmarks はユーザーのプログラムブックマーク一覧を
// プログラム本体と結合して保存日時降順に返す。
func (r *PostgresBookmarkRepo) ListProgramBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, p.program_name, p.institution, p.city, p.country,
			p.cost, p.housing_type, p.location, p.duration, p.description, p.created_at,
			b.created_at
		 FROM program_bookmarks b
		 JOIN programs p ON p.id = b.program_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("プログラムブックマーク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookmarks []model.BookmarkedProgram
	for rows.Next() {
		var b model.BookmarkedProgram
		err := rows.Scan(
			&b.ID, &b.UserID, &b.ProgramName, &b.Institution, &b.City, &b.Country,
			&b.Cost, &b.HousingType, &b.Location, &b.Duration, &b.Description,
			&b.CreatedAt, &b.BookmarkedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// CreatePlaceBookmark はスポットのブックマークを作成する。
func (r *PostgresBookmarkRepo) CreatePlaceBookmark(ctx context.Context, userID, placeID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO place_bookmarks (user_id, place_id) VALUES ($1, $2)`,
		userID, placeID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("スポットブックマークの作成に失敗しました: %w", err)
	}
	return nil
}

// DeletePlaceBookmark はスポットのブックマークを削除する。存在しない場合はErrNotFound。
func (r *PostgresBookmarkRepo) DeletePlaceBookmark(ctx context.Context, userID, placeID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM place_bookmarks WHERE user_id = $1 AND place_id = $2`,
		userID, placeID,
	)
	if err != nil {
		return fmt.Errorf("スポットブックマークの削除に失敗しました: %w", err)
	}
	return requireRowAffected(result)
}

// ListPlaceBookmarks はユーザーのスポットブックマーク一覧を返す。
func (r *PostgresBookmarkRepo) ListPlaceBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, p.name, p.category, p.city, p.country,
			p.latitude, p.longitude, p.address, p.description, p.created_at,
			b.created_at
		 FROM place_bookmarks b
		 JOIN places p ON p.id = b.place_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("スポットブックマーク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookmarks []model.BookmarkedPlace
	for rows.Next() {
		var b model.BookmarkedPlace
		err := rows.Scan(
			&b.ID, &b.UserID, &b.Name, &b.Category, &b.City, &b.Country,
			&b.Latitude, &b.Longitude, &b.Address, &b.Description,
			&b.CreatedAt, &b.BookmarkedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// CreateTripBookmark は旅行のブックマークを作成する。
func (r *PostgresBookmarkRepo) CreateTripBookmark(ctx context.Context, userID, tripID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trip_bookmarks (user_id, trip_id) VALUES ($1, $2)`,
		userID, tripID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("旅行ブックマークの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteTripBookmark は旅行のブックマークを削除する。存在しない場合はErrNotFound。
func (r *PostgresBookmarkRepo) DeleteTripBookmark(ctx context.Context, userID, tripID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM trip_bookmarks WHERE user_id = $1 AND trip_id = $2`,
		userID, tripID,
	)
	if err != nil {
		return fmt.Errorf("旅行ブックマークの削除に失敗しました: %w", err)
	}
	return requireRowAffected(result)
}

// ListTripBookmarks はユーザーの旅行ブックマーク一覧を返す。
func (r *PostgresBookmarkRepo) ListTripBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.destination, t.country, t.description,
			t.trip_type, t.created_at,
			b.created_at
		 FROM trip_bookmarks b
		 JOIN trips t ON t.id = b.trip_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("旅行ブックマーク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookmarks []model.BookmarkedTrip
	for rows.Next() {
		var b model.BookmarkedTrip
		err := rows.Scan(
			&b.ID, &b.UserID, &b.Destination, &b.Country, &b.Description,
			&b.TripType, &b.CreatedAt, &b.BookmarkedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// compile-time interface check
var _ BookmarkRepository = (*PostgresBookmarkRepo)(nil)
