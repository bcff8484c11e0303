package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/abroadly/internal/model"
)

// tripWithRatingColumns は旅行と評価サマリの取得に使用するカラム列。
const tripWithRatingColumns = `t.id, t.user_id, t.destination, t.country,
	t.description, t.trip_type, t.created_at,
	ROUND(AVG(r.rating)::numeric, 1)::float8, COUNT(r.id)`

// PostgresTripRepo はPostgreSQLを使用した旅行リポジトリ。
type PostgresTripRepo struct {
	db *sql.DB
}

// NewPostgresTripRepo はPostgresTripRepoを生成する。
func NewPostgresTripRepo(db *sql.DB) *PostgresTripRepo {
	return &PostgresTripRepo{db: db}
}

func scanTripWithRating(row rowScanner) (*model.TripWithRating, error) {
	t := &model.TripWithRating{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.Destination, &t.Country,
		&t.Description, &t.TripType, &t.CreatedAt,
		&t.AverageRating, &t.ReviewCount,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create は旅行を作成し、IDと作成日時を設定する。
func (r *PostgresTripRepo) Create(ctx context.Context, trip *model.Trip) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO trips (user_id, destination, country, description, trip_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		trip.UserID, trip.Destination, trip.Country, trip.Description, trip.TripType,
	).Scan(&trip.ID, &trip.CreatedAt)
	if err != nil {
		return fmt.Errorf("旅行の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの旅行を評価サマリ付きで取得する。見つからない場合はnilを返す。
func (r *PostgresTripRepo) FindByID(ctx context.Context, id int64) (*model.TripWithRating, error) {
	trip, err := scanTripWithRating(r.db.QueryRowContext(ctx,
		`SELECT `+tripWithRatingColumns+`
		 FROM trips t
		 LEFT JOIN trip_reviews r ON r.trip_id = t.id
		 WHERE t.id = $1
		 GROUP BY t.id`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find trip by ID: %w", err)
	}
	return trip, nil
}

// List は検索条件に合致する旅行一覧を評価サマリ付きで返す。
// 検索語は目的地・説明文に対する部分一致。
func (r *PostgresTripRepo) List(ctx context.Context, filter TripFilter) ([]model.TripWithRating, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripWithRatingColumns+`
		 FROM trips t
		 LEFT JOIN trip_reviews r ON r.trip_id = t.id
		 WHERE ($1 = '' OR t.country ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR t.trip_type = $2)
		   AND ($3 = '' OR t.destination ILIKE '%' || $3 || '%'
		        OR t.description ILIKE '%' || $3 || '%')
		 GROUP BY t.id
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT $4 OFFSET $5`,
		filter.Country, filter.TripType, filter.Search, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("旅行一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var trips []model.TripWithRating
	for rows.Next() {
		t, err := scanTripWithRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// ListByUser は指定ユーザーが投稿した旅行一覧を返す。
func (r *PostgresTripRepo) ListByUser(ctx context.Context, userID int64) ([]model.TripWithRating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripWithRatingColumns+`
		 FROM trips t
		 LEFT JOIN trip_reviews r ON r.trip_id = t.id
		 WHERE t.user_id = $1
		 GROUP BY t.id
		 ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの旅行一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var trips []model.TripWithRating
	for rows.Next() {
		t, err := scanTripWithRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// Update は旅行情報を更新する。対象が存在しない場合はErrNotFound。
func (r *PostgresTripRepo) Update(ctx context.Context, trip *model.Trip) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE trips SET destination = $2, country = $3, description = $4, trip_type = $5
		 WHERE id = $1`,
		trip.ID, trip.Destination, trip.Country, trip.Description, trip.TripType,
	)
	if err != nil {
		return fmt.Errorf("旅行の更新に失敗しました: %w", err)
	}
	return requireRowAffected(result)
}

// Delete は指定IDの旅行を削除する。
// レビューとブックマークも同一トランザクションで削除する。
func (r *PostgresTripRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM trip_reviews WHERE trip_id = $1`,
		`DELETE FROM trip_bookmarks WHERE trip_id = $1`,
		`UPDATE messages SET related_trip_id = NULL WHERE related_trip_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("旅行関連データの削除に失敗しました: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("旅行の削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateReview は旅行レビューを作成し、IDと日時を設定する。
func (r *PostgresTripRepo) CreateReview(ctx context.Context, review *model.TripReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO trip_reviews (user_id, trip_id, rating, review_text)
		 VALUES ($1, $2, $3, $4) RETURNING id, date`,
		review.UserID, review.TripID, review.Rating, review.ReviewText,
	).Scan(&review.ID, &review.Date)
	if err != nil {
		return fmt.Errorf("旅行レビューの作成に失敗しました: %w", err)
	}
	return nil
}

// ListReviews は旅行のレビュー一覧を投稿者情報付きで日時降順に返す。
func (r *PostgresTripRepo) ListReviews(ctx context.Context, tripID int64) ([]model.TripReviewWithReviewer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.trip_id, r.rating, r.review_text, r.date,
			`+reviewerColumns+`
		 FROM trip_reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.trip_id = $1
		 ORDER BY r.date DESC`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("旅行レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []model.TripReviewWithReviewer
	for rows.Next() {
		rv := model.TripReviewWithReviewer{Reviewer: &model.Reviewer{}}
		dest := []any{&rv.ID, &rv.UserID, &rv.TripID, &rv.Rating, &rv.ReviewText, &rv.Date}
		dest = append(dest, reviewerFields(rv.Reviewer)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan trip review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// ListReviewsByUser は指定ユーザーが投稿した旅行レビュー一覧を返す。
func (r *PostgresTripRepo) ListReviewsByUser(ctx context.Context, userID int64) ([]model.TripReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, trip_id, rating, review_text, date
		 FROM trip_reviews WHERE user_id = $1 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip reviews by user: %w", err)
	}
	defer rows.Close()

	var reviews []model.TripReview
	for rows.Next() {
		var rv model.TripReview
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.TripID, &rv.Rating, &rv.ReviewText, &rv.Date); err != nil {
			return nil, fmt.Errorf("failed to scan trip review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// DeleteReview は本人投稿の旅行レビューを削除する。
func (r *PostgresTripRepo) DeleteReview(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM trip_reviews WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("旅行レビューの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return classifyMissingReview(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM trip_reviews WHERE id = $1)`, id)
	}
	return nil
}

// compile-time interface check
var _ TripRepository = (*PostgresTripRepo)(nil)
