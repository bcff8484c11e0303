package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/abroadly/internal/model"
)

// placeWithRatingColumns はスポットと評価サマリの取得に使用するカラム列。
const placeWithRatingColumns = `p.id, p.user_id, p.name, p.category, p.city, p.country,
	p.latitude, p.longitude, p.address, p.description, p.created_at,
	ROUND(AVG(r.rating)::numeric, 1)::float8, COUNT(r.id)`

// PostgresPlaceRepo はPostgreSQLを使用したスポットリポジトリ。
type PostgresPlaceRepo struct {
	db *sql.DB
}

// NewPostgresPlaceRepo はPostgresPlaceRepoを生成する。
func NewPostgresPlaceRepo(db *sql.DB) *PostgresPlaceRepo {
	return &PostgresPlaceRepo{db: db}
}

func scanPlaceWithRating(row rowScanner) (*model.PlaceWithRating, error) {
	p := &model.PlaceWithRating{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Category, &p.City, &p.Country,
		&p.Latitude, &p.Longitude, &p.Address, &p.Description, &p.CreatedAt,
		&p.AverageRating, &p.ReviewCount,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create はスポットを作成し、IDと作成日時を設定する。
func (r *PostgresPlaceRepo) Create(ctx context.Context, place *model.Place) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO places (user_id, name, category, city, country,
			latitude, longitude, address, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		place.UserID, place.Name, place.Category, place.City, place.Country,
		place.Latitude, place.Longitude, place.Address, place.Description,
	).Scan(&place.ID, &place.CreatedAt)
	if err != nil {
		return fmt.Errorf("スポットの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのスポットを評価サマリ付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPlaceRepo) FindByID(ctx context.Context, id int64) (*model.PlaceWithRating, error) {
	place, err := scanPlaceWithRating(r.db.QueryRowContext(ctx,
		`SELECT `+placeWithRatingColumns+`
		 FROM places p
		 LEFT JOIN place_reviews r ON r.place_id = p.id
		 WHERE p.id = $1
		 GROUP BY p.id`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find place by ID: %w", err)
	}
	return place, nil
}

// List は検索条件に合致するスポット一覧を評価サマリ付きで返す。
// 検索語は名前・説明文に対する部分一致。
func (r *PostgresPlaceRepo) List(ctx context.Context, filter PlaceFilter) ([]model.PlaceWithRating, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+placeWithRatingColumns+`
		 FROM places p
		 LEFT JOIN place_reviews r ON r.place_id = p.id
		 WHERE ($1 = '' OR p.category = $1)
		   AND ($2 = '' OR p.city ILIKE '%' || $2 || '%')
		   AND ($3 = '' OR p.country ILIKE '%' || $3 || '%')
		   AND ($4 = '' OR p.name ILIKE '%' || $4 || '%'
		        OR p.description ILIKE '%' || $4 || '%')
		 GROUP BY p.id
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $5 OFFSET $6`,
		filter.Category, filter.City, filter.Country, filter.Search, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("スポット一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var places []model.PlaceWithRating
	for rows.Next() {
		p, err := scanPlaceWithRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, *p)
	}
	return places, rows.Err()
}

// ListByUser は指定ユーザーが投稿したスポット一覧を返す。
func (r *PostgresPlaceRepo) ListByUser(ctx context.Context, userID int64) ([]model.PlaceWithRating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+placeWithRatingColumns+`
		 FROM places p
		 LEFT JOIN place_reviews r ON r.place_id = p.id
		 WHERE p.user_id = $1
		 GROUP BY p.id
		 ORDER BY p.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのスポット一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var places []model.PlaceWithRating
	for rows.Next() {
		p, err := scanPlaceWithRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, *p)
	}
	return places, rows.Err()
}

// Update はスポット情報を更新する。対象が存在しない場合はErrNotFound。
func (r *PostgresPlaceRepo) Update(ctx context.Context, place *model.Place) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE places SET name = $2, category = $3, city = $4, country = $5,
			latitude = $6, longitude = $7, address = $8, description = $9
		 WHERE id = $1`,
		place.ID, place.Name, place.Category, place.City, place.Country,
		place.Latitude, place.Longitude, place.Address, place.Description,
	)
	if err != nil {
		return fmt.Errorf("スポットの更新に失敗しました: %w", err)
	}
	return requireRowAffected(result)
}

// Delete は指定IDのスポットを削除する。
// レビューとブックマークも同一トランザクションで削除する。
func (r *PostgresPlaceRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM place_reviews WHERE place_id = $1`,
		`DELETE FROM place_bookmarks WHERE place_id = $1`,
		`UPDATE messages SET related_place_id = NULL WHERE related_place_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("スポット関連データの削除に失敗しました: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("スポットの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateReview はスポットレビューを作成し、IDと日時を設定する。
func (r *PostgresPlaceRepo) CreateReview(ctx context.Context, review *model.PlaceReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO place_reviews (user_id, place_id, rating, review_text)
		 VALUES ($1, $2, $3, $4) RETURNING id, date`,
		review.UserID, review.PlaceID, review.Rating, review.ReviewText,
	).Scan(&review.ID, &review.Date)
	if err != nil {
		return fmt.Errorf("スポットレビューの作成に失敗しました: %w", err)
	}
	return nil
}

// ListReviews はスポットのレビュー一覧を投稿者情報付きで日時降順に返す。
func (r *PostgresPlaceRepo) ListReviews(ctx context.Context, placeID int64) ([]model.PlaceReviewWithReviewer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.place_id, r.rating, r.review_text, r.date,
			`+reviewerColumns+`
		 FROM place_reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.place_id = $1
		 ORDER BY r.date DESC`,
		placeID,
	)
	if err != nil {
		return nil, fmt.Errorf("スポットレビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []model.PlaceReviewWithReviewer
	for rows.Next() {
		rv := model.PlaceReviewWithReviewer{Reviewer: &model.Reviewer{}}
		dest := []any{&rv.ID, &rv.UserID, &rv.PlaceID, &rv.Rating, &rv.ReviewText, &rv.Date}
		dest = append(dest, reviewerFields(rv.Reviewer)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan place review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// ListReviewsByUser は指定ユーザーが投稿したスポットレビュー一覧を返す。
func (r *PostgresPlaceRepo) ListReviewsByUser(ctx context.Context, userID int64) ([]model.PlaceReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, place_id, rating, review_text, date
		 FROM place_reviews WHERE user_id = $1 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list place reviews by user: %w", err)
	}
	defer rows.Close()

	var reviews []model.PlaceReview
	for rows.Next() {
		var rv model.PlaceReview
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.PlaceID, &rv.Rating, &rv.ReviewText, &rv.Date); err != nil {
			return nil, fmt.Errorf("failed to scan place review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// DeleteReview は本人投稿のスポットレビューを削除する。
func (r *PostgresPlaceRepo) DeleteReview(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM place_reviews WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("スポットレビューの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return classifyMissingReview(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM place_reviews WHERE id = $1)`, id)
	}
	return nil
}

// compile-time interface check
var _ PlaceRepository = (*PostgresPlaceRepo)(nil)
