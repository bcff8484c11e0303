package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/abroadly/internal/model"
)

// rowScanner は*sql.Rowと*sql.Rowsを共通に扱うための最小インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// reviewerColumns はレビュー投稿者の公開情報カラム列（usersのエイリアスuを前提とする）。
const reviewerColumns = `u.id, u.first_name, u.last_name, u.institution,
	u.study_abroad_status, u.program_name, u.program_city, u.program_country, u.program_term`

// reviewerFields はreviewerColumnsに対応するスキャン先を返す。
func reviewerFields(rev *model.Reviewer) []any {
	return []any{
		&rev.ID, &rev.FirstName, &rev.LastName, &rev.Institution,
		&rev.StudyAbroadStatus, &rev.ProgramName, &rev.ProgramCity,
		&rev.ProgramCountry, &rev.ProgramTerm,
	}
}

// programWithRatingColumns はプログラムと評価サマリの取得に使用するカラム列。
const programWithRatingColumns = `p.id, p.user_id, p.program_name, p.institution,
	p.city, p.country, p.cost, p.housing_type, p.location, p.duration, p.description,
	p.created_at, ROUND(AVG(r.rating)::numeric, 1)::float8, COUNT(r.id)`

// PostgresProgramRepo はPostgreSQLを使用したプログラムリポジトリ。
type PostgresProgramRepo struct {
	db *sql.DB
}

// NewPostgresProgramRepo はPostgresProgramRepoを生成する。
func NewPostgresProgramRepo(db *sql.DB) *PostgresProgramRepo {
	return &PostgresProgramRepo{db: db}
}

func scanProgramWithRating(row rowScanner) (*model.ProgramWithRating, error) {
	p := &model.ProgramWithRating{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.ProgramName, &p.Institution,
		&p.City, &p.Country, &p.Cost, &p.HousingType, &p.Location, &p.Duration,
		&p.Description, &p.CreatedAt, &p.AverageRating, &p.ReviewCount,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create はプログラムを作成し、IDと作成日時を設定する。
func (r *PostgresProgramRepo) Create(ctx context.Context, program *model.Program) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO programs (user_id, program_name, institution, city, country,
			cost, housing_type, location, duration, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		program.UserID, program.ProgramName, program.Institution, program.City,
		program.Country, program.Cost, program.HousingType, program.Location,
		program.Duration, program.Description,
	).Scan(&program.ID, &program.CreatedAt)
	if err != nil {
		return fmt.Errorf("プログラムの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのプログラムを評価サマリ付きで取得する。見つからない場合はnilを返す。
func (r *PostgresProgramRepo) FindByID(ctx context.Context, id int64) (*model.ProgramWithRating, error) {
	program, err := scanProgramWithRating(r.db.QueryRowContext(ctx,
		`SELECT `+programWithRatingColumns+`
		 FROM programs p
		 LEFT JOIN program_reviews r ON r.program_id = p.id
		 WHERE p.id = $1
		 GROUP BY p.id`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find program by ID: %w", err)
	}
	return program, nil
}

// List は検索条件に合致するプログラム一覧を評価サマリ付きで返す。
// 検索語はプログラム名・学校名・説明文に対する部分一致。
func (r *PostgresProgramRepo) List(ctx context.Context, filter ProgramFilter) ([]model.ProgramWithRating, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+programWithRatingColumns+`
		 FROM programs p
		 LEFT JOIN program_reviews r ON r.program_id = p.id
		 WHERE ($1 = '' OR p.city ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR p.country ILIKE '%' || $2 || '%')
		   AND ($3 = '' OR p.program_name ILIKE '%' || $3 || '%'
		        OR p.institution ILIKE '%' || $3 || '%'
		        OR p.description ILIKE '%' || $3 || '%')
		 GROUP BY p.id
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $4 OFFSET $5`,
		filter.City, filter.Country, filter.Search, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("プログラム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var programs []model.ProgramWithRating
	for rows.Next() {
		p, err := scanProgramWithRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, *p)
	}
	return programs, rows.Err()
}

// ListByUser は指定ユーザーが投稿したプログラム一覧を返す。
func (r *PostgresProgramRepo) ListByUser(ctx context.Context, userID int64) ([]model.ProgramWithRating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+programWithRatingColumns+`
		 FROM programs p
		 LEFT JOIN program_reviews r ON r.program_id = p.id
		 WHERE p.user_id = $1
		 GROUP BY p.id
		 ORDER BY p.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのプログラム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var programs []model.ProgramWithRating
	for rows.Next() {
		p, err := scanProgramWithRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, *p)
	}
	return programs, rows.Err()
}

// Update はプログラム情報を更新する。対象が存在しない場合はErrNotFound。
func (r *PostgresProgramRepo) Update(ctx context.Context, program *model.Program) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE programs SET program_name = $2, institution = $3, city = $4,
			country = $5, cost = $6, housing_type = $7, location = $8,
			duration = $9, description = $10
		 WHERE id = $1`,
		program.ID, program.ProgramName, program.Institution, program.City,
		program.Country, program.Cost, program.HousingType, program.Location,
		program.Duration, program.Description,
	)
	if err != nil {
		return fmt.Errorf("プログラムの更新に失敗しました: %w", err)
	}
	return requireRowAffected(result)
}

// Delete は指定IDのプログラムを削除する。
// レビューとブックマークも同一トランザクションで削除する。
func (r *PostgresProgramRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM program_reviews WHERE program_id = $1`,
		`DELETE FROM course_reviews WHERE program_id = $1`,
		`DELETE FROM housing_reviews WHERE program_id = $1`,
		`DELETE FROM program_bookmarks WHERE program_id = $1`,
		`UPDATE messages SET related_program_id = NULL WHERE related_program_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("プログラム関連データの削除に失敗しました: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("プログラムの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// requireRowAffected は更新・削除結果が0行の場合にErrNotFoundを返す。
func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// classifyMissingReview は本人条件付きの削除が空振りした原因を切り分ける。
// existsQueryはIDのみを受けるEXISTS問い合わせで、レビュー自体が
// 残っていれば他人の投稿なのでErrForbidden、なければErrNotFoundを返す。
func classifyMissingReview(ctx context.Context, db *sql.DB, existsQuery string, id int64) error {
	var exists bool
	if err := db.QueryRowContext(ctx, existsQuery, id).Scan(&exists); err != nil {
		return fmt.Errorf("レビューの存在確認に失敗しました: %w", err)
	}
	if exists {
		return ErrForbidden
	}
	return ErrNotFound
}

// CreateProgramReview はプログラムレビューを作成し、IDと日時を設定する。
func (r *PostgresProgramRepo) CreateProgramReview(ctx context.Context, review *model.ProgramReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO program_reviews (user_id, program_id, rating, review_text)
		 VALUES ($1, $2, $3, $4) RETURNING id, date`,
		review.UserID, review.ProgramID, review.Rating, review.ReviewText,
	).Scan(&review.ID, &review.Date)
	if err != nil {
		return fmt.Errorf("プログラムレビューの作成に失敗しました: %w", err)
	}
	return nil
}

// ListProgramReviews はプログラムのレビュー一覧を投稿者情報付きで日時降順に返す。
func (r *PostgresProgramRepo) ListProgramReviews(ctx context.Context, programID int64) ([]model.ProgramReviewWithReviewer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.program_id, r.rating, r.review_text, r.date,
			`+reviewerColumns+`
		 FROM program_reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.program_id = $1
		 ORDER BY r.date DESC`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("プログラムレビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []model.ProgramReviewWithReviewer
	for rows.Next() {
		rv := model.ProgramReviewWithReviewer{Reviewer: &model.Reviewer{}}
		dest := []any{&rv.ID, &rv.UserID, &rv.ProgramID, &rv.Rating, &rv.ReviewText, &rv.Date}
		dest = append(dest, reviewerFields(rv.Reviewer)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan program review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// ListProgramReviewsByUser は指定ユーザーが投稿したプログラムレビュー一覧を返す。
func (r *PostgresProgramRepo) ListProgramReviewsByUser(ctx context.Context, userID int64) ([]model.ProgramReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, program_id, rating, review_text, date
		 FROM program_reviews WHERE user_id = $1 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list program reviews by user: %w", err)
	}
	defer rows.Close()

	var reviews []model.ProgramReview
	for rows.Next() {
		var rv model.ProgramReview
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ProgramID, &rv.Rating, &rv.ReviewText, &rv.Date); err != nil {
			return nil, fmt.Errorf("failed to scan program review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// DeleteProgramReview は本人投稿のプログラムレビューを削除する。
func (r *PostgresProgramRepo) DeleteProgramReview(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM program_reviews WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("プログラムレビューの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return classifyMissingReview(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM program_reviews WHERE id = $1)`, id)
	}
	return nil
}

// CreateCourseReview は授業レビューを作成し、IDと日時を設定する。
func (r *PostgresProgramRepo) CreateCourseReview(ctx context.Context, review *model.CourseReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO course_reviews (user_id, program_id, course_name, instructor_name, rating, review_text)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, date`,
		review.UserID, review.ProgramID, review.CourseName, review.InstructorName,
		review.Rating, review.ReviewText,
	).Scan(&review.ID, &review.Date)
	if err != nil {
		return fmt.Errorf("授業レビューの作成に失敗しました: %w", err)
	}
	return nil
}

// ListCourseReviews はプログラムの授業レビュー一覧を投稿者情報付きで返す。
func (r *PostgresProgramRepo) ListCourseReviews(ctx context.Context, programID int64) ([]model.CourseReviewWithReviewer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.program_id, r.course_name, r.instructor_name,
			r.rating, r.review_text, r.date,
			`+reviewerColumns+`
		 FROM course_reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.program_id = $1
		 ORDER BY r.date DESC`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("授業レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []model.CourseReviewWithReviewer
	for rows.Next() {
		rv := model.CourseReviewWithReviewer{Reviewer: &model.Reviewer{}}
		dest := []any{&rv.ID, &rv.UserID, &rv.ProgramID, &rv.CourseName,
			&rv.InstructorName, &rv.Rating, &rv.ReviewText, &rv.Date}
		dest = append(dest, reviewerFields(rv.Reviewer)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan course review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// ListCourseReviewsByUser は指定ユーザーが投稿した授業レビュー一覧を返す。
func (r *PostgresProgramRepo) ListCourseReviewsByUser(ctx context.Context, userID int64) ([]model.CourseReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, program_id, course_name, instructor_name, rating, review_text, date
		 FROM course_reviews WHERE user_id = $1 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list course reviews by user: %w", err)
	}
	defer rows.Close()

	var reviews []model.CourseReview
	for rows.Next() {
		var rv model.CourseReview
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ProgramID, &rv.CourseName,
			&rv.InstructorName, &rv.Rating, &rv.ReviewText, &rv.Date); err != nil {
			return nil, fmt.Errorf("failed to scan course review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// DeleteCourseReview は本人投稿の授業レビューを削除する。
func (r *PostgresProgramRepo) DeleteCourseReview(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM course_reviews WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("授業レビューの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return classifyMissingReview(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM course_reviews WHERE id = $1)`, id)
	}
	return nil
}

// CreateHousingReview は住居レビューを作成し、IDと日時を設定する。
func (r *PostgresProgramRepo) CreateHousingReview(ctx context.Context, review *model.HousingReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO housing_reviews (user_id, program_id, housing_description, rating, review_text)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, date`,
		review.UserID, review.ProgramID, review.HousingDescription,
		review.Rating, review.ReviewText,
	).Scan(&review.ID, &review.Date)
	if err != nil {
		return fmt.Errorf("住居レビューの作成に失敗しました: %w", err)
	}
	return nil
}

// ListHousingReviews はプログラムの住居レビュー一覧を投稿者情報付きで返す。
func (r *PostgresProgramRepo) ListHousingReviews(ctx context.Context, programID int64) ([]model.HousingReviewWithReviewer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.program_id, r.housing_description,
			r.rating, r.review_text, r.date,
			`+reviewerColumns+`
		 FROM housing_reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.program_id = $1
		 ORDER BY r.date DESC`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("住居レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []model.HousingReviewWithReviewer
	for rows.Next() {
		rv := model.HousingReviewWithReviewer{Reviewer: &model.Reviewer{}}
		dest := []any{&rv.ID, &rv.UserID, &rv.ProgramID, &rv.HousingDescription,
			&rv.Rating, &rv.ReviewText, &rv.Date}
		dest = append(dest, reviewerFields(rv.Reviewer)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan housing review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// ListHousingReviewsByUser は指定ユーザーが投稿した住居レビュー一覧を返す。
func (r *PostgresProgramRepo) ListHousingReviewsByUser(ctx context.Context, userID int64) ([]model.HousingReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, program_id, housing_description, rating, review_text, date
		 FROM housing_reviews WHERE user_id = $1 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list housing reviews by user: %w", err)
	}
	defer rows.Close()

	var reviews []model.HousingReview
	for rows.Next() {
		var rv model.HousingReview
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ProgramID, &rv.HousingDescription,
			&rv.Rating, &rv.ReviewText, &rv.Date); err != nil {
			return nil, fmt.Errorf("failed to scan housing review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// DeleteHousingReview は本人投稿の住居レビューを削除する。
func (r *PostgresProgramRepo) DeleteHousingReview(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM housing_reviews WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("住居レビューの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return classifyMissingReview(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM housing_reviews WHERE id = $1)`, id)
	}
	return nil
}

// compile-time interface check
var _ ProgramRepository = (*PostgresProgramRepo)(nil)
