package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/abroadly/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// userColumns はユーザー行の取得に使用するカラム列。scanUserと対で管理する。
const userColumns = `id, email, created_at,
	first_name, last_name, age, institution, majors, minors, profile_completed,
	study_abroad_status, program_name, program_city, program_country, program_term,
	onboarding_completed`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// scanUser は1行をmodel.Userに読み取る。majors/minorsはJSONB配列をデコードする。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var majors, minors []byte
	err := row.Scan(
		&user.ID, &user.Email, &user.CreatedAt,
		&user.FirstName, &user.LastName, &user.Age, &user.Institution,
		&majors, &minors, &user.ProfileCompleted,
		&user.StudyAbroadStatus, &user.ProgramName, &user.ProgramCity,
		&user.ProgramCountry, &user.ProgramTerm, &user.OnboardingCompleted,
	)
	if err != nil {
		return nil, err
	}
	if majors != nil {
		if err := json.Unmarshal(majors, &user.Majors); err != nil {
			return nil, fmt.Errorf("failed to decode majors: %w", err)
		}
	}
	if minors != nil {
		if err := json.Unmarshal(minors, &user.Minors); err != nil {
			return nil, fmt.Errorf("failed to decode minors: %w", err)
		}
	}
	return user, nil
}

// jsonbStrings は文字列スライスをJSONBパラメータに変換する。nilはNULLになる。
func jsonbStrings(values []string) (any, error) {
	if values == nil {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(b), nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByIDAndEmail はIDとメールアドレスの両方が一致するユーザーを取得する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByIDAndEmail(ctx context.Context, id int64, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND email = $2`,
		id, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID and email: %w", err)
	}
	return user, nil
}

// FindOrCreateByEmail はメールアドレスでユーザーを取得し、存在しなければ作成する。
// 同時実行でINSERTが一意制約違反になった場合は既存行を読み直して返す。
func (r *PostgresUserRepo) FindOrCreateByEmail(ctx context.Context, email string) (*model.User, error) {
	if user, err := r.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if user != nil {
		return user, nil
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (email) VALUES ($1) RETURNING `+userColumns,
		email,
	))
	if isUniqueViolation(err) {
		// 別リクエストが先に同じメールアドレスで作成した場合は既存行を採用する
		existing, ferr := r.FindByEmail(ctx, email)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("ユーザーの再取得に失敗しました: %w", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return user, nil
}

// UpdateProfile はプロフィールを部分更新し、更新後のユーザーを返す。
// updateのnilフィールドは変更しない。対象が存在しない場合はErrNotFound。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error) {
	majors, err := jsonbStrings(update.Majors)
	if err != nil {
		return nil, err
	}
	minors, err := jsonbStrings(update.Minors)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			age = COALESCE($4, age),
			institution = COALESCE($5, institution),
			majors = COALESCE($6::jsonb, majors),
			minors = COALESCE($7::jsonb, minors),
			profile_completed = COALESCE($8, profile_completed),
			study_abroad_status = COALESCE($9, study_abroad_status),
			program_name = COALESCE($10, program_name),
			program_city = COALESCE($11, program_city),
			program_country = COALESCE($12, program_country),
			program_term = COALESCE($13, program_term),
			onboarding_completed = COALESCE($14, onboarding_completed)
		 WHERE id = $1
		 RETURNING `+userColumns,
		id,
		update.FirstName, update.LastName, update.Age, update.Institution,
		majors, minors, update.ProfileCompleted,
		update.StudyAbroadStatus, update.ProgramName, update.ProgramCity,
		update.ProgramCountry, update.ProgramTerm, update.OnboardingCompleted,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
