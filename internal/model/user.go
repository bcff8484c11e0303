// Package model はドメインモデルを定義する。
package model

import "time"

// StudyAbroadStatus はユーザーの留学ステータスとして有効な値。
const (
	StatusProspective = "prospective"
	StatusCurrent     = "current"
	StatusFormer      = "former"
)

// User はサービス利用ユーザーを表す。
// メールアドレスはマジックリンク認証で検証済みのもののみが登録され、
// 小文字に正規化された上で一意制約が課される。
type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time

	// プロフィール項目（オンボーディングで入力される）
	FirstName        *string
	LastName         *string
	Age              *int
	Institution      *string
	Majors           []string
	Minors           []string
	ProfileCompleted bool

	// 留学ステータス項目
	StudyAbroadStatus   *string // prospective / current / former
	ProgramName         *string
	ProgramCity         *string
	ProgramCountry      *string
	ProgramTerm         *string
	OnboardingCompleted bool
}

// DisplayName はメッセージ表示用のユーザー名を返す。
// 姓名が未設定の場合はメールアドレスのローカル部を使用する。
func (u *User) DisplayName() string {
	if u.FirstName != nil && u.LastName != nil {
		return *u.FirstName + " " + *u.LastName
	}
	if u.FirstName != nil {
		return *u.FirstName
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}

// ProfileUpdate はプロフィール部分更新の入力を表す。
// nilのフィールドは変更しない。
type ProfileUpdate struct {
	FirstName           *string
	LastName            *string
	Age                 *int
	Institution         *string
	Majors              []string
	Minors              []string
	ProfileCompleted    *bool
	StudyAbroadStatus   *string
	ProgramName         *string
	ProgramCity         *string
	ProgramCountry      *string
	ProgramTerm         *string
	OnboardingCompleted *bool
}
